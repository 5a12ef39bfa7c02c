// Package tui is the interactive terminal view: a live goal list, a detail
// screen with the calendar grid, and quick success/miss recording.
package tui

import (
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streaks/internal/live"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/tracker"
	"github.com/julianstephens/streaks/internal/tui/components/goallist"
	"github.com/julianstephens/streaks/internal/tui/components/grid"
)

type SessionState int

const (
	StateGoals SessionState = iota
	StateDetail
	StateAddGoal
	StateConfirmDelete
)

// Messages produced by live subscriptions and background commands.
type (
	goalsMsg   []models.Goal
	detailMsg  tracker.GoalDetail
	liveErrMsg struct{ err error }

	recordedMsg struct {
		delta    int
		recorded bool
		err      error
	}
	goalCreatedMsg struct {
		id  string
		err error
	}
	goalDeletedMsg struct {
		id  string
		err error
	}
)

// bridge forwards live deliveries from the hub's scheduler goroutine into
// the bubbletea loop. It is shared by every copy of Model.
type bridge struct {
	updates chan tea.Msg
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex
	goals  *live.Subscription
	detail *live.Subscription
}

func newBridge() *bridge {
	return &bridge{
		updates: make(chan tea.Msg),
		done:    make(chan struct{}),
	}
}

func (b *bridge) send(msg tea.Msg) {
	select {
	case b.updates <- msg:
	case <-b.done:
	}
}

func (b *bridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.updates:
			return msg
		case <-b.done:
			return nil
		}
	}
}

func (b *bridge) setDetail(sub *live.Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detail != nil {
		b.detail.Close()
	}
	b.detail = sub
}

func (b *bridge) close() {
	b.once.Do(func() {
		b.mu.Lock()
		if b.goals != nil {
			b.goals.Close()
		}
		if b.detail != nil {
			b.detail.Close()
		}
		b.mu.Unlock()
		close(b.done)
	})
}

type Model struct {
	svc      *tracker.Service
	gridRows int
	bridge   *bridge

	state    SessionState
	keys     KeyMap
	help     help.Model
	goalList goallist.Model
	detail   grid.Model

	form     *huh.Form
	goalForm *GoalFormModel

	current      *models.Goal
	goalToDelete *models.Goal
	returnState  SessionState

	status   string
	quitting bool
	width    int
	height   int
}

// NewModel subscribes to the goal list. Call Close once the program exits.
func NewModel(svc *tracker.Service, gridRows int) Model {
	m := Model{
		svc:      svc,
		gridRows: gridRows,
		bridge:   newBridge(),
		state:    StateGoals,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		goalList: goallist.New(nil, 0, 0),
		detail:   grid.New(0, 0),
	}

	b := m.bridge
	b.goals = svc.ListGoalsLive(
		func(goals []models.Goal) { b.send(goalsMsg(goals)) },
		live.WithName("tui-goals"),
		live.OnError(func(err error) { b.send(liveErrMsg{err: err}) }),
	)
	return m
}

// Close releases the live subscriptions.
func (m Model) Close() {
	m.bridge.close()
}

func (m Model) ShortHelp() []key.Binding {
	switch m.state {
	case StateDetail:
		return []key.Binding{m.keys.Inc, m.keys.Dec, m.keys.Del, m.keys.Back, m.keys.Quit}
	case StateGoals:
		return []key.Binding{m.keys.Open, m.keys.Inc, m.keys.Dec, m.keys.Add, m.keys.Del, m.keys.Quit, m.keys.Help}
	}
	return []key.Binding{m.keys.Back}
}

func (m Model) FullHelp() [][]key.Binding {
	return m.keys.FullHelp()
}

func (m Model) Init() tea.Cmd {
	return m.bridge.wait()
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(svc *tracker.Service, gridRows int) error {
	m := NewModel(svc, gridRows)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
