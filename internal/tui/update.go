package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/live"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/stats"
	"github.com/julianstephens/streaks/internal/tracker"
	"github.com/julianstephens/streaks/internal/tui/components/goallist"
	"github.com/julianstephens/streaks/internal/tui/components/grid"
)

const chromeHeight = 6

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h := max(msg.Height-chromeHeight, 1)
		m.goalList.SetSize(msg.Width-4, h)
		m.detail.SetSize(msg.Width-4, h)
		return m, nil

	case goalsMsg:
		m.goalList.SetGoals(msg)
		return m, m.bridge.wait()

	case detailMsg:
		if m.current != nil && m.current.ID == msg.Goal.ID {
			m.current = &msg.Goal
			m.detail.SetData(m.detailData(tracker.GoalDetail(msg)))
		}
		return m, m.bridge.wait()

	case liveErrMsg:
		if errors.Is(msg.err, apperrors.ErrNotFound) && m.state == StateDetail {
			m.closeDetail()
			m.status = "Goal no longer exists"
		} else {
			m.status = "Error: " + msg.err.Error()
		}
		return m, m.bridge.wait()

	case recordedMsg:
		switch {
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
		case !msg.recorded:
			m.status = "Already recorded today"
		default:
			m.status = fmt.Sprintf("Recorded %+d", msg.delta)
		}
		return m, nil

	case goalCreatedMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = "Goal created"
		}
		return m, nil

	case goalDeletedMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		if m.current != nil && m.current.ID == msg.id {
			m.closeDetail()
		}
		m.status = "Goal deleted"
		return m, nil
	}

	switch m.state {
	case StateAddGoal:
		return m.updateForm(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	case StateDetail:
		return m.updateDetail(msg)
	}
	return m.updateGoals(msg)
}

func (m Model) updateGoals(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case goallist.AddGoalMsg:
		return m.openForm()
	case goallist.OpenGoalMsg:
		return m.openDetail(msg.Goal), nil
	case goallist.DeleteGoalMsg:
		return m.confirmDelete(msg.Goal), nil
	case goallist.RecordMsg:
		return m, m.record(msg.GoalID, msg.Delta)
	}

	var cmd tea.Cmd
	m.goalList, cmd = m.goalList.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.current != nil {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.closeDetail()
			return m, nil
		case key.Matches(msg, m.keys.Inc):
			return m, m.record(m.current.ID, 1)
		case key.Matches(msg, m.keys.Dec):
			return m, m.record(m.current.ID, -1)
		case key.Matches(msg, m.keys.Del):
			return m.confirmDelete(*m.current), nil
		}
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || m.goalToDelete == nil {
		return m, nil
	}
	switch {
	case key.Matches(km, m.keys.Yes):
		id := m.goalToDelete.ID
		m.goalToDelete = nil
		m.state = m.returnState
		svc := m.svc
		return m, func() tea.Msg {
			return goalDeletedMsg{id: id, err: svc.DeleteGoal(context.Background(), id)}
		}
	case key.Matches(km, m.keys.No):
		m.goalToDelete = nil
		m.state = m.returnState
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.Type == tea.KeyEsc {
		m.state = StateGoals
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		in, err := m.goalForm.Input()
		m.state = StateGoals
		m.form = nil
		if err != nil {
			m.status = "Error: " + err.Error()
			return m, nil
		}
		svc := m.svc
		return m, func() tea.Msg {
			id, err := svc.AddGoal(context.Background(), in)
			return goalCreatedMsg{id: id, err: err}
		}
	case huh.StateAborted:
		m.state = StateGoals
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) openForm() (tea.Model, tea.Cmd) {
	m.goalForm = &GoalFormModel{}
	m.form = NewGoalForm(m.goalForm)
	m.state = StateAddGoal
	m.status = ""
	return m, m.form.Init()
}

func (m Model) openDetail(goal models.Goal) Model {
	m.current = &goal
	m.state = StateDetail
	m.status = ""
	m.detail.Clear()

	b := m.bridge
	b.setDetail(m.svc.GoalLive(goal.ID,
		func(d tracker.GoalDetail) { b.send(detailMsg(d)) },
		live.WithName("tui-detail"),
		live.OnError(func(err error) { b.send(liveErrMsg{err: err}) }),
	))
	return m
}

func (m *Model) closeDetail() {
	m.bridge.setDetail(nil)
	m.current = nil
	m.detail.Clear()
	m.state = StateGoals
}

func (m Model) confirmDelete(goal models.Goal) Model {
	m.goalToDelete = &goal
	m.returnState = m.state
	m.state = StateConfirmDelete
	return m
}

func (m Model) record(goalID string, delta int) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		_, recorded, err := svc.AddEvent(context.Background(), goalID, delta)
		return recordedMsg{delta: delta, recorded: recorded, err: err}
	}
}

func (m Model) detailData(d tracker.GoalDetail) grid.Data {
	now := m.svc.Now()
	agg := stats.Compute(d.Events, now)
	return grid.Data{
		Goal:     d.Goal,
		Grid:     stats.BuildGrid(d.Goal.CreatedAt, d.Events, m.gridRows, now),
		Stats:    agg,
		Week:     stats.Week(d.Events, now),
		Progress: stats.BenchmarkProgress(agg.NetScore, d.Goal.Benchmark),
	}
}
