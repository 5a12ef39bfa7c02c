package goallist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/models"
)

type AddGoalMsg struct{}

type OpenGoalMsg struct {
	Goal models.Goal
}

type DeleteGoalMsg struct {
	Goal models.Goal
}

// RecordMsg asks for a +1 or -1 on the selected goal.
type RecordMsg struct {
	GoalID string
	Delta  int
}

type Item struct {
	Goal models.Goal
}

func (i Item) Title() string {
	if i.Goal.Icon != "" {
		return i.Goal.Icon + " " + i.Goal.Name
	}
	return i.Goal.Name
}

func (i Item) Description() string {
	desc := fmt.Sprintf("%s | since %s", i.Goal.Frequency, i.Goal.CreatedAt.Format(constants.DateFormat))
	if i.Goal.Benchmark.Valid {
		desc += " | benchmark " + i.Goal.Benchmark.Decimal.String()
	}
	return desc
}

func (i Item) FilterValue() string { return i.Goal.Name }

type KeyMap struct {
	Add    key.Binding
	Open   key.Binding
	Delete key.Binding
	Inc    key.Binding
	Dec    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Inc: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "success"),
		),
		Dec: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "miss"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(goals []models.Goal, width, height int) Model {
	l := list.New(items(goals), list.NewDefaultDelegate(), width, height)
	l.Title = "Goals"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Inc, keys.Dec, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Open, keys.Inc, keys.Dec, keys.Delete}
	}

	return Model{list: l, keys: keys}
}

func items(goals []models.Goal) []list.Item {
	out := make([]list.Item, len(goals))
	for i, g := range goals {
		out[i] = Item{Goal: g}
	}
	return out
}

func (m *Model) SetGoals(goals []models.Goal) {
	m.list.SetItems(items(goals))
}

func (m Model) Len() int {
	return len(m.list.Items())
}

// Selected returns the highlighted goal.
func (m Model) Selected() (models.Goal, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Goal, ok
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddGoalMsg{} }
		case key.Matches(msg, m.keys.Open):
			if g, ok := m.Selected(); ok {
				return m, func() tea.Msg { return OpenGoalMsg{Goal: g} }
			}
		case key.Matches(msg, m.keys.Delete):
			if g, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteGoalMsg{Goal: g} }
			}
		case key.Matches(msg, m.keys.Inc):
			if g, ok := m.Selected(); ok {
				return m, func() tea.Msg { return RecordMsg{GoalID: g.ID, Delta: constants.DeltaSuccess} }
			}
		case key.Matches(msg, m.keys.Dec):
			if g, ok := m.Selected(); ok {
				return m, func() tea.Msg { return RecordMsg{GoalID: g.ID, Delta: constants.DeltaMiss} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No goals yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
