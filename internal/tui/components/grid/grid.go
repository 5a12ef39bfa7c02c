package grid

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/stats"
)

const (
	glyphFilled = "■"
	glyphDot    = "·"
)

var (
	positiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	negativeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	balancedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	noActivityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	preStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	todayStyle      = lipgloss.NewStyle().Underline(true).Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(12)
)

var weekdays = [constants.DaysPerWeek]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// Data is everything the detail view shows for one goal.
type Data struct {
	Goal     models.Goal
	Grid     stats.Grid
	Stats    stats.Aggregates
	Week     [constants.DaysPerWeek]int
	Progress decimal.NullDecimal
}

type Model struct {
	viewport viewport.Model
	data     *Data
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.data == nil {
		return "Loading..."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.render()
}

func (m *Model) SetData(d Data) {
	m.data = &d
	m.render()
}

func (m *Model) Clear() {
	m.data = nil
	m.viewport.SetContent("")
}

func (m *Model) render() {
	if m.data == nil {
		return
	}
	m.viewport.SetContent(Render(*m.data))
}

// Render draws the title, the calendar grid and the aggregates.
func Render(d Data) string {
	var b strings.Builder

	title := d.Goal.Name
	if d.Goal.Icon != "" {
		title = d.Goal.Icon + " " + title
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString(headerStyle.Render(fmt.Sprintf("  (%s)", d.Goal.Frequency)))
	b.WriteString("\n\n")

	b.WriteString(RenderGrid(d.Grid))
	b.WriteString("\n")

	b.WriteString(row("Net score", fmt.Sprintf("%+d", d.Stats.NetScore)))
	b.WriteString(row("Streak", fmt.Sprintf("%d day(s)", d.Stats.Streak)))
	b.WriteString(row("Events", fmt.Sprintf("%d (+%d / -%d)", d.Stats.Total, d.Stats.Positive, d.Stats.Negative)))
	if d.Goal.Benchmark.Valid {
		progress := "n/a"
		if d.Progress.Valid {
			progress = d.Progress.Decimal.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
		}
		b.WriteString(row("Benchmark", fmt.Sprintf("%s (%s)", d.Goal.Benchmark.Decimal.String(), progress)))
	}

	week := make([]string, len(d.Week))
	for i, v := range d.Week {
		week[i] = fmt.Sprintf("%s %+d", weekdays[i], v)
	}
	b.WriteString(row("This week", strings.Join(week, "  ")))

	return b.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + value + "\n"
}

// RenderGrid draws one line per week under a weekday header.
func RenderGrid(g stats.Grid) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.Join(weekdays[:], " ")))
	b.WriteString("\n")

	for r := 0; r < g.Rows; r++ {
		cells := make([]string, 0, constants.DaysPerWeek)
		for _, c := range g.Week(r) {
			cells = append(cells, cell(c))
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}
	return b.String()
}

func cell(c stats.Cell) string {
	var s string
	switch c.State {
	case stats.CellPositive:
		s = positiveStyle.Render(glyphFilled + glyphFilled)
	case stats.CellNegative:
		s = negativeStyle.Render(glyphFilled + glyphFilled)
	case stats.CellBalanced:
		s = balancedStyle.Render(glyphFilled + glyphFilled)
	case stats.CellNoActivity:
		s = noActivityStyle.Render(glyphFilled + glyphFilled)
	case stats.CellPreCreation:
		s = preStyle.Render(glyphDot + glyphDot)
	default:
		s = "  "
	}
	if c.IsToday {
		s = todayStyle.Render(s)
	}
	return s
}
