package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateGoals:
		content = docStyle.Render(m.goalList.View())
	case StateDetail:
		content = docStyle.Render(m.detail.View())
	case StateAddGoal:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTitle(),
		content,
		statusStyle.Render(m.status),
		m.help.View(m),
	)
}

func (m Model) viewTitle() string {
	title := "Streaks"
	if m.state == StateDetail && m.current != nil {
		title += " / " + m.current.Name
	}
	return titleStyle.Render(title)
}

func (m Model) viewConfirmDelete() string {
	name := ""
	if m.goalToDelete != nil {
		name = m.goalToDelete.Name
	}
	return lipgloss.Place(m.width, max(m.height-chromeHeight, 5),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Delete \""+name+"\" and all of its events?"),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
