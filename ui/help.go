package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelpModal(width, height int) string {
	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("agentui - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	row := func(keys, desc string) string {
		return fmt.Sprintf("• %-13s %s", keys, desc)
	}

	lists := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Model & Thread Lists"),
		row("j/k ↑/↓", "Navigate"),
		row("Enter", "Select"),
		row("/", "Fuzzy filter"),
		row("n", "New thread"),
		row("r", "Refresh list"),
		row("Esc", "Back / close filter"),
		row("q", "Quit"),
	)

	global := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Anywhere"),
		row("Ctrl+C", "Quit"),
		row("?/Alt+H", "Toggle this help"),
	)

	chat := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Chat"),
		row("Enter", "Send message"),
		row("Alt+Enter", "New line"),
		row("Ctrl+T", "Toggle agent mode"),
		row("Ctrl+Y", "Copy last reply"),
		row("PgUp/PgDn", "Scroll"),
		row("exit / quit", "End the session"),
	)

	columnStyle := lipgloss.NewStyle().Width(42).PaddingLeft(4)

	twoColumns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lists, "", global)),
		columnStyle.Render(chat),
	)

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Render("Press Esc to close this help")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		twoColumns,
		"",
		footer,
	)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox.Render(content),
	)
}
