package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"agentui/model"
)

const newThreadLabel = "+ New thread"

func threadFilterTargets(threads []model.ThreadSummary) []string {
	targets := make([]string, len(threads))
	for i, t := range threads {
		targets[i] = t.DisplayTitle()
	}
	return targets
}

// threadRows returns the listed threads in display order. Row 0 of the list
// is always the "new thread" entry, so thread row i sits at index i+1.
func (a AppView) threadRows() []model.ThreadSummary {
	threads := a.dataModel.Threads
	indices := a.threadFilter.visible(len(threads))
	out := make([]model.ThreadSummary, len(indices))
	for i, idx := range indices {
		out[i] = threads[idx]
	}
	return out
}

func (a AppView) renderThreadList(width, height int) string {
	modalWidth := width - 10
	if modalWidth > 90 {
		modalWidth = 90
	}
	modalHeight := height - 6

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Threads")

	rows := a.threadRows()

	var header string
	switch {
	case a.threadFilter.active:
		header = a.threadFilter.input.View()
	case a.dataModel.StatusError != "":
		header = ErrorStyle.Render(a.dataModel.StatusError)
	case a.dataModel.CreateGuard.Busy():
		header = a.spinner.View() + " Creating thread..."
	case len(rows) == len(a.dataModel.Threads):
		header = fmt.Sprintf("%d threads", len(rows))
	default:
		header = fmt.Sprintf("%d of %d threads", len(rows), len(a.dataModel.Threads))
	}

	headerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(header)

	var lines []string
	maxLines := modalHeight - 8
	start, end := scrollWindow(a.threadIdx, len(rows)+1, maxLines)
	for i := start; i < end; i++ {
		if i == 0 {
			lines = append(lines, renderThreadRow(newThreadLabel, "", a.threadIdx == 0, modalWidth))
			continue
		}
		t := rows[i-1]
		meta := fmt.Sprintf("%d msgs  %s", t.MessageCount, formatThreadTime(t.UpdatedAt))
		lines = append(lines, renderThreadRow(t.DisplayTitle(), meta, a.threadIdx == i, modalWidth))
	}
	if len(rows) == 0 && a.threadFilter.active {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render("No matches found"))
	}

	emptyLine := strings.Repeat(" ", modalWidth)
	lines = append([]string{emptyLine}, lines...)
	lines = append(lines, emptyLine)

	var footerText string
	if a.threadFilter.active {
		footerText = FormatFooter("Type", "to filter", "↑/↓", "Navigate", "Enter", "Select", "Esc", "Cancel")
	} else {
		footerText = FormatFooter("/", "Filter", "j/k", "Navigate", "Enter", "Select", "n", "New", "r", "Refresh", "q", "Quit")
	}
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footerText)

	sections := []string{titleSection, headerSection}
	sections = append(sections, lines...)
	sections = append(sections, footerSection)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}

func renderThreadRow(title, meta string, selected bool, modalWidth int) string {
	indicator := "  "
	if selected {
		indicator = "▶ "
	}

	titleWidth := modalWidth - runewidth.StringWidth(indicator) - runewidth.StringWidth(meta) - 4
	title = runewidth.Truncate(title, titleWidth, "...")
	left := indicator + title

	spacing := modalWidth - runewidth.StringWidth(left) - runewidth.StringWidth(meta) - 2
	if spacing < 1 {
		spacing = 1
	}
	line := left + strings.Repeat(" ", spacing) + DimStyle.Render(meta)

	if selected {
		line = SelectedStyle.Render(left) + strings.Repeat(" ", spacing) + DimStyle.Render(meta)
	}
	return lipgloss.NewStyle().Width(modalWidth).Render(line)
}

func formatThreadTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 2006")
}

func (a AppView) renderThreadManage(width, height int) string {
	m := a.dataModel

	var lines []string
	optionStyle := lipgloss.NewStyle().Width(40)
	for i, option := range manageOptions {
		line := "  " + option
		if i == a.manageIdx {
			line = SelectedStyle.Render("▶ " + option)
		}
		lines = append(lines, lipgloss.PlaceHorizontal(60, lipgloss.Center, optionStyle.Render(line)))
	}

	switch {
	case m.DeleteGuard.Busy():
		lines = append(lines, "", lipgloss.PlaceHorizontal(60, lipgloss.Center, a.spinner.View()+" Deleting..."))
	case m.LoadGuard.Busy():
		lines = append(lines, "", lipgloss.PlaceHorizontal(60, lipgloss.Center, a.spinner.View()+" Loading..."))
	case m.StatusError != "":
		lines = append(lines, "", lipgloss.PlaceHorizontal(60, lipgloss.Center, ErrorStyle.Render(wordWrap(m.StatusError, 56))))
	}

	title := runewidth.Truncate(m.Managed.DisplayTitle(), 50, "...")
	footer := FormatFooter("j/k", "Navigate", "Enter", "Select", "c", "Continue", "d", "Delete", "Esc", "Back")
	return RenderThreeSectionModal(title, lines, footer, ModalTypeInfo, 60, width, height)
}
