package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"agentui/model"
)

func modelFilterTargets(models []model.ModelInfo) []string {
	targets := make([]string, len(models))
	for i, info := range models {
		targets[i] = info.Name + " " + info.Provider
	}
	return targets
}

func (a AppView) visibleModels() []model.ModelInfo {
	indices := a.modelFilter.visible(len(a.models))
	out := make([]model.ModelInfo, len(indices))
	for i, idx := range indices {
		out[i] = a.models[idx]
	}
	return out
}

func (a AppView) renderModelSelector(width, height int) string {
	modalWidth := width - 10
	if modalWidth > 80 {
		modalWidth = 80
	}
	modalHeight := height - 6

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Select Model")

	displayList := a.visibleModels()

	var header string
	switch {
	case a.modelFilter.active:
		header = a.modelFilter.input.View()
	case a.modelsLoading:
		header = a.spinner.View() + " Loading models..."
	case len(a.models) == len(displayList):
		header = fmt.Sprintf("%d models", len(a.models))
	default:
		header = fmt.Sprintf("%d of %d models", len(displayList), len(a.models))
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

	multiProvider := len(a.dataModel.Providers) > 1

	var modelLines []string
	maxLines := modalHeight - 8

	if len(displayList) == 0 {
		emptyMsg := "No models available"
		switch {
		case a.modelsLoading:
			emptyMsg = ""
		case a.modelFilter.active:
			emptyMsg = "No matches found"
		case a.modelsErr != "":
			emptyMsg = a.modelsErr
		}
		modelLines = append(modelLines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(wordWrap(emptyMsg, modalWidth-4)))
	} else {
		start, end := scrollWindow(a.modelIdx, len(displayList), maxLines)
		for i := start; i < end; i++ {
			modelLines = append(modelLines, a.renderModelLine(displayList[i], i == a.modelIdx, multiProvider, modalWidth))
		}
	}

	emptyLine := strings.Repeat(" ", modalWidth)
	modelLines = append([]string{emptyLine}, modelLines...)
	modelLines = append(modelLines, emptyLine)

	var footerText string
	if a.modelFilter.active {
		footerText = FormatFooter("Type", "to filter", "↑/↓", "Navigate", "Enter", "Select", "Esc", "Cancel")
	} else {
		footerText = FormatFooter("/", "Filter", "j/k", "Navigate", "Enter", "Select", "r", "Refresh", "🔧", "Tools", "q", "Quit")
	}
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footerText)

	sections := []string{titleSection, headerSection}
	sections = append(sections, modelLines...)
	sections = append(sections, footerSection)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}

func (a AppView) renderModelLine(info model.ModelInfo, selected, multiProvider bool, modalWidth int) string {
	indicator := "  "
	if selected {
		indicator = "▶ "
	}

	suffix := ""
	if multiProvider && info.Provider != "" {
		suffix = fmt.Sprintf(" (%s)", info.Provider)
	}
	if ModelSupportsTools(info) {
		suffix += " [🔧]"
	}
	current := IsCurrentModel(info, a.dataModel.Selected)
	if current {
		suffix += " (current)"
	}

	size := formatSize(info.Size)

	nameWidth := modalWidth - runewidth.StringWidth(indicator) - runewidth.StringWidth(suffix) - runewidth.StringWidth(size) - 4
	name := runewidth.Truncate(info.Name, nameWidth, "...")
	left := indicator + name + suffix

	spacing := modalWidth - runewidth.StringWidth(left) - runewidth.StringWidth(size) - 2
	if spacing < 1 {
		spacing = 1
	}
	line := left + strings.Repeat(" ", spacing) + size

	lineStyle := lipgloss.NewStyle()
	if selected {
		lineStyle = SelectedStyle
	} else if current {
		lineStyle = lineStyle.Foreground(accentColor).Bold(true)
	}

	return lipgloss.NewStyle().Width(modalWidth).Render(lineStyle.Render(line))
}

// formatSize renders a model size; cloud models report none.
func formatSize(size int64) string {
	if size <= 0 {
		return ""
	}
	const (
		mb = 1024 * 1024
		gb = 1024 * mb
	)
	if size >= gb {
		return fmt.Sprintf("%.1f GB", float64(size)/float64(gb))
	}
	return fmt.Sprintf("%.0f MB", float64(size)/float64(mb))
}
