package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"agentui/config"
	"agentui/model"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s]+)`)
)

const codeBlockBar = "┃"

func (a *AppView) updateViewportContent(gotoBottom bool) {
	m := a.dataModel
	if len(m.Display) == 0 && !m.Processing {
		a.viewport.SetContent(DimStyle.Render("No messages yet. Start chatting!"))
		return
	}

	var content strings.Builder
	for _, entry := range m.Display {
		content.WriteString(formatEntry(entry))
	}

	if m.Processing {
		content.WriteString(fmt.Sprintf("%s %s\n", a.spinner.View(), DimStyle.Render("Working...")))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func formatEntry(entry model.DisplayEntry) string {
	timestamp := DimStyle.Render(entry.Timestamp.Format("[15:04]"))

	switch entry.Kind {
	case model.DisplayUser:
		return formatUserMessage(timestamp, UserStyle.Render("You"), entry.Text)
	case model.DisplayAssistant:
		body := entry.Rendered
		if body == "" {
			body = entry.Text
		}
		return fmt.Sprintf("%s %s\n%s\n\n", timestamp, AssistantStyle.Render("Assistant"), strings.TrimRight(body, "\n"))
	case model.DisplayTool:
		return fmt.Sprintf("%s %s\n", timestamp, ToolStyle.Render(entry.Text))
	case model.DisplayError:
		return fmt.Sprintf("%s %s\n\n", timestamp, ErrorStyle.Render("✗ "+entry.Text))
	default:
		return fmt.Sprintf("%s %s\n\n", timestamp, DimStyle.Italic(true).Render(entry.Text))
	}
}

func formatUserMessage(timestamp, role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")

	return result.String()
}

// renderMarkdownCmd renders one assistant entry off the Update loop.
func renderMarkdownCmd(entryIndex int, content string, width int) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		rendered := renderMarkdown(content, width)
		if config.DebugLog != nil {
			config.DebugLog.Debug("markdown rendered", "entry", entryIndex, "chars", len(content), "elapsed", time.Since(start))
		}
		return model.MarkdownRenderedMsg{EntryIndex: entryIndex, Source: content, Rendered: rendered}
	}
}

// renderMarkdown renders content with go-term-markdown. Autolink is off so
// plain URLs stay plain and the terminal can make them clickable.
func renderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}
	content = mdLinkRegex.ReplaceAllString(content, "$2")

	extensions := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(extensions)
	r := markdown.NewRenderer(width-4, 0)
	rendered := gomarkdown.Render(p.Parse([]byte(content)), r)

	return postProcessMarkdown(string(rendered), width)
}

func postProcessMarkdown(rendered string, width int) string {
	// Inline code: blue background -> red text
	rendered = inlineCodeRegex.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")
	rendered = colorURLs(rendered)
	return frameCodeBlocks(rendered, width)
}

func colorURLs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if !strings.Contains(line, codeBlockBar) {
			lines[i] = urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m")
		}
	}
	return strings.Join(lines, "\n")
}

// frameCodeBlocks replaces the renderer's per-line bar on code blocks with
// a dim top and bottom rule.
func frameCodeBlocks(s string, width int) string {
	const darkGray, reset = "\x1b[90m", "\x1b[0m"

	ruleWidth := width - 4
	if ruleWidth < 10 {
		ruleWidth = 10
	}
	label := "[code]"
	leftLen := (ruleWidth - len(label)) / 2
	rightLen := ruleWidth - len(label) - leftLen
	top := darkGray + strings.Repeat("━", leftLen) + reset + label + darkGray + strings.Repeat("━", rightLen) + reset
	bottom := darkGray + strings.Repeat("━", ruleWidth) + reset

	var result []string
	inCodeBlock := false
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, codeBlockBar) {
			if !inCodeBlock {
				inCodeBlock = true
				result = append(result, "", top, "")
			}
			result = append(result, stripCodeBlockPrefix(line))
			continue
		}
		if inCodeBlock {
			result = append(result, "", bottom, "")
			inCodeBlock = false
		}
		result = append(result, line)
	}
	if inCodeBlock {
		result = append(result, "", bottom, "")
	}

	return strings.Join(result, "\n")
}

func stripCodeBlockPrefix(line string) string {
	idx := strings.Index(line, codeBlockBar)
	if idx < 0 {
		return line
	}
	after := idx + len(codeBlockBar)
	if after < len(line) && line[after] == ' ' {
		after++
	}
	return line[after:]
}

// renderPendingMarkdown issues renders for assistant entries that have none
// yet. Used after entering a thread and after a resize.
func (a AppView) renderPendingMarkdown() tea.Cmd {
	if a.width == 0 {
		return nil
	}
	var cmds []tea.Cmd
	for i, entry := range a.dataModel.Display {
		if entry.Kind == model.DisplayAssistant && entry.Rendered == "" {
			cmds = append(cmds, renderMarkdownCmd(i, entry.Text, a.width))
		}
	}
	return tea.Batch(cmds...)
}
