package model

import (
	"fmt"
	"strings"
	"time"
)

type DisplayKind int

const (
	DisplayUser DisplayKind = iota
	DisplayAssistant
	DisplayTool
	DisplayError
	DisplayInfo
)

// DisplayEntry is one line (or block) of the chat log shown to the user.
type DisplayEntry struct {
	Kind      DisplayKind
	Text      string
	Rendered  string // Cached markdown rendering for assistant entries
	Timestamp time.Time
}

// DisplayFromHistory converts a history into chat log entries. Tool results
// are not shown verbatim, only the call that produced them.
func DisplayFromHistory(history []Message) []DisplayEntry {
	var entries []DisplayEntry
	for _, msg := range history {
		switch msg.Role {
		case RoleUser:
			entries = append(entries, DisplayEntry{Kind: DisplayUser, Text: msg.Content, Timestamp: msg.Timestamp})
		case RoleAssistant:
			for _, call := range msg.ToolCalls {
				entries = append(entries, DisplayEntry{Kind: DisplayTool, Text: FormatToolCall(call), Timestamp: msg.Timestamp})
			}
			if strings.TrimSpace(msg.Content) != "" && len(msg.ToolCalls) == 0 {
				entries = append(entries, DisplayEntry{Kind: DisplayAssistant, Text: msg.Content, Timestamp: msg.Timestamp})
			}
		}
	}
	return entries
}

// FormatToolCall renders a call as name(args) with long arguments cut.
func FormatToolCall(call ToolCall) string {
	args := strings.TrimSpace(call.Arguments)
	const maxArgs = 60
	if runes := []rune(args); len(runes) > maxArgs {
		args = string(runes[:maxArgs]) + "…"
	}
	return fmt.Sprintf("⚙ %s(%s)", call.Name, args)
}

// FormatProgress renders a progress event as a chat log line.
func FormatProgress(toolName, status string) string {
	return fmt.Sprintf("⚙ %s %s", toolName, status)
}

func (m *Model) AppendDisplay(kind DisplayKind, text string) {
	m.Display = append(m.Display, DisplayEntry{Kind: kind, Text: text, Timestamp: time.Now()})
}

// AppendError adds the single annotated line a user-visible failure gets.
func (m *Model) AppendError(err error) {
	m.AppendDisplay(DisplayError, Annotate(err))
}

// LastAssistantText returns the most recent assistant reply in the log.
func (m *Model) LastAssistantText() string {
	for i := len(m.Display) - 1; i >= 0; i-- {
		if m.Display[i].Kind == DisplayAssistant {
			return m.Display[i].Text
		}
	}
	return ""
}
