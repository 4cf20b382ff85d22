package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"agentui/config"
)

const (
	titleTimeout  = 30 * time.Second
	maxTitleRunes = 60
	titlePrompt   = "Write a short title (at most six words) for a conversation that starts with the user's message below. " +
		"Reply with the title only, no quotes or punctuation at the end."
)

// SubmitResult tells the UI what a chat submission turned into.
type SubmitResult int

const (
	SubmitIgnored SubmitResult = iota
	SubmitBusy
	SubmitQuit
	SubmitStarted
)

// Submit handles one chat submission. While a run is in flight new
// submissions are rejected; "exit"/"quit" ends the session.
func (m *Model) Submit(input string) (SubmitResult, tea.Cmd) {
	text := strings.TrimSpace(input)
	if text == "" {
		return SubmitIgnored, nil
	}
	if IsQuitCommand(text) {
		m.State = StateExit
		return SubmitQuit, tea.Quit
	}
	if m.Processing {
		return SubmitBusy, nil
	}

	loop, err := m.NewAgentLoop()
	if err != nil {
		m.AppendError(err)
		return SubmitIgnored, nil
	}

	m.Processing = true
	m.runSeq++
	m.AppendDisplay(DisplayUser, text)

	cmds := []tea.Cmd{m.startRun(loop, m.runSeq, text)}
	if ShouldGenerateTitle(append(CloneHistory(m.History), Message{Role: RoleUser, Content: text})) {
		cmds = append(cmds, m.GenerateTitle(m.ThreadID, text))
	}
	return SubmitStarted, tea.Batch(cmds...)
}

// startRun runs the loop on its own goroutine over a copy of the history
// and streams events back through a channel.
func (m *Model) startRun(loop *AgentLoop, runID int, utterance string) tea.Cmd {
	history := CloneHistory(m.History)
	events := make(chan any, 32)

	return func() tea.Msg {
		go func() {
			defer close(events)
			onProgress := func(toolName, status string) {
				events <- AgentProgressMsg{RunID: runID, ToolName: toolName, Status: status, Events: events}
			}
			res := loop.Run(context.Background(), utterance, history, onProgress)
			events <- AgentDoneMsg{RunID: runID, Result: res}
		}()
		return nextAgentEvent(events)
	}
}

// WaitForAgentEvent keeps listening to a running loop.
func WaitForAgentEvent(events <-chan any) tea.Cmd {
	return func() tea.Msg {
		return nextAgentEvent(events)
	}
}

func nextAgentEvent(events <-chan any) tea.Msg {
	ev, ok := <-events
	if !ok {
		return nil
	}
	return ev
}

// FinishAgentRun replaces the session history with the run's result and
// appends the reply (or the failure) to the display log.
func (m *Model) FinishAgentRun(msg AgentDoneMsg) {
	if msg.RunID != m.runSeq {
		return
	}
	m.Processing = false
	res := msg.Result

	m.History = res.History
	m.Usage.Add(res.Usage)

	for _, err := range res.PersistErrs {
		m.AppendError(err)
	}
	if res.Err != nil {
		m.AppendError(res.Err)
		return
	}
	if res.CapReached {
		m.AppendDisplay(DisplayInfo, fmt.Sprintf("stopped after %d steps", res.Iterations))
	}
	m.AppendDisplay(DisplayAssistant, res.FinalText)
}

// HandleProgress adds a progress line to the display log.
func (m *Model) HandleProgress(msg AgentProgressMsg) {
	if msg.RunID != m.runSeq {
		return
	}
	m.AppendDisplay(DisplayTool, FormatProgress(msg.ToolName, msg.Status))
}

// GenerateTitle names a thread from its first user message with a separate
// single-turn call without tools. Failures are logged and fall back to a
// title derived from the message itself.
func (m *Model) GenerateTitle(threadID, firstMessage string) tea.Cmd {
	if m.Store == nil || threadID == "" {
		return nil
	}
	store := m.Store
	provider, err := m.ActiveProvider()
	if err != nil {
		provider = nil
	}
	modelName := m.Selected.Model

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
		defer cancel()

		title := ""
		if provider != nil {
			completion, err := provider.Complete(ctx, CompletionRequest{
				Model:    modelName,
				System:   titlePrompt,
				Messages: []Message{{Role: RoleUser, Content: firstMessage}},
			})
			if err != nil {
				if config.DebugLog != nil {
					config.DebugLog.Warn("title generation failed", "thread", threadID, "err", err)
				}
			} else {
				title = CleanTitle(completion.Text)
			}
		}
		if title == "" {
			title = FallbackTitle(firstMessage)
		}

		if err := store.UpdateThreadTitle(ctx, threadID, title); err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Error("failed to save title", "thread", threadID, "err", err)
			}
			return ThreadTitledMsg{ThreadID: threadID, Err: err}
		}
		return ThreadTitledMsg{ThreadID: threadID, Title: title}
	}
}

// CleanTitle trims a generated title to a single short line.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if idx := strings.IndexAny(title, "\r\n"); idx != -1 {
		title = title[:idx]
	}
	title = strings.TrimPrefix(title, "Title:")
	title = strings.Trim(title, " \t\"'`*#")
	title = strings.TrimRight(title, ".")
	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	return title
}

// FallbackTitle derives a title from the first user message.
func FallbackTitle(firstMessage string) string {
	name := strings.ReplaceAll(firstMessage, "\n", " ")
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("Thread %s", time.Now().Format("Jan 2, 3:04 PM"))
	}
	if runes := []rune(name); len(runes) > 30 {
		name = strings.TrimSpace(string(runes[:30])) + "..."
	}
	return name
}
