package ui

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"agentui/config"
	"agentui/model"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return a.handleResize(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		if a.dataModel.State == model.StateChat && a.dataModel.Processing {
			a.updateViewportContent(a.viewport.AtBottom())
		}
		return a, cmd

	case model.ModelsListMsg:
		a.modelsLoading = false
		a.modelFilter.close()
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Error("failed to list models", "err", msg.Err)
			}
			a.modelsErr = model.Annotate(msg.Err)
		} else {
			a.modelsErr = ""
		}
		a.models = msg.Models
		a.modelIdx = a.dataModel.DefaultModelIndex(a.models)
		return a, nil

	case model.ThreadsListMsg:
		a.dataModel.FinishThreadList(msg)
		a.threadIdx = clampIndex(a.threadIdx, len(a.threadRows())+1)
		return a, nil

	case model.ThreadCreatedMsg:
		a.dataModel.FinishCreateThread(msg)
		if a.dataModel.State == model.StateChat {
			return a, a.enterChat()
		}
		return a, nil

	case model.ThreadLoadedMsg:
		a.dataModel.FinishLoadThread(msg)
		switch a.dataModel.State {
		case model.StateChat:
			return a, a.enterChat()
		case model.StateThreadLoading:
			a.threadIdx = 0
			return a, a.dataModel.FetchThreadList()
		}
		return a, nil

	case model.ThreadDeletedMsg:
		if a.dataModel.FinishDeleteThread(msg) {
			a.threadIdx = 0
			a.threadFilter.close()
			return a, a.dataModel.FetchThreadList()
		}
		return a, nil

	case model.ThreadTitledMsg:
		a.dataModel.FinishTitle(msg)
		return a, nil

	case model.AgentProgressMsg:
		a.dataModel.HandleProgress(msg)
		a.updateViewportContent(true)
		return a, model.WaitForAgentEvent(msg.Events)

	case model.AgentDoneMsg:
		a.dataModel.FinishAgentRun(msg)
		a.updateViewportContent(true)
		return a, a.renderPendingMarkdown()

	case model.MarkdownRenderedMsg:
		display := a.dataModel.Display
		if msg.EntryIndex < 0 || msg.EntryIndex >= len(display) {
			return a, nil
		}
		entry := &display[msg.EntryIndex]
		if entry.Kind != model.DisplayAssistant || entry.Text != msg.Source {
			return a, nil
		}
		entry.Rendered = msg.Rendered
		a.updateViewportContent(a.viewport.AtBottom())
		return a, nil

	case model.ClipboardMsg:
		if msg.Err != nil {
			a.flash = "Copy failed: " + msg.Err.Error()
		} else {
			a.flash = "Copied last reply to clipboard"
		}
		return a, nil
	}

	return a, nil
}

func (a AppView) handleResize(msg tea.WindowSizeMsg) (AppView, tea.Cmd) {
	widthChanged := a.width != msg.Width
	a.width = msg.Width
	a.height = msg.Height

	// Title (1), separator (1), textarea (3) and status bar (1)
	viewportHeight := a.height - 6
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	a.viewport.Width = a.width
	a.viewport.Height = viewportHeight
	a.textarea.SetWidth(a.width)
	a.ready = true

	var cmd tea.Cmd
	if widthChanged && a.dataModel.State == model.StateChat {
		for i := range a.dataModel.Display {
			a.dataModel.Display[i].Rendered = ""
		}
		cmd = a.renderPendingMarkdown()
	}
	a.updateViewportContent(true)
	return a, cmd
}

func (a AppView) handleKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if config.DebugLog != nil {
			config.DebugLog.Info("quit requested", "state", a.dataModel.State.String())
		}
		return a, a.dataModel.Quit()
	}

	if a.notice != nil {
		switch msg.String() {
		case "enter", "esc":
			a.notice = nil
		}
		return a, nil
	}

	if a.showHelp {
		switch msg.String() {
		case "esc", "?", "alt+h", "q":
			a.showHelp = false
		}
		return a, nil
	}

	switch a.dataModel.State {
	case model.StateModelSelect:
		return a.handleModelSelectKey(msg)
	case model.StateThreadList:
		return a.handleThreadListKey(msg)
	case model.StateThreadManage:
		return a.handleThreadManageKey(msg)
	case model.StateChat:
		return a.handleChatKey(msg)
	}
	return a, nil
}

func (a AppView) handleModelSelectKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	visible := a.visibleModels()

	if a.modelFilter.active {
		switch msg.String() {
		case "esc":
			a.modelFilter.close()
			a.modelIdx = a.dataModel.DefaultModelIndex(a.models)
			return a, nil
		case "enter":
			return a.confirmModel(visible)
		case "alt+j", "down":
			if a.modelIdx < len(visible)-1 {
				a.modelIdx++
			}
			return a, nil
		case "alt+k", "up":
			if a.modelIdx > 0 {
				a.modelIdx--
			}
			return a, nil
		}
		cmd := a.modelFilter.update(msg, modelFilterTargets(a.models))
		a.modelIdx = clampIndex(a.modelIdx, len(a.visibleModels()))
		return a, cmd
	}

	switch msg.String() {
	case "/":
		a.modelIdx = 0
		return a, a.modelFilter.open(modelFilterTargets(a.models))
	case "j", "down":
		if a.modelIdx < len(visible)-1 {
			a.modelIdx++
		}
	case "k", "up":
		if a.modelIdx > 0 {
			a.modelIdx--
		}
	case "g", "home":
		a.modelIdx = 0
	case "G", "end":
		a.modelIdx = clampIndex(len(visible)-1, len(visible))
	case "enter":
		return a.confirmModel(visible)
	case "r":
		if a.modelsLoading {
			return a, nil
		}
		a.modelsLoading = true
		a.dataModel.ClearModelCache("")
		return a, a.dataModel.FetchAllModels()
	case "?":
		a.showHelp = true
	case "q", "esc":
		return a, a.dataModel.Quit()
	}
	return a, nil
}

func (a AppView) confirmModel(visible []model.ModelInfo) (AppView, tea.Cmd) {
	if a.modelIdx < 0 || a.modelIdx >= len(visible) {
		return a, nil
	}
	a.modelFilter.close()
	a.threadFilter.close()
	a.threadIdx = 0
	return a, a.dataModel.ConfirmModel(visible[a.modelIdx])
}

func (a AppView) handleThreadListKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	rowCount := len(a.threadRows()) + 1

	if a.threadFilter.active {
		switch msg.String() {
		case "esc":
			a.threadFilter.close()
			a.threadIdx = 0
			return a, nil
		case "enter":
			return a.selectThreadRow()
		case "alt+j", "down":
			if a.threadIdx < rowCount-1 {
				a.threadIdx++
			}
			return a, nil
		case "alt+k", "up":
			if a.threadIdx > 0 {
				a.threadIdx--
			}
			return a, nil
		}
		cmd := a.threadFilter.update(msg, threadFilterTargets(a.dataModel.Threads))
		// First match, not the "new thread" row
		if len(a.threadRows()) > 0 {
			a.threadIdx = 1
		} else {
			a.threadIdx = 0
		}
		return a, cmd
	}

	switch msg.String() {
	case "/":
		a.threadIdx = 0
		return a, a.threadFilter.open(threadFilterTargets(a.dataModel.Threads))
	case "j", "down":
		if a.threadIdx < rowCount-1 {
			a.threadIdx++
		}
	case "k", "up":
		if a.threadIdx > 0 {
			a.threadIdx--
		}
	case "g", "home":
		a.threadIdx = 0
	case "G", "end":
		a.threadIdx = rowCount - 1
	case "enter":
		return a.selectThreadRow()
	case "n":
		return a, a.dataModel.CreateThread()
	case "r":
		a.threadIdx = 0
		return a, a.dataModel.ReloadThreads()
	case "?":
		a.showHelp = true
	case "q":
		return a, a.dataModel.Quit()
	}
	return a, nil
}

// selectThreadRow acts on the highlighted row: the "new thread" row creates
// a thread, any other row opens the manage menu.
func (a AppView) selectThreadRow() (AppView, tea.Cmd) {
	if a.threadIdx == 0 {
		return a, a.dataModel.CreateThread()
	}
	rows := a.threadRows()
	if a.threadIdx-1 >= len(rows) {
		return a, nil
	}
	a.threadFilter.close()
	a.manageIdx = 0
	a.dataModel.ManageThread(rows[a.threadIdx-1])
	return a, nil
}

func (a AppView) handleThreadManageKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "j", "down", "tab":
		if a.manageIdx < len(manageOptions)-1 {
			a.manageIdx++
		}
	case "k", "up", "shift+tab":
		if a.manageIdx > 0 {
			a.manageIdx--
		}
	case "enter":
		return a.runManageOption(manageOptions[a.manageIdx])
	case "c":
		return a.runManageOption("Continue")
	case "d":
		return a.runManageOption("Delete")
	case "b", "esc":
		return a.runManageOption("Back")
	case "?":
		a.showHelp = true
	}
	return a, nil
}

func (a AppView) runManageOption(option string) (AppView, tea.Cmd) {
	id := a.dataModel.Managed.ID
	switch option {
	case "Continue":
		return a, a.dataModel.LoadThread(id)
	case "Delete":
		return a, a.dataModel.DeleteThread(id)
	default:
		if a.dataModel.DeleteGuard.Busy() {
			return a, nil
		}
		a.dataModel.BackToThreads()
		a.threadIdx = clampIndex(a.threadIdx, len(a.threadRows())+1)
		return a, nil
	}
}

// enterChat resets the chat widgets for the thread that was just entered.
func (a *AppView) enterChat() tea.Cmd {
	a.textarea.Reset()
	a.flash = ""
	a.updateViewportContent(true)
	return tea.Batch(a.textarea.Focus(), a.renderPendingMarkdown())
}

func (a AppView) handleChatKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	a.flash = ""

	switch msg.String() {
	case "enter":
		return a.submit()

	case "ctrl+t":
		return a.toggleAgentMode()

	case "ctrl+y":
		text := a.dataModel.LastAssistantText()
		if text == "" {
			a.flash = "Nothing to copy yet"
			return a, nil
		}
		return a, copyToClipboard(text)

	case "alt+h":
		a.showHelp = true
		return a, nil

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case "ctrl+home":
		a.viewport.GotoTop()
		return a, nil

	case "ctrl+end":
		a.viewport.GotoBottom()
		return a, nil
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) submit() (AppView, tea.Cmd) {
	input := a.textarea.Value()
	result, cmd := a.dataModel.Submit(input)

	switch result {
	case model.SubmitQuit:
		return a, cmd
	case model.SubmitBusy:
		a.flash = "Still working on the previous message"
		return a, nil
	case model.SubmitStarted:
		a.textarea.Reset()
		a.updateViewportContent(true)
		return a, cmd
	default:
		if strings.TrimSpace(input) == "" {
			a.textarea.Reset()
		}
		a.updateViewportContent(true)
		return a, nil
	}
}

func (a AppView) toggleAgentMode() (AppView, tea.Cmd) {
	m := a.dataModel
	if !m.AgentMode && m.Tools == nil {
		a.notice = &notice{
			title:     "Agent mode unavailable",
			message:   "No tools are configured for this session.",
			modalType: ModalTypeWarning,
		}
		return a, nil
	}

	m.AgentMode = !m.AgentMode
	if !m.AgentMode {
		a.flash = "Agent mode off: plain chat, no tools"
		return a, nil
	}

	a.flash = "Agent mode on"
	if !ModelSupportsTools(selectedModelInfo(m.Selected)) {
		a.notice = &notice{
			title:     "Tool support unknown",
			message:   m.Selected.Display + " may not support tool calling. Replies can ignore the tools or fail.",
			modalType: ModalTypeWarning,
		}
	}
	return a, nil
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return model.ClipboardMsg{Err: clipboard.WriteAll(text)}
	}
}
