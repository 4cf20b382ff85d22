package model

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"agentui/config"
)

// State is a node of the session state machine.
type State int

const (
	StateModelSelect State = iota
	StateThreadLoading
	StateThreadList
	StateThreadManage
	StateChat
	StateExit
)

func (s State) String() string {
	switch s {
	case StateModelSelect:
		return "model-select"
	case StateThreadLoading:
		return "thread-loading"
	case StateThreadList:
		return "thread-list"
	case StateThreadManage:
		return "thread-manage"
	case StateChat:
		return "chat"
	case StateExit:
		return "exit"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SelectedModel is the model the session talks to.
type SelectedModel struct {
	ProviderID string
	Model      string // InternalName
	Display    string
}

func (s SelectedModel) IsZero() bool {
	return s.ProviderID == "" || s.Model == ""
}

// Model holds the session state and business logic. It lives for one
// process and is never persisted.
type Model struct {
	// Core dependencies
	Config    *config.Config
	Store     ThreadStore
	Providers map[string]Provider
	Tools     ToolExecutor

	// Session
	State       State
	Selected    SelectedModel
	ThreadID    string
	ThreadTitle string
	History     []Message
	Display     []DisplayEntry
	AgentMode   bool
	Processing  bool
	Usage       Usage
	Threads     []ThreadSummary
	Managed     ThreadSummary // Thread shown in ThreadManage
	StatusError string

	// Re-entrancy guards
	ListGuard   *Guard
	CreateGuard *Guard
	DeleteGuard *Guard
	LoadGuard   *Guard

	// Model list cache per cloud provider
	ModelCache  map[string][]ModelInfo
	CacheExpiry map[string]time.Time

	runSeq int
}

func NewModel(cfg *config.Config, store ThreadStore, providers map[string]Provider, tools ToolExecutor) *Model {
	if providers == nil {
		providers = make(map[string]Provider)
	}
	return &Model{
		Config:      cfg,
		Store:       store,
		Providers:   providers,
		Tools:       tools,
		State:       StateModelSelect,
		AgentMode:   tools != nil,
		ListGuard:   NewGuard(),
		CreateGuard: NewGuard(),
		DeleteGuard: NewGuard(),
		LoadGuard:   NewGuard(),
		ModelCache:  make(map[string][]ModelInfo),
		CacheExpiry: make(map[string]time.Time),
	}
}

// SelectModel records the model choice on the session.
func (m *Model) SelectModel(info ModelInfo) {
	name := info.InternalName
	if name == "" {
		name = info.Name
	}
	m.Selected = SelectedModel{ProviderID: info.Provider, Model: name, Display: info.Name}
}

// ConfirmModel selects a model and moves on to loading the thread list.
func (m *Model) ConfirmModel(info ModelInfo) tea.Cmd {
	m.SelectModel(info)
	m.RememberModel()
	m.State = StateThreadLoading
	if config.DebugLog != nil {
		config.DebugLog.Info("model selected", "provider", m.Selected.ProviderID, "model", m.Selected.Model)
	}
	return m.FetchThreadList()
}

// ManageThread opens the continue/delete/back menu for a listed thread.
func (m *Model) ManageThread(summary ThreadSummary) {
	m.Managed = summary
	m.StatusError = ""
	m.State = StateThreadManage
}

// BackToThreads returns to the thread list without refetching it.
func (m *Model) BackToThreads() {
	m.Managed = ThreadSummary{}
	m.State = StateThreadList
}

// ReloadThreads re-enters ThreadLoading and refetches the list.
func (m *Model) ReloadThreads() tea.Cmd {
	m.State = StateThreadLoading
	return m.FetchThreadList()
}

// Quit moves the session to its terminal state.
func (m *Model) Quit() tea.Cmd {
	m.State = StateExit
	return tea.Quit
}

// ActiveProvider returns the provider of the selected model.
func (m *Model) ActiveProvider() (Provider, error) {
	if m.Selected.IsZero() {
		return nil, NewError(KindConfiguration, "select model", fmt.Errorf("no model selected"))
	}
	p, ok := m.Providers[m.Selected.ProviderID]
	if !ok || p == nil {
		return nil, NewError(KindConfiguration, "select model", fmt.Errorf("provider %q is not configured", m.Selected.ProviderID))
	}
	return p, nil
}

// NewAgentLoop builds a loop for the session's selected model, recording
// into the active thread.
func (m *Model) NewAgentLoop() (*AgentLoop, error) {
	p, err := m.ActiveProvider()
	if err != nil {
		return nil, err
	}

	opts := []AgentOption{}
	if m.Config != nil {
		opts = append(opts, WithMaxIterations(m.Config.MaxIterations), WithTimeout(m.Config.RequestTimeout))
	}
	if m.AgentMode && m.Tools != nil {
		opts = append(opts, WithTools(m.Tools))
	}
	if m.Store != nil && m.ThreadID != "" {
		opts = append(opts, WithRecorder(ThreadRecorder(m.Store, m.ThreadID)))
	}
	return NewAgentLoop(p, m.Selected.Model, opts...)
}

// SystemPrompt returns the configured prompt seeded into every thread.
func (m *Model) SystemPrompt() string {
	if m.Config == nil || m.Config.SystemPrompt == "" {
		return config.DefaultSystemPrompt
	}
	return m.Config.SystemPrompt
}

// EnterThread seeds the session from a loaded (or freshly created) thread.
func (m *Model) EnterThread(thread *Thread) {
	m.ThreadID = thread.ID
	m.ThreadTitle = thread.Title
	m.History = SeedHistory(m.SystemPrompt(), thread.Messages)
	m.Display = DisplayFromHistory(m.History)
	m.Processing = false
	m.StatusError = ""
	m.State = StateChat
}

// LeaveThread clears the per-thread part of the session.
func (m *Model) LeaveThread() {
	m.ThreadID = ""
	m.ThreadTitle = ""
	m.History = nil
	m.Display = nil
	m.Processing = false
}

// IsQuitCommand reports whether a chat submission ends the session.
func IsQuitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit":
		return true
	}
	return false
}
