package model

// Messages delivered to the UI's Update loop by the commands in this package.

type ModelsListMsg struct {
	Models []ModelInfo
	Err    error
}

type ThreadsListMsg struct {
	Threads []ThreadSummary
	Err     error
}

type ThreadCreatedMsg struct {
	Thread *Thread
	Err    error
}

type ThreadLoadedMsg struct {
	Thread *Thread
	Err    error
}

type ThreadDeletedMsg struct {
	ThreadID string
	Err      error
}

type ThreadTitledMsg struct {
	ThreadID string
	Title    string
	Err      error
}

// AgentProgressMsg streams tool progress from a running agent loop. The UI
// keeps listening on Events until AgentDoneMsg arrives.
type AgentProgressMsg struct {
	RunID    int
	ToolName string
	Status   string
	Events   <-chan any
}

type AgentDoneMsg struct {
	RunID  int
	Result RunResult
}

// MarkdownRenderedMsg carries a rendering of Display[EntryIndex]. Source is
// the text that was rendered; a stale result whose entry changed is dropped.
type MarkdownRenderedMsg struct {
	EntryIndex int
	Source     string
	Rendered   string
}

type ClipboardMsg struct {
	Err error
}
