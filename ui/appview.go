package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"agentui/model"
)

// notice is a dismissable modal shown over the current screen.
type notice struct {
	title     string
	message   string
	modalType ModalType
}

// AppView is the Bubble Tea view/controller over one session. All session
// state lives in dataModel; AppView only holds widget and cursor state.
type AppView struct {
	dataModel *model.Model

	width  int
	height int
	ready  bool

	// Model selection
	models        []model.ModelInfo
	modelsLoading bool
	modelsErr     string
	modelIdx      int
	modelFilter   listFilter

	// Thread list and manage menu
	threadIdx    int
	threadFilter listFilter
	manageIdx    int

	// Chat
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	flash    string

	showHelp bool
	notice   *notice
}

var manageOptions = []string{"Continue", "Delete", "Back"}

func NewAppView(dataModel *model.Model) AppView {
	ta := textarea.New()
	ta.Placeholder = "Ask something, or type exit to quit..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter alone submits (handled in Update)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	// "> " for the first line, "| " for continuation lines
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(successColor)

	return AppView{
		dataModel:     dataModel,
		modelsLoading: true,
		modelFilter:   newListFilter(),
		threadFilter:  newListFilter(),
		viewport:      viewport.New(0, 0),
		textarea:      ta,
		spinner:       sp,
	}
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		a.spinner.Tick,
		a.dataModel.FetchAllModels(),
	)
}

func (a AppView) View() string {
	if !a.ready {
		return "Initializing..."
	}

	if a.notice != nil {
		return RenderAcknowledgeModal(a.notice.title, a.notice.message, a.notice.modalType, a.width, a.height)
	}
	if a.showHelp {
		return a.renderHelpModal(a.width, a.height)
	}

	switch a.dataModel.State {
	case model.StateModelSelect:
		return a.renderModelSelector(a.width, a.height)
	case model.StateThreadLoading:
		return a.renderLoading("Loading threads...")
	case model.StateThreadList:
		return a.renderThreadList(a.width, a.height)
	case model.StateThreadManage:
		return a.renderThreadManage(a.width, a.height)
	case model.StateChat:
		return a.renderChat()
	default:
		return ""
	}
}

func (a AppView) renderLoading(label string) string {
	content := fmt.Sprintf("%s %s", a.spinner.View(), label)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
}

func (a AppView) renderChat() string {
	title := a.renderTitleBar()

	// Empty line between header and messages
	separator := ""

	statusBar := a.renderStatusBar()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		separator,
		a.viewport.View(),
		a.textarea.View(),
		statusBar,
	)
}

func (a AppView) renderTitleBar() string {
	m := a.dataModel
	appText := TitleStyle.Render("agentui")

	modelText := ""
	if !m.Selected.IsZero() {
		name := m.Selected.Display
		if name == "" {
			name = m.Selected.Model
		}
		modelText = DimStyle.Render(fmt.Sprintf(" | %s (%s)", name, m.Selected.ProviderID))
	}

	threadText := ""
	if m.ThreadTitle != "" {
		threadText = DimStyle.Render(" | " + m.ThreadTitle)
	}

	mode := "chat"
	if m.AgentMode {
		mode = "agent"
	}
	modeText := DimStyle.Render(" | ") + SelectedStyle.Render(mode)

	return appText + modelText + threadText + modeText
}

func (a AppView) renderStatusBar() string {
	m := a.dataModel

	var left string
	switch {
	case m.StatusError != "":
		left = ErrorStyle.Render(m.StatusError)
	case a.flash != "":
		left = WarningStyle.Render(a.flash)
	default:
		left = formatChatFooter(
			"Enter", "Send",
			"Alt+Enter", "New line",
			"Ctrl+T", "Agent mode",
			"Ctrl+Y", "Copy",
			"Alt+H", "Help",
			"Ctrl+C", "Quit",
		)
	}

	usage := fmt.Sprintf("in %d · out %d tokens", m.Usage.InputTokens, m.Usage.OutputTokens)
	right := StatusStyle.Render(usage)

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return StatusStyle.Render(left) + strings.Repeat(" ", gap) + right
}
