package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/smartagent/internal/device"
	"github.com/Rorical/smartagent/internal/dispatcher"
	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/internal/telemetry"
	"github.com/Rorical/smartagent/internal/update"
	"github.com/Rorical/smartagent/ui/components"
)

const visibleSteps = 8

const placeholder = "Ask the glasses anything... (Enter send, Ctrl+R retry, Ctrl+L clear, Ctrl+C quit)"

type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
	metrics    *telemetry.Service

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer
	device   device.State
}

func NewAppModel(disp *dispatcher.EventDispatcher, metrics *telemetry.Service, conversationID string) *AppModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &AppModel{
		appModel: models.AppModel{
			ConversationID: conversationID,
			Status:         update.StatusReady,
		},
		dispatcher: disp,
		metrics:    metrics,
		input:      ti,
		viewport:   viewport.New(80, 20),
		spinner:    sp,
		markdown:   newMarkdown(80),
		device:     device.Initial(),
	}
}

func newMarkdown(width int) *glamour.TermRenderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-8, 20)),
	)
	if err != nil {
		return nil
	}
	return renderer
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		update.TickCmd(),
		m.dispatcher.ListenForCoreEvents(),
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dispatcher.CoreEventMsg:
		// Handle core events and continue listening
		cmd := update.HandleCoreEvent(&m.appModel, msg)
		m.restoreRejected()
		m.syncInput()
		m.refreshViewport()
		return m, tea.Batch(cmd, m.dispatcher.ListenForCoreEvents())

	case dispatcher.CoreClosedMsg:
		return m, nil

	case update.DeviceStateMsg:
		m.device = msg.State
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		cmd, result := update.HandleKeyMsgWithEventBus(&m.appModel, msg, m.input.Value(), m.dispatcher)
		if result.ClearInput {
			m.input.Reset()
		}
		if result.Handled {
			return m, cmd
		}
		switch msg.String() {
		case "pgup", "pgdown":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		update.HandleWindowSizeMsg(&m.appModel, msg)
		m.viewport.Width = msg.Width
		m.input.Width = max(msg.Width-8, 10)
		m.markdown = newMarkdown(msg.Width)
		m.refreshViewport()
		return m, nil
	}

	return m, update.HandleUpdateWithEventBus(&m.appModel, msg, m.metrics)
}

// restoreRejected puts text the core refused back into an empty input box
func (m *AppModel) restoreRejected() {
	text := m.appModel.RejectedInput
	m.appModel.RejectedInput = ""
	if text != "" && m.input.Value() == "" {
		m.input.SetValue(text)
		m.input.CursorEnd()
	}
}

// syncInput blurs the input while a turn streams without a tool in flight
func (m *AppModel) syncInput() {
	if m.appModel.InputEnabled() {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *AppModel) refreshViewport() {
	m.viewport.SetContent(components.RenderMessages(m.appModel.Snapshot.Messages, m.markdown))
	m.viewport.GotoBottom()
}

func (m *AppModel) View() string {
	footer := m.footer()
	if m.appModel.Height > 0 {
		m.viewport.Height = max(m.appModel.Height-lipgloss.Height(footer)-1, 3)
	}
	return m.viewport.View() + "\n" + footer
}

func (m *AppModel) footer() string {
	width := m.appModel.Width
	if width <= 0 {
		width = 80
	}
	snap := m.appModel.Snapshot

	var b strings.Builder
	if track := components.RenderReasoning(snap.Reasoning); track != "" {
		b.WriteString(track + "\n")
	}

	side := components.RenderDevice(m.device)
	if todos := components.RenderTodos(snap.Todos); todos != "" {
		side = todos + "\n\n" + side
	}
	sideWidth := min(40, width/3)
	panel := components.RenderSteps(snap.Steps, visibleSteps)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(max(width-sideWidth-4, 20)).Render(panel),
		components.RenderPanel(side, sideWidth),
	))
	b.WriteString("\n")

	if dialog := components.RenderConfirmation(m.appModel.PendingConfirmation, width); dialog != "" {
		b.WriteString(dialog + "\n")
	}

	b.WriteString(components.RenderInput(m.input.View(), m.appModel.InputEnabled(), width))
	b.WriteString("\n")
	b.WriteString(components.RenderStatus(
		m.appModel.Status,
		snap.Streaming,
		m.spinner.View(),
		snap.SafetyStatus,
		m.appModel.Metrics,
		width,
	))
	return b.String()
}
