package update

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/smartagent/internal/device"
	"github.com/Rorical/smartagent/internal/dispatcher"
	"github.com/Rorical/smartagent/internal/eventbus"
	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/internal/telemetry"
)

const (
	StatusReady     = "Ready"
	StatusStreaming = "Agent is responding"
	StatusTool      = "Tool executing, input is supplemental"
	StatusConfirm   = "Confirm tool call: y = allow, a = always allow, n = deny"
	StatusRejected  = "Agent is still responding, message not sent"
)

// KeyResult tells the model what happened to a key press. Keys that are
// not handled go to the text input.
type KeyResult struct {
	Handled    bool
	ClearInput bool
}

// HandleKeyMsgWithEventBus handles keyboard input using event bus. input is
// the current text of the input box.
func HandleKeyMsgWithEventBus(appModel *models.AppModel, keyMsg tea.KeyMsg, input string, disp *dispatcher.EventDispatcher) (tea.Cmd, KeyResult) {
	if keyMsg.String() == "ctrl+c" {
		return tea.Quit, KeyResult{Handled: true}
	}

	// The dialog is modal
	if appModel.PendingConfirmation != nil {
		return handleConfirmationKey(appModel, keyMsg, disp), KeyResult{Handled: true}
	}

	eb := disp.GetEventBus()
	switch keyMsg.String() {
	case "enter":
		text := strings.TrimSpace(input)
		if text == "" {
			return nil, KeyResult{Handled: true}
		}
		if !appModel.InputEnabled() {
			appModel.Status = StatusStreaming
			return nil, KeyResult{Handled: true}
		}
		if err := eb.SendToCore(eventbus.SendMessageEvent{Message: text, ConversationID: appModel.ConversationID}); err != nil {
			appModel.Status = "Error sending message: " + err.Error()
			return nil, KeyResult{Handled: true}
		}
		return nil, KeyResult{Handled: true, ClearInput: true}

	case "ctrl+r":
		if appModel.Snapshot.Streaming {
			return nil, KeyResult{Handled: true}
		}
		if err := eb.SendToCore(eventbus.RetryLastEvent{}); err != nil {
			appModel.Status = "Error retrying: " + err.Error()
		}
		return nil, KeyResult{Handled: true}

	case "ctrl+l":
		if err := eb.SendToCore(eventbus.ClearMessagesEvent{}); err != nil {
			appModel.Status = "Error clearing: " + err.Error()
		}
		return nil, KeyResult{Handled: true}
	}
	return nil, KeyResult{}
}

func handleConfirmationKey(appModel *models.AppModel, keyMsg tea.KeyMsg, disp *dispatcher.EventDispatcher) tea.Cmd {
	var confirmed, always bool
	switch strings.ToLower(keyMsg.String()) {
	case "y":
		confirmed = true
	case "a":
		confirmed, always = true, true
	case "n", "esc":
	default:
		return nil
	}

	pending := appModel.PendingConfirmation
	appModel.PendingConfirmation = nil
	req := eventbus.ToolConfirmationRequest{
		ToolCall:      eventbus.ToolCall{Name: pending.ToolName, Args: pending.Args},
		CorrelationID: pending.CorrelationID,
		ServerName:    pending.ServerName,
	}
	if err := disp.Answer(req, confirmed, always); err != nil {
		appModel.Status = "Error answering confirmation: " + err.Error()
		return nil
	}
	appModel.Status = statusFor(appModel.Snapshot)
	return nil
}

// HandleCoreEvent processes events from the core
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg dispatcher.CoreEventMsg) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		appModel.Snapshot = event.Snapshot
		if appModel.PendingConfirmation == nil {
			appModel.Status = statusFor(event.Snapshot)
		}
		return ProjectDeviceCmd(event.Snapshot.Executions)

	case eventbus.ConfirmationPromptEvent:
		appModel.PendingConfirmation = &models.ConfirmationRequest{
			CorrelationID: event.Request.CorrelationID,
			ToolName:      event.Request.ToolCall.Name,
			Args:          event.Request.ToolCall.Args,
			ServerName:    event.Request.ServerName,
		}
		appModel.Status = StatusConfirm

	case eventbus.MessageRejectedEvent:
		appModel.RejectedInput = event.Message
		appModel.Status = StatusRejected
	}
	return nil
}

func statusFor(snap models.Snapshot) string {
	switch {
	case snap.ToolInFlight():
		return StatusTool
	case snap.Streaming:
		return StatusStreaming
	case snap.LastError != nil:
		return "Error: " + snap.LastError.Error()
	default:
		return StatusReady
	}
}

// DeviceStateMsg carries a freshly projected device state
type DeviceStateMsg struct {
	State device.State
}

// ProjectDeviceCmd projects the device state off the update loop. The
// result arrives as a later message, after the state update is drawn.
func ProjectDeviceCmd(executions []models.ToolExecution) tea.Cmd {
	return func() tea.Msg {
		return DeviceStateMsg{State: device.Project(device.Initial(), executions)}
	}
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
}

func HandleTickMsg(appModel *models.AppModel, metrics telemetry.Metrics) tea.Cmd {
	appModel.Metrics = metrics
	return TickCmd()
}
