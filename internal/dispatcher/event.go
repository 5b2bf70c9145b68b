package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/smartagent/internal/eventbus"
)

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// CoreClosedMsg is delivered once the core channel is closed
type CoreClosedMsg struct{}

// EventDispatcher routes events between the core and the UI. Confirmation
// requests published on the message bus are forwarded to the UI as
// prompts, and the user's answers are published back.
type EventDispatcher struct {
	eventBus   *eventbus.EventBus
	messageBus *eventbus.MessageBus
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	unsubscribe func()
}

func NewEventDispatcher(eventBus *eventbus.EventBus, messageBus *eventbus.MessageBus, logger *slog.Logger) *EventDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &EventDispatcher{
		eventBus:   eventBus,
		messageBus: messageBus,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes to confirmation requests. Calling it twice is a no-op.
func (ed *EventDispatcher) Start() {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.unsubscribe != nil || ed.messageBus == nil {
		return
	}

	ed.unsubscribe = ed.messageBus.Subscribe(eventbus.ToolConfirmationRequestType, func(msg eventbus.Message) {
		req, ok := msg.(eventbus.ToolConfirmationRequest)
		if !ok {
			return
		}
		if err := ed.eventBus.SendToUI(eventbus.ConfirmationPromptEvent{Request: req}); err != nil {
			ed.logger.Warn("Failed to forward confirmation prompt", "tool", req.ToolCall.Name, "error", err)
		}
	})
}

func (ed *EventDispatcher) Stop() {
	ed.cancel()
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.unsubscribe != nil {
		ed.unsubscribe()
		ed.unsubscribe = nil
	}
}

func (ed *EventDispatcher) GetEventBus() *eventbus.EventBus {
	return ed.eventBus
}

// Answer publishes the user's decision for a confirmation prompt. An
// always-allow answer also updates the policy for the tool.
func (ed *EventDispatcher) Answer(req eventbus.ToolConfirmationRequest, confirmed, always bool) error {
	if ed.messageBus == nil {
		return errors.New("dispatcher: no message bus")
	}
	if confirmed && always {
		if err := ed.messageBus.Publish(eventbus.UpdatePolicy{ToolName: req.ToolCall.Name}); err != nil {
			return err
		}
	}
	return ed.messageBus.Publish(eventbus.ToolConfirmationResponse{
		CorrelationID: req.CorrelationID,
		Confirmed:     confirmed,
	})
}

// ListenForCoreEvents waits for the next core event. The model re-issues
// it after every CoreEventMsg.
func (ed *EventDispatcher) ListenForCoreEvents() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ed.ctx.Done():
			return CoreClosedMsg{}
		case event, ok := <-ed.eventBus.CoreToUI():
			if !ok {
				return CoreClosedMsg{}
			}
			return CoreEventMsg{Event: event}
		case update, ok := <-ed.eventBus.StateUpdates():
			if !ok {
				return CoreClosedMsg{}
			}
			return CoreEventMsg{Event: update}
		}
	}
}
