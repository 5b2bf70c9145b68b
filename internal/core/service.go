package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Rorical/smartagent/internal/config"
	"github.com/Rorical/smartagent/internal/eventbus"
	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/internal/observability"
	"github.com/Rorical/smartagent/internal/policy"
	"github.com/Rorical/smartagent/internal/stream"
	"github.com/Rorical/smartagent/internal/telemetry"
)

// ErrTurnInProgress is returned when a message arrives while a turn is
// streaming and no tool is executing
var ErrTurnInProgress = errors.New("a turn is already streaming")

// Streamer opens the agent event stream for one request body
type Streamer interface {
	Open(ctx context.Context, body any) (*stream.Events, error)
}

// ConfigSource supplies the LLM config sent with every request
type ConfigSource interface {
	Get() config.LLMConfig
}

type staticConfig config.LLMConfig

func (c staticConfig) Get() config.LLMConfig { return config.LLMConfig(c) }

type Options struct {
	Stream    Streamer
	Config    ConfigSource
	Bus       *eventbus.MessageBus
	EventBus  *eventbus.EventBus
	Policy    *policy.Engine
	Telemetry *telemetry.Service
	Logger    *slog.Logger
	// Categories overrides DefaultToolCategories
	Categories []ToolCategory
	// ConfirmTimeout bounds how long a confirmation waits for the user
	ConfirmTimeout time.Duration
}

type agentRequest struct {
	Message        string           `json:"message"`
	ConversationID string           `json:"conversationId"`
	Config         config.LLMConfig `json:"config"`
}

// AgentService runs turns against the agent backend and reduces the event
// stream into AgentState
type AgentService struct {
	stream    Streamer
	config    ConfigSource
	bus       *eventbus.MessageBus
	eventBus  *eventbus.EventBus
	policy    *policy.Engine
	telemetry *telemetry.Service
	tags      *TagTable
	state     *AgentState
	logger    *slog.Logger

	confirmTimeout time.Duration
	now            func() time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup

	unhandledMu sync.Mutex
	unhandled   map[stream.Kind]bool

	unsubscribe func()
}

func NewAgentService(opts Options) (*AgentService, error) {
	if opts.Stream == nil {
		return nil, errors.New("core: stream client is required")
	}

	categories := opts.Categories
	if categories == nil {
		categories = DefaultToolCategories
	}
	tags, err := NewTagTable(categories)
	if err != nil {
		return nil, fmt.Errorf("core: invalid tool categories: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = observability.For(observability.CategoryAgent)
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = staticConfig(config.Default())
	}
	bus := opts.Bus
	if bus == nil {
		bus = eventbus.NewMessageBus(logger, false)
	}
	engine := opts.Policy
	if engine == nil {
		engine = policy.NewEngine(policy.Config{})
	}
	metrics := opts.Telemetry
	if metrics == nil {
		metrics = telemetry.NewService(logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &AgentService{
		stream:         opts.Stream,
		config:         cfg,
		bus:            bus,
		eventBus:       opts.EventBus,
		policy:         engine,
		telemetry:      metrics,
		tags:           tags,
		state:          NewAgentState(),
		logger:         logger,
		confirmTimeout: opts.ConfirmTimeout,
		now:            time.Now,
		ctx:            ctx,
		cancel:         cancel,
		unhandled:      make(map[stream.Kind]bool),
	}

	// "Always allow" answers from the dialog arrive as UpdatePolicy
	s.unsubscribe = bus.Subscribe(eventbus.UpdatePolicyType, func(msg eventbus.Message) {
		if update, ok := msg.(eventbus.UpdatePolicy); ok && update.ToolName != "" {
			engine.AllowTool(update.ToolName)
			s.logger.Info("Tool always allowed", "tool", update.ToolName)
		}
	})

	return s, nil
}

// Start pushes the initial state and serves UI events until Stop
func (s *AgentService) Start() {
	s.pushStateToUI()
	if s.eventBus != nil {
		go s.eventLoop()
	}
}

// Stop cancels in-flight work and waits for pending confirmations
func (s *AgentService) Stop() {
	s.cancel()
	s.unsubscribe()
	s.pending.Wait()
}

func (s *AgentService) eventLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-s.eventBus.UIToCore():
			if !ok {
				return
			}
			s.handleUIEvent(event)
		}
	}
}

func (s *AgentService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.SendMessageEvent:
		// Turns run off the loop so input typed during a tool call is
		// still admitted as supplemental input.
		go func() {
			if err := s.SendMessageTo(s.ctx, e.Message, e.ConversationID); err != nil {
				s.logger.Warn("Send message failed", "error", err)
				s.notifyRejected(e.Message, err)
			}
		}()
	case eventbus.RetryLastEvent:
		go func() {
			if err := s.RetryLast(s.ctx); err != nil {
				s.logger.Warn("Retry failed", "error", err)
				s.notifyRejected("", err)
			}
		}()
	case eventbus.ClearMessagesEvent:
		s.ClearMessages()
	}
}

// SendMessage sends text on the current conversation
func (s *AgentService) SendMessage(ctx context.Context, text string) error {
	return s.SendMessageTo(ctx, text, "")
}

// SendMessageTo runs one turn for text. While a tool is executing the text
// is kept as supplemental input instead and nothing is sent. Stream and
// agent errors are recorded in state and also returned.
func (s *AgentService) SendMessageTo(ctx context.Context, text, conversationID string) error {
	explicit := conversationID != ""
	if !explicit {
		conversationID = s.state.ConversationID()
	}

	complexTask := isComplexRequest(text)
	kind, err := s.state.Admit(turnStart{
		Text:                 text,
		ConversationID:       conversationID,
		ExplicitConversation: explicit,
		Complex:              complexTask,
	}, s.now())
	if err != nil {
		return err
	}
	if kind == admitSupplemental {
		s.logger.Info("[补充输入] captured while a tool is executing", "content", preview(text, 100))
		s.pushStateToUI()
		return nil
	}

	if complexTask {
		s.logger.Info(DefaultAgentTag+" complex multi-tool request", "content", preview(text, 100))
	}
	s.pushStateToUI()

	start := s.now()
	err = s.runTurn(ctx, text, conversationID)
	s.telemetry.RecordAPICall(s.now().Sub(start), err == nil)

	var agentErr *AgentError
	if err != nil && !errors.As(err, &agentErr) {
		s.state.RecordFailure(err, s.now())
	}
	s.state.EndTurn(s.now())
	s.pushStateToUI()

	if err != nil {
		s.logger.Error(DefaultAgentTag+" request failed", "error", err, "conversationId", conversationID)
	}
	return err
}

// RetryLast resends the last user message. It does nothing before the
// first message.
func (s *AgentService) RetryLast(ctx context.Context) error {
	text, promptID := s.state.LastTurn()
	if text == "" {
		return nil
	}
	return s.SendMessageTo(ctx, text, promptID)
}

func (s *AgentService) ClearMessages() {
	s.state.Reset()
	s.pushStateToUI()
}

func (s *AgentService) Snapshot() models.Snapshot {
	return s.state.Snapshot()
}

func (s *AgentService) Telemetry() *telemetry.Service {
	return s.telemetry
}

func (s *AgentService) runTurn(ctx context.Context, text, conversationID string) error {
	cfg := s.config.Get()
	s.logger.Info(DefaultAgentTag+" sending request",
		"conversationId", conversationID,
		"model", cfg.ModelName,
		"baseUrl", cfg.BaseURL,
	)

	events, err := s.stream.Open(ctx, agentRequest{
		Message:        text,
		ConversationID: conversationID,
		Config:         cfg,
	})
	if err != nil {
		return err
	}
	defer events.Close()

	for event, err := range events.All() {
		if err != nil {
			return err
		}
		if err := s.reduce(event); err != nil {
			return err
		}
		s.pushStateToUI()
	}
	return nil
}

// notifyRejected hands text that never became a turn back to the UI
func (s *AgentService) notifyRejected(text string, err error) {
	if s.eventBus == nil || !errors.Is(err, ErrTurnInProgress) {
		return
	}
	if err := s.eventBus.SendToUI(eventbus.MessageRejectedEvent{Message: text, Reason: err.Error()}); err != nil {
		s.logger.Debug("Error sending rejection to UI", "error", err)
	}
}

func (s *AgentService) pushStateToUI() {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.SendToUI(eventbus.StateUpdateEvent{Snapshot: s.state.Snapshot()}); err != nil {
		s.logger.Debug("Error sending state to UI", "error", err)
	}
}

// ReplayFrom reduces a recorded stream body without contacting the backend
func (s *AgentService) ReplayFrom(r io.Reader, text string) error {
	complexTask := isComplexRequest(text)
	if _, err := s.state.Admit(turnStart{
		Text:           text,
		ConversationID: s.state.ConversationID(),
		Complex:        complexTask,
	}, s.now()); err != nil {
		return err
	}

	events := stream.NewEvents(io.NopCloser(r), s.logger, s.telemetry)
	defer events.Close()

	var runErr error
	for event, err := range events.All() {
		if err != nil {
			runErr = err
			break
		}
		if err := s.reduce(event); err != nil {
			runErr = err
			break
		}
	}

	var agentErr *AgentError
	if runErr != nil && !errors.As(runErr, &agentErr) {
		s.state.RecordFailure(runErr, s.now())
	}
	s.state.EndTurn(s.now())
	return runErr
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
