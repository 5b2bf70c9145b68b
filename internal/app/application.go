package app

import (
	"fmt"
	"log/slog"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/smartagent/internal/config"
	"github.com/Rorical/smartagent/internal/core"
	"github.com/Rorical/smartagent/internal/dispatcher"
	"github.com/Rorical/smartagent/internal/eventbus"
	"github.com/Rorical/smartagent/internal/observability"
	"github.com/Rorical/smartagent/internal/policy"
	"github.com/Rorical/smartagent/internal/stream"
	"github.com/Rorical/smartagent/internal/telemetry"
)

// Options configures NewApplication. Zero values use the defaults.
type Options struct {
	Endpoint       string
	ConversationID string
	NonInteractive bool
	Debug          bool
	Storage        *config.Storage
	HTTPClient     *http.Client
}

// Application manages the complete application lifecycle
type Application struct {
	storage    *config.Storage
	eventBus   *eventbus.EventBus
	messageBus *eventbus.MessageBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.AgentService
	model      *AppModel
	logger     *slog.Logger
}

func NewApplication(opts Options) (*Application, error) {
	logger := observability.For(observability.CategoryUI)

	storage := opts.Storage
	if storage == nil {
		store, err := config.DefaultFileStore()
		if err != nil {
			return nil, err
		}
		storage = config.NewStorage(store, observability.For(observability.CategoryConfig))
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = config.Endpoint()
	}

	metrics := telemetry.NewService(observability.For(observability.CategoryTelemetry))
	client, err := stream.NewClient(endpoint, opts.HTTPClient, observability.For(observability.CategoryStream), metrics)
	if err != nil {
		return nil, err
	}

	eb := eventbus.NewEventBus()
	eb.SetErrorCallback(func(e eventbus.EventBusError) {
		logger.Warn("Event bus error", "operation", e.Operation, "error", e.Err)
	})
	mb := eventbus.NewMessageBus(observability.For(observability.CategoryTool), opts.Debug)

	service, err := core.NewAgentService(core.Options{
		Stream:    client,
		Config:    storage,
		Bus:       mb,
		EventBus:  eb,
		Policy:    policy.NewEngine(policy.Config{NonInteractive: opts.NonInteractive}),
		Telemetry: metrics,
		Logger:    observability.For(observability.CategoryAgent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize agent service: %w", err)
	}

	disp := dispatcher.NewEventDispatcher(eb, mb, logger)

	return &Application{
		storage:    storage,
		eventBus:   eb,
		messageBus: mb,
		dispatcher: disp,
		service:    service,
		model:      NewAppModel(disp, metrics, opts.ConversationID),
		logger:     logger,
	}, nil
}

func (app *Application) Start() error {
	if !app.storage.Get().IsValid() {
		app.logger.Warn("Starting without an API key")
	}

	// The dispatcher subscribes before the service can ask for confirmation
	app.dispatcher.Start()
	app.service.Start()

	p := tea.NewProgram(app.model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (app *Application) Stop() {
	app.dispatcher.Stop()
	app.service.Stop()
	app.eventBus.Close()
}
