package executor

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/planner"
)

const (
	defaultMaxSteps       = 10
	defaultRequestTimeout = 60 * time.Second
	defaultFreeMessages   = 3
	persistTimeout        = 10 * time.Second
)

// ToolboxRequest describes the turn a toolbox is built for. Tools that stream
// their own progress write to Sink.
type ToolboxRequest struct {
	UserID      string
	ChatID      string
	Model       aisdk.LanguageModel
	Credentials aisdk.Credentials
	Sink        EventSink
	Logger      *slog.Logger
}

// ToolboxFactory builds the tools for one turn.
type ToolboxFactory func(ctx context.Context, req ToolboxRequest) (*agent.DefaultToolbox, error)

// ModelFactory creates the language model for one turn.
type ModelFactory func(ctx context.Context, model aisdk.ModelInfo, creds aisdk.Credentials) (aisdk.LanguageModel, error)

// Service runs chat turns with all necessary dependencies
type Service struct {
	database       *sql.DB
	logger         *slog.Logger
	systemPrompt   string
	prompt         func(*agent.DefaultToolbox) string
	credentials    aisdk.Credentials
	planner        *planner.Planner
	toolboxes      ToolboxFactory
	models         ModelFactory
	maxSteps       int
	requestTimeout time.Duration
	freeMessages   int
}

// ServiceConfig holds configuration for creating a new Service
type ServiceConfig struct {
	Database     *sql.DB
	SystemPrompt string
	// Prompt, when set, builds each turn's system prompt from its toolbox
	// and takes precedence over SystemPrompt.
	Prompt func(toolbox *agent.DefaultToolbox) string
	// Credentials are the server's own keys, used when a request brings none.
	Credentials    aisdk.Credentials
	Planner        *planner.Planner
	Toolboxes      ToolboxFactory
	Models         ModelFactory
	MaxSteps       int
	RequestTimeout time.Duration
	// FreeMessageLimit is how many messages a user may send on server keys.
	// Negative disables the limit.
	FreeMessageLimit int
	Logger           *slog.Logger
}

// NewService creates a new chat service
func NewService(config ServiceConfig) *Service {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxSteps <= 0 {
		config.MaxSteps = defaultMaxSteps
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaultRequestTimeout
	}
	if config.FreeMessageLimit == 0 {
		config.FreeMessageLimit = defaultFreeMessages
	}
	if config.Planner == nil {
		config.Planner = planner.New(planner.WithLogger(config.Logger))
	}
	if config.Models == nil {
		logger := config.Logger
		config.Models = func(ctx context.Context, model aisdk.ModelInfo, creds aisdk.Credentials) (aisdk.LanguageModel, error) {
			return aisdk.NewLanguageModel(ctx, model, creds, aisdk.WithLogger(logger))
		}
	}
	if config.Toolboxes == nil {
		config.Toolboxes = func(context.Context, ToolboxRequest) (*agent.DefaultToolbox, error) {
			return agent.NewToolbox[agent.Tool](), nil
		}
	}

	return &Service{
		database:       config.Database,
		logger:         config.Logger.With("component", "executor"),
		systemPrompt:   config.SystemPrompt,
		prompt:         config.Prompt,
		credentials:    config.Credentials,
		planner:        config.Planner,
		toolboxes:      config.Toolboxes,
		models:         config.Models,
		maxSteps:       config.MaxSteps,
		requestTimeout: config.RequestTimeout,
		freeMessages:   config.FreeMessageLimit,
	}
}

// persistContext detaches a storage write from the turn so that a deadline
// spent on the model does not lose the write.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

// Chat prepares and streams one turn. A turn rejected by Prepare closes the
// sink without sending anything.
func (s *Service) Chat(ctx context.Context, req ChatRequest, sink EventSink) error {
	turn, err := s.Prepare(ctx, req)
	if err != nil {
		_ = sink.Close()
		return err
	}
	return s.Stream(ctx, turn, sink)
}
