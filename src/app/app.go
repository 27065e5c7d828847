// Package app wires storage, market data, the finance agent and the
// orchestrator into one running application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/elee1766/finchat/src/config"
	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/financeagent"
	"github.com/elee1766/finchat/src/findata"
	"github.com/elee1766/finchat/src/planner"
	"github.com/elee1766/finchat/src/server"
	"github.com/elee1766/finchat/src/server/handlers"
	"github.com/elee1766/finchat/src/server/middleware"
	"github.com/elee1766/finchat/src/storage"
)

// ErrNoJWTSecret is returned by NewServer when sessions cannot be verified.
var ErrNoJWTSecret = errors.New("auth.jwt_secret (or FINCHAT_JWT_SECRET) is required to serve")

// App represents the main application with all services
type App struct {
	Config    *config.Config
	Store     *storage.DB
	Executor  *executor.Service
	Snapshots *findata.SnapshotCache
	Logger    *slog.Logger
}

// Option customizes New.
type Option func(*options)

type options struct {
	models     executor.ModelFactory
	httpClient *http.Client
}

// WithModelFactory replaces the vendor-backed model factory.
func WithModelFactory(f executor.ModelFactory) Option {
	return func(o *options) { o.models = f }
}

// WithHTTPClient sets the client used for market data and web pages.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New opens the database and builds every service from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := openStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	market := findata.Config{
		APIKey:     cfg.MarketData.APIKey,
		BaseURL:    cfg.MarketData.BaseURL,
		Timeout:    cfg.MarketData.Timeout.Std(),
		RetryCount: cfg.MarketData.RetryCount,
		HTTPClient: o.httpClient,
		Logger:     logger,
	}

	svc := executor.NewService(executor.ServiceConfig{
		Database:    store.DB(),
		Prompt:      financeagent.PromptFunc(nil),
		Credentials: cfg.Credentials(),
		Planner: planner.New(
			planner.WithMaxTasks(cfg.Orchestrator.PlannerMaxTasks),
			planner.WithLogger(logger),
		),
		Toolboxes: financeagent.NewToolboxFactory(financeagent.Deps{
			DB:         store.DB(),
			Market:     market,
			HTTPClient: o.httpClient,
			Logger:     logger,
		}),
		Models:           o.models,
		MaxSteps:         cfg.Orchestrator.MaxSteps,
		RequestTimeout:   cfg.Orchestrator.RequestTimeout.Std(),
		FreeMessageLimit: cfg.Orchestrator.FreeMessageLimit,
		Logger:           logger,
	})

	logger.Debug("app initialized",
		"database", store.Path(),
		"default_model", cfg.Orchestrator.DefaultModel,
		"market_data", cfg.MarketData.APIKey != "",
	)

	return &App{
		Config:    cfg,
		Store:     store,
		Executor:  svc,
		Snapshots: findata.NewSnapshotCache(findata.NewClient(market), cfg.Server.SnapshotCacheTTL.Std()),
		Logger:    logger,
	}, nil
}

func openStore(path string) (*storage.DB, error) {
	if !strings.Contains(path, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	store, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return store, nil
}

// Tokens returns the session token service for the configured secret.
func (a *App) Tokens() *middleware.Tokens {
	return middleware.NewTokens(a.Config.Auth.JWTSecret, a.Config.Auth.TokenTTL.Std())
}

// NewServer builds the HTTP server. Serving requires a JWT secret.
func (a *App) NewServer() (*server.Server, error) {
	if a.Config.Auth.JWTSecret == "" {
		return nil, ErrNoJWTSecret
	}
	db := a.Store.DB()
	return server.NewServer(a.Config.Server.Addr, a.Config.Server.ShutdownTimeout.Std(), server.RouterConfig{
		Logger:          a.Logger,
		AllowedOrigins:  a.Config.Server.AllowedOrigins,
		Tokens:          a.Tokens(),
		ChatHandler:     handlers.NewChatHandler(db, a.Executor, a.Logger),
		DocumentHandler: handlers.NewDocumentHandler(db, a.Logger),
		MarketHandler:   handlers.NewMarketHandler(a.Snapshots, a.Logger),
		ModelHandler:    handlers.NewModelHandler(a.Config.Orchestrator.DefaultModel),
		HealthHandler:   handlers.NewHealthHandler(),
	}), nil
}

// Close closes all resources held by the app
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
