// Package server is the HTTP surface of finchat.
package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/elee1766/finchat/src/server/handlers"
	"github.com/elee1766/finchat/src/server/middleware"
)

type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	Tokens         *middleware.Tokens

	ChatHandler     *handlers.ChatHandler
	DocumentHandler *handlers.DocumentHandler
	MarketHandler   *handlers.MarketHandler
	ModelHandler    *handlers.ModelHandler
	HealthHandler   *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger.With("component", "http")))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.AllowedOrigins))
	}

	// Public
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}
	if cfg.ModelHandler != nil {
		r.GET("/models", cfg.ModelHandler.List)
	}

	protected := r.Group("/")
	{
		if cfg.Tokens != nil {
			protected.Use(middleware.RequireAuth(cfg.Tokens, logger))
		}

		if cfg.ChatHandler != nil {
			protected.POST("/chat", cfg.ChatHandler.Chat)
			protected.DELETE("/chat", cfg.ChatHandler.DeleteChat)
			protected.GET("/chat/history", cfg.ChatHandler.History)
			protected.GET("/chat/:id", cfg.ChatHandler.GetChat)
			protected.PATCH("/chat/:id/visibility", cfg.ChatHandler.UpdateVisibility)
			protected.DELETE("/chat/:id/messages", cfg.ChatHandler.DeleteTrailingMessages)
			protected.GET("/messages/count", cfg.ChatHandler.CountMessages)
		}

		if cfg.DocumentHandler != nil {
			protected.GET("/document/:id", cfg.DocumentHandler.GetDocument)
			protected.GET("/suggestions", cfg.DocumentHandler.ListSuggestions)
		}

		if cfg.MarketHandler != nil {
			protected.GET("/market/snapshots", cfg.MarketHandler.Snapshots)
		}
	}

	return r
}
