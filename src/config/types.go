package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/elee1766/finchat/src/aisdk"
)

// Config represents the complete configuration for finchat
type Config struct {
	Server       ServerConfig       `json:"server"`
	Database     DatabaseConfig     `json:"database"`
	Auth         AuthConfig         `json:"auth"`
	Providers    ProvidersConfig    `json:"providers"`
	MarketData   MarketDataConfig   `json:"market_data"`
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Logging      LoggingConfig      `json:"logging"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080" or "127.0.0.1:8080"
	Addr string `json:"addr" validate:"listen_addr"`

	// AllowedOrigins are the CORS origins allowed to call the API
	AllowedOrigins []string `json:"allowed_origins,omitempty" validate:"dive,url"`

	// SnapshotCacheTTL is how long market snapshots are served from cache
	SnapshotCacheTTL Duration `json:"snapshot_cache_ttl,omitempty" validate:"gte=0"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout Duration `json:"shutdown_timeout,omitempty" validate:"gte=0"`
}

// DatabaseConfig locates the sqlite database
type DatabaseConfig struct {
	Path string `json:"path" validate:"required"`
}

// AuthConfig configures session tokens
type AuthConfig struct {
	// JWTSecret signs and verifies HS256 session tokens
	JWTSecret string `json:"jwt_secret,omitempty"`

	// TokenTTL is the lifetime of tokens minted by `finchat token`
	TokenTTL Duration `json:"token_ttl,omitempty" validate:"gte=0"`
}

// ProvidersConfig holds the server's own model vendor keys
type ProvidersConfig struct {
	OpenAIKey    string `json:"openai_api_key,omitempty"`
	GoogleKey    string `json:"google_api_key,omitempty"`
	AnthropicKey string `json:"anthropic_api_key,omitempty"`
}

// MarketDataConfig configures the financialdatasets.ai client
type MarketDataConfig struct {
	APIKey     string   `json:"api_key,omitempty"`
	BaseURL    string   `json:"base_url,omitempty" validate:"omitempty,url"`
	Timeout    Duration `json:"timeout,omitempty" validate:"gte=0"`
	RetryCount int      `json:"retry_count,omitempty" validate:"gte=0,lte=10"`
}

// OrchestratorConfig tunes chat turns
type OrchestratorConfig struct {
	DefaultModel     string   `json:"default_model,omitempty" validate:"omitempty,model_id"`
	MaxSteps         int      `json:"max_steps" validate:"gte=1,lte=50"`
	RequestTimeout   Duration `json:"request_timeout" validate:"gt=0"`
	FreeMessageLimit int      `json:"free_message_limit"`
	PlannerMaxTasks  int      `json:"planner_max_tasks" validate:"gte=1,lte=20"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level,omitempty" validate:"log_level"`

	// Format is the output format (text, json)
	Format string `json:"format,omitempty" validate:"log_format"`
}

// Credentials returns the configured keys as a credentials bundle.
func (c *Config) Credentials() aisdk.Credentials {
	return aisdk.Credentials{
		OpenAI:     c.Providers.OpenAIKey,
		Google:     c.Providers.GoogleKey,
		Anthropic:  c.Providers.AnthropicKey,
		MarketData: c.MarketData.APIKey,
	}
}

// Duration is a time.Duration written as a Go duration string ("60s") in
// JSON. Bare numbers are read as seconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*d = Duration(time.Duration(val * float64(time.Second)))
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
