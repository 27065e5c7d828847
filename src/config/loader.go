package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
)

// Environment variables that override file values.
const (
	EnvOpenAIKey        = "OPENAI_API_KEY"
	EnvGoogleKey        = "GOOGLE_API_KEY"
	EnvAnthropicKey     = "ANTHROPIC_API_KEY"
	EnvMarketDataKey    = "FINANCIAL_DATASETS_API_KEY"
	EnvJWTSecret        = "FINCHAT_JWT_SECRET"
	EnvAddr             = "FINCHAT_ADDR"
	EnvDatabasePath     = "FINCHAT_DB_PATH"
	EnvLogLevel         = "FINCHAT_LOG_LEVEL"
	EnvFreeMessageLimit = "FINCHAT_FREE_MESSAGE_LIMIT"
)

// Loader reads configuration from a JSON file on fs and applies environment
// overrides on top of the defaults.
type Loader struct {
	fs        afero.Fs
	getenv    func(string) string
	validator *Validator
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnv replaces os.Getenv as the source of overrides.
func WithEnv(getenv func(string) string) LoaderOption {
	return func(l *Loader) {
		l.getenv = getenv
	}
}

// NewLoader creates a new configuration loader reading from fsys. A nil fsys
// reads the OS filesystem.
func NewLoader(fsys afero.Fs, opts ...LoaderOption) *Loader {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	l := &Loader{
		fs:        fsys,
		getenv:    os.Getenv,
		validator: NewValidator(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load builds the configuration. An explicit path must exist; with an empty
// path the default user config is read when present.
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if err := l.loadFile(path, config); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := l.applyEnvironmentOverrides(config); err != nil {
		return nil, err
	}

	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// loadFile decodes the file over config, so absent keys keep their defaults.
func (l *Loader) loadFile(path string, config *Config) error {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// Save writes config to path after validating it. Secrets are written too,
// so the file is created owner-readable only.
func (l *Loader) Save(config *Config, path string) error {
	if err := l.validator.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := l.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := afero.WriteFile(l.fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (l *Loader) applyEnvironmentOverrides(config *Config) error {
	strs := []struct {
		env    string
		target *string
	}{
		{EnvOpenAIKey, &config.Providers.OpenAIKey},
		{EnvGoogleKey, &config.Providers.GoogleKey},
		{EnvAnthropicKey, &config.Providers.AnthropicKey},
		{EnvMarketDataKey, &config.MarketData.APIKey},
		{EnvJWTSecret, &config.Auth.JWTSecret},
		{EnvAddr, &config.Server.Addr},
		{EnvDatabasePath, &config.Database.Path},
		{EnvLogLevel, &config.Logging.Level},
	}
	for _, s := range strs {
		if v := l.getenv(s.env); v != "" {
			*s.target = v
		}
	}

	if v := l.getenv(EnvFreeMessageLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvFreeMessageLimit, err)
		}
		config.Orchestrator.FreeMessageLimit = n
	}
	return nil
}
