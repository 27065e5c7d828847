package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/elee1766/finchat/src/app"
	"github.com/elee1766/finchat/src/config"
)

// loadConfig loads the config file and environment, then applies the global
// flags. Flag values are validated with the rest of the config.
func loadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.NewLoader(nil).Load(cli.Config)
	if err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadDotEnv reads .env from the working directory when present. Variables
// already set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// openApp loads config and builds the app with a logger on stderr. The
// default level is quieter for one-shot commands.
func openApp(ctx context.Context, cli *CLI, defaultLevel string) (*app.App, *slog.Logger, error) {
	cfg, err := loadConfig(cli)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Logging.Level
	if cli.LogLevel == "" && defaultLevel != "" {
		level = defaultLevel
	}
	logger := newLogger(os.Stderr, level, cfg.Logging.Format)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}
