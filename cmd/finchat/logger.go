package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/lmittmann/tint"
)

// newLogger builds the process logger. Text output is colored with tint
// when w is a terminal.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	lvl := parseLogLevel(level)
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !term.IsTerminal(f.Fd())
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:   lvl,
		NoColor: noColor,
	}))
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
