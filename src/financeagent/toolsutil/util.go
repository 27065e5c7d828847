// Package toolsutil holds what the finance tools share: the turn a tool runs
// in and a package logger.
package toolsutil

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/executor"
)

// Package-level logger for tools
var logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

// SetLogger allows setting a custom logger for the tools package
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// GetLogger returns the package logger
func GetLogger() *slog.Logger {
	return logger
}

var (
	ErrDocumentNotFound = errors.New("Document not found")
	ErrNoSession        = errors.New("no user session")
)

// Turn is what a document tool needs from the request it runs in.
type Turn struct {
	UserID string
	Model  aisdk.LanguageModel
	Sink   executor.EventSink
	DB     *sql.DB
	Logger *slog.Logger
}

// Emit sends ev to the client. The turn goes on when the client is gone.
func (t *Turn) Emit(ev executor.Event) {
	if t == nil || t.Sink == nil {
		return
	}
	if err := t.Sink.Send(ev); err != nil {
		t.Log().Debug("event not delivered", "type", ev.EventType(), "error", err)
	}
}

// Log returns the turn logger, or the package logger when none was set.
func (t *Turn) Log() *slog.Logger {
	if t != nil && t.Logger != nil {
		return t.Logger
	}
	return logger
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// StringField reads one string field of a JSON object. It returns "" for
// anything that is not an object holding a string there.
func StringField(raw json.RawMessage, name string) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(obj[name], &s); err != nil {
		return ""
	}
	return s
}
