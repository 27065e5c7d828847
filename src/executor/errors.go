package executor

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized rejects a turn without a user or for a chat the user
	// does not own.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSinkClosed is returned by Send after Close.
	ErrSinkClosed = errors.New("event sink is closed")

	// ErrSinkDetached is returned by Send once the reader has gone away.
	ErrSinkDetached = errors.New("event sink is detached")
)

// Error codes carried by ConfigError.
const (
	CodeModelNotFound     = "model_not_found"
	CodeMissingAPIKey     = "missing_api_key"
	CodeFreeTierExhausted = "free_tier_exhausted"
	CodeNoUserMessage     = "no_user_message"
	CodeInvalidMessages   = "invalid_messages"
)

// ConfigError rejects a turn before anything is streamed. Status is the HTTP
// status the request should fail with.
type ConfigError struct {
	Status  int
	Code    string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func modelNotFound(id string) *ConfigError {
	return &ConfigError{Status: http.StatusNotFound, Code: CodeModelNotFound, Message: fmt.Sprintf("Model %q not found", id)}
}

func missingAPIKey(provider string) *ConfigError {
	return &ConfigError{Status: http.StatusBadRequest, Code: CodeMissingAPIKey, Message: provider + " API key is required"}
}

func freeTierExhausted(provider string, limit int) *ConfigError {
	return &ConfigError{
		Status:  http.StatusBadRequest,
		Code:    CodeFreeTierExhausted,
		Message: fmt.Sprintf("You have used all %d free messages. Add your %s API key to continue.", limit, provider),
	}
}

func noUserMessage() *ConfigError {
	return &ConfigError{Status: http.StatusBadRequest, Code: CodeNoUserMessage, Message: "No user message found"}
}

func invalidMessages(err error) *ConfigError {
	return &ConfigError{Status: http.StatusBadRequest, Code: CodeInvalidMessages, Message: "Invalid messages: " + err.Error()}
}
