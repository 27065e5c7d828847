package main

import (
	"errors"

	"github.com/elee1766/finchat/src/app"
	"github.com/elee1766/finchat/src/config"
	"github.com/elee1766/finchat/src/executor"
)

// Exit codes following standard conventions
const (
	ExitSuccess = 0 // Success
	ExitError   = 1 // General error
	ExitUsage   = 2 // Usage error
	ExitConfig  = 3 // Configuration error
	ExitAuth    = 4 // Authentication error
)

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	var verr config.ValidationError
	var cerr *executor.ConfigError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &verr), errors.Is(err, app.ErrNoJWTSecret):
		return ExitConfig
	case errors.Is(err, executor.ErrUnauthorized):
		return ExitAuth
	case errors.As(err, &cerr):
		if cerr.Code == executor.CodeMissingAPIKey || cerr.Code == executor.CodeFreeTierExhausted {
			return ExitAuth
		}
		return ExitUsage
	default:
		return ExitError
	}
}
