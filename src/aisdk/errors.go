package aisdk

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownModel    = errors.New("unknown model")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingAPIKey   = errors.New("API key is required")
	ErrEmptyResponse   = errors.New("empty response from model")
	ErrStreamClosed    = errors.New("stream closed")
)

// ProviderError is a failed vendor call, tagged with the vendor it came from.
type ProviderError struct {
	Provider Provider
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err is or wraps a *ProviderError.
func IsProviderError(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr)
}
