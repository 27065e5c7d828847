package findata

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrNoAPIKey indicates the API key is missing
	ErrNoAPIKey = errors.New("market data API key is required")

	// ErrTickerRequired indicates a request without a ticker
	ErrTickerRequired = errors.New("ticker is required")

	// ErrNoFilters indicates a search without filters
	ErrNoFilters = errors.New("at least one filter is required")
)

// APIError represents a non-2xx response from the market-data API.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	RequestID  string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error is retryable.
func (e *APIError) IsRetryable() bool {
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound returns true if the API has no data for the request.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// parseAPIError builds an APIError from a response body. The API is not
// consistent about its error shape, so several are tried.
func parseAPIError(status int, body []byte, header http.Header) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		RequestID:  header.Get("X-Request-ID"),
	}
	if ra := header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		apiErr.Message = nested.Error.Message
		apiErr.Code = nested.Error.Code
		return apiErr
	}

	var flat struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &flat); err == nil {
		switch {
		case flat.Message != "":
			apiErr.Message = flat.Message
			apiErr.Code = flat.Error
		case flat.Error != "":
			apiErr.Message = flat.Error
		case flat.Detail != "":
			apiErr.Message = flat.Detail
		}
		if apiErr.Message != "" {
			return apiErr
		}
	}

	apiErr.Message = string(body)
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	return false
}

// GetRetryDelay returns the delay before the given attempt, starting at 1.
func GetRetryDelay(err error, base time.Duration, attempt int) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}
	delay := base * time.Duration(attempt)
	if delay > time.Minute {
		delay = time.Minute
	}
	return delay
}
