package findata

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds configuration for the market-data client
type Config struct {
	APIKey     string        // financialdatasets.ai API key
	BaseURL    string        // Base URL for the API
	Logger     *slog.Logger  // Logger for debugging
	Timeout    time.Duration // HTTP timeout
	RetryCount int           // Number of attempts for failed requests
	RetryDelay time.Duration // Delay between retries, multiplied by the attempt number
	HTTPClient *http.Client  // Optional client, Timeout is ignored when set
}
