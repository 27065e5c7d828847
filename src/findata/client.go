package findata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.financialdatasets.ai"
	defaultTimeout = 30 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 10 * 1024 * 1024
)

// Client is the financialdatasets.ai API client.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new market-data client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.RetryCount == 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger.With("component", "findata_client"),
	}
}

// HasAPIKey reports whether requests will be authenticated.
func (c *Client) HasAPIKey() bool {
	return c.config.APIKey != ""
}

// GetPriceSnapshot returns the latest quote for ticker.
func (c *Client) GetPriceSnapshot(ctx context.Context, ticker string) (*PriceSnapshot, error) {
	if ticker == "" {
		return nil, ErrTickerRequired
	}
	var out struct {
		Snapshot PriceSnapshot `json:"snapshot"`
	}
	q := url.Values{"ticker": {ticker}}
	if err := c.get(ctx, "/prices/snapshot", q, &out); err != nil {
		return nil, err
	}
	if out.Snapshot.Ticker == "" {
		out.Snapshot.Ticker = ticker
	}
	return &out.Snapshot, nil
}

// GetPrices returns a historical price series.
func (c *Client) GetPrices(ctx context.Context, req PricesRequest) (*PricesResponse, error) {
	if req.Ticker == "" {
		return nil, ErrTickerRequired
	}
	if req.Interval == "" {
		req.Interval = IntervalDay
	}
	if req.IntervalMultiplier == 0 {
		req.IntervalMultiplier = 1
	}
	q := url.Values{
		"ticker":              {req.Ticker},
		"start_date":          {req.StartDate},
		"end_date":            {req.EndDate},
		"interval":            {string(req.Interval)},
		"interval_multiplier": {strconv.Itoa(req.IntervalMultiplier)},
	}
	var out PricesResponse
	if err := c.get(ctx, "/prices/", q, &out); err != nil {
		return nil, err
	}
	if out.Ticker == "" {
		out.Ticker = req.Ticker
	}
	return &out, nil
}

// GetStatements fetches one statement kind.
func (c *Client) GetStatements(ctx context.Context, kind StatementKind, req StatementsRequest) (*StatementsResponse, error) {
	if req.Ticker == "" {
		return nil, ErrTickerRequired
	}
	if req.Period == "" {
		req.Period = PeriodTTM
	}
	q := url.Values{
		"ticker": {req.Ticker},
		"period": {string(req.Period)},
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.ReportPeriodLTE != "" {
		q.Set("report_period_lte", req.ReportPeriodLTE)
	}
	if req.ReportPeriodGTE != "" {
		q.Set("report_period_gte", req.ReportPeriodGTE)
	}

	var raw map[string]json.RawMessage
	if err := c.get(ctx, kind.path(), q, &raw); err != nil {
		return nil, err
	}
	out := &StatementsResponse{Kind: kind}
	if rows, ok := raw[string(kind)]; ok {
		if err := json.Unmarshal(rows, &out.Statements); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
		}
	}
	return out, nil
}

// GetIncomeStatements fetches income statements.
func (c *Client) GetIncomeStatements(ctx context.Context, req StatementsRequest) (*StatementsResponse, error) {
	return c.GetStatements(ctx, IncomeStatements, req)
}

// GetBalanceSheets fetches balance sheets.
func (c *Client) GetBalanceSheets(ctx context.Context, req StatementsRequest) (*StatementsResponse, error) {
	return c.GetStatements(ctx, BalanceSheets, req)
}

// GetCashFlowStatements fetches cash flow statements.
func (c *Client) GetCashFlowStatements(ctx context.Context, req StatementsRequest) (*StatementsResponse, error) {
	return c.GetStatements(ctx, CashFlowStatements, req)
}

// GetFinancialMetrics fetches derived metrics such as P/E ratio.
func (c *Client) GetFinancialMetrics(ctx context.Context, req StatementsRequest) (*StatementsResponse, error) {
	return c.GetStatements(ctx, FinancialMetrics, req)
}

// SearchStocks screens companies by statement fields.
func (c *Client) SearchStocks(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if len(req.Filters) == 0 {
		return nil, ErrNoFilters
	}
	if req.Period == "" {
		req.Period = PeriodTTM
	}
	if req.Limit == 0 {
		req.Limit = 5
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	var out SearchResponse
	if err := c.do(ctx, http.MethodPost, "/financials/search/", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, q, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte, out any) error {
	if c.config.APIKey == "" {
		return ErrNoAPIKey
	}
	logger := c.logger.With("method", method, "path", path)

	req, err := c.newRequest(ctx, method, path, q, body)
	if err != nil {
		return err
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		logger.Error("request failed", "error", err)
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, data, resp.Header)
		logger.Warn("received error response", "status_code", resp.StatusCode, "error", apiErr.Message)
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		logger.Error("failed to decode response", "error", err)
		return fmt.Errorf("failed to decode response: %w", err)
	}
	logger.Debug("request successful", "status_code", resp.StatusCode, "bytes", len(data))
	return nil
}

// newRequest creates a new HTTP request with the appropriate headers.
func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body []byte) (*http.Request, error) {
	u := c.config.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-API-Key", c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// doRequestWithRetry performs an HTTP request with retry logic. Client
// errors are returned at once; server errors and transport failures are
// retried with a linear delay.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		req.Body.Close()
	}

	var lastErr error
	logger := c.logger.With("url", req.URL.Path)

	for i := 0; i < c.config.RetryCount; i++ {
		if i > 0 {
			delay := GetRetryDelay(lastErr, c.config.RetryDelay, i)
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
		}

		reqCopy := req.Clone(req.Context())
		if bodyBytes != nil {
			reqCopy.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := c.httpClient.Do(reqCopy)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, err
			}
			lastErr = err
			logger.Debug("request attempt failed", "attempt", i+1, "error", err)
			continue
		}

		if resp.StatusCode < 500 {
			return resp, nil
		}

		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		lastErr = parseAPIError(resp.StatusCode, data, resp.Header)
		logger.Debug("server error, retrying", "attempt", i+1, "status_code", resp.StatusCode)
	}

	logger.Error("request failed after all retries", "retry_count", c.config.RetryCount, "error", lastErr)
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.RetryCount, lastErr)
}
