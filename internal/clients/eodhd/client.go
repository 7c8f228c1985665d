// Package eodhd provides a client for the EODHD market data API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vimal2645/portfolio-analyzer/internal/common"
	"github.com/vimal2645/portfolio-analyzer/internal/interfaces"
	"github.com/vimal2645/portfolio-analyzer/internal/models"
)

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client serves close prices and split events from EODHD
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// eodBar represents one row of the EOD endpoint response
type eodBar struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adjusted_close"`
	Volume   int64   `json:"volume"`
}

// GetPriceOn returns the close price for symbol on date, falling back
// to the nearest earlier trading day within lookbackDays. The window
// keeps a weekend or holiday date from matching a price weeks away.
func (c *Client) GetPriceOn(ctx context.Context, symbol string, date time.Time, lookbackDays int) (float64, error) {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}

	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "d") // most recent first
	params.Set("from", date.AddDate(0, 0, -lookbackDays).Format("2006-01-02"))
	params.Set("to", date.Format("2006-01-02"))

	var bars []eodBar
	if err := c.get(ctx, fmt.Sprintf("/eod/%s", url.PathEscape(symbol)), params, &bars); err != nil {
		return 0, err
	}

	if len(bars) == 0 {
		return 0, models.ErrPriceUnavailable
	}
	return bars[0].Close, nil
}

// splitRow represents one row of the splits endpoint response,
// e.g. {"date": "2020-08-31", "split": "4.000000/1.000000"}
type splitRow struct {
	Date  string `json:"date"`
	Split string `json:"split"`
}

// GetSplits returns all known splits for symbol, oldest first.
// Rows with unparseable dates or non-positive ratios are dropped.
func (c *Client) GetSplits(ctx context.Context, symbol string) ([]models.SplitEvent, error) {
	var rows []splitRow
	if err := c.get(ctx, fmt.Sprintf("/splits/%s", url.PathEscape(symbol)), nil, &rows); err != nil {
		return nil, err
	}

	events := make([]models.SplitEvent, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			c.logger.Debug().Str("symbol", symbol).Str("date", row.Date).Msg("Skipping split with bad date")
			continue
		}
		ratio, ok := parseSplitRatio(row.Split)
		if !ok {
			c.logger.Debug().Str("symbol", symbol).Str("split", row.Split).Msg("Skipping split with bad ratio")
			continue
		}
		events = append(events, models.SplitEvent{
			Symbol:        symbol,
			EffectiveDate: date,
			Ratio:         ratio,
			Source:        models.SplitSourceProvider,
		})
	}

	return events, nil
}

// parseSplitRatio converts EODHD's "new/old" form ("4.000000/1.000000")
// into new shares per old share. A bare number is accepted as-is.
func parseSplitRatio(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil && v > 0
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d <= 0 {
		return 0, false
	}
	return n / d, true
}

// Ensure Client implements the provider interfaces
var (
	_ interfaces.PriceProvider = (*Client)(nil)
	_ interfaces.SplitProvider = (*Client)(nil)
)
