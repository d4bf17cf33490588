// Package eodhd provides a client for the EODHD market data API.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/foliotrack/foliotrack/internal/common"
	"github.com/foliotrack/foliotrack/internal/interfaces"
	"github.com/foliotrack/foliotrack/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the MarketDataClient interface against EODHD.
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

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        int64       `json:"volume"`
}

// GetEODSeries retrieves end-of-day closes for a ticker within a date range,
// sorted ascending. Adjusted close is preferred so splits and dividends do
// not appear as price moves.
func (c *Client) GetEODSeries(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	if !from.IsZero() {
		params.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		params.Set("to", to.Format("2006-01-02"))
	}

	path := fmt.Sprintf("/eod/%s", ticker)

	var bars []eodBarResponse
	if err := c.get(ctx, path, params, &bars); err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(bars))
	for _, bar := range bars {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			continue
		}
		close := float64(bar.AdjustedClose)
		if close <= 0 {
			close = float64(bar.Close)
		}
		if close <= 0 {
			continue
		}
		points = append(points, models.PricePoint{Date: date, Close: close})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	c.logger.Debug().Str("ticker", ticker).Int("points", len(points)).Msg("EOD series fetched")
	return points, nil
}

// liveQuoteResponse represents the real-time quote API response.
type liveQuoteResponse struct {
	Code          string      `json:"code"`
	Close         flexFloat64 `json:"close"`
	PreviousClose flexFloat64 `json:"previousClose"`
	Timestamp     int64       `json:"timestamp"`
}

// GetLiveQuote retrieves the latest delayed price for a ticker, falling back
// to the previous close when the live field is absent.
func (c *Client) GetLiveQuote(ctx context.Context, ticker string) (float64, error) {
	path := fmt.Sprintf("/real-time/%s", ticker)

	var quote liveQuoteResponse
	if err := c.get(ctx, path, nil, &quote); err != nil {
		return 0, err
	}

	price := float64(quote.Close)
	if price <= 0 {
		price = float64(quote.PreviousClose)
	}
	if price <= 0 {
		return 0, fmt.Errorf("no usable quote for %s", ticker)
	}
	return price, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
