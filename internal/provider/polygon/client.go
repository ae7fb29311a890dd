package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"aggsnap/internal/model"
)

const (
	// DefaultBaseURL is the public REST endpoint.
	DefaultBaseURL = "https://api.polygon.io"

	// Max 50k results per request
	maxLimit = 50000

	defaultMaxRetries = 10
	defaultBackoff    = 100 * time.Millisecond
	defaultMaxBackoff = 10 * time.Second

	dateLayout = "2006-01-02"
)

// StatusError is a non-retryable HTTP or API status.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("polygon: api status %s", e.Status)
	}
	return fmt.Sprintf("polygon: http status %d: %s", e.Code, e.Body)
}

// Client fetches aggregate bars over plain HTTP, following next_url pagination.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	logger     *slog.Logger
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the initial and maximum wait between retries.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		if initial > 0 {
			c.backoff = initial
		}
		if max >= initial {
			c.maxBackoff = max
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient constructs a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: newHTTPClient(),
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		maxBackoff: defaultMaxBackoff,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Aggregates returns every bar in [from, to], adjusted and oldest first.
func (c *Client) Aggregates(ctx context.Context, ticker string, multiplier int, timespan string, from, to time.Time) ([]model.RawBar, error) {
	next, err := c.aggregatesURL(ticker, multiplier, timespan, from, to)
	if err != nil {
		return nil, err
	}

	var bars []model.RawBar
	for page := 1; next != ""; page++ {
		resp, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, r := range resp.Results {
			bars = append(bars, r.ToRawBar())
		}
		c.logger.Debug("aggregates page", "ticker", ticker, "page", page, "results", len(resp.Results), "status", resp.Status)

		next = ""
		if resp.NextURL != "" {
			if next, err = c.withKey(resp.NextURL); err != nil {
				return nil, err
			}
		}
	}
	return bars, nil
}

// aggregatesURL builds GET URL for aggregates (adjusted, limit, sort, apiKey).
func (c *Client) aggregatesURL(ticker string, multiplier int, timespan string, from, to time.Time) (string, error) {
	raw := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		c.baseURL, url.PathEscape(ticker), multiplier, timespan, from.Format(dateLayout), to.Format(dateLayout))
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	q := u.Query()
	q.Set("adjusted", "true")
	q.Set("sort", "asc")
	q.Set("limit", strconv.Itoa(maxLimit))
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// withKey adds the api key to a next_url, which the API returns without it.
func (c *Client) withKey(next string) (string, error) {
	u, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("parse next_url: %w", err)
	}
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// get runs one GET with retries on network errors, 429 and 5xx. Other non-2xx
// statuses are returned at once as *StatusError.
func (c *Client) get(ctx context.Context, rawURL string) (*AggregatesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var lastErr error
	backoff := c.backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying aggregates request", "attempt", attempt, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.maxBackoff)
		}

		result, err := c.do(req)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var se *StatusError
		if errors.As(err, &se) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("polygon: giving up after %d retries: %w", c.maxRetries, lastErr)
}

// do performs a single request. Retryable failures come back as plain errors.
func (c *Client) do(req *http.Request) (*AggregatesResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polygon: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("polygon: http status %d: %s", resp.StatusCode, string(body))
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var result AggregatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("polygon: parse JSON: %w", err)
	}
	switch result.Status {
	case "OK", "DELAYED":
		return &result, nil
	}
	return nil, &StatusError{Status: result.Status}
}
