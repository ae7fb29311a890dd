package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	massive "github.com/massive-com/client-go/v2/rest"
	"github.com/massive-com/client-go/v2/rest/iter"
	"github.com/massive-com/client-go/v2/rest/models"

	"aggsnap/internal/model"
	"aggsnap/internal/provider/polygon"
)

const (
	massiveLimit        = 50000
	massiveRetryWait    = 100 * time.Millisecond
	massiveRetryMaxWait = 10 * time.Second
)

// MassiveProvider is a DataProvider backed by the Massive (formerly Polygon) SDK.
// Paging and retries go through the SDK's resty client. Results are decoded into
// polygon.BarRaw so absent fields stay null instead of becoming zero.
type MassiveProvider struct {
	client *massive.Client
}

// MassiveOption configures the SDK's HTTP client.
type MassiveOption func(*resty.Client)

// WithMassiveBaseURL points the client at another host (tests, proxies).
func WithMassiveBaseURL(u string) MassiveOption {
	return func(c *resty.Client) {
		if u != "" {
			c.SetBaseURL(u)
		}
	}
}

// WithMassiveRetryWait sets the initial and maximum wait between retries.
func WithMassiveRetryWait(wait, maxWait time.Duration) MassiveOption {
	return func(c *resty.Client) {
		c.SetRetryWaitTime(wait).SetRetryMaxWaitTime(maxWait)
	}
}

// NewMassiveProvider creates a Massive-backed DataProvider that retries network
// errors, 429 and 5xx up to maxRetries times.
func NewMassiveProvider(apiKey string, maxRetries int, opts ...MassiveOption) *MassiveProvider {
	client := massive.New(apiKey)
	client.HTTP.
		SetRetryCount(maxRetries).
		SetRetryWaitTime(massiveRetryWait).
		SetRetryMaxWaitTime(massiveRetryMaxWait).
		AddRetryCondition(retryable)
	for _, opt := range opts {
		opt(client.HTTP)
	}
	return &MassiveProvider{client: client}
}

func retryable(res *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if res == nil {
		return false
	}
	code := res.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// GetName returns provider name
func (p *MassiveProvider) GetName() string {
	return "Massive"
}

// aggsPage is one page of /v2/aggs. It satisfies iter.ListResponse.
type aggsPage struct {
	polygon.AggregatesResponse
}

func (a *aggsPage) NextPage() string { return a.NextURL }

// ListAggs pages through the aggregates endpoint for req, adjusted and ascending.
func (p *MassiveProvider) ListAggs(ctx context.Context, req AggsRequest) ([]model.RawBar, error) {
	params := models.ListAggsParams{
		Ticker:     req.Ticker,
		Multiplier: req.Multiplier,
		Timespan:   models.Timespan(req.Timespan),
		From:       models.Millis(req.From),
		To:         models.Millis(req.To),
	}.WithAdjusted(true).WithOrder(models.Asc).WithLimit(massiveLimit)

	it := iter.NewIter(ctx, massive.ListAggsPath, params, func(uri string) (iter.ListResponse, []polygon.BarRaw, error) {
		page := &aggsPage{}
		err := p.client.CallURL(ctx, http.MethodGet, uri, page)
		return page, page.Results, err
	})

	var bars []model.RawBar
	for it.Next() {
		bars = append(bars, it.Item().ToRawBar())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

// Close closes connections
func (p *MassiveProvider) Close() error {
	return nil
}
