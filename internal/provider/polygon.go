package provider

import (
	"context"

	"aggsnap/internal/model"
	"aggsnap/internal/provider/polygon"
)

// PolygonProvider is a DataProvider implementation backed by the plain-HTTP Polygon client.
type PolygonProvider struct {
	client *polygon.Client
}

// NewPolygonProvider creates a new Polygon-backed DataProvider.
func NewPolygonProvider(apiKey string, opts ...polygon.Option) *PolygonProvider {
	return &PolygonProvider{client: polygon.NewClient(apiKey, opts...)}
}

// GetName returns provider name
func (p *PolygonProvider) GetName() string {
	return "Polygon"
}

func (p *PolygonProvider) ListAggs(ctx context.Context, req AggsRequest) ([]model.RawBar, error) {
	return p.client.Aggregates(ctx, req.Ticker, req.Multiplier, req.Timespan, req.From, req.To)
}

// Close closes connections
func (p *PolygonProvider) Close() error {
	return nil
}
