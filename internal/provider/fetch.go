package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"aggsnap/internal/model"
)

// ErrNoData is wrapped when the provider returns zero bars for the window.
var ErrNoData = errors.New("no data")

// FetchError is a terminal failure to obtain bars for a ticker.
type FetchError struct {
	Provider string
	Ticker   string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Ticker, e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetch validates req and pulls its bars from dp. Retries are the provider's
// business; whatever error survives them, or an empty result, comes back as a
// *FetchError.
func Fetch(ctx context.Context, dp DataProvider, req AggsRequest, logger *slog.Logger) ([]model.RawBar, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := req.Validate(); err != nil {
		return nil, &FetchError{Provider: dp.GetName(), Ticker: req.Ticker, Err: err}
	}

	logger.Info("pulling data from aggregate api",
		"provider", dp.GetName(),
		"ticker", req.Ticker,
		"multiplier", req.Multiplier,
		"timespan", req.Timespan,
		"from", req.From.Format(DateLayout),
		"to", req.To.Format(DateLayout))

	bars, err := dp.ListAggs(ctx, req)
	if err != nil {
		return nil, &FetchError{Provider: dp.GetName(), Ticker: req.Ticker, Err: err}
	}
	if len(bars) == 0 {
		return nil, &FetchError{Provider: dp.GetName(), Ticker: req.Ticker, Err: ErrNoData}
	}
	logger.Debug("aggregate api returned", "ticker", req.Ticker, "bars", len(bars))
	return bars, nil
}
