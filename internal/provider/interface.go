package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aggsnap/internal/model"
	"aggsnap/internal/tickers"
)

// ErrInvalidRequest is wrapped by AggsRequest.Validate failures.
var ErrInvalidRequest = errors.New("invalid aggregates request")

// DateLayout is the YYYY-MM-DD form used for request bounds, file names and partitions.
const DateLayout = "2006-01-02"

var timespans = map[string]bool{
	"second": true, "minute": true, "hour": true, "day": true,
	"week": true, "month": true, "quarter": true, "year": true,
}

// AggsRequest asks for bars of Multiplier x Timespan between From and To, both inclusive.
type AggsRequest struct {
	Ticker     string
	Multiplier int
	Timespan   string
	From       time.Time
	To         time.Time
}

// Validate reports whether the request is well formed.
func (r AggsRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Ticker) == "":
		return fmt.Errorf("%w: empty ticker", ErrInvalidRequest)
	case r.Multiplier < 1:
		return fmt.Errorf("%w: multiplier %d < 1", ErrInvalidRequest, r.Multiplier)
	case !timespans[r.Timespan]:
		return fmt.Errorf("%w: unknown timespan %q", ErrInvalidRequest, r.Timespan)
	case r.To.Before(r.From):
		return fmt.Errorf("%w: from %s after to %s", ErrInvalidRequest, r.From.Format(DateLayout), r.To.Format(DateLayout))
	}
	if err := tickers.Check(r.Ticker); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// DateRange renders the window as "from..to".
func (r AggsRequest) DateRange() string {
	return r.From.Format(DateLayout) + ".." + r.To.Format(DateLayout)
}

// DataProvider is the abstraction used by the application when accessing a data source.
// Implementations own pagination, retry/backoff and their resource cleanup.
type DataProvider interface {
	GetName() string
	// ListAggs returns every bar in the window, oldest first.
	ListAggs(ctx context.Context, req AggsRequest) ([]model.RawBar, error)
	Close() error
}
