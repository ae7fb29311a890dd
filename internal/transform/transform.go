// Package transform turns a raw provider frame into validated bars: timestamps
// normalized to UTC, each row tagged with a market phase, and the result checked
// against schema.Bars.
package transform

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/guregu/null/v6"

	"aggsnap/internal/frame"
	"aggsnap/internal/model"
	"aggsnap/internal/schema"
)

// ExchangeZone is the wall-clock zone provider timestamps are interpreted in.
const ExchangeZone = "America/New_York"

// volumeLag is the helper column holding the previous row's volume.
const volumeLag = "volume_1"

// Transformer applies the bar pipeline. The zero value is not usable; use New.
type Transformer struct {
	loc    *time.Location
	logger *slog.Logger
}

// New loads the exchange zone. Binaries should import time/tzdata so this works
// on hosts without a zoneinfo database.
func New(logger *slog.Logger) (*Transformer, error) {
	loc, err := time.LoadLocation(ExchangeZone)
	if err != nil {
		return nil, fmt.Errorf("load zone %s: %w", ExchangeZone, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{loc: loc, logger: logger}, nil
}

// Transform runs the whole pipeline over raw. Row count and order are preserved.
// Any contract failure is returned as a *schema.Violation.
func (t *Transformer) Transform(raw *frame.Frame) (*frame.Frame, error) {
	t.logger.Info("beginning transformation", "columns", raw.Columns(), "height", raw.Height())

	if _, err := schema.RawBars.Validate(raw); err != nil {
		return nil, err
	}
	ts, err := raw.Int64Column(model.ColTimestamp)
	if err != nil {
		return nil, err
	}
	f, err := raw.WithColumns(NormalizeTimestamps(ts, t.loc))
	if err != nil {
		return nil, fmt.Errorf("normalize timestamps: %w", err)
	}

	vol, err := f.Float64Column(model.ColVolume)
	if err != nil {
		return nil, err
	}
	f, err = f.WithColumns(vol.Shift(1).Alias(volumeLag))
	if err != nil {
		return nil, fmt.Errorf("shift volume: %w", err)
	}

	phases, err := tagPhases(f)
	if err != nil {
		return nil, err
	}
	f, err = f.WithColumns(phases)
	if err != nil {
		return nil, fmt.Errorf("tag phases: %w", err)
	}

	return schema.Bars.Validate(f.Drop(volumeLag))
}

// TransformBars is Transform over a provider slice.
func (t *Transformer) TransformBars(bars []model.RawBar) (*frame.Frame, error) {
	return t.Transform(frame.FromRawBars(bars))
}

// NormalizeTimestamps reads ts as epoch milliseconds, takes the resulting wall
// clock as local time in loc, and returns the instants in UTC.
func NormalizeTimestamps(ts *frame.Int64Series, loc *time.Location) *frame.DatetimeSeries {
	out := make([]null.Time, ts.Len())
	for i := range out {
		if v := ts.At(i); v.Valid {
			out[i] = null.TimeFrom(LocalizeEpochMillis(v.Int64, loc))
		}
	}
	return frame.NewDatetime(ts.Name(), "ms", time.UTC, out)
}

// LocalizeEpochMillis treats the UTC wall clock of ms as a wall clock in loc.
// 2025-01-02 09:30 (as epoch ms) becomes 2025-01-02 14:30 UTC.
// Wall clocks skipped or repeated by a DST change do not fail: time.Date picks
// one of the two offsets. Daily bars sit at local midnight and never hit this.
func LocalizeEpochMillis(ms int64, loc *time.Location) time.Time {
	w := time.UnixMilli(ms).UTC()
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), loc).UTC()
}

// Phase classifies one row. Any null operand yields Neutral.
func Phase(open, close, volume, prevVolume null.Float) model.Phase {
	if !open.Valid || !close.Valid || !volume.Valid || !prevVolume.Valid {
		return model.PhaseNeutral
	}
	if volume.Float64 <= prevVolume.Float64 {
		return model.PhaseNeutral
	}
	switch {
	case close.Float64 > open.Float64:
		return model.PhaseBull
	case close.Float64 < open.Float64:
		return model.PhaseBear
	}
	return model.PhaseNeutral
}

func tagPhases(f *frame.Frame) (*frame.StringSeries, error) {
	open, err := f.Float64Column(model.ColOpen)
	if err != nil {
		return nil, err
	}
	closes, err := f.Float64Column(model.ColClose)
	if err != nil {
		return nil, err
	}
	vol, err := f.Float64Column(model.ColVolume)
	if err != nil {
		return nil, err
	}
	prev, err := f.Float64Column(volumeLag)
	if err != nil {
		return nil, err
	}

	out := make([]null.String, f.Height())
	for i := range out {
		out[i] = null.StringFrom(string(Phase(open.At(i), closes.At(i), vol.At(i), prev.At(i))))
	}
	return frame.NewString(model.ColMarketPhase, out), nil
}
