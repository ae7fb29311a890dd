// Package crawl runs the per-ticker fetch → transform → write cycle.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"aggsnap/internal/model"
	"aggsnap/internal/provider"
	"aggsnap/internal/saver"
	"aggsnap/internal/schema"
	"aggsnap/internal/snapshot"
	"aggsnap/internal/transform"
)

// Failure kinds recorded in logs and the run report.
const (
	KindFetch    = "fetch"
	KindSchema   = "schema"
	KindWrite    = "write"
	KindCanceled = "canceled"
	KindInternal = "internal"
)

// Job is one run: every ticker over the same window. The window's end is the as-of date.
type Job struct {
	Tickers    []string
	Multiplier int
	Timespan   string
	From       time.Time
	To         time.Time
}

// AsOf is the partition date snapshots are filed under.
func (j Job) AsOf() time.Time { return j.To }

func (j Job) request(ticker string) provider.AggsRequest {
	return provider.AggsRequest{
		Ticker:     ticker,
		Multiplier: j.Multiplier,
		Timespan:   j.Timespan,
		From:       j.From,
		To:         j.To,
	}
}

// TickerResult is the outcome for one ticker.
type TickerResult struct {
	Ticker  string
	Path    string
	Attempt int
	Records int
	Kind    string // empty on success
	Err     error
}

func (r TickerResult) Ok() bool { return r.Err == nil }

// Summary aggregates a run.
type Summary struct {
	Results []TickerResult
	Success int
	Failed  int
}

// Runner owns the collaborators of a run. Archive is optional.
type Runner struct {
	Provider      provider.DataProvider
	Transformer   *transform.Transformer
	Writer        *snapshot.Writer
	Layout        snapshot.Layout
	Archive       saver.PacketSaver
	ArchiveDir    string
	ReportDir     string
	FailFast      bool
	TickerTimeout time.Duration
	Logger        *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Run processes tickers strictly in order. A failed ticker is logged and
// recorded and the run moves on, unless FailFast is set, in which case the
// first error is returned. Cancellation stops before the next ticker and
// returns ctx.Err(). Files written before a failure are kept.
func (r *Runner) Run(ctx context.Context, job Job, start time.Time) (Summary, error) {
	logger := r.logger()
	var sum Summary
	var runErr error

	logger.Info("run started", "provider", r.Provider.GetName(), "tickers", len(job.Tickers),
		"from", job.From.Format(provider.DateLayout), "to", job.To.Format(provider.DateLayout))

	for _, ticker := range job.Tickers {
		if err := ctx.Err(); err != nil {
			logger.Warn("run interrupted", "error", err, "remaining", len(job.Tickers)-len(sum.Results))
			runErr = err
			break
		}

		res := r.runTicker(ctx, job, ticker, start)
		sum.Results = append(sum.Results, res)
		if res.Ok() {
			sum.Success++
			logger.Info("ticker ok", "ticker", ticker, "records", res.Records, "attempt", res.Attempt, "path", res.Path)
			continue
		}

		sum.Failed++
		logger.Error("ticker failed", "ticker", ticker, "kind", res.Kind, "date_range", job.request(ticker).DateRange(), "error", res.Err)
		if r.FailFast {
			runErr = res.Err
			break
		}
		if res.Kind == KindCanceled && ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
	}

	r.logSummary(sum)
	if r.ReportDir != "" {
		if err := writeRunReport(logger, r.ReportDir, job, sum); err != nil {
			logger.Warn("could not write run report", "error", err)
		}
	}
	return sum, runErr
}

func (r *Runner) runTicker(ctx context.Context, job Job, ticker string, start time.Time) TickerResult {
	logger := r.logger().With("ticker", ticker)
	res := TickerResult{Ticker: ticker}
	fail := func(err error) TickerResult {
		res.Err = err
		res.Kind = Classify(err)
		return res
	}

	if r.TickerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.TickerTimeout)
		defer cancel()
	}

	logger.Info("collecting data for stock")
	raw, err := provider.Fetch(ctx, r.Provider, job.request(ticker), logger)
	if err != nil {
		return fail(err)
	}
	r.archive(ticker, job, raw)

	f, err := r.Transformer.TransformBars(raw)
	if err != nil {
		return fail(err)
	}

	dir := r.Layout.PartitionDir(ticker, job.AsOf())
	attempt, err := snapshot.NextAttempt(dir)
	if err != nil {
		return fail(&snapshot.WriteError{Path: dir, Err: err})
	}
	path := r.Layout.AttemptPath(dir, attempt)
	result, err := r.Writer.Write(f, start, attempt, path)
	if err != nil {
		return fail(err)
	}

	res.Path = path
	res.Attempt = attempt
	res.Records = result.RecordsProcessed
	return res
}

// archive saves the raw packet when an archive is configured. Failures are logged only.
func (r *Runner) archive(ticker string, job Job, bars []model.RawBar) {
	if r.Archive == nil || r.ArchiveDir == "" || len(bars) == 0 {
		return
	}
	logger := r.logger()
	tickerDir := filepath.Join(r.ArchiveDir, ticker)
	if err := os.MkdirAll(tickerDir, 0o755); err != nil {
		logger.Warn("archive: cannot create folder", "ticker", ticker, "dir", tickerDir, "error", err)
		return
	}
	name := fmt.Sprintf("%s_%s_to_%s.%s", ticker,
		job.From.Format(provider.DateLayout), job.To.Format(provider.DateLayout), r.Archive.Extension())
	path := filepath.Join(tickerDir, name)
	if err := r.Archive.Save(bars, path); err != nil {
		logger.Warn("archive: failed to write", "ticker", ticker, "path", path, "error", err)
		return
	}
	logger.Debug("archive: saved raw packet", "ticker", ticker, "path", path, "bars", len(bars))
}

func (r *Runner) logSummary(sum Summary) {
	logger := r.logger()
	var total int
	for _, res := range sum.Results {
		total += res.Records
	}
	logger.Info("summary", "total_records", total, "success", sum.Success, "failed", sum.Failed)
	for _, res := range sum.Results {
		if res.Ok() {
			logger.Info("summary ticker", "ticker", res.Ticker, "records", res.Records)
		}
	}
	if sum.Failed > 0 {
		logger.Info("summary failed", "count", sum.Failed, "reasons", joinFailedReasons(failedEntries(sum)))
	}
}

// Classify maps an error from the pipeline to a failure kind.
func Classify(err error) string {
	var (
		fe *provider.FetchError
		sv *schema.Violation
		we *snapshot.WriteError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &fe):
		return KindFetch
	case errors.As(err, &sv):
		return KindSchema
	case errors.As(err, &we):
		return KindWrite
	}
	return KindInternal
}
