package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aggsnap/internal/crawl"
)

// ErrTickersFailed is returned by RunFlow when a run finished with failed tickers.
type ErrTickersFailed struct {
	Failed int
	Total  int
}

func (e *ErrTickersFailed) Error() string {
	return fmt.Sprintf("%d of %d tickers failed", e.Failed, e.Total)
}

// Job builds the run description from config.
func (c *Config) Job() crawl.Job {
	from, to := c.Window()
	return crawl.Job{
		Tickers:    c.Tickers,
		Multiplier: c.Multiplier,
		Timespan:   c.Timespan,
		From:       from,
		To:         to,
	}
}

// RunFlow runs the pipeline once, or daily at RunHour:RunMinute UTC until ctx
// is done. start is the process start time, used for the first run.
func RunFlow(ctx context.Context, cfg *Config, runner *crawl.Runner, logger *slog.Logger, start time.Time) error {
	if logger == nil {
		logger = slog.Default()
	}
	job := cfg.Job()
	if cfg.Schedule != ScheduleDaily {
		return runOnce(ctx, runner, job, start)
	}

	for {
		if err := runOnce(ctx, runner, job, start); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("run finished with errors", "error", err)
		}

		nextRun := nextRunTime(time.Now().UTC(), cfg.RunHour, cfg.RunMinute)
		waitDur := time.Until(nextRun)
		logger.Info("timer waiting", "hours", waitDur.Hours(), "until", nextRun.Format("2006-01-02 15:04"))
		timer := time.NewTimer(waitDur)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("stopping", "reason", ctx.Err(), "restart_at", nextRun.Format("2006-01-02 15:04"))
			return nil
		case <-timer.C:
		}
		start = time.Now()
	}
}

func runOnce(ctx context.Context, runner *crawl.Runner, job crawl.Job, start time.Time) error {
	sum, err := runner.Run(ctx, job, start)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return &ErrTickersFailed{Failed: sum.Failed, Total: len(sum.Results)}
	}
	return nil
}

// nextRunTime is the first hour:min UTC strictly after now.
func nextRunTime(now time.Time, hour, min int) time.Time {
	targetToday := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, time.UTC)
	if now.Before(targetToday) {
		return targetToday
	}
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, min, 0, 0, time.UTC)
}
