package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // America/New_York on hosts without zoneinfo

	"github.com/spf13/cobra"

	"aggsnap/internal/app"
	"aggsnap/internal/slogx"
)

const (
	usage   = "aggsnap"
	short   = "Snapshot daily aggregate bars per ticker"
	long    = "Fetches daily aggregate bars for each ticker, tags every bar with a market phase, validates the result and writes data/<ticker>/asofdate=<date>/market_data_<attempt>.json."
	example = `aggsnap -t '["AAPL","MSFT"]' --api-key $POLYGON_API_KEY`
)

var (
	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:     usage,
		Short:   short,
		Long:    long,
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    execute,
	}

	configPath string
	overrides  app.Overrides
	failFast   bool
)

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	slog.SetDefault(slogx.NewDefault("info"))

	f := Cmd.Flags()
	f.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	f.StringVarP(&overrides.Tickers, "tickers", "t", "", `JSON array of tickers, e.g. '["AAPL","MSFT"]' (env POLYGON_TICKERS)`)
	f.StringVar(&overrides.APIKey, "api-key", "", "provider API key (env POLYGON_API_KEY)")
	f.StringVar(&overrides.From, "from", "", "first day, YYYY-MM-DD")
	f.StringVar(&overrides.To, "to", "", "last day and as-of date, YYYY-MM-DD")
	f.StringVar(&overrides.DataDir, "data-dir", "", "snapshot root directory")
	f.StringVar(&overrides.LogFile, "log-file", "", "log file path")
	f.BoolVar(&failFast, "fail-fast", false, "abort the run on the first failed ticker")
}

func main() {
	if err := Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func execute(cmd *cobra.Command, _ []string) error {
	start := time.Now()

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("fail-fast") {
		overrides.FailFast = &failFast
	}
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return err
	}
	if err := cfg.Resolve(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cmd.SilenceUsage = true

	a, cleanup, err := InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	a.Logger.Info("using data provider", "provider", a.Runner.Provider.GetName(), "tickers", len(cfg.Tickers), "data_dir", cfg.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = app.RunFlow(ctx, cfg, a.Runner, a.Logger, start)
	var failed *app.ErrTickersFailed
	if errors.As(err, &failed) {
		a.Logger.Error("run finished with failures", "failed", failed.Failed, "total", failed.Total)
	}
	return err
}
