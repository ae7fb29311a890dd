package app

import (
	"log/slog"

	"github.com/google/wire"

	"aggsnap/internal/crawl"
	"aggsnap/internal/provider"
	"aggsnap/internal/saver"
	"aggsnap/internal/slogx"
	"aggsnap/internal/snapshot"
	"aggsnap/internal/transform"
)

// ProviderSet is everything InitializeApp needs besides the *Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideDataProvider,
	ProvideTransformer,
	ProvideWriter,
	ProvidePacketSaver,
	ProvideRunner,
)

// ProvideLogger opens the log file and makes the logger the slog default (for Wire).
func ProvideLogger(cfg *Config) (*slog.Logger, func(), error) {
	logger, closer, err := slogx.NewFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return logger, func() { _ = closer.Close() }, nil
}

// ProvideDataProvider creates the configured provider (for Wire). The cleanup closes it.
func ProvideDataProvider(cfg *Config, logger *slog.Logger) (provider.DataProvider, func(), error) {
	dp, err := CreateProvider(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return dp, func() {
		if err := dp.Close(); err != nil {
			logger.Warn("close provider", "error", err)
		}
	}, nil
}

func ProvideTransformer(logger *slog.Logger) (*transform.Transformer, error) {
	return transform.New(logger)
}

func ProvideWriter(logger *slog.Logger) *snapshot.Writer {
	return snapshot.NewWriter(logger)
}

// ProvidePacketSaver creates the raw archive saver (for Wire). Nil when RawFormat is empty.
func ProvidePacketSaver(cfg *Config) (saver.PacketSaver, error) {
	if cfg.RawFormat == "" {
		return nil, nil
	}
	return saver.NewPacketSaver(cfg.RawFormat)
}

// ProvideRunner assembles the orchestrator (for Wire).
func ProvideRunner(cfg *Config, dp provider.DataProvider, tr *transform.Transformer, w *snapshot.Writer, ps saver.PacketSaver, logger *slog.Logger) *crawl.Runner {
	return &crawl.Runner{
		Provider:      dp,
		Transformer:   tr,
		Writer:        w,
		Layout:        snapshot.Layout{Root: cfg.DataDir},
		Archive:       ps,
		ArchiveDir:    cfg.RawDir(),
		ReportDir:     cfg.DataDir,
		FailFast:      cfg.FailFast,
		TickerTimeout: cfg.TickerTimeout,
		Logger:        logger,
	}
}
