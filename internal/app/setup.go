package app

import (
	"fmt"
	"log/slog"
	"strings"

	"aggsnap/internal/provider"
	"aggsnap/internal/provider/polygon"
)

// CreateProvider creates DataProvider from config (massive SDK or plain HTTP).
func CreateProvider(cfg *Config, logger *slog.Logger) (provider.DataProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("POLYGON_API_KEY not set")
	}
	switch strings.ToLower(cfg.Provider) {
	case ProviderMassive:
		logger.Info("generating massive client", "max_retries", cfg.MaxRetries)
		return provider.NewMassiveProvider(cfg.APIKey, cfg.MaxRetries, provider.WithMassiveBaseURL(cfg.BaseURL)), nil
	case ProviderHTTP:
		logger.Info("generating polygon http client", "base_url", cfg.BaseURL, "max_retries", cfg.MaxRetries)
		return provider.NewPolygonProvider(cfg.APIKey,
			polygon.WithBaseURL(cfg.BaseURL),
			polygon.WithMaxRetries(cfg.MaxRetries),
			polygon.WithLogger(logger),
		), nil
	default:
		return nil, fmt.Errorf("unsupported data provider: %s. Options: %s, %s", cfg.Provider, ProviderMassive, ProviderHTTP)
	}
}
