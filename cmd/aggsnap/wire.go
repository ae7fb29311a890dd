//go:build wireinject
// +build wireinject

package main

import (
	"log/slog"

	"github.com/google/wire"

	"aggsnap/internal/app"
	"aggsnap/internal/crawl"
)

// App holds application dependencies built by Wire.
type App struct {
	Logger *slog.Logger
	Runner *crawl.Runner
}

// InitializeApp builds App from a resolved config via Wire.
// Caller must call cleanup when done; it closes the provider and the log file.
func InitializeApp(cfg *app.Config) (*App, func(), error) {
	wire.Build(
		app.ProviderSet,
		wire.Struct(new(App), "Logger", "Runner"),
	)
	return nil, nil, nil
}
