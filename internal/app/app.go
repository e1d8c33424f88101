package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/recipegrid/internal/ctxlog"
	"github.com/vk/recipegrid/internal/unitconf"
	"github.com/vk/recipegrid/internal/units"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *units.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and unit
// registry. A failure to load the units configuration is a fatal startup
// error and panics.
func NewApp(outW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	registry := units.Builtin()
	if config.UnitsPath != "" {
		var err error
		registry, err = unitconf.Load(ctx, config.UnitsPath)
		if err != nil {
			// A failure to load config is a fatal startup error.
			panic(fmt.Errorf("failed to load units configuration: %w", err))
		}
		logger.Debug("Units configuration loaded.", "path", config.UnitsPath)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		registry: registry,
	}
}

// Registry returns the application's unit registry. This is primarily for
// testing.
func (a *App) Registry() *units.Registry {
	return a.registry
}
