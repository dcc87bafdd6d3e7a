package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/framewire/internal/clock"
	"github.com/vk/framewire/internal/ctxlog"
	"github.com/vk/framewire/internal/journal"
	"github.com/vk/framewire/internal/manifest"
	"github.com/vk/framewire/internal/options"
	"github.com/vk/framewire/internal/pump"
	"github.com/vk/framewire/internal/registry"
	"github.com/vk/framewire/modules/console"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	clock      clock.Clock
	registry   *registry.Registry
	options    *options.Manager
	journal    *journal.Store
	pump       *pump.Pump
	console    *console.Client
	httpServer *http.Server
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Startup failures here are programmer or deployment errors, so New panics;
// the entrypoint recovers and turns the panic into a clean exit.
func New(outW io.Writer, cfg *Config, clk clock.Clock, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if clk == nil {
		clk = clock.Real()
	}

	// Create and populate the registry with Go modules.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	// Populate the catalog from the on-disk manifests.
	manifests, err := manifest.Load(ctx, cfg.ModulesPath)
	if err != nil {
		panic(fmt.Errorf("failed to load module manifests: %w", err))
	}
	if err := reg.PopulateFromManifests(ctx, manifests); err != nil {
		panic(err)
	}
	logger.Debug("Registry definitions populated from manifests.", "commands", len(reg.CommandNames()))

	// Validate the integrity of the registry.
	if err := reg.Validate(ctx); err != nil {
		// A mismatch between manifests and Go code is a programmer error.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		clock:    clk,
		registry: reg,
		options:  options.NewManager(ctx, cfg.OptionsPath, !cfg.DiskDisabled, reg.Bindings),
	}

	// The recorder list is filled in after the pump exists, so the console
	// can hold the pump and still observe executions.
	recorders := &pump.MultiRecorder{}
	a.pump = pump.New(pump.Config{
		Bindings: reg.Bindings,
		Services: reg.Services,
		Clock:    clk,
		Recorder: recorders,
	})

	if cfg.JournalPath != "" && !cfg.DiskDisabled {
		store, err := journal.Open(ctx, cfg.JournalPath)
		if err != nil {
			panic(fmt.Errorf("failed to open journal: %w", err))
		}
		a.journal = store
		*recorders = append(*recorders, journal.NewRecorder(store))
		logger.Debug("Execution journal opened.", "path", cfg.JournalPath)
	}

	if cfg.ConsoleURL != "" {
		a.console = console.New(cfg.ConsoleURL, reg, a.pump)
		*recorders = append(*recorders, a.console)
	}

	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Logger returns the application's isolated logger. This is primarily
// for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Pump returns the application's command pump. This is primarily for testing.
func (a *App) Pump() *pump.Pump {
	return a.pump
}

// Options returns the engine options manager. This is primarily for testing.
func (a *App) Options() *options.Manager {
	return a.options
}

// Journal returns the execution journal, or nil when it is disabled.
func (a *App) Journal() *journal.Store {
	return a.journal
}
