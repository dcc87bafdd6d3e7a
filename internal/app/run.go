package app

import (
	"context"
	"time"

	"github.com/vk/framewire/internal/ctxlog"
)

// Run drives the pump loop until the context is cancelled. One ticker
// interval is one pump tick; a game engine embedding the pump directly
// would call Tick from its own frame loop instead.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer()
	}

	if a.console != nil {
		if err := a.console.Start(ctx); err != nil {
			a.logger.Warn("Console client failed to start.", "error", err)
		}
	}

	interval := time.Second / time.Duration(a.config.FPS)
	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("🚀 Pump loop starting.", "fps", a.config.FPS)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("🏁 Pump loop stopped.")
			return a.shutdown(ctx)
		case <-ticker.C:
			a.pump.Tick(ctx)
		}
	}
}

// shutdown releases everything Run started, in reverse order.
func (a *App) shutdown(ctx context.Context) error {
	if a.console != nil {
		a.console.Stop(ctx)
	}

	err := a.closeHealthcheckServer(ctx)

	if a.journal != nil {
		if jerr := a.journal.Close(); jerr != nil {
			a.logger.Error("Journal close failed", "error", jerr)
			if err == nil {
				err = jerr
			}
		}
	}

	if err == nil {
		a.logger.Debug("Shutdown complete.")
	}
	return err
}
