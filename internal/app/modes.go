package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mpetrov/gswapbot/internal/server"
	"github.com/mpetrov/gswapbot/internal/server/handler"
)

// TradeMode runs the full decision loop plus the optional HTTP API and
// archiver. It blocks until the context is cancelled.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Orchestrator.Run(ctx,
			a.cfg.Trading.TickInterval.Duration,
			a.cfg.Trading.JitterMax.Duration,
		)
	})

	a.startServer(ctx, g, deps)

	if deps.Archiver != nil {
		interval := a.cfg.S3.Interval.Duration
		if interval <= 0 {
			interval = time.Hour
		}
		g.Go(func() error {
			return deps.Archiver.Run(ctx, interval)
		})
	}

	return waitGroup(g)
}

// MonitorMode observes prices and signals without trading. The HTTP API
// stays available for dashboards.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Orchestrator.RunMonitor(ctx, a.cfg.Trading.TickInterval.Duration)
	})

	a.startServer(ctx, g, deps)

	return waitGroup(g)
}

// OnceMode executes a single tick and exits, useful for cron-style
// deployments and smoke tests.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "running a single tick")
	return deps.Orchestrator.RunOnce(ctx)
}

// startServer launches the HTTP API and WebSocket hub when enabled.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Server.Enabled {
		return
	}

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Status: handler.NewStatusHandler(deps.Orchestrator, a.logger),
	}
	if deps.TradeLog != nil {
		handlers.Trades = handler.NewTradeHandler(deps.TradeLog, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, deps.WSHub, deps.Metrics.Registry, a.logger)

	g.Go(func() error {
		deps.WSHub.Run(ctx)
		return ctx.Err()
	})
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("server shutdown failed", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})
}

// waitGroup normalizes errgroup termination: a context cancellation is a
// clean shutdown, anything else is a real failure.
func waitGroup(g *errgroup.Group) error {
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return context.Canceled
}
