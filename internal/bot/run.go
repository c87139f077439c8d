package bot

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// Run drives the tick loop until ctx is cancelled. Ticks never overlap: a
// tick runs to completion, including confirmation waits, before the next
// delay starts. An optional random jitter up to jitterMax spaces ticks
// unevenly so the bot does not quote on a fixed cadence.
func (o *Orchestrator) Run(ctx context.Context, interval, jitterMax time.Duration) error {
	o.logger.Info("tick loop started",
		slog.Duration("interval", interval),
		slog.Duration("jitter_max", jitterMax),
		slog.Bool("dry_run", o.cfg.DryRun),
	)

	for {
		if err := o.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.logger.Error("tick finished with errors", slog.String("error", err.Error()))
		}

		delay := interval
		if jitterMax > 0 {
			delay += time.Duration(rand.Int63n(int64(jitterMax)))
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			o.logger.Info("tick loop stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunOnce executes a single tick, used by the "once" mode.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	return o.Tick(ctx)
}

// RunMonitor observes prices and evaluates signals on the configured
// interval without ever executing a trade. Used by the "monitor" mode.
func (o *Orchestrator) RunMonitor(ctx context.Context, interval time.Duration) error {
	o.logger.Info("monitor loop started", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		o.ticks.Add(1)
		o.lastTickAt.Store(o.now().UnixNano())
		price, err := o.observePrice(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.logger.Warn("price observation failed", slog.String("error", err.Error()))
		} else if ema, ok := o.history.EMA(); ok {
			_, sig := o.nextSignal(price, ema)
			o.logger.Info("monitor",
				slog.Float64("price", price),
				slog.Float64("ema", ema),
				slog.String("action", string(sig.Action)),
				slog.String("reason", sig.Reason),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
