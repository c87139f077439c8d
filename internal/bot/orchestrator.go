// Package bot sequences one trading decision per tick. Each tick runs the
// same pipeline: observe the pair price, ensure the gas reserve, attempt a
// ledger-gated sell, evaluate triangular arbitrage, and otherwise run one
// directional signal. Stages fail independently; a stage error is logged
// and the tick moves on.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mpetrov/gswapbot/internal/arbitrage"
	"github.com/mpetrov/gswapbot/internal/domain"
	"github.com/mpetrov/gswapbot/internal/executor"
	"github.com/mpetrov/gswapbot/internal/gas"
	"github.com/mpetrov/gswapbot/internal/ledger"
	"github.com/mpetrov/gswapbot/internal/market"
	"github.com/mpetrov/gswapbot/internal/metrics"
	"github.com/mpetrov/gswapbot/internal/notify"
	"github.com/mpetrov/gswapbot/internal/signal"
)

// Executor is the slice of the execution coordinator the orchestrator
// drives.
type Executor interface {
	Execute(ctx context.Context, intent domain.TradeIntent) (domain.TradeOutcome, error)
}

// EventPublisher pushes live events to dashboard subscribers. Implemented
// by the websocket hub and the Redis publisher; nil disables publishing.
type EventPublisher interface {
	Broadcast(event string, payload any)
}

// MultiPublisher fans one event out to several publishers.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Broadcast(event string, payload any) {
	for _, p := range m {
		p.Broadcast(event, payload)
	}
}

// Config holds the orchestrator's decision parameters.
type Config struct {
	BaseToken  string
	QuoteToken string
	// Notional is the stable amount spent per signal buy.
	Notional decimal.Decimal

	MomentumThreshold float64
	MeanRevThreshold  float64

	ArbEnabled      bool
	ArbPath         []string
	ArbStartAmount  decimal.Decimal
	ArbMinProfitBps float64

	Mode   string
	DryRun bool
}

// Orchestrator runs the per-tick decision pipeline. It is the single
// writer of the price history and the position ledger.
type Orchestrator struct {
	cfg     Config
	dex     domain.Dex
	wallet  string
	history *market.History
	policy  signal.SelectionPolicy
	arb     *arbitrage.Evaluator
	ledger  *ledger.PositionLedger
	guard   *gas.Guard
	exec    Executor
	stats   *executor.Stats
	metrics *metrics.Metrics
	notify  *notify.Notifier
	events  EventPublisher
	logger  *slog.Logger

	ticks      atomic.Int64
	tickErrors atomic.Int64
	startedAt  time.Time
	lastTickAt atomic.Int64 // unix nanos

	now func() time.Time
}

// New creates an Orchestrator. notifier and events may be nil.
func New(
	cfg Config,
	dex domain.Dex,
	wallet string,
	history *market.History,
	policy signal.SelectionPolicy,
	arb *arbitrage.Evaluator,
	posLedger *ledger.PositionLedger,
	guard *gas.Guard,
	exec Executor,
	stats *executor.Stats,
	m *metrics.Metrics,
	notifier *notify.Notifier,
	events EventPublisher,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		dex:       dex,
		wallet:    wallet,
		history:   history,
		policy:    policy,
		arb:       arb,
		ledger:    posLedger,
		guard:     guard,
		exec:      exec,
		stats:     stats,
		metrics:   m,
		notify:    notifier,
		events:    events,
		logger:    logger.With(slog.String("component", "bot")),
		startedAt: time.Now().UTC(),
		now:       time.Now,
	}
}

// Tick runs one full decision cycle. Stage errors are collected into the
// returned error for the caller to log; they never abort later stages.
func (o *Orchestrator) Tick(ctx context.Context) error {
	started := o.now()
	o.ticks.Add(1)
	o.lastTickAt.Store(started.UnixNano())
	var errs []error

	price, err := o.observePrice(ctx)
	if err != nil {
		// Without a fresh price the signal stage has nothing to act on,
		// but sells and arbitrage quote independently and still run.
		errs = append(errs, err)
	}

	if o.guard != nil {
		if _, err := o.guard.EnsureReserve(ctx); err != nil {
			o.logger.Warn("gas reserve check failed", slog.String("error", err.Error()))
			o.notify.Eventf(notify.EventGasLow, "Gas reserve low",
				"reserve check failed: %v", err)
			errs = append(errs, err)
		}
	}

	sold, err := o.trySell(ctx)
	if err != nil {
		errs = append(errs, err)
	}

	arbExecuted := false
	if o.cfg.ArbEnabled {
		arbExecuted, err = o.tryArbitrage(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}

	// One directional signal per tick, skipped when arbitrage already
	// traded this cycle.
	if !arbExecuted {
		if err := o.runSignal(ctx, price, sold); err != nil {
			errs = append(errs, err)
		}
	}

	if o.metrics != nil {
		o.metrics.TicksTotal.Inc()
		o.metrics.TickDuration.Observe(o.now().Sub(started).Seconds())
		if len(errs) > 0 {
			o.metrics.TickErrors.Inc()
		}
	}
	if len(errs) > 0 {
		o.tickErrors.Add(1)
	}
	return errors.Join(errs...)
}

// observePrice quotes one unit of the base token in the quote token and
// records it.
func (o *Orchestrator) observePrice(ctx context.Context) (float64, error) {
	q, err := o.dex.Quote(ctx, o.cfg.BaseToken, o.cfg.QuoteToken, decimal.NewFromInt(1), 0)
	if err != nil {
		return 0, fmt.Errorf("bot: price quote: %w", err)
	}
	price, _ := q.AmountOut.Float64()
	o.history.Observe(price)

	pair := o.cfg.BaseToken + "/" + o.cfg.QuoteToken
	if o.metrics != nil {
		o.metrics.Price.WithLabelValues(pair).Set(price)
		if ema, ok := o.history.EMA(); ok {
			o.metrics.EMA.WithLabelValues(pair).Set(ema)
		}
	}
	if o.events != nil {
		ema, _ := o.history.EMA()
		o.events.Broadcast("price", map[string]any{
			"pair":  pair,
			"price": price,
			"ema":   ema,
			"at":    o.now().UTC(),
		})
	}
	return price, nil
}

// trySell liquidates the full tracked position when the quoted proceeds
// clear the ledger's cost-basis threshold.
func (o *Orchestrator) trySell(ctx context.Context) (bool, error) {
	asset := o.cfg.BaseToken
	if !o.ledger.Get(asset).IsOpen() {
		return false, nil
	}

	bals, err := o.dex.Balances(ctx, o.wallet)
	if err != nil {
		return false, fmt.Errorf("bot: sell balance read: %w", err)
	}
	qty := bals[asset]
	if o.guard != nil {
		// The gas asset's reserve floor is never sold.
		qty = o.sellableQty(asset, qty)
	}
	if o.metrics != nil {
		if gasBal, ok := bals[o.gasToken()]; ok {
			f, _ := gasBal.Float64()
			o.metrics.GasBalance.Set(f)
		}
	}
	if !qty.IsPositive() {
		return false, nil
	}

	q, err := o.dex.Quote(ctx, asset, o.cfg.QuoteToken, qty, 0)
	if err != nil {
		if errors.Is(err, domain.ErrNoQuote) {
			o.logger.Debug("sell quote unavailable", slog.String("asset", asset))
			return false, nil
		}
		return false, fmt.Errorf("bot: sell quote: %w", err)
	}

	decision := o.ledger.EvaluateSell(asset, qty, q.AmountOut)
	if !decision.Allowed {
		o.logger.Debug("sell denied",
			slog.String("asset", asset),
			slog.String("reason", decision.Reason),
			slog.String("threshold", decision.Threshold.String()),
			slog.String("proceeds", q.AmountOut.String()),
		)
		return false, nil
	}

	outcome, err := o.executeIntent(ctx, domain.TradeIntent{
		Direction: domain.DirectionSell,
		TokenIn:   asset,
		TokenOut:  o.cfg.QuoteToken,
		ExactIn:   qty,
	})
	if err != nil {
		return false, fmt.Errorf("bot: sell execution: %w", err)
	}
	if !outcome.Confirmed {
		return false, nil
	}

	o.ledger.ClearPosition(ctx, asset)
	o.logger.Info("position liquidated",
		slog.String("asset", asset),
		slog.String("units", qty.String()),
		slog.String("proceeds", q.AmountOut.String()),
	)
	o.notify.Eventf(notify.EventTradeConfirmed, "Position sold",
		"%s %s for ~%s %s (via %s)",
		qty, asset, q.AmountOut, o.cfg.QuoteToken, outcome.ConfirmedVia)
	return true, nil
}

// tryArbitrage evaluates the configured triangular path and executes it leg
// by leg when actionable. Each leg is re-quoted at submission; profit may
// regress between evaluation and execution, which is accepted.
func (o *Orchestrator) tryArbitrage(ctx context.Context) (bool, error) {
	if o.metrics != nil {
		o.metrics.ArbEvaluations.Inc()
	}
	chain, err := o.arb.Evaluate(ctx, o.cfg.ArbPath, o.cfg.ArbStartAmount)
	if err != nil {
		if errors.Is(err, domain.ErrNoQuote) {
			o.logger.Debug("arbitrage unavailable", slog.String("error", err.Error()))
			return false, nil
		}
		return false, fmt.Errorf("bot: arbitrage: %w", err)
	}
	if o.metrics != nil {
		o.metrics.ArbProfitBps.Set(chain.ProfitBps)
	}
	if !chain.Actionable(o.cfg.ArbMinProfitBps) {
		return false, nil
	}

	o.logger.Info("arbitrage actionable",
		slog.Float64("profit_bps", chain.ProfitBps),
		slog.String("start", chain.StartAmount.String()),
		slog.String("final", chain.FinalAmount.String()),
	)

	amountIn := chain.StartAmount
	for i, leg := range chain.Legs {
		outcome, err := o.executeIntent(ctx, domain.TradeIntent{
			Direction: domain.DirectionBuy,
			TokenIn:   leg.TokenIn,
			TokenOut:  leg.TokenOut,
			ExactIn:   amountIn,
		})
		if err != nil {
			return false, fmt.Errorf("bot: arbitrage leg %d: %w", i+1, err)
		}
		if !outcome.Confirmed {
			// An unconfirmed leg leaves the loop open; surface the
			// ambiguity and stop rather than trade on a guess.
			o.logger.Error("arbitrage leg unconfirmed, aborting remaining legs",
				slog.Int("leg", i+1))
			o.notify.Eventf(notify.EventTradeUnconfirmed, "Arbitrage leg unconfirmed",
				"leg %d (%s->%s) unconfirmed; manual follow-up required",
				i+1, leg.TokenIn, leg.TokenOut)
			return false, nil
		}
		amountIn = outcome.AmountOut
	}

	if o.metrics != nil {
		o.metrics.ArbExecutions.Inc()
	}
	o.notify.Eventf(notify.EventArbExecuted, "Arbitrage executed",
		"%v: %s -> %s (%.1f bps)",
		o.cfg.ArbPath, chain.StartAmount, amountIn, chain.ProfitBps)
	if o.events != nil {
		o.events.Broadcast("arbitrage", map[string]any{
			"path":       o.cfg.ArbPath,
			"profit_bps": chain.ProfitBps,
		})
	}
	return true, nil
}

// runSignal picks one generator for this tick and acts on its
// recommendation. Buys spend the fixed stable notional; a sell
// recommendation defers to the ledger-gated sell path, which already ran
// this tick.
func (o *Orchestrator) runSignal(ctx context.Context, price float64, soldThisTick bool) error {
	if price <= 0 {
		return nil
	}
	ema, ok := o.history.EMA()
	if !ok {
		return nil
	}

	gen, sig := o.nextSignal(price, ema)

	o.logger.Debug("signal evaluated",
		slog.String("generator", gen.String()),
		slog.String("action", string(sig.Action)),
		slog.String("reason", sig.Reason),
	)
	if o.events != nil && sig.Action != domain.ActionNone {
		o.events.Broadcast("signal", map[string]any{
			"generator": gen.String(),
			"action":    sig.Action,
			"reason":    sig.Reason,
		})
	}

	switch sig.Action {
	case domain.ActionBuy:
		return o.executeBuy(ctx, gen, sig)
	case domain.ActionSell:
		// Sells are gated on cost basis, not on signals. The gate ran at
		// the top of the tick; a second attempt the same tick would see
		// identical quotes.
		if !soldThisTick {
			o.logger.Debug("sell signal ignored, cost-basis gate not met",
				slog.String("generator", gen.String()))
		}
		return nil
	default:
		return nil
	}
}

// nextSignal asks the selection policy for this tick's generator and
// evaluates it.
func (o *Orchestrator) nextSignal(price, ema float64) (signal.Generator, signal.Signal) {
	gen := o.policy.Next()
	switch gen {
	case signal.GeneratorMeanReversion:
		return gen, signal.MeanReversion(price, ema, o.cfg.MeanRevThreshold)
	case signal.GeneratorFibonacci:
		sw, swingOK := o.history.Swing()
		return gen, signal.FibonacciSwing(price, ema, sw, swingOK)
	default:
		return gen, signal.Momentum(price, ema, o.cfg.MomentumThreshold)
	}
}

// executeBuy spends the configured stable notional on the base token and
// records the acquisition in the ledger once confirmed.
func (o *Orchestrator) executeBuy(ctx context.Context, gen signal.Generator, sig signal.Signal) error {
	outcome, err := o.executeIntent(ctx, domain.TradeIntent{
		Direction: domain.DirectionBuy,
		TokenIn:   o.cfg.QuoteToken,
		TokenOut:  o.cfg.BaseToken,
		ExactIn:   o.cfg.Notional,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoQuote) || errors.Is(err, domain.ErrInsufficientBalance) {
			o.logger.Debug("buy skipped", slog.String("error", err.Error()))
			return nil
		}
		return fmt.Errorf("bot: buy execution: %w", err)
	}
	if !outcome.Confirmed {
		return nil
	}

	o.ledger.RecordBuy(ctx, o.cfg.BaseToken, outcome.AmountOut, o.cfg.Notional)
	o.logger.Info("buy recorded",
		slog.String("generator", gen.String()),
		slog.String("reason", sig.Reason),
		slog.String("units", outcome.AmountOut.String()),
		slog.String("cost", o.cfg.Notional.String()),
	)
	o.notify.Eventf(notify.EventTradeConfirmed, "Buy executed",
		"%s: %s %s for %s %s (via %s)",
		gen, outcome.AmountOut, o.cfg.BaseToken,
		o.cfg.Notional, o.cfg.QuoteToken, outcome.ConfirmedVia)
	return nil
}

// executeIntent runs one intent through the executor and maintains trade
// metrics and unconfirmed-trade notifications.
func (o *Orchestrator) executeIntent(ctx context.Context, intent domain.TradeIntent) (domain.TradeOutcome, error) {
	if o.metrics != nil {
		o.metrics.TradesTotal.WithLabelValues(string(intent.Direction)).Inc()
	}
	outcome, err := o.exec.Execute(ctx, intent)
	if err != nil {
		return domain.TradeOutcome{}, err
	}
	if o.metrics != nil {
		o.metrics.TradesByOutcome.WithLabelValues(string(outcome.ConfirmedVia)).Inc()
	}
	if !outcome.Confirmed {
		o.notify.Eventf(notify.EventTradeUnconfirmed, "Trade unconfirmed",
			"%s %s->%s exact_in=%s; not re-submitted, follow up manually",
			intent.Direction, intent.TokenIn, intent.TokenOut, intent.ExactIn)
	}
	if o.events != nil {
		o.events.Broadcast("trade", map[string]any{
			"direction": intent.Direction,
			"token_in":  intent.TokenIn,
			"token_out": intent.TokenOut,
			"exact_in":  intent.ExactIn.String(),
			"confirmed": outcome.Confirmed,
			"via":       outcome.ConfirmedVia,
		})
	}
	return outcome, nil
}

func (o *Orchestrator) sellableQty(asset string, balance decimal.Decimal) decimal.Decimal {
	if asset != o.gasToken() {
		return balance
	}
	return o.guard.Sellable(balance)
}

func (o *Orchestrator) gasToken() string {
	if o.guard == nil {
		return ""
	}
	return o.guard.Token()
}

// Status snapshots the bot's state for the HTTP API.
func (o *Orchestrator) Status() domain.BotStatus {
	price, _ := o.history.Last()
	ema, _ := o.history.EMA()
	st := domain.BotStatus{
		Mode:         o.cfg.Mode,
		DryRun:       o.cfg.DryRun,
		Pair:         o.cfg.BaseToken + "/" + o.cfg.QuoteToken,
		LastPrice:    price,
		EMA:          ema,
		HistoryLen:   o.history.Len(),
		Ticks:        o.ticks.Load(),
		TickErrors:   o.tickErrors.Load(),
		StartedAt:    o.startedAt,
		OpenPosition: o.ledger.Get(o.cfg.BaseToken).IsOpen(),
	}
	if ns := o.lastTickAt.Load(); ns > 0 {
		st.LastTickAt = time.Unix(0, ns).UTC()
	}
	if o.stats != nil {
		st.Attempts = o.stats.Attempts.Load()
		st.Confirmed = o.stats.Confirmed.Load()
		st.Unconfirmed = o.stats.Unconfirmed.Load()
		st.Simulated = o.stats.Simulated.Load()
		st.Rejected = o.stats.Rejected.Load()
	}
	return st
}

// Positions exposes the current ledger snapshot.
func (o *Orchestrator) Positions() domain.Ledger {
	return o.ledger.Snapshot()
}

// History exposes the recorded price points.
func (o *Orchestrator) History() []market.PricePoint {
	return o.history.Points()
}
