// Package executor turns trade decisions into bounded-slippage DEX
// submissions and confirms settlement. Confirmation runs as a small state
// machine per trade:
//
//	Planned -> Submitted -> Confirmed
//	                     -> TimedOut -> Polling -> Confirmed
//	                                             -> Unconfirmed
//
// The primary confirmation path is the DEX's own wait signal; when it fails
// or times out the executor falls back to polling wallet balances for the
// expected movement.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// ErrCooldown indicates a real submission was skipped because the previous
// one was too recent.
var ErrCooldown = errors.New("executor: cooldown between trades not elapsed")

// Config holds the executor's tunables.
type Config struct {
	Wallet      string
	SlippageBps int64
	WaitTimeout time.Duration
	Polling     PollingPolicy
	DryRun      bool
	// Cooldown is the minimum spacing between real submissions. Zero
	// disables the check.
	Cooldown time.Duration
}

// Stats are running execution counters, safe for concurrent reads by the
// status endpoint.
type Stats struct {
	Attempts    atomic.Int64
	Confirmed   atomic.Int64
	Unconfirmed atomic.Int64
	Simulated   atomic.Int64
	Rejected    atomic.Int64
}

// Coordinator executes trades against the DEX. The tick loop is the single
// caller; Execute is not safe for concurrent use.
type Coordinator struct {
	dex      domain.Dex
	cfg      Config
	tradeLog domain.TradeLogStore // optional
	logger   *slog.Logger

	stats      Stats
	lastSubmit time.Time

	// sleep is injectable so tests can run the polling loop with a fake
	// clock.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates a Coordinator. tradeLog may be nil to disable trade logging.
func New(dex domain.Dex, cfg Config, tradeLog domain.TradeLogStore, logger *slog.Logger) *Coordinator {
	if cfg.Polling.Interval <= 0 || cfg.Polling.MaxAttempts <= 0 {
		cfg.Polling = DefaultPollingPolicy()
	}
	return &Coordinator{
		dex:      dex,
		cfg:      cfg,
		tradeLog: tradeLog,
		logger:   logger.With(slog.String("component", "executor")),
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

// Stats exposes the running counters.
func (c *Coordinator) Stats() *Stats { return &c.stats }

// Execute runs one trade through the full state machine. The intent's
// ExactIn, Direction, and token pair must be set; FeeTier and MinOut are
// determined here from a fresh quote. Only Confirmed outcomes should drive
// ledger updates; an Unconfirmed outcome is returned with a nil error and
// Confirmed == false.
func (c *Coordinator) Execute(ctx context.Context, intent domain.TradeIntent) (domain.TradeOutcome, error) {
	c.stats.Attempts.Add(1)

	// Planned: re-quote to pin the fee tier and expected output, then
	// derive the slippage floor.
	q, err := c.dex.Quote(ctx, intent.TokenIn, intent.TokenOut, intent.ExactIn, intent.FeeTier)
	if err != nil {
		return domain.TradeOutcome{}, fmt.Errorf("executor: plan quote: %w", err)
	}
	intent.FeeTier = q.FeeTier
	intent.MinOut = applySlippage(q.AmountOut, c.cfg.SlippageBps)

	log := c.logger.With(
		slog.String("direction", string(intent.Direction)),
		slog.String("token_in", intent.TokenIn),
		slog.String("token_out", intent.TokenOut),
		slog.String("exact_in", intent.ExactIn.String()),
		slog.String("min_out", intent.MinOut.String()),
		slog.Int("fee_tier", intent.FeeTier),
	)

	if c.cfg.DryRun {
		c.stats.Simulated.Add(1)
		log.Info("dry run: simulated trade")
		outcome := domain.TradeOutcome{
			Confirmed:    true,
			ConfirmedVia: domain.ConfirmViaSimulation,
			AmountOut:    q.AmountOut,
			Simulated:    true,
		}
		c.record(ctx, intent, q.AmountOut, outcome)
		return outcome, nil
	}

	if c.cfg.Cooldown > 0 && !c.lastSubmit.IsZero() && c.now().Sub(c.lastSubmit) < c.cfg.Cooldown {
		return domain.TradeOutcome{}, ErrCooldown
	}

	// Baseline balances before submission so the polling fallback can
	// detect the trade's movement.
	baseline, err := c.dex.Balances(ctx, c.cfg.Wallet)
	if err != nil {
		log.Warn("baseline balance read failed, polling fallback degraded",
			slog.String("error", err.Error()))
		baseline = map[string]decimal.Decimal{}
	}

	// Submitted.
	pending, err := c.dex.Submit(ctx, domain.SubmitRequest{
		TokenIn:  intent.TokenIn,
		TokenOut: intent.TokenOut,
		FeeTier:  intent.FeeTier,
		ExactIn:  intent.ExactIn,
		MinOut:   intent.MinOut,
		Wallet:   c.cfg.Wallet,
	})
	if err != nil {
		c.stats.Rejected.Add(1)
		log.Error("submission rejected", slog.String("error", err.Error()))
		c.record(ctx, intent, q.AmountOut, domain.TradeOutcome{})
		return domain.TradeOutcome{}, fmt.Errorf("executor: %w: %v", domain.ErrSubmitRejected, err)
	}
	c.lastSubmit = c.now()

	// Primary confirmation path.
	receipt, err := pending.Wait(ctx, c.cfg.WaitTimeout)
	if err == nil {
		c.stats.Confirmed.Add(1)
		log.Info("trade confirmed",
			slog.String("via", string(domain.ConfirmViaWait)),
			slog.String("tx_id", receipt.TxID),
		)
		outcome := domain.TradeOutcome{
			Confirmed:    true,
			ConfirmedVia: domain.ConfirmViaWait,
			TxID:         receipt.TxID,
			Hash:         receipt.Hash,
			AmountOut:    q.AmountOut,
		}
		c.record(ctx, intent, q.AmountOut, outcome)
		return outcome, nil
	}

	log.Warn("confirmation wait failed, falling back to balance polling",
		slog.String("error", err.Error()))

	// Polling fallback.
	outcome, err := c.pollSettlement(ctx, intent, baseline, log)
	if err != nil {
		return domain.TradeOutcome{}, err
	}
	outcome.AmountOut = q.AmountOut
	c.record(ctx, intent, q.AmountOut, outcome)
	return outcome, nil
}

// pollSettlement re-reads balances at the policy interval until the
// expected movement appears or attempts are exhausted.
func (c *Coordinator) pollSettlement(ctx context.Context, intent domain.TradeIntent, baseline map[string]decimal.Decimal, log *slog.Logger) (domain.TradeOutcome, error) {
	for attempt := 1; attempt <= c.cfg.Polling.MaxAttempts; attempt++ {
		if err := c.sleep(ctx, c.cfg.Polling.Interval); err != nil {
			return domain.TradeOutcome{}, err
		}

		current, err := c.dex.Balances(ctx, c.cfg.Wallet)
		if err != nil {
			log.Warn("balance poll failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			continue
		}

		if settlementMatched(baseline, current, intent.TokenIn, intent.TokenOut, intent.ExactIn) {
			c.stats.Confirmed.Add(1)
			log.Info("trade confirmed",
				slog.String("via", string(domain.ConfirmViaBalancePoll)),
				slog.Int("attempt", attempt),
			)
			return domain.TradeOutcome{
				Confirmed:    true,
				ConfirmedVia: domain.ConfirmViaBalancePoll,
			}, nil
		}
	}

	// The trade may have settled out-of-band. Never re-submit; surface the
	// ambiguity to the operator instead.
	c.stats.Unconfirmed.Add(1)
	log.Error("trade unconfirmed after polling; manual follow-up required",
		slog.Int("attempts", c.cfg.Polling.MaxAttempts))
	return domain.TradeOutcome{
		Confirmed:    false,
		ConfirmedVia: domain.ConfirmUnconfirmed,
	}, nil
}

// record appends a trade log row best-effort.
func (c *Coordinator) record(ctx context.Context, intent domain.TradeIntent, expectedOut decimal.Decimal, outcome domain.TradeOutcome) {
	if c.tradeLog == nil {
		return
	}
	rec := domain.TradeRecord{
		ID:           uuid.New().String(),
		Direction:    intent.Direction,
		TokenIn:      intent.TokenIn,
		TokenOut:     intent.TokenOut,
		ExactIn:      intent.ExactIn,
		MinOut:       intent.MinOut,
		ExpectedOut:  expectedOut,
		FeeTier:      intent.FeeTier,
		Confirmed:    outcome.Confirmed,
		ConfirmedVia: outcome.ConfirmedVia,
		TxID:         outcome.TxID,
		Hash:         outcome.Hash,
		Simulated:    outcome.Simulated,
		CreatedAt:    c.now().UTC(),
	}
	if err := c.tradeLog.Insert(ctx, rec); err != nil {
		c.logger.Warn("trade log insert failed", slog.String("error", err.Error()))
	}
}

// applySlippage floors the expected output by the configured slippage:
// minOut = expected * (1 - bps/10000).
func applySlippage(expected decimal.Decimal, bps int64) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromInt(bps).Div(decimal.NewFromInt(10000)))
	return expected.Mul(factor)
}

// sleepCtx sleeps for d or returns early with the context's error.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
