// Package ledger tracks per-asset cost basis across ticks and gates sell
// decisions on it. Selling the entire on-chain balance is only allowed once
// the quoted proceeds clear the accumulated cost plus a configured profit
// margin, so repeated small buys must jointly clear the bar before the
// position is liquidated.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// SellDecision is the result of EvaluateSell.
type SellDecision struct {
	Allowed   bool
	Reason    string
	Threshold decimal.Decimal
}

// PositionLedger owns the in-memory ledger and writes it through to the
// injected store after every state change. The tick loop is the single
// writer; API handlers and the archiver read concurrently, so all access
// goes through the mutex.
type PositionLedger struct {
	mu        sync.RWMutex
	positions domain.Ledger
	store     domain.LedgerStore

	minProfitBps    int64
	profitBufferBps int64

	logger *slog.Logger
}

// New creates a PositionLedger with an empty in-memory ledger. Call Load
// before the first tick to hydrate from the store.
func New(store domain.LedgerStore, minProfitBps, profitBufferBps int64, logger *slog.Logger) *PositionLedger {
	return &PositionLedger{
		positions:       make(domain.Ledger),
		store:           store,
		minProfitBps:    minProfitBps,
		profitBufferBps: profitBufferBps,
		logger:          logger.With(slog.String("component", "ledger")),
	}
}

// Load hydrates the in-memory ledger from the store. A missing ledger is
// not an error; the bot starts with no tracked positions.
func (pl *PositionLedger) Load(ctx context.Context) error {
	l, err := pl.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("ledger: load: %w", err)
	}
	if l == nil {
		l = make(domain.Ledger)
	}
	pl.mu.Lock()
	pl.positions = l
	pl.mu.Unlock()
	return nil
}

// RecordBuy adds the acquired units and spent cost to the asset's position,
// creating it lazily on the first buy, then persists best-effort.
func (pl *PositionLedger) RecordBuy(ctx context.Context, asset string, units, cost decimal.Decimal) {
	pl.mu.Lock()
	pos := pl.positions[asset]
	pos.UnitsHeld = pos.UnitsHeld.Add(units)
	pos.CostBasisTotal = pos.CostBasisTotal.Add(cost)
	pl.positions[asset] = pos
	pl.mu.Unlock()

	pl.logger.Info("recorded buy",
		slog.String("asset", asset),
		slog.String("units", units.String()),
		slog.String("cost", cost.String()),
		slog.String("total_units", pos.UnitsHeld.String()),
		slog.String("total_cost", pos.CostBasisTotal.String()),
	)
	pl.persist(ctx)
}

// EvaluateSell decides whether liquidating the full on-chain quantity at
// the quoted proceeds clears the profit bar over accumulated cost.
func (pl *PositionLedger) EvaluateSell(asset string, onChainQty, quotedProceeds decimal.Decimal) SellDecision {
	pl.mu.RLock()
	pos := pl.positions[asset]
	pl.mu.RUnlock()
	if !pos.IsOpen() {
		return SellDecision{Allowed: false, Reason: "no tracked position"}
	}
	if !onChainQty.IsPositive() {
		return SellDecision{Allowed: false, Reason: "nothing to sell on chain"}
	}

	marginBps := decimal.NewFromInt(pl.minProfitBps + pl.profitBufferBps)
	threshold := pos.CostBasisTotal.Mul(decimal.NewFromInt(1).Add(marginBps.Div(decimal.NewFromInt(10000))))

	if quotedProceeds.LessThan(threshold) {
		return SellDecision{
			Allowed:   false,
			Reason:    fmt.Sprintf("proceeds %s below threshold %s", quotedProceeds, threshold),
			Threshold: threshold,
		}
	}
	return SellDecision{
		Allowed:   true,
		Reason:    fmt.Sprintf("proceeds %s clear threshold %s", quotedProceeds, threshold),
		Threshold: threshold,
	}
}

// ClearPosition zeroes both fields of the asset's position together, then
// persists best-effort. Called exactly once per realized full-quantity
// sell.
func (pl *PositionLedger) ClearPosition(ctx context.Context, asset string) {
	pl.mu.Lock()
	pl.positions[asset] = domain.Position{
		UnitsHeld:      decimal.Zero,
		CostBasisTotal: decimal.Zero,
	}
	pl.mu.Unlock()
	pl.logger.Info("cleared position", slog.String("asset", asset))
	pl.persist(ctx)
}

// Get returns the tracked position for an asset (zero value when untracked).
func (pl *PositionLedger) Get(asset string) domain.Position {
	pl.mu.RLock()
	defer pl.mu.RUnlock()
	return pl.positions[asset]
}

// Snapshot returns a copy of the full ledger for API handlers and the
// archiver.
func (pl *PositionLedger) Snapshot() domain.Ledger {
	pl.mu.RLock()
	defer pl.mu.RUnlock()
	return pl.positions.Clone()
}

// persist writes the ledger through to the store. A write failure is
// logged, not fatal; state lives in memory until the next successful write.
// The store sees a clone so slow writes never hold up the mutex.
func (pl *PositionLedger) persist(ctx context.Context) {
	pl.mu.RLock()
	snapshot := pl.positions.Clone()
	pl.mu.RUnlock()
	if err := pl.store.Save(ctx, snapshot); err != nil {
		pl.logger.Error("ledger persist failed", slog.String("error", err.Error()))
	}
}
