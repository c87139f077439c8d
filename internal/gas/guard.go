// Package gas keeps a minimum reserve of the fee-paying asset in the
// wallet. The reserve is never sold, and when it runs low it is topped up
// from stable holdings.
package gas

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// Executor is the slice of the execution coordinator the guard needs.
type Executor interface {
	Execute(ctx context.Context, intent domain.TradeIntent) (domain.TradeOutcome, error)
}

// Config holds the reserve parameters.
type Config struct {
	// GasToken is the fee-paying asset symbol.
	GasToken string
	// StableToken is the asset the top-up buy spends.
	StableToken string
	// MinReserve is the reserve floor in gas-token units.
	MinReserve decimal.Decimal
	// TopUpNotional is the fixed stable amount spent per top-up.
	TopUpNotional decimal.Decimal
}

// Guard checks and restores the gas reserve once per tick.
type Guard struct {
	cfg      Config
	balances domain.BalanceReader
	exec     Executor
	wallet   string
	logger   *slog.Logger
}

// NewGuard creates a Guard.
func NewGuard(cfg Config, balances domain.BalanceReader, exec Executor, wallet string, logger *slog.Logger) *Guard {
	return &Guard{
		cfg:      cfg,
		balances: balances,
		exec:     exec,
		wallet:   wallet,
		logger:   logger.With(slog.String("component", "gas")),
	}
}

// Token returns the fee-paying asset symbol.
func (g *Guard) Token() string { return g.cfg.GasToken }

// Sellable clamps the quantity of the gas token eligible for sale: only
// what sits above the reserve floor may ever be sold, never less than zero.
func (g *Guard) Sellable(balance decimal.Decimal) decimal.Decimal {
	sellable := balance.Sub(g.cfg.MinReserve)
	if sellable.IsNegative() {
		return decimal.Zero
	}
	return sellable
}

// EnsureReserve reads the gas-token balance and, when it is below the
// reserve floor, buys more using the fixed stable notional. It returns
// whether a top-up was executed. A failed top-up is reported as an error
// but must not halt the tick; trading continues without gas assurance.
func (g *Guard) EnsureReserve(ctx context.Context) (bool, error) {
	bals, err := g.balances.Balances(ctx, g.wallet)
	if err != nil {
		return false, fmt.Errorf("gas: read balances: %w", err)
	}

	gasBal := bals[g.cfg.GasToken]
	if gasBal.GreaterThanOrEqual(g.cfg.MinReserve) {
		return false, nil
	}

	stableBal := bals[g.cfg.StableToken]
	if stableBal.LessThan(g.cfg.TopUpNotional) {
		g.logger.Warn("gas reserve low but stable funds insufficient for top-up",
			slog.String("gas_balance", gasBal.String()),
			slog.String("stable_balance", stableBal.String()),
			slog.String("top_up_notional", g.cfg.TopUpNotional.String()),
		)
		return false, fmt.Errorf("gas: %w: need %s %s", domain.ErrInsufficientBalance,
			g.cfg.TopUpNotional, g.cfg.StableToken)
	}

	g.logger.Info("gas reserve below floor, topping up",
		slog.String("balance", gasBal.String()),
		slog.String("min_reserve", g.cfg.MinReserve.String()),
	)

	outcome, err := g.exec.Execute(ctx, domain.TradeIntent{
		Direction: domain.DirectionBuy,
		TokenIn:   g.cfg.StableToken,
		TokenOut:  g.cfg.GasToken,
		ExactIn:   g.cfg.TopUpNotional,
	})
	if err != nil {
		return false, fmt.Errorf("gas: top-up: %w", err)
	}
	if !outcome.Confirmed {
		return false, fmt.Errorf("gas: top-up %w", domain.ErrUnconfirmed)
	}
	return true, nil
}
