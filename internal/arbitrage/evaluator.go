// Package arbitrage evaluates and executes triangular arbitrage: a fixed
// three-leg round trip that starts and ends on the same asset, profitable
// only when the product of exchange rates beats fees.
package arbitrage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// Evaluator quotes closed-loop paths against the DEX and measures the net
// profit in basis points.
type Evaluator struct {
	quotes domain.QuoteProvider
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator using the given quote provider.
func NewEvaluator(quotes domain.QuoteProvider, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		quotes: quotes,
		logger: logger.With(slog.String("component", "arbitrage")),
	}
}

// Evaluate simulates the round trip path[0]->path[1]->path[2]->path[3] with
// the given start amount. The path must contain exactly four assets with
// path[0] == path[3]; otherwise ErrInvalidPath is returned. Any leg that
// cannot be quoted aborts the evaluation with ErrNoQuote; a partial chain
// is never returned.
func (e *Evaluator) Evaluate(ctx context.Context, path []string, startAmount decimal.Decimal) (domain.ArbChain, error) {
	if len(path) != 4 || path[0] != path[3] {
		return domain.ArbChain{}, fmt.Errorf("arbitrage: path %v: %w", path, domain.ErrInvalidPath)
	}

	chain := domain.ArbChain{StartAmount: startAmount}
	amount := startAmount
	for i := 0; i < 3; i++ {
		q, err := e.quotes.Quote(ctx, path[i], path[i+1], amount, 0)
		if err != nil {
			return domain.ArbChain{}, fmt.Errorf("arbitrage: leg %d %s->%s: %w", i+1, path[i], path[i+1], err)
		}
		if !q.AmountOut.IsPositive() {
			return domain.ArbChain{}, fmt.Errorf("arbitrage: leg %d %s->%s returned %s: %w",
				i+1, path[i], path[i+1], q.AmountOut, domain.ErrNoQuote)
		}
		chain.Legs[i] = domain.ArbLeg{
			TokenIn:   path[i],
			TokenOut:  path[i+1],
			AmountIn:  amount,
			AmountOut: q.AmountOut,
			FeeTier:   q.FeeTier,
		}
		amount = q.AmountOut
	}

	chain.FinalAmount = amount
	chain.ProfitBps = domain.ComputeProfitBps(startAmount, amount)

	e.logger.Debug("evaluated chain",
		slog.String("path", fmt.Sprintf("%v", path)),
		slog.String("start", startAmount.String()),
		slog.String("final", amount.String()),
		slog.Float64("profit_bps", chain.ProfitBps),
	)
	return chain, nil
}
