package domain

import "github.com/shopspring/decimal"

// ArbLeg is one hop of a triangular arbitrage chain.
type ArbLeg struct {
	TokenIn   string
	TokenOut  string
	AmountIn  decimal.Decimal
	AmountOut decimal.Decimal
	FeeTier   int
}

// ArbChain is a fully quoted closed loop of exactly three legs:
// leg1 out feeds leg2 in, leg2 out feeds leg3 in, and leg3 returns to the
// starting asset.
type ArbChain struct {
	Legs        [3]ArbLeg
	StartAmount decimal.Decimal
	FinalAmount decimal.Decimal
	ProfitBps   float64
}

// ComputeProfitBps returns (final-start)/start in basis points.
func ComputeProfitBps(start, final decimal.Decimal) float64 {
	if !start.IsPositive() {
		return 0
	}
	bps, _ := final.Sub(start).Div(start).Mul(decimal.NewFromInt(10000)).Float64()
	return bps
}

// Actionable reports whether the chain clears the given profit threshold.
func (c ArbChain) Actionable(minProfitBps float64) bool {
	return c.ProfitBps >= minProfitBps
}
