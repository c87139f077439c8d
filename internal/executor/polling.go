package executor

import (
	"time"

	"github.com/shopspring/decimal"
)

// PollingPolicy controls the balance-poll confirmation fallback: how often
// balances are re-read and how many attempts are made before a trade is
// declared unconfirmed.
type PollingPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollingPolicy polls every 5 seconds for up to 12 attempts (one
// minute), which covers normal block inclusion times with margin.
func DefaultPollingPolicy() PollingPolicy {
	return PollingPolicy{Interval: 5 * time.Second, MaxAttempts: 12}
}

// spendEpsilon tolerates small discrepancies between the submitted notional
// and the observed balance decrease (fees, rounding): the spent asset must
// have dropped by at least 99% of the notional.
var spendEpsilon = decimal.NewFromFloat(0.99)

// settlementMatched reports whether the balance movement between baseline
// and current is consistent with the submitted trade having settled: the
// spent asset decreased by at least the notional (within epsilon) and the
// acquired asset increased.
func settlementMatched(baseline, current map[string]decimal.Decimal, tokenIn, tokenOut string, notional decimal.Decimal) bool {
	spent := baseline[tokenIn].Sub(current[tokenIn])
	gained := current[tokenOut].Sub(baseline[tokenOut])
	return spent.GreaterThanOrEqual(notional.Mul(spendEpsilon)) && gained.IsPositive()
}
