// Package signal implements the directional trading signals. Each generator
// is a pure function over the current price, the EMA, and (for the swing
// generator) the derived swing window; exactly one generator is consulted
// per tick, chosen by a SelectionPolicy.
package signal

import (
	"fmt"

	"github.com/mpetrov/gswapbot/internal/domain"
	"github.com/mpetrov/gswapbot/internal/market"
)

// Signal is a generator's recommendation for the current tick.
type Signal struct {
	Action domain.Action
	Reason string
}

// none is the shared no-op recommendation.
func none(reason string) Signal {
	return Signal{Action: domain.ActionNone, Reason: reason}
}

// Momentum rides continuation: when price pulls away from its average by
// more than threshold (as a fraction), trade in the direction of the move.
func Momentum(price, ema, threshold float64) Signal {
	if ema == 0 {
		return none("ema not seeded")
	}
	d := (price - ema) / ema
	switch {
	case d > threshold:
		return Signal{Action: domain.ActionBuy, Reason: fmt.Sprintf("momentum: deviation %.4f above %.4f", d, threshold)}
	case d < -threshold:
		return Signal{Action: domain.ActionSell, Reason: fmt.Sprintf("momentum: deviation %.4f below -%.4f", d, threshold)}
	default:
		return none(fmt.Sprintf("momentum: deviation %.4f inside band", d))
	}
}

// MeanReversion fades overextension: the same deviation as Momentum but
// with opposite polarity and a larger threshold, so it only fires once
// price has moved past the momentum band.
func MeanReversion(price, ema, threshold float64) Signal {
	if ema == 0 {
		return none("ema not seeded")
	}
	d := (price - ema) / ema
	switch {
	case d > threshold:
		return Signal{Action: domain.ActionSell, Reason: fmt.Sprintf("mean reversion: deviation %.4f above %.4f, fading", d, threshold)}
	case d < -threshold:
		return Signal{Action: domain.ActionBuy, Reason: fmt.Sprintf("mean reversion: deviation %.4f below -%.4f, fading", d, threshold)}
	default:
		return none(fmt.Sprintf("mean reversion: deviation %.4f inside band", d))
	}
}

// FibonacciSwing buys pullbacks into the 38.2-61.8% retracement band of an
// uptrending swing, and sells bounces into the same band of a downtrending
// swing. A flat range or ambiguous trend yields no signal.
func FibonacciSwing(price, ema float64, sw market.SwingWindow, ok bool) Signal {
	if !ok {
		return none("fib: not enough points for a swing window")
	}
	if sw.FlatRange() {
		return none("fib: flat range")
	}

	uptrend := sw.HighIndex > sw.LowIndex && price >= ema
	downtrend := sw.LowIndex > sw.HighIndex && price <= ema

	switch {
	case uptrend:
		lv := sw.RetracementFromHigh()
		if price <= lv.L382 && price >= lv.L618 {
			return Signal{Action: domain.ActionBuy, Reason: fmt.Sprintf("fib: uptrend pullback %.6f in [%.6f, %.6f]", price, lv.L618, lv.L382)}
		}
		return none("fib: uptrend but price outside retracement band")
	case downtrend:
		lv := sw.RetracementFromLow()
		if price >= lv.L382 && price <= lv.L618 {
			return Signal{Action: domain.ActionSell, Reason: fmt.Sprintf("fib: downtrend bounce %.6f in [%.6f, %.6f]", price, lv.L382, lv.L618)}
		}
		return none("fib: downtrend but price outside retracement band")
	default:
		return none("fib: flat trend")
	}
}
