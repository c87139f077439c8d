package signal

import (
	"testing"

	"github.com/mpetrov/gswapbot/internal/domain"
	"github.com/mpetrov/gswapbot/internal/market"
)

func TestMomentum(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		ema       float64
		threshold float64
		want      domain.Action
	}{
		{"deviation above threshold buys", 1.01, 1.0, 0.004, domain.ActionBuy},
		{"deviation below threshold sells", 0.99, 1.0, 0.004, domain.ActionSell},
		{"inside band does nothing", 1.002, 1.0, 0.004, domain.ActionNone},
		{"exactly at threshold does nothing", 1.004, 1.0, 0.004, domain.ActionNone},
		{"unseeded ema does nothing", 1.0, 0, 0.004, domain.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Momentum(tt.price, tt.ema, tt.threshold)
			if got.Action != tt.want {
				t.Errorf("Momentum(%v, %v, %v) = %v, want %v",
					tt.price, tt.ema, tt.threshold, got.Action, tt.want)
			}
		})
	}
}

// TestMomentumAfterFlatSeries drives the real EMA: four flat observations
// then a 0.6% jump, which leaves the deviation just above a 0.4% threshold.
func TestMomentumAfterFlatSeries(t *testing.T) {
	h := market.NewHistory(0.2, 150)
	for _, p := range []float64{1.00, 1.00, 1.00, 1.00, 1.006} {
		h.Observe(p)
	}

	ema, ok := h.EMA()
	if !ok {
		t.Fatal("EMA not seeded")
	}
	// ema = 0.2*1.006 + 0.8*1.0 = 1.0012; deviation ~ 0.0048.
	got := Momentum(1.006, ema, 0.004)
	if got.Action != domain.ActionBuy {
		t.Fatalf("momentum after flat series = %v (%s), want buy", got.Action, got.Reason)
	}
}

func TestMeanReversionFadesTheMove(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		ema       float64
		threshold float64
		want      domain.Action
	}{
		{"overextension above fades to sell", 1.02, 1.0, 0.012, domain.ActionSell},
		{"overextension below fades to buy", 0.98, 1.0, 0.012, domain.ActionBuy},
		{"inside band does nothing", 1.01, 1.0, 0.012, domain.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeanReversion(tt.price, tt.ema, tt.threshold)
			if got.Action != tt.want {
				t.Errorf("MeanReversion(%v, %v, %v) = %v, want %v",
					tt.price, tt.ema, tt.threshold, got.Action, tt.want)
			}
		})
	}
}

func TestFibonacciSwing(t *testing.T) {
	// Uptrend window: low first, high later. Range 1.0-2.0, so the
	// retracement band from the high is [1.382, 1.618].
	up := market.SwingWindow{High: 2.0, HighIndex: 9, Low: 1.0, LowIndex: 0}
	// Downtrend window: high first, low later. Band from the low is the
	// same interval.
	down := market.SwingWindow{High: 2.0, HighIndex: 0, Low: 1.0, LowIndex: 9}

	tests := []struct {
		name  string
		price float64
		ema   float64
		sw    market.SwingWindow
		ok    bool
		want  domain.Action
	}{
		{"no swing window", 1.5, 1.4, market.SwingWindow{}, false, domain.ActionNone},
		{"flat range", 1.5, 1.4, market.SwingWindow{High: 1.5, Low: 1.5}, true, domain.ActionNone},
		{"uptrend pullback inside band buys", 1.5, 1.4, up, true, domain.ActionBuy},
		{"uptrend price above band holds", 1.9, 1.4, up, true, domain.ActionNone},
		{"uptrend price below ema is not an uptrend", 1.5, 1.8, up, true, domain.ActionNone},
		{"downtrend bounce inside band sells", 1.5, 1.6, down, true, domain.ActionSell},
		{"downtrend price below band holds", 1.1, 1.6, down, true, domain.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FibonacciSwing(tt.price, tt.ema, tt.sw, tt.ok)
			if got.Action != tt.want {
				t.Errorf("FibonacciSwing(%v, %v) = %v (%s), want %v",
					tt.price, tt.ema, got.Action, got.Reason, tt.want)
			}
		})
	}
}

func TestRandomPolicyDeterministicWithSeed(t *testing.T) {
	a := NewRandomPolicy(42)
	b := NewRandomPolicy(42)

	for i := 0; i < 100; i++ {
		ga, gb := a.Next(), b.Next()
		if ga != gb {
			t.Fatalf("draw %d: policies with the same seed diverged: %v vs %v", i, ga, gb)
		}
		if ga != GeneratorMomentum && ga != GeneratorMeanReversion && ga != GeneratorFibonacci {
			t.Fatalf("draw %d: unknown generator %v", i, ga)
		}
	}
}

func TestFixedPolicy(t *testing.T) {
	p := FixedPolicy{G: GeneratorFibonacci}
	for i := 0; i < 5; i++ {
		if got := p.Next(); got != GeneratorFibonacci {
			t.Fatalf("FixedPolicy.Next() = %v, want fibonacci", got)
		}
	}
}
