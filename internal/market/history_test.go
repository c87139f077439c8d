package market

import (
	"math"
	"testing"
)

func TestEMASeedAndRecurrence(t *testing.T) {
	h := NewHistory(0.2, 150)

	if _, ok := h.EMA(); ok {
		t.Fatal("EMA reported seeded before any observation")
	}

	h.Observe(1.5)
	ema, ok := h.EMA()
	if !ok {
		t.Fatal("EMA not seeded after first observation")
	}
	if ema != 1.5 {
		t.Fatalf("EMA after first observation = %v, want the first price 1.5", ema)
	}

	// Every subsequent update must satisfy ema' = alpha*p + (1-alpha)*ema
	// exactly.
	prices := []float64{1.6, 1.4, 1.55, 2.0, 0.9}
	want := 1.5
	for _, p := range prices {
		h.Observe(p)
		want = 0.2*p + 0.8*want
		got, _ := h.EMA()
		if got != want {
			t.Fatalf("EMA after observing %v = %v, want %v", p, got, want)
		}
	}
}

func TestHistoryCapacityAndEviction(t *testing.T) {
	// lookback 10 gives 3*10 = 30, floored to the 400 minimum.
	h := NewHistory(0.5, 10)

	for i := 0; i < 450; i++ {
		h.Observe(float64(i))
	}
	if h.Len() != 400 {
		t.Fatalf("Len after 450 observations = %d, want capacity 400", h.Len())
	}
	pts := h.Points()
	if pts[0].Price != 50 {
		t.Errorf("oldest retained price = %v, want 50 (oldest evicted first)", pts[0].Price)
	}
	if last, _ := h.Last(); last != 449 {
		t.Errorf("Last() = %v, want 449", last)
	}
}

func TestHistoryLargeLookbackCapacity(t *testing.T) {
	h := NewHistory(0.5, 200)
	if h.capacity != 600 {
		t.Fatalf("capacity for lookback 200 = %d, want 3*200 = 600", h.capacity)
	}
}

func TestComputeSwing(t *testing.T) {
	mkPoints := func(prices ...float64) []PricePoint {
		pts := make([]PricePoint, len(prices))
		for i, p := range prices {
			pts[i] = PricePoint{TimestampMs: int64(i), Price: p}
		}
		return pts
	}

	t.Run("too few points", func(t *testing.T) {
		if _, ok := ComputeSwing(mkPoints(1, 2, 3, 4), 10); ok {
			t.Fatal("swing reported valid with fewer than 5 points")
		}
	})

	t.Run("finds extremes and indexes", func(t *testing.T) {
		sw, ok := ComputeSwing(mkPoints(1.0, 0.8, 1.2, 0.9, 1.5, 1.1), 10)
		if !ok {
			t.Fatal("swing not valid")
		}
		if sw.High != 1.5 || sw.HighIndex != 4 {
			t.Errorf("high = %v at %d, want 1.5 at 4", sw.High, sw.HighIndex)
		}
		if sw.Low != 0.8 || sw.LowIndex != 1 {
			t.Errorf("low = %v at %d, want 0.8 at 1", sw.Low, sw.LowIndex)
		}
	})

	t.Run("respects lookback", func(t *testing.T) {
		// The spike at the start falls outside the 5-point lookback.
		sw, ok := ComputeSwing(mkPoints(9.9, 1.0, 1.1, 1.2, 1.3, 1.4), 5)
		if !ok {
			t.Fatal("swing not valid")
		}
		if sw.High != 1.4 {
			t.Errorf("high = %v, want 1.4 (spike outside lookback)", sw.High)
		}
	})

	t.Run("flat range", func(t *testing.T) {
		sw, ok := ComputeSwing(mkPoints(2, 2, 2, 2, 2), 5)
		if !ok {
			t.Fatal("swing not valid")
		}
		if !sw.FlatRange() {
			t.Error("constant series not reported as a flat range")
		}
	})
}

func TestRetracementLevels(t *testing.T) {
	sw := SwingWindow{High: 2.0, Low: 1.0}

	down := sw.RetracementFromHigh()
	if !almostEqual(down.L382, 1.618) || !almostEqual(down.L500, 1.5) || !almostEqual(down.L618, 1.382) {
		t.Errorf("RetracementFromHigh = %+v, want 1.618/1.5/1.382", down)
	}

	up := sw.RetracementFromLow()
	if !almostEqual(up.L382, 1.382) || !almostEqual(up.L500, 1.5) || !almostEqual(up.L618, 1.618) {
		t.Errorf("RetracementFromLow = %+v, want 1.382/1.5/1.618", up)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
