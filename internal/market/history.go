// Package market maintains the bot's view of recent prices: a bounded
// sliding window of observations, a running exponential moving average, and
// swing-derived Fibonacci retracement levels.
package market

import (
	"sync"
	"time"
)

// minCapacity is the floor for the price window regardless of how short the
// configured swing lookback is.
const minCapacity = 400

// PricePoint is a single sampled price. Immutable once recorded.
type PricePoint struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Price       float64 `json:"price"`
}

// History is a bounded sliding window of price points with a running EMA.
// The tick loop is the single writer; API handlers read concurrently
// through the mutex.
type History struct {
	mu       sync.RWMutex
	points   []PricePoint
	capacity int
	lookback int

	ema    float64
	seeded bool
	alpha  float64

	now func() time.Time
}

// NewHistory creates a History with the given EMA smoothing factor and
// swing lookback. Capacity is three times the lookback, with a floor of 400
// points.
func NewHistory(alpha float64, lookback int) *History {
	capacity := 3 * lookback
	if capacity < minCapacity {
		capacity = minCapacity
	}
	return &History{
		points:   make([]PricePoint, 0, capacity),
		capacity: capacity,
		lookback: lookback,
		alpha:    alpha,
		now:      time.Now,
	}
}

// Observe appends a price point at the current time, evicts beyond
// capacity, and updates the EMA in place. The caller has already validated
// the price as positive and finite.
func (h *History) Observe(price float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.points = append(h.points, PricePoint{
		TimestampMs: h.now().UnixMilli(),
		Price:       price,
	})
	if len(h.points) > h.capacity {
		h.points = h.points[len(h.points)-h.capacity:]
	}

	if !h.seeded {
		h.ema = price
		h.seeded = true
		return
	}
	h.ema = h.alpha*price + (1-h.alpha)*h.ema
}

// EMA returns the current exponential moving average and whether it has
// been seeded by at least one observation.
func (h *History) EMA() (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ema, h.seeded
}

// Last returns the most recent price, or false when nothing has been
// observed.
func (h *History) Last() (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.points) == 0 {
		return 0, false
	}
	return h.points[len(h.points)-1].Price, true
}

// Len returns the number of points currently in the window.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.points)
}

// Points returns a copy of the window, safe to hand to API handlers.
func (h *History) Points() []PricePoint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]PricePoint, len(h.points))
	copy(out, h.points)
	return out
}

// Swing derives the swing window over the configured lookback. See
// ComputeSwing for the validity rules.
func (h *History) Swing() (SwingWindow, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return ComputeSwing(h.points, h.lookback)
}
