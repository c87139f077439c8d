package market

// minSwingPoints is the minimum number of observations required before a
// swing window is considered meaningful.
const minSwingPoints = 5

// SwingWindow is the high/low extremes over the most recent lookback
// points, with their indexes relative to the window start. It is derived on
// demand, never stored.
type SwingWindow struct {
	High      float64
	HighIndex int
	Low       float64
	LowIndex  int
}

// FlatRange reports whether the window has no vertical extent, in which
// case retracement levels are undefined.
func (s SwingWindow) FlatRange() bool {
	return s.High == s.Low
}

// ComputeSwing scans the last lookback entries of points for the swing
// extremes. It returns false when fewer than five points are available.
func ComputeSwing(points []PricePoint, lookback int) (SwingWindow, bool) {
	start := 0
	if len(points) > lookback {
		start = len(points) - lookback
	}
	window := points[start:]
	if len(window) < minSwingPoints {
		return SwingWindow{}, false
	}

	sw := SwingWindow{High: window[0].Price, Low: window[0].Price}
	for i, p := range window {
		if p.Price > sw.High {
			sw.High = p.Price
			sw.HighIndex = i
		}
		if p.Price < sw.Low {
			sw.Low = p.Price
			sw.LowIndex = i
		}
	}
	return sw, true
}

// FibLevels are the classic retracement levels of a swing range. For an
// uptrend they are measured down from the high; for a downtrend, up from
// the low.
type FibLevels struct {
	L382 float64
	L500 float64
	L618 float64
}

// RetracementFromHigh computes the levels for an uptrend pullback: each
// level sits the given fraction of the range below the high.
func (s SwingWindow) RetracementFromHigh() FibLevels {
	r := s.High - s.Low
	return FibLevels{
		L382: s.High - 0.382*r,
		L500: s.High - 0.500*r,
		L618: s.High - 0.618*r,
	}
}

// RetracementFromLow computes the levels for a downtrend bounce: each level
// sits the given fraction of the range above the low.
func (s SwingWindow) RetracementFromLow() FibLevels {
	r := s.High - s.Low
	return FibLevels{
		L382: s.Low + 0.382*r,
		L500: s.Low + 0.500*r,
		L618: s.Low + 0.618*r,
	}
}
