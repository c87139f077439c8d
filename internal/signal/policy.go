package signal

import (
	"math/rand"
	"time"
)

// Generator names the three directional generators a policy can choose
// between.
type Generator int

const (
	GeneratorMomentum Generator = iota
	GeneratorMeanReversion
	GeneratorFibonacci
	generatorCount
)

// String returns the generator's name for logging.
func (g Generator) String() string {
	switch g {
	case GeneratorMomentum:
		return "momentum"
	case GeneratorMeanReversion:
		return "mean_reversion"
	case GeneratorFibonacci:
		return "fibonacci_swing"
	default:
		return "unknown"
	}
}

// SelectionPolicy picks the single generator consulted on a tick.
type SelectionPolicy interface {
	Next() Generator
}

// RandomPolicy picks uniformly at random. A seed of zero uses the clock.
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy creates a RandomPolicy. Pass a non-zero seed for
// reproducible selection in tests.
func NewRandomPolicy(seed int64) *RandomPolicy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

// Next returns a uniformly chosen generator.
func (p *RandomPolicy) Next() Generator {
	return Generator(p.rng.Intn(int(generatorCount)))
}

// FixedPolicy always returns the same generator. Used in tests and for
// single-strategy deployments.
type FixedPolicy struct {
	G Generator
}

// Next returns the fixed generator.
func (p FixedPolicy) Next() Generator { return p.G }
