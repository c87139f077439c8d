package arbitrage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// rateQuoter quotes each pair at a fixed output amount, ignoring input.
// Pairs absent from the table return ErrNoQuote.
type rateQuoter struct {
	outs map[string]decimal.Decimal // "IN->OUT" -> amountOut
}

func (q *rateQuoter) Quote(_ context.Context, tokenIn, tokenOut string, amountIn decimal.Decimal, _ int) (domain.Quote, error) {
	out, ok := q.outs[tokenIn+"->"+tokenOut]
	if !ok {
		return domain.Quote{}, domain.ErrNoQuote
	}
	return domain.Quote{
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amountIn,
		AmountOut: out,
		FeeTier:   3000,
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEvaluateRejectsOpenPaths(t *testing.T) {
	e := NewEvaluator(&rateQuoter{}, testLogger())

	tests := []struct {
		name string
		path []string
	}{
		{"too short", []string{"GUSDC", "GALA", "GUSDC"}},
		{"does not close the loop", []string{"GUSDC", "GALA", "GWETH", "GALA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Evaluate(context.Background(), tt.path, dec("3"))
			if !errors.Is(err, domain.ErrInvalidPath) {
				t.Fatalf("Evaluate(%v) error = %v, want ErrInvalidPath", tt.path, err)
			}
		})
	}
}

func TestEvaluateUnavailableLegReturnsNoPartialChain(t *testing.T) {
	// Second leg missing from the quote table.
	q := &rateQuoter{outs: map[string]decimal.Decimal{
		"GUSDC->GALA": dec("6"),
		"GWETH->GUSDC": dec("3.05"),
	}}
	e := NewEvaluator(q, testLogger())

	chain, err := e.Evaluate(context.Background(),
		[]string{"GUSDC", "GALA", "GWETH", "GUSDC"}, dec("3"))
	if !errors.Is(err, domain.ErrNoQuote) {
		t.Fatalf("error = %v, want ErrNoQuote", err)
	}
	if !chain.FinalAmount.IsZero() || chain.ProfitBps != 0 {
		t.Errorf("partial chain returned on unavailable leg: %+v", chain)
	}
}

func TestEvaluateProfitableTriangle(t *testing.T) {
	q := &rateQuoter{outs: map[string]decimal.Decimal{
		"GUSDC->GALA":  dec("6"),
		"GALA->GWETH":  dec("0.002"),
		"GWETH->GUSDC": dec("3.05"),
	}}
	e := NewEvaluator(q, testLogger())

	chain, err := e.Evaluate(context.Background(),
		[]string{"GUSDC", "GALA", "GWETH", "GUSDC"}, dec("3"))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !chain.FinalAmount.Equal(dec("3.05")) {
		t.Errorf("final amount = %s, want 3.05", chain.FinalAmount)
	}
	// (3.05 - 3) / 3 * 10000 = 166.67 bps.
	if math.Abs(chain.ProfitBps-166.6667) > 0.01 {
		t.Errorf("profit = %v bps, want ~166.67", chain.ProfitBps)
	}
	if !chain.Actionable(30) {
		t.Error("chain at ~166 bps not actionable with a 30 bps threshold")
	}
	if chain.Actionable(200) {
		t.Error("chain at ~166 bps actionable with a 200 bps threshold")
	}

	// Leg outputs must feed the next leg's input.
	if !chain.Legs[1].AmountIn.Equal(dec("6")) || !chain.Legs[2].AmountIn.Equal(dec("0.002")) {
		t.Errorf("leg amounts not chained: %+v", chain.Legs)
	}
}

func TestComputeProfitBps(t *testing.T) {
	tests := []struct {
		name  string
		start string
		final string
		want  float64
	}{
		{"half percent gain is 50 bps", "100", "100.5", 50},
		{"break even", "100", "100", 0},
		{"loss is negative", "100", "99", -100},
		{"non-positive start yields zero", "0", "5", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ComputeProfitBps(dec(tt.start), dec(tt.final))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ComputeProfitBps(%s, %s) = %v, want %v", tt.start, tt.final, got, tt.want)
			}
		})
	}
}
