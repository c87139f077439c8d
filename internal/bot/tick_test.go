package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mpetrov/gswapbot/internal/arbitrage"
	"github.com/mpetrov/gswapbot/internal/domain"
	"github.com/mpetrov/gswapbot/internal/executor"
	"github.com/mpetrov/gswapbot/internal/ledger"
	"github.com/mpetrov/gswapbot/internal/market"
	"github.com/mpetrov/gswapbot/internal/signal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory ledger store.
type memStore struct {
	ledger domain.Ledger
}

func (s *memStore) Load(context.Context) (domain.Ledger, error) {
	return s.ledger.Clone(), nil
}

func (s *memStore) Save(_ context.Context, l domain.Ledger) error {
	s.ledger = l.Clone()
	return nil
}

// fakeDex quotes from a fixed rate table (out = in * rate) and serves static
// balances. failNextQuote makes the next Quote call fail, whatever the pair.
type fakeDex struct {
	rates         map[string]decimal.Decimal
	balances      map[string]decimal.Decimal
	failNextQuote bool
}

func (d *fakeDex) Quote(_ context.Context, tokenIn, tokenOut string, amountIn decimal.Decimal, _ int) (domain.Quote, error) {
	if d.failNextQuote {
		d.failNextQuote = false
		return domain.Quote{}, domain.ErrNoQuote
	}
	rate, ok := d.rates[tokenIn+"->"+tokenOut]
	if !ok {
		return domain.Quote{}, domain.ErrNoQuote
	}
	return domain.Quote{
		TokenIn: tokenIn, TokenOut: tokenOut,
		AmountIn: amountIn, AmountOut: amountIn.Mul(rate), FeeTier: 3000,
	}, nil
}

func (d *fakeDex) Submit(context.Context, domain.SubmitRequest) (domain.PendingTrade, error) {
	return nil, errors.New("fakeDex: submit not scripted")
}

func (d *fakeDex) Balances(context.Context, string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(d.balances))
	for k, v := range d.balances {
		out[k] = v
	}
	return out, nil
}

// fakeExecutor records intents and replays scripted outcomes. When the
// outcomes queue is non-empty it is consumed call by call; otherwise every
// call returns the single fixed outcome.
type fakeExecutor struct {
	outcome  domain.TradeOutcome
	outcomes []domain.TradeOutcome
	intents  []domain.TradeIntent
}

func (f *fakeExecutor) Execute(_ context.Context, intent domain.TradeIntent) (domain.TradeOutcome, error) {
	f.intents = append(f.intents, intent)
	if len(f.outcomes) > 0 {
		out := f.outcomes[0]
		f.outcomes = f.outcomes[1:]
		return out, nil
	}
	return f.outcome, nil
}

func testConfig() Config {
	return Config{
		BaseToken:         "GALA",
		QuoteToken:        "GUSDC",
		Notional:          dec("10"),
		MomentumThreshold: 0.01,
		MeanRevThreshold:  0.02,
		Mode:              "once",
	}
}

func newTestOrchestrator(cfg Config, dex *fakeDex, exec *fakeExecutor, pl *ledger.PositionLedger, h *market.History) *Orchestrator {
	return New(cfg, dex, "wallet", h,
		signal.FixedPolicy{G: signal.GeneratorMomentum},
		nil, pl, nil, exec, &executor.Stats{}, nil, nil, nil, testLogger())
}

// seededHistory returns a history warmed with n flat observations so the EMA
// is established before the tick under test.
func seededHistory(price float64, n int) *market.History {
	h := market.NewHistory(0.2, 10)
	for i := 0; i < n; i++ {
		h.Observe(price)
	}
	return h
}

func TestTickMomentumBuyRecordsPosition(t *testing.T) {
	dex := &fakeDex{
		rates: map[string]decimal.Decimal{
			"GALA->GUSDC": dec("1.05"), // well above the flat EMA
			"GUSDC->GALA": dec("2"),
		},
		balances: map[string]decimal.Decimal{"GUSDC": dec("100")},
	}
	exec := &fakeExecutor{outcome: domain.TradeOutcome{
		Confirmed: true, ConfirmedVia: domain.ConfirmViaWait, AmountOut: dec("20"),
	}}
	pl := ledger.New(&memStore{}, 10, 10, testLogger())
	o := newTestOrchestrator(testConfig(), dex, exec, pl, seededHistory(1.0, 4))

	if err := o.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(exec.intents) != 1 {
		t.Fatalf("executed %d intents, want 1 buy", len(exec.intents))
	}
	intent := exec.intents[0]
	if intent.Direction != domain.DirectionBuy || intent.TokenIn != "GUSDC" || intent.TokenOut != "GALA" {
		t.Fatalf("intent = %+v, want buy GUSDC->GALA", intent)
	}
	if !intent.ExactIn.Equal(dec("10")) {
		t.Errorf("notional = %s, want 10", intent.ExactIn)
	}

	pos := pl.Get("GALA")
	if !pos.UnitsHeld.Equal(dec("20")) || !pos.CostBasisTotal.Equal(dec("10")) {
		t.Errorf("position = %+v, want 20 units at cost 10", pos)
	}
}

func TestTickSellsOpenPositionBeforeSignal(t *testing.T) {
	dex := &fakeDex{
		rates: map[string]decimal.Decimal{
			// Flat price, so no momentum buy this tick. Selling 20 units at
			// 1.0 clears a cost basis of 10 with room to spare.
			"GALA->GUSDC": dec("1.0"),
		},
		balances: map[string]decimal.Decimal{"GALA": dec("20"), "GUSDC": dec("5")},
	}
	exec := &fakeExecutor{outcome: domain.TradeOutcome{
		Confirmed: true, ConfirmedVia: domain.ConfirmViaWait, AmountOut: dec("20"),
	}}
	pl := ledger.New(&memStore{}, 10, 10, testLogger())
	pl.RecordBuy(context.Background(), "GALA", dec("20"), dec("10"))

	o := newTestOrchestrator(testConfig(), dex, exec, pl, seededHistory(1.0, 4))

	if err := o.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(exec.intents) != 1 {
		t.Fatalf("executed %d intents, want exactly the sell", len(exec.intents))
	}
	intent := exec.intents[0]
	if intent.Direction != domain.DirectionSell || intent.TokenIn != "GALA" {
		t.Fatalf("intent = %+v, want sell GALA->GUSDC", intent)
	}
	if !intent.ExactIn.Equal(dec("20")) {
		t.Errorf("sold %s units, want the full 20", intent.ExactIn)
	}
	if pl.Get("GALA").IsOpen() {
		t.Error("position still open after a confirmed liquidation")
	}
}

func TestTickHoldsWhenProceedsBelowCostBasis(t *testing.T) {
	dex := &fakeDex{
		rates: map[string]decimal.Decimal{
			// 20 units at 0.4 yields 8, below the cost basis of 10.
			"GALA->GUSDC": dec("0.4"),
		},
		balances: map[string]decimal.Decimal{"GALA": dec("20")},
	}
	exec := &fakeExecutor{}
	pl := ledger.New(&memStore{}, 10, 10, testLogger())
	pl.RecordBuy(context.Background(), "GALA", dec("20"), dec("10"))

	o := newTestOrchestrator(testConfig(), dex, exec, pl, seededHistory(0.4, 4))

	if err := o.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	for _, intent := range exec.intents {
		if intent.Direction == domain.DirectionSell {
			t.Fatalf("sold below cost basis: %+v", intent)
		}
	}
	if !pl.Get("GALA").IsOpen() {
		t.Error("position cleared without a sale")
	}
}

func TestTickUnconfirmedSellKeepsPosition(t *testing.T) {
	dex := &fakeDex{
		rates:    map[string]decimal.Decimal{"GALA->GUSDC": dec("1.0")},
		balances: map[string]decimal.Decimal{"GALA": dec("20")},
	}
	exec := &fakeExecutor{outcome: domain.TradeOutcome{
		Confirmed: false, ConfirmedVia: domain.ConfirmUnconfirmed,
	}}
	pl := ledger.New(&memStore{}, 10, 10, testLogger())
	pl.RecordBuy(context.Background(), "GALA", dec("20"), dec("10"))

	o := newTestOrchestrator(testConfig(), dex, exec, pl, seededHistory(1.0, 4))

	if err := o.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(exec.intents) != 1 {
		t.Fatalf("executed %d intents, want 1 sell attempt", len(exec.intents))
	}
	if !pl.Get("GALA").IsOpen() {
		t.Error("unconfirmed sell cleared the ledger")
	}
}

func TestTickPriceFailureDoesNotBlockSell(t *testing.T) {
	dex := &fakeDex{
		rates:         map[string]decimal.Decimal{"GALA->GUSDC": dec("1.0")},
		balances:      map[string]decimal.Decimal{"GALA": dec("20")},
		failNextQuote: true, // the price observation quote
	}
	exec := &fakeExecutor{outcome: domain.TradeOutcome{
		Confirmed: true, ConfirmedVia: domain.ConfirmViaWait,
	}}
	pl := ledger.New(&memStore{}, 10, 10, testLogger())
	pl.RecordBuy(context.Background(), "GALA", dec("20"), dec("10"))

	o := newTestOrchestrator(testConfig(), dex, exec, pl, seededHistory(1.0, 4))

	err := o.Tick(context.Background())
	if !errors.Is(err, domain.ErrNoQuote) {
		t.Fatalf("Tick error = %v, want the price failure surfaced", err)
	}
	if len(exec.intents) != 1 || exec.intents[0].Direction != domain.DirectionSell {
		t.Fatalf("intents = %+v, want the sell to run despite the price failure", exec.intents)
	}
}

func newArbOrchestrator(cfg Config, dex *fakeDex, exec *fakeExecutor, pl *ledger.PositionLedger, h *market.History) *Orchestrator {
	return New(cfg, dex, "wallet", h,
		signal.FixedPolicy{G: signal.GeneratorMomentum},
		arbitrage.NewEvaluator(dex, testLogger()),
		pl, nil, exec, &executor.Stats{}, nil, nil, nil, testLogger())
}

func arbConfig() Config {
	cfg := testConfig()
	cfg.ArbEnabled = true
	cfg.ArbPath = []string{"GUSDC", "GALA", "GWETH", "GUSDC"}
	cfg.ArbStartAmount = dec("3")
	cfg.ArbMinProfitBps = 30
	return cfg
}

func TestTickArbitrageExecutesLegsInOrder(t *testing.T) {
	dex := &fakeDex{
		rates: map[string]decimal.Decimal{
			// Price well above the flat EMA, so a momentum buy would fire
			// if the signal stage ran after the executed chain.
			"GALA->GUSDC": dec("0.6"),
			"GUSDC->GALA": dec("2"),      // 3 -> 6
			"GALA->GWETH": dec("0.0005"), // 6 -> 0.003
			"GWETH->GUSDC": dec("1100"),  // 0.003 -> 3.3, 1000 bps over 3
		},
		balances: map[string]decimal.Decimal{"GUSDC": dec("100")},
	}
	exec := &fakeExecutor{outcomes: []domain.TradeOutcome{
		{Confirmed: true, ConfirmedVia: domain.ConfirmViaWait, AmountOut: dec("6")},
		{Confirmed: true, ConfirmedVia: domain.ConfirmViaWait, AmountOut: dec("0.003")},
		{Confirmed: true, ConfirmedVia: domain.ConfirmViaWait, AmountOut: dec("3.3")},
	}}
	pl := ledger.New(&memStore{}, 10, 10, testLogger())
	o := newArbOrchestrator(arbConfig(), dex, exec, pl, seededHistory(0.5, 4))

	if err := o.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	// Three legs and nothing else: an executed chain skips the signal
	// stage for the rest of the tick.
	if len(exec.intents) != 3 {
		t.Fatalf("executed %d intents, want the 3 legs only", len(exec.intents))
	}
	wantLegs := []struct {
		tokenIn, tokenOut, exactIn string
	}{
		{"GUSDC", "GALA", "3"},
		{"GALA", "GWETH", "6"},
		{"GWETH", "GUSDC", "0.003"},
	}
	for i, want := range wantLegs {
		got := exec.intents[i]
		if got.TokenIn != want.tokenIn || got.TokenOut != want.tokenOut {
			t.Errorf("leg %d = %s->%s, want %s->%s",
				i+1, got.TokenIn, got.TokenOut, want.tokenIn, want.tokenOut)
		}
		if !got.ExactIn.Equal(dec(want.exactIn)) {
			t.Errorf("leg %d exactIn = %s, want %s chained from the previous leg",
				i+1, got.ExactIn, want.exactIn)
		}
	}
}

func TestTickArbitrageUnconfirmedLegAbortsChain(t *testing.T) {
	dex := &fakeDex{
		rates: map[string]decimal.Decimal{
			"GALA->GUSDC": dec("0.5"),
			"GUSDC->GALA": dec("2"),
			"GALA->GWETH": dec("0.0005"),
			"GWETH->GUSDC": dec("1100"),
		},
		balances: map[string]decimal.Decimal{"GUSDC": dec("100")},
	}
	exec := &fakeExecutor{outcomes: []domain.TradeOutcome{
		{Confirmed: true, ConfirmedVia: domain.ConfirmViaWait, AmountOut: dec("6")},
		{Confirmed: false, ConfirmedVia: domain.ConfirmUnconfirmed},
	}}
	pl := ledger.New(&memStore{}, 10, 10, testLogger())
	o := newArbOrchestrator(arbConfig(), dex, exec, pl, seededHistory(0.5, 4))

	if err := o.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(exec.intents) != 2 {
		t.Fatalf("executed %d intents, want 2: the third leg must not run", len(exec.intents))
	}
	if exec.intents[1].TokenIn != "GALA" || exec.intents[1].TokenOut != "GWETH" {
		t.Errorf("second intent = %s->%s, want GALA->GWETH",
			exec.intents[1].TokenIn, exec.intents[1].TokenOut)
	}
	for _, intent := range exec.intents {
		if intent.TokenIn == "GWETH" {
			t.Fatalf("closing leg executed after an unconfirmed leg: %+v", intent)
		}
	}
}

func TestSnapshotsSafeDuringTicks(t *testing.T) {
	dex := &fakeDex{
		rates:    map[string]decimal.Decimal{"GALA->GUSDC": dec("1.05"), "GUSDC->GALA": dec("2")},
		balances: map[string]decimal.Decimal{"GALA": dec("20"), "GUSDC": dec("100")},
	}
	exec := &fakeExecutor{outcome: domain.TradeOutcome{
		Confirmed: true, ConfirmedVia: domain.ConfirmViaWait, AmountOut: dec("20"),
	}}
	pl := ledger.New(&memStore{}, 10, 10, testLogger())
	o := newTestOrchestrator(testConfig(), dex, exec, pl, seededHistory(1.0, 4))

	// Ticks buy, sell, and clear positions in one goroutine while the
	// HTTP snapshot surface reads from another, as in a live deployment
	// with the API server enabled. The race detector covers the rest.
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < 200; i++ {
			if err := o.Tick(context.Background()); err != nil {
				t.Errorf("Tick: %v", err)
				return
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			_ = o.Status()
			_ = o.Positions()
			_ = o.History()
		}
	}()

	wg.Wait()
}

func TestStatusSnapshot(t *testing.T) {
	dex := &fakeDex{
		rates:    map[string]decimal.Decimal{"GALA->GUSDC": dec("1.0")},
		balances: map[string]decimal.Decimal{},
	}
	exec := &fakeExecutor{}
	pl := ledger.New(&memStore{}, 10, 10, testLogger())
	o := newTestOrchestrator(testConfig(), dex, exec, pl, market.NewHistory(0.2, 10))

	if err := o.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	st := o.Status()
	if st.Ticks != 1 {
		t.Errorf("ticks = %d, want 1", st.Ticks)
	}
	if st.Pair != "GALA/GUSDC" {
		t.Errorf("pair = %q, want GALA/GUSDC", st.Pair)
	}
	if st.LastPrice != 1.0 || st.EMA != 1.0 {
		t.Errorf("price/ema = %v/%v, want 1.0/1.0", st.LastPrice, st.EMA)
	}
	if st.LastTickAt.IsZero() {
		t.Error("last tick time not recorded")
	}
	if st.OpenPosition {
		t.Error("open position reported with an empty ledger")
	}
}
