package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// memStore is an in-memory LedgerStore that can be told to fail writes.
type memStore struct {
	ledger  domain.Ledger
	saves   int
	failSet bool
}

func (s *memStore) Load(context.Context) (domain.Ledger, error) {
	return s.ledger.Clone(), nil
}

func (s *memStore) Save(_ context.Context, l domain.Ledger) error {
	if s.failSet {
		return errors.New("disk full")
	}
	s.ledger = l.Clone()
	s.saves++
	return nil
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

func TestRecordBuyAccumulates(t *testing.T) {
	store := &memStore{ledger: make(domain.Ledger)}
	pl := New(store, 10, 10, testLogger())

	ctx := context.Background()
	pl.RecordBuy(ctx, "GALA", dec("10"), dec("5"))
	pl.RecordBuy(ctx, "GALA", dec("10"), dec("5"))

	pos := pl.Get("GALA")
	if !pos.UnitsHeld.Equal(dec("20")) {
		t.Errorf("units = %s, want 20", pos.UnitsHeld)
	}
	if !pos.CostBasisTotal.Equal(dec("10")) {
		t.Errorf("cost basis = %s, want 10", pos.CostBasisTotal)
	}
	if store.saves != 2 {
		t.Errorf("store saved %d times, want one write per buy", store.saves)
	}
}

func TestEvaluateSellThreshold(t *testing.T) {
	store := &memStore{ledger: make(domain.Ledger)}
	pl := New(store, 10, 10, testLogger())
	ctx := context.Background()
	pl.RecordBuy(ctx, "GALA", dec("20"), dec("10"))

	// threshold = 10 * (1 + 20/10000) = 10.02
	tests := []struct {
		name     string
		proceeds string
		allowed  bool
	}{
		{"just below threshold denied", "10.01", false},
		{"at threshold allowed", "10.02", true},
		{"above threshold allowed", "10.03", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := pl.EvaluateSell("GALA", dec("20"), dec(tt.proceeds))
			if d.Allowed != tt.allowed {
				t.Errorf("EvaluateSell(proceeds=%s) allowed = %v (%s), want %v",
					tt.proceeds, d.Allowed, d.Reason, tt.allowed)
			}
			if !d.Threshold.Equal(dec("10.02")) {
				t.Errorf("threshold = %s, want 10.02", d.Threshold)
			}
		})
	}
}

func TestEvaluateSellGuards(t *testing.T) {
	store := &memStore{ledger: make(domain.Ledger)}
	pl := New(store, 10, 10, testLogger())

	if d := pl.EvaluateSell("GALA", dec("5"), dec("100")); d.Allowed {
		t.Error("sell allowed with no tracked position")
	}

	pl.RecordBuy(context.Background(), "GALA", dec("5"), dec("1"))
	if d := pl.EvaluateSell("GALA", decimal.Zero, dec("100")); d.Allowed {
		t.Error("sell allowed with nothing on chain")
	}
}

func TestClearPositionZeroesBothFields(t *testing.T) {
	store := &memStore{ledger: make(domain.Ledger)}
	pl := New(store, 10, 10, testLogger())
	ctx := context.Background()

	pl.RecordBuy(ctx, "GALA", dec("20"), dec("10"))
	pl.ClearPosition(ctx, "GALA")

	pos := pl.Get("GALA")
	if !pos.UnitsHeld.IsZero() || !pos.CostBasisTotal.IsZero() {
		t.Errorf("after clear, position = %+v, want both fields zero", pos)
	}
	if pos.IsOpen() {
		t.Error("cleared position still reported open")
	}
	if !store.ledger["GALA"].UnitsHeld.IsZero() {
		t.Error("clear not persisted to the store")
	}
}

func TestPersistFailureIsNotFatal(t *testing.T) {
	store := &memStore{ledger: make(domain.Ledger), failSet: true}
	pl := New(store, 10, 10, testLogger())

	pl.RecordBuy(context.Background(), "GALA", dec("10"), dec("5"))

	// State stays in memory despite the failed write.
	if !pl.Get("GALA").UnitsHeld.Equal(dec("10")) {
		t.Error("in-memory state lost after a persist failure")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	store := NewFileStore(path)
	ctx := context.Background()

	// A missing file is an empty ledger, not an error.
	l, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if len(l) != 0 {
		t.Fatalf("missing file yielded %d positions, want 0", len(l))
	}

	l["GALA"] = domain.Position{UnitsHeld: dec("12.5"), CostBasisTotal: dec("3.75")}
	if err := store.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pos := got["GALA"]
	if !pos.UnitsHeld.Equal(dec("12.5")) || !pos.CostBasisTotal.Equal(dec("3.75")) {
		t.Errorf("round-tripped position = %+v", pos)
	}
}
