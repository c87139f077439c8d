package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPositionJSONShape(t *testing.T) {
	p := Position{
		UnitsHeld:      decimal.RequireFromString("12.5"),
		CostBasisTotal: decimal.RequireFromString("3.75"),
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// The persisted shape uses bare JSON numbers, not quoted strings.
	if got, want := string(data), `{"units":12.5,"cost_usdt":3.75}`; got != want {
		t.Errorf("marshal = %s, want %s", got, want)
	}

	var back Position
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.UnitsHeld.Equal(p.UnitsHeld) || !back.CostBasisTotal.Equal(p.CostBasisTotal) {
		t.Errorf("round trip = %+v, want %+v", back, p)
	}
}

func TestPositionUnmarshalAcceptsStringsAndMissingFields(t *testing.T) {
	var p Position
	if err := json.Unmarshal([]byte(`{"units":"7.25","cost_usdt":"1"}`), &p); err != nil {
		t.Fatalf("unmarshal quoted decimals: %v", err)
	}
	if !p.UnitsHeld.Equal(decimal.RequireFromString("7.25")) {
		t.Errorf("units = %s, want 7.25", p.UnitsHeld)
	}

	var empty Position
	if err := json.Unmarshal([]byte(`{}`), &empty); err != nil {
		t.Fatalf("unmarshal empty object: %v", err)
	}
	if !empty.UnitsHeld.IsZero() || !empty.CostBasisTotal.IsZero() {
		t.Errorf("empty object position = %+v, want zeroes", empty)
	}
}

func TestPositionIsOpen(t *testing.T) {
	tests := []struct {
		name  string
		units string
		cost  string
		want  bool
	}{
		{"both positive", "1", "1", true},
		{"zero units", "0", "1", false},
		{"zero cost", "1", "0", false},
		{"both zero", "0", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Position{
				UnitsHeld:      decimal.RequireFromString(tt.units),
				CostBasisTotal: decimal.RequireFromString(tt.cost),
			}
			if got := p.IsOpen(); got != tt.want {
				t.Errorf("IsOpen() = %v, want %v", got, tt.want)
			}
		})
	}
}
