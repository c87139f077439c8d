package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Position tracks the cumulative units held of an asset and the total amount
// spent acquiring them. Both fields are non-negative and are always reset to
// zero together when a position is liquidated.
type Position struct {
	UnitsHeld      decimal.Decimal `json:"units"`
	CostBasisTotal decimal.Decimal `json:"cost_usdt"`
}

// IsOpen reports whether the position has both tracked units and a known
// cost basis. Sells are only gated against open positions.
func (p Position) IsOpen() bool {
	return p.UnitsHeld.IsPositive() && p.CostBasisTotal.IsPositive()
}

// positionJSON is the on-disk shape: bare JSON numbers, not quoted strings.
type positionJSON struct {
	Units    json.Number `json:"units"`
	CostUSDT json.Number `json:"cost_usdt"`
}

// MarshalJSON writes units and cost as bare JSON numbers.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(positionJSON{
		Units:    json.Number(p.UnitsHeld.String()),
		CostUSDT: json.Number(p.CostBasisTotal.String()),
	})
}

// UnmarshalJSON accepts both bare numbers and quoted decimal strings.
func (p *Position) UnmarshalJSON(data []byte) error {
	var raw positionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parse := func(n json.Number, field string) (decimal.Decimal, error) {
		if n == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("position: parse %s %q: %w", field, n, err)
		}
		return d, nil
	}
	units, err := parse(raw.Units, "units")
	if err != nil {
		return err
	}
	cost, err := parse(raw.CostUSDT, "cost_usdt")
	if err != nil {
		return err
	}
	p.UnitsHeld = units
	p.CostBasisTotal = cost
	return nil
}

// Ledger maps an asset symbol to its tracked position. It is the persisted
// shape exchanged with a LedgerStore.
type Ledger map[string]Position

// Clone returns a deep copy of the ledger so callers can snapshot state
// without holding references into the live map.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for sym, pos := range l {
		out[sym] = pos
	}
	return out
}
