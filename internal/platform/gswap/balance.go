package gswap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// balancePageLimit is the maximum page size the dex-backend accepts.
const balancePageLimit = 100

// Balances fetches every token balance for wallet, following pagination
// until the backend returns a short page.
func (c *Client) Balances(ctx context.Context, wallet string) (map[string]decimal.Decimal, error) {
	balances := make(map[string]decimal.Decimal)

	for page := 1; ; page++ {
		entries, err := c.balancePage(ctx, wallet, page)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			qty, err := decimal.NewFromString(e.Quantity)
			if err != nil {
				return nil, fmt.Errorf("gswap: parse balance %s=%q: %w", e.Symbol, e.Quantity, err)
			}
			balances[e.Symbol] = qty
		}
		if len(entries) < balancePageLimit {
			return balances, nil
		}
	}
}

func (c *Client) balancePage(ctx context.Context, wallet string, page int) ([]balanceEntry, error) {
	u := fmt.Sprintf("%s/v1/trade/balances?address=%s&page=%d&limit=%d",
		c.apiHost, url.QueryEscape(wallet), page, balancePageLimit)

	var env envelope
	if err := c.doJSON(ctx, "GET", u, nil, &env); err != nil {
		return nil, err
	}
	var entries []balanceEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		return nil, fmt.Errorf("gswap: decode balances: %w", err)
	}
	return entries, nil
}

var _ domain.BalanceReader = (*Client)(nil)
var _ domain.Dex = (*Client)(nil)
