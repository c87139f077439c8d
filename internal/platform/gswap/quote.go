package gswap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// Quote asks the dex-backend how much tokenOut a swap of amountIn tokenIn
// would yield. feeTier selects a specific pool; pass 0 to let the backend
// pick the best tier.
func (c *Client) Quote(ctx context.Context, tokenIn, tokenOut string, amountIn decimal.Decimal, feeTier int) (domain.Quote, error) {
	req := quoteRequest{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		AmountIn: amountIn.String(),
		Fee:      feeTier,
	}

	var env envelope
	url := c.apiHost + "/v1/trade/quote"
	if err := c.doJSON(ctx, "POST", url, req, &env); err != nil {
		return domain.Quote{}, err
	}
	if env.Error {
		return domain.Quote{}, fmt.Errorf("gswap: quote %s->%s: %s: %w",
			tokenIn, tokenOut, env.Message, domain.ErrNoQuote)
	}

	var qr quoteResponse
	if err := json.Unmarshal(env.Data, &qr); err != nil {
		return domain.Quote{}, fmt.Errorf("gswap: decode quote: %w", err)
	}
	out, err := decimal.NewFromString(qr.AmountOut)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("gswap: parse amountOut %q: %w", qr.AmountOut, err)
	}
	if !out.IsPositive() {
		return domain.Quote{}, fmt.Errorf("gswap: quote %s->%s returned %s: %w",
			tokenIn, tokenOut, out, domain.ErrNoQuote)
	}

	return domain.Quote{
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amountIn,
		AmountOut: out,
		FeeTier:   qr.Fee,
	}, nil
}
