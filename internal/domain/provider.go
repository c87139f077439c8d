package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteProvider asks the DEX what a swap would return. A feeTier of zero
// lets the provider pick the best pool; a non-zero tier pins the pool.
// Implementations return ErrNoQuote when no liquidity path exists or the
// amount is non-positive.
type QuoteProvider interface {
	Quote(ctx context.Context, tokenIn, tokenOut string, amountIn decimal.Decimal, feeTier int) (Quote, error)
}

// SubmitRequest carries everything the DEX needs to execute a swap.
type SubmitRequest struct {
	TokenIn  string
	TokenOut string
	FeeTier  int
	ExactIn  decimal.Decimal
	MinOut   decimal.Decimal
	Wallet   string
}

// PendingTrade is the handle returned by a successful submission. Wait
// blocks until the DEX reports settlement or the timeout elapses, in which
// case it returns ErrConfirmationTimeout.
type PendingTrade interface {
	Wait(ctx context.Context, timeout time.Duration) (TradeReceipt, error)
}

// TradeSubmitter submits swaps for execution. A nil error means the trade
// was accepted; rejection before acceptance returns ErrSubmitRejected.
type TradeSubmitter interface {
	Submit(ctx context.Context, req SubmitRequest) (PendingTrade, error)
}

// BalanceReader returns the wallet's holdings as symbol -> quantity. The
// underlying API is paginated; implementations page until a short page.
type BalanceReader interface {
	Balances(ctx context.Context, wallet string) (map[string]decimal.Decimal, error)
}

// Dex is the full provider surface the bot needs from the exchange.
type Dex interface {
	QuoteProvider
	TradeSubmitter
	BalanceReader
}
