package domain

import "errors"

var (
	// ErrNoQuote indicates the DEX could not produce a quote for a pair,
	// either because no liquidity path exists or the amount was invalid.
	// Skippable: the current action is abandoned, the tick continues.
	ErrNoQuote = errors.New("no quote available")

	// ErrInvalidPath indicates an arbitrage path that does not close back
	// on its starting asset.
	ErrInvalidPath = errors.New("arbitrage path does not form a closed loop")

	// ErrInsufficientBalance indicates the wallet lacks the input asset.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSubmitRejected indicates the DEX rejected a trade before accepting
	// it. Terminal for that trade; never retried in the same tick.
	ErrSubmitRejected = errors.New("trade rejected at submission")

	// ErrConfirmationTimeout indicates the primary confirmation wait timed
	// out; the executor falls back to balance polling.
	ErrConfirmationTimeout = errors.New("confirmation wait timed out")

	// ErrUnconfirmed indicates neither the primary wait nor balance polling
	// could establish settlement. The trade may have settled out-of-band;
	// it is not re-submitted.
	ErrUnconfirmed = errors.New("trade settlement unconfirmed")

	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")
)
