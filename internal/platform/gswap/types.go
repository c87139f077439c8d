package gswap

import "encoding/json"

// envelope is the common response wrapper used by the dex-backend.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message,omitempty"`
	Error   bool            `json:"error,omitempty"`
	Data    json.RawMessage `json:"data"`
}

type quoteRequest struct {
	TokenIn  string `json:"tokenIn"`
	TokenOut string `json:"tokenOut"`
	AmountIn string `json:"amountIn"`
	// Fee selects a pool tier in hundredths of a bip; zero asks the
	// backend for the best available tier.
	Fee int `json:"fee,omitempty"`
}

type quoteResponse struct {
	AmountOut string `json:"amountOut"`
	Fee       int    `json:"fee"`
}

type swapPayload struct {
	TokenIn   string `json:"tokenIn"`
	TokenOut  string `json:"tokenOut"`
	AmountIn  string `json:"amountIn"`
	MinOut    string `json:"amountOutMinimum"`
	Fee       int    `json:"fee"`
	Recipient string `json:"recipient"`
	UniqueKey string `json:"uniqueKey"`
}

type signedSwapRequest struct {
	swapPayload
	Signature string `json:"signature"`
	PublicKey string `json:"signerPublicKey"`
}

type swapResponse struct {
	ID   string `json:"id"`
	Hash string `json:"hash,omitempty"`
}

type txStatusResponse struct {
	Status string `json:"status"`
	Hash   string `json:"hash,omitempty"`
}

type balanceEntry struct {
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
}
