package gswap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// statusPollInterval is how often a pending trade re-checks the
// bundle-backend for settlement.
const statusPollInterval = 2 * time.Second

// Submit signs and submits a swap to the bundle-backend. The returned
// handle tracks the transaction until GalaChain processes it.
func (c *Client) Submit(ctx context.Context, req domain.SubmitRequest) (domain.PendingTrade, error) {
	if c.signer == nil {
		return nil, errors.New("gswap: submit requires a signing key")
	}

	payload := swapPayload{
		TokenIn:   req.TokenIn,
		TokenOut:  req.TokenOut,
		AmountIn:  req.ExactIn.String(),
		MinOut:    req.MinOut.String(),
		Fee:       req.FeeTier,
		Recipient: req.Wallet,
		UniqueKey: "gswapbot-" + uuid.NewString(),
	}
	sig, err := c.signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("gswap: sign swap: %w", err)
	}

	signed := signedSwapRequest{
		swapPayload: payload,
		Signature:   sig,
		PublicKey:   c.signer.PublicKey(),
	}

	var env envelope
	if err := c.doJSON(ctx, "POST", c.bundleHost+"/v1/trade/swap", signed, &env); err != nil {
		return nil, err
	}
	if env.Error {
		return nil, fmt.Errorf("gswap: swap rejected: %s", env.Message)
	}

	var sr swapResponse
	if err := json.Unmarshal(env.Data, &sr); err != nil {
		return nil, fmt.Errorf("gswap: decode swap response: %w", err)
	}
	if sr.ID == "" {
		return nil, errors.New("gswap: swap response missing transaction id")
	}

	return &pendingTrade{client: c, txID: sr.ID, hash: sr.Hash}, nil
}

type pendingTrade struct {
	client *Client
	txID   string
	hash   string
}

// Wait polls transaction status until the trade is processed, fails, or
// the timeout elapses. A timeout returns domain.ErrConfirmationTimeout so
// the caller can fall back to balance polling.
func (p *pendingTrade) Wait(ctx context.Context, timeout time.Duration) (domain.TradeReceipt, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		status, err := p.client.transactionStatus(ctx, p.txID)
		if err == nil {
			switch status.Status {
			case "PROCESSED":
				hash := status.Hash
				if hash == "" {
					hash = p.hash
				}
				return domain.TradeReceipt{TxID: p.txID, Hash: hash}, nil
			case "FAILED":
				return domain.TradeReceipt{}, fmt.Errorf("gswap: transaction %s failed on chain", p.txID)
			}
		}
		// Transient status errors are retried until the deadline.

		if time.Now().After(deadline) {
			return domain.TradeReceipt{}, fmt.Errorf("gswap: transaction %s: %w",
				p.txID, domain.ErrConfirmationTimeout)
		}
		select {
		case <-ctx.Done():
			return domain.TradeReceipt{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) transactionStatus(ctx context.Context, txID string) (txStatusResponse, error) {
	u := c.apiHost + "/v1/trade/transaction-status?id=" + url.QueryEscape(txID)

	var env envelope
	if err := c.doJSON(ctx, "GET", u, nil, &env); err != nil {
		return txStatusResponse{}, err
	}
	var st txStatusResponse
	if err := json.Unmarshal(env.Data, &st); err != nil {
		return txStatusResponse{}, fmt.Errorf("gswap: decode status: %w", err)
	}
	return st, nil
}

var _ domain.TradeSubmitter = (*Client)(nil)
