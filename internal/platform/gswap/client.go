// Package gswap is the REST client for the GalaSwap DEX backend. It covers
// the three surfaces the bot needs: swap quoting, signed trade submission
// with settlement tracking, and paginated wallet balances.
package gswap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mpetrov/gswapbot/internal/crypto"
)

// Client talks to the gswap dex-backend and bundle-backend APIs.
type Client struct {
	apiHost    string
	bundleHost string
	httpClient *http.Client
	// signer is nil in dry-run deployments; Submit requires it.
	signer *crypto.Signer
}

// NewClient creates a Client. signer may be nil when the bot never submits
// real trades.
func NewClient(apiHost, bundleHost string, signer *crypto.Signer) *Client {
	return &Client{
		apiHost:    apiHost,
		bundleHost: bundleHost,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		signer:     signer,
	}
}

// doJSON performs an HTTP request with an optional JSON body and decodes
// the JSON response into out. Non-2xx statuses are returned as errors with
// a truncated body excerpt.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gswap: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("gswap: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gswap: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("gswap: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gswap: %s %s: status %d: %s",
			method, url, resp.StatusCode, truncate(respBody, 256))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("gswap: decode response: %w", err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
