package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Discord sends events to a channel webhook.
type Discord struct {
	webhookURL string
	client     *http.Client
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(map[string]any{
		"embeds": []map[string]any{{
			"title":       ev.Title,
			"description": ev.Message,
			"timestamp":   ev.At.Format(time.RFC3339),
		}},
	})
	if err != nil {
		return fmt.Errorf("notify: marshal discord message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: discord send: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: discord returned status %d", resp.StatusCode)
	}
	return nil
}

var _ Sender = (*Discord)(nil)
