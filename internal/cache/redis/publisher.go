// Package rediscache publishes live bot events to Redis so external
// consumers (dashboards, other processes) can subscribe without touching
// the bot's HTTP API.
package rediscache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// lastPriceKey holds the most recent price observation for cheap reads.
const lastPriceKey = "gswapbot:price:last"

// channelPrefix namespaces the pub/sub channels, one per event kind.
const channelPrefix = "gswapbot:events:"

// Publisher mirrors bot events onto Redis pub/sub channels. Publishing is
// best-effort; failures are logged and never reach the tick loop.
type Publisher struct {
	rdb     *redis.Client
	logger  *slog.Logger
	timeout time.Duration
}

// NewPublisher creates a Publisher.
func NewPublisher(rdb *redis.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		rdb:     rdb,
		logger:  logger.With(slog.String("component", "cache")),
		timeout: 5 * time.Second,
	}
}

// Broadcast publishes an event to its channel. Price events additionally
// refresh the last-price key with a short TTL.
func (p *Publisher) Broadcast(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("event marshal failed", slog.String("event", event))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.rdb.Publish(ctx, channelPrefix+event, data).Err(); err != nil {
		p.logger.Warn("redis publish failed",
			slog.String("event", event), slog.String("error", err.Error()))
		return
	}
	if event == "price" {
		if err := p.rdb.Set(ctx, lastPriceKey, data, 5*time.Minute).Err(); err != nil {
			p.logger.Warn("last price write failed", slog.String("error", err.Error()))
		}
	}
}
