// Package notify fans bot events out to chat webhooks.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Event kinds published by the bot.
const (
	EventTradeConfirmed   = "trade_confirmed"
	EventTradeUnconfirmed = "trade_unconfirmed"
	EventArbExecuted      = "arb_executed"
	EventGasLow           = "gas_low"
	EventError            = "error"
)

// Event is a single notification.
type Event struct {
	Kind    string
	Title   string
	Message string
	At      time.Time
}

// Sender delivers one event to one destination.
type Sender interface {
	Send(ctx context.Context, ev Event) error
	Name() string
}

// Notifier fans events out to all configured senders. Delivery failures
// are logged and never surface to the trading path.
type Notifier struct {
	senders []Sender
	logger  *slog.Logger
	timeout time.Duration
	// allowed filters events by kind; empty means all kinds.
	allowed map[string]bool
}

// New builds a Notifier. events restricts delivery to the listed kinds;
// an empty slice delivers everything.
func New(logger *slog.Logger, events []string, senders ...Sender) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[e] = true
	}
	return &Notifier{
		senders: senders,
		logger:  logger.With("component", "notify"),
		timeout: 10 * time.Second,
		allowed: allowed,
	}
}

// Publish sends ev to every sender in the background.
func (n *Notifier) Publish(ev Event) {
	if n == nil || len(n.senders) == 0 {
		return
	}
	if len(n.allowed) > 0 && !n.allowed[ev.Kind] {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	for _, s := range n.senders {
		go func(s Sender) {
			ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
			defer cancel()
			if err := s.Send(ctx, ev); err != nil {
				n.logger.Warn("notification delivery failed",
					"sender", s.Name(), "kind", ev.Kind, "error", err)
			}
		}(s)
	}
}

// Eventf formats and publishes an event in one call.
func (n *Notifier) Eventf(kind, title, format string, args ...any) {
	if n == nil {
		return
	}
	n.Publish(Event{Kind: kind, Title: title, Message: fmt.Sprintf(format, args...)})
}
