package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// LedgerSource provides the current ledger snapshot for archival.
type LedgerSource interface {
	Snapshot() domain.Ledger
}

// Archiver periodically uploads a ledger snapshot and a trade-log export
// to object storage so bot state survives host loss and PnL history can be
// analysed offline.
type Archiver struct {
	writer   domain.BlobWriter
	ledger   LedgerSource
	tradeLog domain.TradeLogStore // optional
	logger   *slog.Logger
	now      func() time.Time
}

// NewArchiver creates an Archiver. tradeLog may be nil to archive only the
// ledger.
func NewArchiver(writer domain.BlobWriter, ledger LedgerSource, tradeLog domain.TradeLogStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer:   writer,
		ledger:   ledger,
		tradeLog: tradeLog,
		logger:   logger.With(slog.String("component", "archiver")),
		now:      time.Now,
	}
}

// Run archives on the given interval until ctx is cancelled. Failures are
// logged and retried on the next interval.
func (a *Archiver) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.ArchiveOnce(ctx); err != nil {
				a.logger.Warn("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// ArchiveOnce uploads the current ledger snapshot and, when a trade log is
// configured, the day's trade export.
func (a *Archiver) ArchiveOnce(ctx context.Context) error {
	now := a.now().UTC()

	if err := a.archiveLedger(ctx, now); err != nil {
		return err
	}
	if a.tradeLog != nil {
		if err := a.archiveTrades(ctx, now); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archiver) archiveLedger(ctx context.Context, now time.Time) error {
	snapshot := a.ledger.Snapshot()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal ledger: %w", err)
	}

	path := fmt.Sprintf("ledger/%s/%s.json",
		now.Format("2006-01"), now.Format("2006-01-02T15-04-05Z"))
	if err := a.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("s3blob: upload ledger snapshot: %w", err)
	}
	a.logger.Info("ledger snapshot archived",
		slog.String("path", path), slog.Int("positions", len(snapshot)))
	return nil
}

func (a *Archiver) archiveTrades(ctx context.Context, now time.Time) error {
	records, err := a.tradeLog.ListBefore(ctx, now, 10_000)
	if err != nil {
		return fmt.Errorf("s3blob: trade export query: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("s3blob: marshal trade export: %w", err)
		}
	}

	path := fmt.Sprintf("trades/%s/%s.jsonl",
		now.Format("2006-01"), now.Format("2006-01-02"))
	if err := a.writer.Put(ctx, path, &buf, "application/x-ndjson"); err != nil {
		return fmt.Errorf("s3blob: upload trade export: %w", err)
	}
	a.logger.Info("trade log archived",
		slog.String("path", path), slog.Int("records", len(records)))
	return nil
}
