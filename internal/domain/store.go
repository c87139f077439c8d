package domain

import (
	"context"
	"io"
	"time"
)

// LedgerStore persists the position ledger between ticks. Load returns an
// empty (non-nil) Ledger when nothing has been persisted yet. Save failures
// are logged by callers and are not fatal; ledger state lives in memory
// until the next successful write.
type LedgerStore interface {
	Load(ctx context.Context) (Ledger, error)
	Save(ctx context.Context, l Ledger) error
}

// TradeLogStore persists one record per attempted trade for operator
// review and PnL analysis.
type TradeLogStore interface {
	Insert(ctx context.Context, rec TradeRecord) error
	ListRecent(ctx context.Context, limit int) ([]TradeRecord, error)
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]TradeRecord, error)
}

// BlobWriter uploads an object to blob storage, used by the archiver to
// snapshot the ledger and export the trade log.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
