package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// TradeLogStore implements domain.TradeLogStore using PostgreSQL.
type TradeLogStore struct {
	pool *pgxpool.Pool
}

// NewTradeLogStore creates a TradeLogStore backed by the given pool.
func NewTradeLogStore(pool *pgxpool.Pool) *TradeLogStore {
	return &TradeLogStore{pool: pool}
}

const tradeSelectCols = `id, direction, token_in, token_out, exact_in,
	min_out, expected_out, fee_tier, confirmed, confirmed_via, tx_id, hash,
	simulated, created_at`

func scanTradeRows(rows pgx.Rows) ([]domain.TradeRecord, error) {
	var records []domain.TradeRecord
	for rows.Next() {
		var r domain.TradeRecord
		var txID, hash *string
		if err := rows.Scan(
			&r.ID, &r.Direction, &r.TokenIn, &r.TokenOut, &r.ExactIn,
			&r.MinOut, &r.ExpectedOut, &r.FeeTier, &r.Confirmed,
			&r.ConfirmedVia, &txID, &hash, &r.Simulated, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		if txID != nil {
			r.TxID = *txID
		}
		if hash != nil {
			r.Hash = *hash
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Insert appends one trade record.
func (s *TradeLogStore) Insert(ctx context.Context, rec domain.TradeRecord) error {
	const query = `
		INSERT INTO trade_log (
			id, direction, token_in, token_out, exact_in,
			min_out, expected_out, fee_tier, confirmed, confirmed_via,
			tx_id, hash, simulated, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14
		) ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Direction, rec.TokenIn, rec.TokenOut, rec.ExactIn,
		rec.MinOut, rec.ExpectedOut, rec.FeeTier, rec.Confirmed, rec.ConfirmedVia,
		nullable(rec.TxID), nullable(rec.Hash), rec.Simulated, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert trade: %w", err)
	}
	return nil
}

// ListRecent returns the most recent records, newest first.
func (s *TradeLogStore) ListRecent(ctx context.Context, limit int) ([]domain.TradeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM trade_log ORDER BY created_at DESC LIMIT $1`, tradeSelectCols)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	defer rows.Close()

	records, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades: %w", err)
	}
	return records, nil
}

// ListBefore returns records created before cutoff, oldest first, used by
// the archiver to export in stable chunks.
func (s *TradeLogStore) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.TradeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM trade_log WHERE created_at < $1 ORDER BY created_at ASC LIMIT $2`, tradeSelectCols)

	rows, err := s.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before: %w", err)
	}
	defer rows.Close()

	records, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades: %w", err)
	}
	return records, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ domain.TradeLogStore = (*TradeLogStore)(nil)
