// Package postgres implements the trade log store using PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ClientConfig holds connection parameters for the PostgreSQL client.
type ClientConfig struct {
	DSN      string
	MaxConns int
	MinConns int
}

// Client wraps a pgxpool.Pool and manages schema setup.
type Client struct {
	pool *pgxpool.Pool
}

// New creates a Client with a connection pool configured from cfg and
// verifies connectivity.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Client{pool: pool}, nil
}

// Pool exposes the underlying connection pool for store construction.
func (c *Client) Pool() *pgxpool.Pool { return c.pool }

// Migrate creates the schema when it does not exist yet.
func (c *Client) Migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS trade_log (
			id            TEXT PRIMARY KEY,
			direction     TEXT NOT NULL,
			token_in      TEXT NOT NULL,
			token_out     TEXT NOT NULL,
			exact_in      NUMERIC NOT NULL,
			min_out       NUMERIC NOT NULL,
			expected_out  NUMERIC NOT NULL,
			fee_tier      INTEGER NOT NULL,
			confirmed     BOOLEAN NOT NULL,
			confirmed_via TEXT NOT NULL,
			tx_id         TEXT,
			hash          TEXT,
			simulated     BOOLEAN NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS trade_log_created_at_idx
			ON trade_log (created_at DESC);`

	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() {
	c.pool.Close()
}
