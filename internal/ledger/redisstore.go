package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// ledgerKey is the Redis key holding the serialized ledger.
const ledgerKey = "gswapbot:ledger"

// RedisStore persists the ledger as a single JSON value in Redis, for
// deployments where the bot runs on ephemeral storage.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore backed by the given client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Load reads the ledger from Redis. A missing key yields an empty ledger.
func (s *RedisStore) Load(ctx context.Context) (domain.Ledger, error) {
	data, err := s.rdb.Get(ctx, ledgerKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return make(domain.Ledger), nil
		}
		return nil, fmt.Errorf("ledger redis: get: %w", err)
	}

	var l domain.Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("ledger redis: decode: %w", err)
	}
	if l == nil {
		l = make(domain.Ledger)
	}
	return l, nil
}

// Save writes the full ledger back to Redis.
func (s *RedisStore) Save(ctx context.Context, l domain.Ledger) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("ledger redis: encode: %w", err)
	}
	if err := s.rdb.Set(ctx, ledgerKey, data, 0).Err(); err != nil {
		return fmt.Errorf("ledger redis: set: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.LedgerStore = (*RedisStore)(nil)
