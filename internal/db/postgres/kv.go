package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/gamedex/internal/db"
)

const (
	createCacheTable = `CREATE TABLE IF NOT EXISTS search_cache (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
)`
	createCacheExpiryIndex = `CREATE INDEX IF NOT EXISTS search_cache_expires_at_idx ON search_cache (expires_at)`
	createCounterTable     = `CREATE TABLE IF NOT EXISTS gamedex_counters (
	key        TEXT PRIMARY KEY,
	value      BIGINT NOT NULL,
	expires_at TIMESTAMPTZ
)`

	selectValue = `SELECT value FROM search_cache WHERE key = $1 AND expires_at > $2`
	upsertValue = `INSERT INTO search_cache (key, value, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`
	deleteValue  = `DELETE FROM search_cache WHERE key = $1`
	deletePrefix = `DELETE FROM search_cache WHERE key LIKE $1 ESCAPE '\'`

	incrCounter = `INSERT INTO gamedex_counters AS c (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET
	value = CASE WHEN c.expires_at IS NOT NULL AND c.expires_at <= $3 THEN EXCLUDED.value ELSE c.value + EXCLUDED.value END,
	expires_at = CASE WHEN c.expires_at IS NOT NULL AND c.expires_at <= $3 THEN NULL ELSE c.expires_at END
RETURNING value`
	expireCounter   = `UPDATE gamedex_counters SET expires_at = $2 WHERE key = $1`
	expireCounterNX = `UPDATE gamedex_counters SET expires_at = $2 WHERE key = $1 AND expires_at IS NULL`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Get retrieves an unexpired value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, selectValue, key, s.now()).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return value, nil
}

// SetWithTTL upserts a value with an expiration.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if _, err := s.pool.Exec(ctx, upsertValue, key, value, s.now().Add(ttl)); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del deletes a key. Deleting a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, deleteValue, key); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// DeletePrefix deletes every cached value whose key starts with prefix.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	tag, err := s.pool.Exec(ctx, deletePrefix, likeEscaper.Replace(prefix)+"%")
	if err != nil {
		return 0, &db.Error{Op: db.OpDel, Err: err}
	}
	return int(tag.RowsAffected()), nil
}

// IncrBy atomically increments a counter and returns the new value.
// An expired counter restarts from val.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, incrCounter, key, val, s.now()).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return n, nil
}

// Expire sets a counter's expiry. When nx=true, only counters without expiry are updated.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	stmt := expireCounter
	if nx {
		stmt = expireCounterNX
	}
	if _, err := s.pool.Exec(ctx, stmt, key, s.now().Add(ttl)); err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}
