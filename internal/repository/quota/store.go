package quota

import (
	"context"
	"fmt"
	"time"
)

// DefaultTTL keeps a daily counter around long enough to survive the day boundary in any timezone.
const DefaultTTL = 48 * time.Hour

// counter is the consumer interface for quota operations (ISP).
type counter interface {
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store persists upstream request counters on top of DB (INCRBY + EXPIRE NX).
type Store struct {
	store counter
	ttl   time.Duration
}

// New creates a quota store. A non-positive ttl falls back to DefaultTTL.
func New(s counter, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{store: s, ttl: ttl}
}

// IncrBy atomically adds val to the counter, sets its TTL once, and returns the new total.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	n, err := s.store.IncrBy(ctx, key, val)
	if err != nil {
		return 0, fmt.Errorf("quota INCRBY %s: %w", key, err)
	}

	// NX: the first write of the day fixes the expiry, later writes don't extend it.
	if err := s.store.Expire(ctx, key, s.ttl, true); err != nil {
		return 0, fmt.Errorf("quota EXPIRE %s: %w", key, err)
	}
	return n, nil
}

// Get returns the current counter value (0 if the key does not exist).
// Counters live outside the cache namespace on some drivers, so reads go through INCRBY 0.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	return s.IncrBy(ctx, key, 0)
}
