package postgres

import "time"

// NewStoreForTest creates a Store over the provided pool and clock (test-only).
func NewStoreForTest(p Pool, now func() time.Time) *Store {
	return &Store{pool: p, now: now}
}
