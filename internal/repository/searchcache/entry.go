package searchcache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/gamedex/internal/domain/game"
)

// Tier identifies where an entry lives.
type Tier string

// Tiers.
const (
	TierMemory  Tier = "memory"
	TierDurable Tier = "durable"
)

// State is the freshness of an entry at a point in time.
type State int

// Entry states.
const (
	Absent State = iota
	Fresh
	Stale
	Evicted
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Evicted:
		return "evicted"
	default:
		return "absent"
	}
}

// Entry is an immutable cached search payload. Replacing an entry swaps the whole value.
type Entry struct {
	key       string
	games     []game.Game
	cachedAt  time.Time
	expiresAt time.Time
	tier      Tier
	partial   bool
}

// NewEntry builds an entry that expires ttl after cachedAt.
func NewEntry(key string, games []game.Game, cachedAt time.Time, ttl time.Duration, tier Tier) (*Entry, error) {
	if ttl < 0 {
		return nil, fmt.Errorf("entry %s: negative ttl %s", key, ttl)
	}
	return newEntryUntil(key, games, cachedAt, cachedAt.Add(ttl), tier), nil
}

func newEntryUntil(key string, games []game.Game, cachedAt, expiresAt time.Time, tier Tier) *Entry {
	if expiresAt.Before(cachedAt) {
		expiresAt = cachedAt
	}
	cp := make([]game.Game, len(games))
	copy(cp, games)
	return &Entry{key: key, games: cp, cachedAt: cachedAt, expiresAt: expiresAt, tier: tier}
}

// Key returns the logical cache key.
func (e *Entry) Key() string { return e.key }

// Games returns a copy of the cached results.
func (e *Entry) Games() []game.Game {
	cp := make([]game.Game, len(e.games))
	copy(cp, e.games)
	return cp
}

// CachedAt returns when the payload was fetched.
func (e *Entry) CachedAt() time.Time { return e.cachedAt }

// ExpiresAt returns when the entry stops being fresh.
func (e *Entry) ExpiresAt() time.Time { return e.expiresAt }

// Tier returns the tier the entry was read from.
func (e *Entry) Tier() Tier { return e.tier }

// State reports freshness at now given the grace window.
func (e *Entry) State(now time.Time, grace time.Duration) State {
	switch {
	case e == nil:
		return Absent
	case now.Before(e.expiresAt):
		return Fresh
	case now.Before(e.expiresAt.Add(grace)):
		return Stale
	default:
		return Evicted
	}
}

type payload struct {
	Games     []game.Game `json:"games"`
	CachedAt  time.Time   `json:"cached_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func encodeEntry(e *Entry) ([]byte, error) {
	games := e.games
	if games == nil {
		games = []game.Game{}
	}
	return json.Marshal(payload{Games: games, CachedAt: e.cachedAt, ExpiresAt: e.expiresAt})
}

func decodeEntry(key string, data []byte) (*Entry, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode entry %s: %w", key, err)
	}
	if p.CachedAt.IsZero() || p.ExpiresAt.Before(p.CachedAt) {
		return nil, fmt.Errorf("decode entry %s: invalid timestamps", key)
	}
	return newEntryUntil(key, p.Games, p.CachedAt, p.ExpiresAt, TierDurable), nil
}
