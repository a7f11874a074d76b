package search

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/db"
	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/domain/search/authz"
	"github.com/kailas-cloud/gamedex/internal/domain/search/builder"
	"github.com/kailas-cloud/gamedex/internal/domain/search/franchise"
	"github.com/kailas-cloud/gamedex/internal/domain/search/tables"
	"github.com/kailas-cloud/gamedex/internal/repository/searchcache"
)

// --- Mocks ---

type mockCatalog struct {
	mu     sync.Mutex
	route  func(ctx context.Context, body string) ([]game.Game, error)
	bodies []string
}

func (m *mockCatalog) Search(ctx context.Context, body string) ([]game.Game, error) {
	m.mu.Lock()
	m.bodies = append(m.bodies, body)
	route := m.route
	m.mu.Unlock()
	if route == nil {
		return nil, nil
	}
	return route(ctx, body)
}

func (m *mockCatalog) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bodies)
}

// count returns how many calls matched pred.
func (m *mockCatalog) count(pred func(string) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bodies {
		if pred(b) {
			n++
		}
	}
	return n
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// --- Fixture ---

type fixture struct {
	svc     *Service
	catalog *mockCatalog
	cache   *searchcache.Cache
	clock   *clock
}

func newFixture(t *testing.T, route func(ctx context.Context, body string) ([]game.Game, error), tune ...func(*domain.SearchTuning)) *fixture {
	t.Helper()

	tbl, err := tables.Default()
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	qb, err := builder.New(tbl)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}

	clk := &clock{t: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)}
	cache, err := searchcache.New(newMemStore(), searchcache.Config{StaleWhileRevalidate: true}, zap.NewNop(),
		searchcache.WithClock(clk.Now))
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	t.Cleanup(cache.Close)

	tuning := domain.DefaultSearchTuning()
	for _, fn := range tune {
		fn(&tuning)
	}

	catalog := &mockCatalog{route: route}
	svc := New(catalog, franchise.NewDetector(tbl), qb, authz.NewFilter(tbl), cache, tuning, zap.NewNop())
	return &fixture{svc: svc, catalog: catalog, cache: cache, clock: clk}
}

// --- Body predicates ---

func isExact(text string) func(string) bool {
	return func(body string) bool {
		return strings.Contains(body, `search "`+text+`"`) && strings.Contains(body, "category = (0,8,9)")
	}
}

func isFranchise(text string) func(string) bool {
	return func(body string) bool {
		return strings.Contains(body, `search "`+text+`"`) && strings.Contains(body, "category = (0,1,2,4,8,9,10,11)")
	}
}

func isAlternative(body string) bool { return strings.Contains(body, "alternative_names.name ~") }

func isCollection(body string) bool { return strings.Contains(body, "collections.name ~") }

func titles(games []game.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.Title
	}
	return out
}
