package quota

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/game"
)

type mockCatalog struct {
	searchFn func(ctx context.Context, body string) ([]game.Game, error)
	calls    int
}

func (m *mockCatalog) Search(ctx context.Context, body string) ([]game.Game, error) {
	m.calls++
	return m.searchFn(ctx, body)
}

func TestInstrumentedCatalog_CountsRequests(t *testing.T) {
	inner := &mockCatalog{searchFn: func(context.Context, string) ([]game.Game, error) {
		return []game.Game{{ID: 1, Title: "Celeste"}}, nil
	}}
	tr := NewTracker(10, ActionReject, zap.NewNop())
	c := NewInstrumentedCatalog(inner, tr, zap.NewNop())

	games, err := c.Search(context.Background(), `search "celeste";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 1 {
		t.Errorf("games = %v", games)
	}
	if tr.Used() != 1 {
		t.Errorf("Used = %d, want 1", tr.Used())
	}
}

func TestInstrumentedCatalog_FailuresStillCount(t *testing.T) {
	inner := &mockCatalog{searchFn: func(context.Context, string) ([]game.Game, error) {
		return nil, domain.ErrUpstreamUnavailable
	}}
	tr := NewTracker(10, ActionReject, zap.NewNop())
	c := NewInstrumentedCatalog(inner, tr, zap.NewNop())

	if _, err := c.Search(context.Background(), "x"); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if tr.Used() != 1 {
		t.Errorf("Used = %d, want 1", tr.Used())
	}
}

func TestInstrumentedCatalog_RejectsWithoutCallingUpstream(t *testing.T) {
	inner := &mockCatalog{searchFn: func(context.Context, string) ([]game.Game, error) {
		t.Fatal("upstream must not be called")
		return nil, nil
	}}
	tr := NewTracker(1, ActionReject, zap.NewNop())
	tr.Record(1)
	c := NewInstrumentedCatalog(inner, tr, zap.NewNop())

	if _, err := c.Search(context.Background(), "x"); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("calls = %d", inner.calls)
	}
}

func TestInstrumentedCatalog_NilQuota(t *testing.T) {
	inner := &mockCatalog{searchFn: func(context.Context, string) ([]game.Game, error) { return nil, nil }}
	c := NewInstrumentedCatalog(inner, nil, zap.NewNop())

	if _, err := c.Search(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
}
