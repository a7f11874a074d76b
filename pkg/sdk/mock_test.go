package gamedex

import (
	"context"

	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/domain/search/query"
	healthuc "github.com/kailas-cloud/gamedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/gamedex/internal/usecase/search"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn     func(ctx context.Context, q query.Query) (searchuc.Response, error)
	getGamesFn   func(ctx context.Context, ids []int64) ([]game.Game, error)
	invalidateFn func(ctx context.Context, q query.Query) error
	clearAllFn   func(ctx context.Context) error
}

func (m *mockSearchUC) Search(ctx context.Context, q query.Query) (searchuc.Response, error) {
	return m.searchFn(ctx, q)
}

func (m *mockSearchUC) GetGames(ctx context.Context, ids []int64) ([]game.Game, error) {
	return m.getGamesFn(ctx, ids)
}

func (m *mockSearchUC) InvalidateQuery(ctx context.Context, q query.Query) error {
	return m.invalidateFn(ctx, q)
}

func (m *mockSearchUC) InvalidateAll(ctx context.Context) error {
	return m.clearAllFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- quotaReader mock ---

type mockQuota struct {
	used, limit, remaining int64
}

func (m *mockQuota) Used() int64      { return m.used }
func (m *mockQuota) Limit() int64     { return m.limit }
func (m *mockQuota) Remaining() int64 { return m.remaining }

// --- helpers ---

func testClient(search searchUseCase) *Client {
	return &Client{
		searchSvc: search,
		healthSvc: &mockHealthUC{},
		quota:     &mockQuota{remaining: -1},
	}
}
