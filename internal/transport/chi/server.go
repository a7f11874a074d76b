package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/domain/search/intent"
	"github.com/kailas-cloud/gamedex/internal/domain/search/query"
	"github.com/kailas-cloud/gamedex/internal/logger"
	healthuc "github.com/kailas-cloud/gamedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/gamedex/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Searcher is the search façade as seen by the HTTP layer.
type Searcher interface {
	Search(ctx context.Context, q query.Query) (searchuc.Response, error)
	GetGames(ctx context.Context, ids []int64) ([]game.Game, error)
	InvalidateQuery(ctx context.Context, q query.Query) error
	InvalidateAll(ctx context.Context) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server implements ServerInterface for the chi router.
type Server struct {
	search        Searcher
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeInvalidQuery, false),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusTooManyRequests, ErrorCodeQuotaExceeded, true),
		allFailedHandler,
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, ErrorCodeTimeout, true),
		sentinelHandler(domain.ErrCacheTierUnavailable, http.StatusServiceUnavailable, ErrorCodeCacheUnavailable, true),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, ErrorCodeUpstreamError, true),
		sentinelHandler(domain.ErrUpstreamRejected, http.StatusBadGateway, ErrorCodeUpstreamError, false),
	}
	return s
}

// SearchGames handles GET /v1/games/search.
func (s *Server) SearchGames(w http.ResponseWriter, r *http.Request, params SearchGamesParams) {
	q, err := queryFromParams(params.Q, params.Limit, params.Intent, params.Sister)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		SearchID: resp.SearchID,
		Query:    resp.Query,
		Intent:   string(resp.Intent),
		Outcome:  string(resp.Outcome),
		Cache:    CacheInfo{Source: string(resp.Source), Stale: resp.Stale, Partial: resp.Partial},
		Items:    gamesToResponse(resp.Items),
	})
}

// GetGames handles GET /v1/games.
func (s *Server) GetGames(w http.ResponseWriter, r *http.Request, params GetGamesParams) {
	games, err := s.search.GetGames(r.Context(), params.Ids)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GamesResponse{Items: gamesToResponse(games)})
}

// ClearCache handles DELETE /v1/cache.
func (s *Server) ClearCache(w http.ResponseWriter, r *http.Request, params ClearCacheParams) {
	q, err := queryFromParams(&params.Q, params.Limit, params.Intent, params.Sister)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.search.InvalidateQuery(r.Context(), q); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearAllCache handles DELETE /v1/cache/all.
func (s *Server) ClearAllCache(w http.ResponseWriter, r *http.Request) {
	if err := s.search.InvalidateAll(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func queryFromParams(text *string, limit *int, in *string, sister *bool) (query.Query, error) {
	var opts []query.Option
	if in != nil && *in != "" {
		opts = append(opts, query.WithIntent(intent.Intent(*in)))
	}
	if sister != nil && *sister {
		opts = append(opts, query.WithSisterTitles())
	}
	var t string
	if text != nil {
		t = *text
	}
	var n int
	if limit != nil {
		n = *limit
	}
	return query.New(t, n, opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrQuotaExceeded,
		domain.ErrTimeout,
		domain.ErrCacheTierUnavailable,
		domain.ErrUpstreamUnavailable,
		domain.ErrUpstreamRejected,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode, retryable bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if errors.Is(sentinel, domain.ErrInvalidQuery) {
			msg = err.Error()
		}
		writeJSON(w, status, ErrorResponse{Code: code, Message: msg, Retryable: retryable})
		return true
	}
}

// allFailedHandler maps a search where every sub-query failed. It is retryable
// unless every failure was an upstream rejection.
func allFailedHandler(w http.ResponseWriter, err error) bool {
	var afe *searchuc.AllSubQueriesFailedError
	if !errors.As(err, &afe) {
		return false
	}
	retryable := false
	for _, e := range afe.Errors {
		if domain.IsTransient(e) {
			retryable = true
			break
		}
	}
	writeJSON(w, http.StatusBadGateway, ErrorResponse{
		Code:      ErrorCodeSearchUnavailable,
		Message:   "search unavailable: " + safeDomainMessage(err),
		Retryable: retryable,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("Domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
