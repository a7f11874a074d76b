package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeInvalidQuery      ErrorCode = "invalid_query"
	ErrorCodeQuotaExceeded     ErrorCode = "quota_exceeded"
	ErrorCodeSearchUnavailable ErrorCode = "search_unavailable"
	ErrorCodeUpstreamError     ErrorCode = "upstream_error"
	ErrorCodeTimeout           ErrorCode = "timeout"
	ErrorCodeCacheUnavailable  ErrorCode = "cache_unavailable"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable,omitempty"`
}

// SearchGamesParams are the query parameters of GET /v1/games/search.
type SearchGamesParams struct {
	Q      *string `form:"q,omitempty" json:"q,omitempty"`
	Limit  *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Intent *string `form:"intent,omitempty" json:"intent,omitempty"`
	Sister *bool   `form:"sister,omitempty" json:"sister,omitempty"`
}

// GetGamesParams are the query parameters of GET /v1/games.
type GetGamesParams struct {
	Ids []int64 `form:"ids" json:"ids"`
}

// ClearCacheParams are the query parameters of DELETE /v1/cache.
type ClearCacheParams struct {
	Q      string  `form:"q" json:"q"`
	Limit  *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Intent *string `form:"intent,omitempty" json:"intent,omitempty"`
	Sister *bool   `form:"sister,omitempty" json:"sister,omitempty"`
}

// ServerInterface is implemented by the HTTP API server.
type ServerInterface interface {
	// SearchGames handles GET /v1/games/search.
	SearchGames(w http.ResponseWriter, r *http.Request, params SearchGamesParams)
	// GetGames handles GET /v1/games.
	GetGames(w http.ResponseWriter, r *http.Request, params GetGamesParams)
	// ClearCache handles DELETE /v1/cache.
	ClearCache(w http.ResponseWriter, r *http.Request, params ClearCacheParams)
	// ClearAllCache handles DELETE /v1/cache/all.
	ClearAllCache(w http.ResponseWriter, r *http.Request)
	// HealthCheck handles GET /health.
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Metrics handles GET /metrics.
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// RequiredParamError reports a missing required query parameter.
type RequiredParamError struct {
	ParamName string
}

func (e *RequiredParamError) Error() string {
	return fmt.Sprintf("query argument %s is required, but not found", e.ParamName)
}

// ServerOptions configures Handler.
type ServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

type wrapper struct {
	handler      ServerInterface
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts si on the base router, binding query parameters before dispatch.
func HandlerWithOptions(si ServerInterface, opts ServerOptions) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if opts.ErrorHandlerFunc == nil {
		opts.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			WriteBadRequest(w, err)
		}
	}
	wr := &wrapper{handler: si, errorHandler: opts.ErrorHandlerFunc}

	r.Get("/v1/games/search", wr.searchGames)
	r.Get("/v1/games", wr.getGames)
	r.Delete("/v1/cache", wr.clearCache)
	r.Delete("/v1/cache/all", si.ClearAllCache)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	return r
}

// bind decodes one form-style parameter. Scalars use exploded form; arrays are comma-separated.
func (wr *wrapper) bind(w http.ResponseWriter, r *http.Request, name string, required bool, dest any) bool {
	if required && !r.URL.Query().Has(name) {
		wr.errorHandler(w, r, &RequiredParamError{ParamName: name})
		return false
	}
	_, isList := dest.(*[]int64)
	if err := runtime.BindQueryParameter("form", !isList, required, name, r.URL.Query(), dest); err != nil {
		wr.errorHandler(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

func (wr *wrapper) searchGames(w http.ResponseWriter, r *http.Request) {
	var params SearchGamesParams
	if !wr.bind(w, r, "q", false, &params.Q) ||
		!wr.bind(w, r, "limit", false, &params.Limit) ||
		!wr.bind(w, r, "intent", false, &params.Intent) ||
		!wr.bind(w, r, "sister", false, &params.Sister) {
		return
	}
	wr.handler.SearchGames(w, r, params)
}

func (wr *wrapper) getGames(w http.ResponseWriter, r *http.Request) {
	var params GetGamesParams
	if !wr.bind(w, r, "ids", true, &params.Ids) {
		return
	}
	wr.handler.GetGames(w, r, params)
}

func (wr *wrapper) clearCache(w http.ResponseWriter, r *http.Request) {
	var params ClearCacheParams
	if !wr.bind(w, r, "q", true, &params.Q) ||
		!wr.bind(w, r, "limit", false, &params.Limit) ||
		!wr.bind(w, r, "intent", false, &params.Intent) ||
		!wr.bind(w, r, "sister", false, &params.Sister) {
		return
	}
	wr.handler.ClearCache(w, r, params)
}

// WriteBadRequest reports a parameter binding failure as a 400 bad_request.
func WriteBadRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
}
