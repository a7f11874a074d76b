package gamedex

import (
	"github.com/kailas-cloud/gamedex/internal/domain"
	searchuc "github.com/kailas-cloud/gamedex/internal/usecase/search"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery         = domain.ErrInvalidQuery
	ErrUpstreamUnavailable  = domain.ErrUpstreamUnavailable
	ErrUpstreamRejected     = domain.ErrUpstreamRejected
	ErrCacheTierUnavailable = domain.ErrCacheTierUnavailable
	ErrTimeout              = domain.ErrTimeout
	ErrQuotaExceeded        = domain.ErrQuotaExceeded
)

// IsSearchUnavailable reports whether every sub-query of a search failed,
// as opposed to a search that legitimately found nothing.
func IsSearchUnavailable(err error) bool {
	return searchuc.IsAllFailed(err)
}

// IsRetryable reports whether err is transient and the call may succeed later.
func IsRetryable(err error) bool {
	return domain.IsTransient(err)
}
