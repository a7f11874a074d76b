package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/search/intent"
)

// Query parameter limits.
const (
	// MaxTextLength is the maximum allowed query length in characters.
	MaxTextLength = 200
	DefaultLimit  = 20
	MaxLimit      = 100
)

// Query is a validated, immutable search request.
type Query struct {
	text   string
	intent intent.Intent
	limit  int
	sister bool
}

// Option customizes a Query at construction.
type Option func(*Query)

// WithIntent pins the intent instead of letting the detector classify the text.
func WithIntent(i intent.Intent) Option {
	return func(q *Query) { q.intent = i }
}

// WithSisterTitles asks for sister-title expansion regardless of intent.
func WithSisterTitles() Option {
	return func(q *Query) { q.sister = true }
}

// New validates and normalizes search parameters.
// Text is trimmed; empty text is allowed. Limit defaults to 20 and is clamped to MaxLimit.
func New(text string, limit int, opts ...Option) (Query, error) {
	q := Query{text: strings.TrimSpace(text), limit: limit}
	for _, opt := range opts {
		opt(&q)
	}
	if utf8.RuneCountInString(q.text) > MaxTextLength {
		return Query{}, fmt.Errorf("%w: text too long (max %d chars)", domain.ErrInvalidQuery, MaxTextLength)
	}
	if q.intent != "" && !q.intent.IsValid() {
		return Query{}, fmt.Errorf("%w: unknown intent %q", domain.ErrInvalidQuery, q.intent)
	}
	if q.limit <= 0 {
		q.limit = DefaultLimit
	}
	if q.limit > MaxLimit {
		q.limit = MaxLimit
	}
	return q, nil
}

// Text returns the trimmed query text.
func (q Query) Text() string { return q.text }

// Intent returns the pinned intent, or "" when the detector should classify.
func (q Query) Intent() intent.Intent { return q.intent }

// Limit returns the maximum number of results.
func (q Query) Limit() int { return q.limit }

// SisterTitles reports whether sister-title expansion was requested.
func (q Query) SisterTitles() bool { return q.sister }
