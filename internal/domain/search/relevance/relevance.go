// Package relevance scores how well a candidate title matches a query.
// A score of 0 means no textual evidence of relation; thresholds are
// applied by callers.
package relevance

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/gamedex/internal/domain/search/textnorm"
)

// minReverseWordLen is the shortest title word that may match inside a query word.
const minReverseWordLen = 3

// Scorer combines a whole-string component and a per-word component.
type Scorer struct {
	// Weights for single-word queries.
	SingleExactWeight float64
	SingleWordWeight  float64
	// Weights for multi-word queries; word overlap dominates.
	MultiExactWeight float64
	MultiWordWeight  float64
}

// DefaultScorer returns the production weights.
func DefaultScorer() Scorer {
	return Scorer{
		SingleExactWeight: 1,
		SingleWordWeight:  1,
		MultiExactWeight:  1,
		MultiWordWeight:   2,
	}
}

var defaultScorer = DefaultScorer()

// Score rates title against query in [0,1] with the default weights.
func Score(query, title string) float64 {
	return defaultScorer.Score(query, title)
}

// Score rates title against query in [0,1]. An empty query scores 1.
func (s Scorer) Score(query, title string) float64 {
	q := textnorm.Fold(query)
	if q == "" {
		return 1
	}
	t := textnorm.Fold(title)

	qWords := strings.Fields(q)
	wExact, wWord := s.SingleExactWeight, s.SingleWordWeight
	if len(qWords) > 1 {
		wExact, wWord = s.MultiExactWeight, s.MultiWordWeight
	}
	total := wExact + wWord
	if total <= 0 {
		return 0
	}

	score := (wExact*exactComponent(q, t) + wWord*wordComponent(qWords, strings.Fields(t))) / total
	return clamp(score)
}

func exactComponent(q, t string) float64 {
	if t == "" {
		return 0
	}
	if q == t {
		return 1
	}
	if strings.Contains(t, q) || strings.Contains(q, t) {
		lq, lt := utf8.RuneCountInString(q), utf8.RuneCountInString(t)
		if lq > lt {
			lq, lt = lt, lq
		}
		return float64(lq) / float64(lt)
	}
	return 0
}

func wordComponent(qWords, tWords []string) float64 {
	if len(qWords) == 0 {
		return 0
	}
	matched := 0
	for _, qw := range qWords {
		for _, tw := range tWords {
			if strings.Contains(tw, qw) ||
				(utf8.RuneCountInString(tw) >= minReverseWordLen && strings.Contains(qw, tw)) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(qWords))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
