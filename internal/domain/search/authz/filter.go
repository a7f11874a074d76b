// Package authz suppresses unauthorized derivative works (ROM hacks, fan
// games) of protected franchises. Decisions are per candidate and do not
// depend on the rest of the batch.
package authz

import (
	"strings"

	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/domain/search/tables"
	"github.com/kailas-cloud/gamedex/internal/domain/search/textnorm"
)

// Verdict is the outcome of a filter decision.
type Verdict string

// Verdicts.
const (
	Allow    Verdict = "allow"
	Suppress Verdict = "suppress"
)

// Reason explains a verdict.
type Reason string

// Reason codes.
const (
	ReasonNoProtectedKeyword     Reason = "no-protected-keyword"
	ReasonAuthorizedCompany      Reason = "authorized-company"
	ReasonUnauthorizedDerivative Reason = "unauthorized-derivative"
)

// Decision is the filter verdict for one candidate.
type Decision struct {
	Verdict Verdict
	Reason  Reason
	// Franchise is the matched protected keyword, empty when none matched.
	Franchise string
}

// Allowed reports whether the candidate may be shown.
func (d Decision) Allowed() bool { return d.Verdict == Allow }

type protected struct {
	keyword   string
	raw       string
	companies []string
}

// Filter evaluates candidates against the protected-franchise table.
type Filter struct {
	entries []protected
}

// NewFilter builds a filter from the lookup tables.
func NewFilter(t *tables.Tables) *Filter {
	f := &Filter{}
	for _, p := range t.Protected {
		e := protected{keyword: textnorm.Fold(p.Keyword), raw: p.Keyword}
		for _, c := range p.Companies {
			if folded := textnorm.Fold(c); folded != "" {
				e.companies = append(e.companies, folded)
			}
		}
		if e.keyword != "" {
			f.entries = append(f.entries, e)
		}
	}
	return f
}

// Decide scans title, developers and publishers for protected keywords.
// Every matched franchise must be covered by an authorized developer or publisher.
func (f *Filter) Decide(g game.Game) Decision {
	developers, publishers := g.Developers(), g.Publishers()
	text := textnorm.Fold(strings.Join(append(append([]string{g.Title}, developers...), publishers...), " "))

	companies := make([]string, 0, len(developers)+len(publishers))
	for _, c := range append(developers, publishers...) {
		if folded := textnorm.Fold(c); folded != "" {
			companies = append(companies, folded)
		}
	}

	var matched string
	for _, e := range f.entries {
		if !textnorm.ContainsPhrase(text, e.keyword) {
			continue
		}
		if !authorized(companies, e.companies) {
			return Decision{Verdict: Suppress, Reason: ReasonUnauthorizedDerivative, Franchise: e.raw}
		}
		if matched == "" {
			matched = e.raw
		}
	}
	if matched == "" {
		return Decision{Verdict: Allow, Reason: ReasonNoProtectedKeyword}
	}
	return Decision{Verdict: Allow, Reason: ReasonAuthorizedCompany, Franchise: matched}
}

// Apply keeps allowed candidates in order and counts the suppressed ones.
func (f *Filter) Apply(games []game.Game) ([]game.Game, int) {
	kept := make([]game.Game, 0, len(games))
	suppressed := 0
	for i := range games {
		if f.Decide(games[i]).Allowed() {
			kept = append(kept, games[i])
			continue
		}
		suppressed++
	}
	return kept, suppressed
}

// authorized reports whether a declared company name contains an authorized
// name as a whole phrase ("nintendo epd" covers "nintendo", "ninten" does not).
func authorized(declared, allowed []string) bool {
	for _, d := range declared {
		for _, a := range allowed {
			if textnorm.ContainsPhrase(d, a) {
				return true
			}
		}
	}
	return false
}
