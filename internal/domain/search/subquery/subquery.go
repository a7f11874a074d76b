package subquery

import "github.com/kailas-cloud/gamedex/internal/domain/search/intent"

// SubQuery is one structured catalog query derived from a user query.
type SubQuery struct {
	text     string
	intent   intent.Intent
	body     string
	priority int
}

// New creates a sub-query. Text is the string results are scored against.
func New(text string, in intent.Intent, body string, priority int) SubQuery {
	return SubQuery{text: text, intent: in, body: body, priority: priority}
}

// Text returns the search text this sub-query was built from.
func (s SubQuery) Text() string { return s.text }

// Intent returns the intent the sub-query targets.
func (s SubQuery) Intent() intent.Intent { return s.intent }

// Body returns the Apicalypse query body sent upstream.
func (s SubQuery) Body() string { return s.body }

// Priority returns the merge priority; higher wins.
func (s SubQuery) Priority() int { return s.priority }

// IntentLabel is a diagnostic label such as "franchise:mario 2".
func (s SubQuery) IntentLabel() string { return string(s.intent) + ":" + s.text }
