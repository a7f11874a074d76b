package result

import "github.com/kailas-cloud/gamedex/internal/domain/game"

// Scored is a candidate with its relevance to the text that found it.
type Scored struct {
	game            game.Game
	relevance       float64
	priority        int
	passesThreshold bool
}

// New creates a scored result. Priority is the priority of the sub-query that found it.
func New(g game.Game, relevance float64, priority int, passes bool) Scored {
	return Scored{game: g, relevance: relevance, priority: priority, passesThreshold: passes}
}

// Game returns the candidate.
func (s *Scored) Game() game.Game { return s.game }

// ID returns the candidate identifier.
func (s *Scored) ID() int64 { return s.game.ID }

// Relevance returns the score in [0,1].
func (s *Scored) Relevance() float64 { return s.relevance }

// Priority returns the priority of the producing sub-query.
func (s *Scored) Priority() int { return s.priority }

// PassesThreshold reports whether relevance met the intent threshold.
func (s *Scored) PassesThreshold() bool { return s.passesThreshold }

// Games unwraps scored results in order.
func Games(scored []Scored) []game.Game {
	out := make([]game.Game, len(scored))
	for i := range scored {
		out[i] = scored[i].game
	}
	return out
}
