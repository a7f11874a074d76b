package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_ExactMatch(t *testing.T) {
	assert.InDelta(t, 1.0, Score("Super Mario 64", "Super Mario 64"), 1e-9)
	assert.InDelta(t, 1.0, Score("mario", "Mario"), 1e-9)
}

func TestScore_EmptyQuery(t *testing.T) {
	for _, title := range []string{"", "Halo", "Anything at all"} {
		assert.Equal(t, 1.0, Score("", title))
		assert.Equal(t, 1.0, Score("   ", title))
	}
}

func TestScore_CaseAndWhitespaceInsensitive(t *testing.T) {
	base := Score("legend of zelda", "The Legend of Zelda: Breath of the Wild")
	assert.Equal(t, base, Score("LEGEND  OF   Zelda", "the legend of zelda breath of the wild"))
	assert.Equal(t, base, Score("  legend of zelda  ", "THE LEGEND OF ZELDA: BREATH OF THE WILD"))
}

func TestScore_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, Score("final fantasy", "Final Fantasy VII"), Score("final fantasy", "Final Fantasy VII"))
	}
}

func TestScore_NoEvidence(t *testing.T) {
	assert.Equal(t, 0.0, Score("zelda", "Halo Infinite"))
	assert.Equal(t, 0.0, Score("zelda", ""))
}

func TestScore_SubstringPartialCredit(t *testing.T) {
	// single word: (5/16 + 1) / 2
	assert.InDelta(t, (5.0/16.0+1)/2, Score("mario", "Super Mario Bros"), 1e-9)
}

func TestScore_MultiWordFavorsWordOverlap(t *testing.T) {
	// no substring match, every word matches: (0 + 2*1) / 3
	got := Score("zelda breath wild", "Zelda: Breath of the Wild")
	assert.InDelta(t, 2.0/3.0, got, 1e-9)

	got = Score("zelda tears kingdom", "The Legend of Zelda: Breath of the Wild")
	assert.InDelta(t, (0+2*(1.0/3.0))/3, got, 1e-9)
}

func TestScore_Accents(t *testing.T) {
	assert.Equal(t, 1.0, Score("pokemon", "Pokémon"))
}

func TestScore_Range(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"}, {"mario kart", "Mario"}, {"x", "xxxxxxxx"}, {"halo 3", "Halo 3: ODST"},
	}
	for _, p := range pairs {
		s := Score(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestScorer_ZeroWeights(t *testing.T) {
	s := Scorer{}
	assert.Equal(t, 0.0, s.Score("mario", "Mario"))
}

func TestScore_ExactOutranksLooseMatch(t *testing.T) {
	exact := Score("mario", "Mario")
	loose := Score("mario", "Mario & Sonic at the Olympic Games")
	assert.Greater(t, exact, loose)
}
