// internal/game/deck_test.go
package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanabira-dev/rikka-server/internal/models"
)

func TestGenerateDeckComposition(t *testing.T) {
	deck := GenerateDeck()
	require.Len(t, deck, DeckSize)

	perColor := map[models.CardColor]int{}
	ids := map[string]bool{}
	sparkles := 0
	for _, c := range deck {
		perColor[c.Color]++
		assert.False(t, ids[c.ID.String()], "card ids must be unique")
		ids[c.ID.String()] = true

		assert.GreaterOrEqual(t, c.ValueA, 1)
		assert.LessOrEqual(t, c.ValueA, 7)
		assert.Equal(t, (c.ValueA%7)+1, c.ValueB, "printed values must be adjacent on the 1..7 cycle")
		assert.False(t, c.Flipped, "cards start unflipped")

		if c.Sparkle {
			sparkles++
			assert.True(t, c.ValueA == 7 || c.ValueB == 7)
		}
	}

	assert.Len(t, perColor, 6)
	for color, n := range perColor {
		assert.Equalf(t, 7, n, "color %s should have 7 cards", color)
	}
	// Two cards per color show a 7: rank 6 (6/7) and rank 7 (7/1).
	assert.Equal(t, 12, sparkles)
}

func TestShuffleIsPermutation(t *testing.T) {
	deck := GenerateDeck()
	before := map[string]bool{}
	for _, c := range deck {
		before[c.ID.String()] = true
	}

	Shuffle(deck, rand.New(rand.NewSource(42)))

	require.Len(t, deck, DeckSize)
	for _, c := range deck {
		assert.True(t, before[c.ID.String()], "shuffle must not invent or drop cards")
	}
}

func TestShuffleDeterministicPerSeed(t *testing.T) {
	a := GenerateDeck()
	b := GenerateDeck()
	Shuffle(a, rand.New(rand.NewSource(7)))
	Shuffle(b, rand.New(rand.NewSource(7)))

	for i := range a {
		assert.Equal(t, a[i].Color, b[i].Color)
		assert.Equal(t, a[i].ValueA, b[i].ValueA)
	}
}
