// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/hanabira-dev/rikka-server/internal/models"
)

// DeckSize is the full Rikka deck: 6 colors x 7 ranks.
const DeckSize = 42

// GenerateDeck builds the 42-card deck in deterministic color/rank order.
// Rank i carries printed values (i, i%7+1), so every card's two values are
// adjacent on the 1..7 cycle. Cards showing a 7 on either face are sparkles.
func GenerateDeck() []*models.Card {
	deck := make([]*models.Card, 0, DeckSize)
	for _, color := range models.Colors {
		for i := 1; i <= 7; i++ {
			valueA := i
			valueB := (i % 7) + 1
			deck = append(deck, &models.Card{
				ID:      uuid.New(),
				Color:   color,
				ValueA:  valueA,
				ValueB:  valueB,
				Sparkle: valueA == 7 || valueB == 7,
			})
		}
	}
	return deck
}

// Shuffle permutes the deck in place with a Fisher-Yates shuffle driven by
// the supplied source. Callers inject the source so tests stay deterministic.
func Shuffle(deck []*models.Card, r *rand.Rand) {
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}
