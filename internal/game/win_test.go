// internal/game/win_test.go
package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hanabira-dev/rikka-server/internal/models"
)

// card builds a test card; sparkle status follows the printed values the way
// deck generation sets it.
func card(color models.CardColor, a, b int) *models.Card {
	return &models.Card{
		ID:      uuid.New(),
		Color:   color,
		ValueA:  a,
		ValueB:  b,
		Sparkle: a == 7 || b == 7,
	}
}

func flippedCard(color models.CardColor, a, b int) *models.Card {
	c := card(color, a, b)
	c.Flipped = true
	return c
}

func TestCheckWinTwoSets(t *testing.T) {
	hand := []*models.Card{
		card(models.ColorRed, 4, 5), card(models.ColorRed, 4, 5), card(models.ColorRed, 4, 5),
		card(models.ColorBlue, 2, 3), card(models.ColorBlue, 2, 3), card(models.ColorBlue, 2, 3),
	}
	assert.True(t, CheckWin(hand))
}

func TestCheckWinTwoRuns(t *testing.T) {
	hand := []*models.Card{
		card(models.ColorGreen, 1, 2), card(models.ColorGreen, 2, 3), card(models.ColorGreen, 3, 4),
		card(models.ColorBlack, 5, 6), card(models.ColorBlack, 6, 7), card(models.ColorBlack, 7, 1),
	}
	assert.True(t, CheckWin(hand))
}

func TestCheckWinSetPlusRun(t *testing.T) {
	hand := []*models.Card{
		card(models.ColorYellow, 3, 4), card(models.ColorYellow, 3, 4), card(models.ColorYellow, 3, 4),
		card(models.ColorPurple, 1, 2), card(models.ColorPurple, 2, 3), card(models.ColorPurple, 3, 4),
	}
	assert.True(t, CheckWin(hand))
}

func TestCheckWinInterleavedOrder(t *testing.T) {
	// Same cards as the set+run hand but shuffled positionally; partition
	// search must not depend on ordering.
	hand := []*models.Card{
		card(models.ColorPurple, 2, 3), card(models.ColorYellow, 3, 4), card(models.ColorPurple, 1, 2),
		card(models.ColorYellow, 3, 4), card(models.ColorPurple, 3, 4), card(models.ColorYellow, 3, 4),
	}
	assert.True(t, CheckWin(hand))
}

func TestCheckWinUsesActiveValues(t *testing.T) {
	// Unflipped these reds are 1,1,3: no run. Flipping the middle card makes
	// its active value 2, completing 1-2-3.
	hand := []*models.Card{
		card(models.ColorRed, 1, 2), card(models.ColorRed, 1, 2), card(models.ColorRed, 3, 4),
		card(models.ColorBlue, 5, 6), card(models.ColorBlue, 5, 6), card(models.ColorBlue, 5, 6),
	}
	assert.False(t, CheckWin(hand))

	hand[1].Flip()
	assert.True(t, CheckWin(hand))
}

func TestCheckWinThreePairs(t *testing.T) {
	hand := []*models.Card{
		card(models.ColorRed, 2, 3), card(models.ColorRed, 2, 3),
		card(models.ColorBlue, 5, 6), card(models.ColorBlue, 5, 6),
		card(models.ColorGreen, 1, 2), card(models.ColorGreen, 1, 2),
	}
	assert.True(t, CheckWin(hand))
}

func TestCheckWinPairsNeedMatchingColor(t *testing.T) {
	hand := []*models.Card{
		card(models.ColorRed, 2, 3), card(models.ColorBlue, 2, 3),
		card(models.ColorBlue, 5, 6), card(models.ColorGreen, 5, 6),
		card(models.ColorGreen, 1, 2), card(models.ColorRed, 1, 2),
	}
	assert.False(t, CheckWin(hand))
}

func TestCheckWinAllSparkles(t *testing.T) {
	// Six sparkle cards that form no partition, no pairs, no rainbow.
	hand := []*models.Card{
		card(models.ColorRed, 7, 1), card(models.ColorRed, 6, 7),
		card(models.ColorBlue, 7, 1), card(models.ColorBlue, 6, 7),
		card(models.ColorGreen, 7, 1), card(models.ColorRed, 7, 1),
	}
	// red 7,6,7: not a run or set; pairs exist for some but not all.
	for _, c := range hand {
		assert.True(t, c.Sparkle)
	}
	assert.True(t, CheckWin(hand))
}

func TestCheckWinRainbow(t *testing.T) {
	hand := []*models.Card{
		card(models.ColorRed, 1, 2), card(models.ColorBlue, 3, 4),
		card(models.ColorGreen, 5, 6), card(models.ColorYellow, 2, 3),
		card(models.ColorPurple, 4, 5), card(models.ColorBlack, 6, 7),
	}
	assert.True(t, CheckWin(hand))
}

func TestCheckWinRejectsNearMisses(t *testing.T) {
	cases := map[string][]*models.Card{
		"broken run": {
			card(models.ColorGreen, 1, 2), card(models.ColorGreen, 2, 3), card(models.ColorGreen, 5, 6),
			card(models.ColorBlack, 4, 5), card(models.ColorBlack, 4, 5), card(models.ColorBlack, 4, 5),
		},
		"five distinct colors": {
			card(models.ColorRed, 1, 2), card(models.ColorRed, 4, 5),
			card(models.ColorBlue, 3, 4), card(models.ColorGreen, 6, 7),
			card(models.ColorYellow, 2, 3), card(models.ColorPurple, 5, 6),
		},
		"group spanning colors": {
			card(models.ColorRed, 1, 2), card(models.ColorBlue, 2, 3), card(models.ColorRed, 3, 4),
			card(models.ColorBlack, 6, 7), card(models.ColorBlack, 6, 7), card(models.ColorBlack, 6, 7),
		},
	}
	for name, hand := range cases {
		assert.Falsef(t, CheckWin(hand), "case %q should not win", name)
	}
}

func TestCheckWinWrongSize(t *testing.T) {
	hand := []*models.Card{
		card(models.ColorRed, 4, 5), card(models.ColorRed, 4, 5), card(models.ColorRed, 4, 5),
	}
	assert.False(t, CheckWin(hand))
	assert.False(t, CheckWin(nil))
}
