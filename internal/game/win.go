// internal/game/win.go
package game

import "github.com/hanabira-dev/rikka-server/internal/models"

// HandSize is the number of cards in a complete winning hand.
const HandSize = 6

// CheckWin reports whether the 6 cards form a complete winning hand.
//
// Structure-free patterns are tried first: three same-color same-value pairs,
// all sparkles, and one card of each color (rainbow). Failing those, the hand
// wins iff it partitions into two groups of three where each group is a Set
// (same color, same active value) or a Run (same color, consecutive active
// values). The result depends only on the multiset of (color, active value,
// sparkle) tuples, never on card order or identity.
func CheckWin(cards []*models.Card) bool {
	if len(cards) != HandSize {
		return false
	}
	if isThreePairs(cards) || isAllSparkles(cards) || isRainbow(cards) {
		return true
	}
	return hasStandardPartition(cards)
}

// isSet reports three cards of one color with identical active values.
func isSet(a, b, c *models.Card) bool {
	if a.Color != b.Color || b.Color != c.Color {
		return false
	}
	return a.ActiveValue() == b.ActiveValue() && b.ActiveValue() == c.ActiveValue()
}

// isRun reports three cards of one color with consecutive active values.
func isRun(a, b, c *models.Card) bool {
	if a.Color != b.Color || b.Color != c.Color {
		return false
	}
	v := []int{a.ActiveValue(), b.ActiveValue(), c.ActiveValue()}
	if v[0] > v[1] {
		v[0], v[1] = v[1], v[0]
	}
	if v[1] > v[2] {
		v[1], v[2] = v[2], v[1]
	}
	if v[0] > v[1] {
		v[0], v[1] = v[1], v[0]
	}
	return v[0]+1 == v[1] && v[1]+1 == v[2]
}

func isValidGroup(a, b, c *models.Card) bool {
	return isSet(a, b, c) || isRun(a, b, c)
}

// hasStandardPartition fixes card 0 into the first group together with every
// pair (i, j); the remaining three cards form the second group. The first
// valid split wins — which split is irrelevant beyond existence.
func hasStandardPartition(cards []*models.Card) bool {
	if len(cards) != HandSize {
		return false
	}
	for i := 1; i < 5; i++ {
		for j := i + 1; j < 6; j++ {
			rest := make([]*models.Card, 0, 3)
			for k := 1; k < 6; k++ {
				if k != i && k != j {
					rest = append(rest, cards[k])
				}
			}
			if isValidGroup(cards[0], cards[i], cards[j]) && isValidGroup(rest[0], rest[1], rest[2]) {
				return true
			}
		}
	}
	return false
}

// hasDoubleRunPartition reports whether some valid split makes both groups
// Runs. Used by the scorer for the sanren pattern.
func hasDoubleRunPartition(cards []*models.Card) bool {
	if len(cards) != HandSize {
		return false
	}
	for i := 1; i < 5; i++ {
		for j := i + 1; j < 6; j++ {
			rest := make([]*models.Card, 0, 3)
			for k := 1; k < 6; k++ {
				if k != i && k != j {
					rest = append(rest, cards[k])
				}
			}
			if isRun(cards[0], cards[i], cards[j]) && isRun(rest[0], rest[1], rest[2]) {
				return true
			}
		}
	}
	return false
}

// isThreePairs reports whether the hand splits into three pairs, each pair
// sharing color and active value.
func isThreePairs(cards []*models.Card) bool {
	if len(cards) != HandSize {
		return false
	}
	used := make([]bool, HandSize)
	pairs := 0
	for i := 0; i < HandSize; i++ {
		if used[i] {
			continue
		}
		for j := i + 1; j < HandSize; j++ {
			if used[j] {
				continue
			}
			if cards[i].Color == cards[j].Color && cards[i].ActiveValue() == cards[j].ActiveValue() {
				used[i], used[j] = true, true
				pairs++
				break
			}
		}
		if !used[i] {
			return false
		}
	}
	return pairs == 3
}

func isAllSparkles(cards []*models.Card) bool {
	if len(cards) != HandSize {
		return false
	}
	for _, c := range cards {
		if !c.Sparkle {
			return false
		}
	}
	return true
}

// isRainbow reports one card of each of the six colors.
func isRainbow(cards []*models.Card) bool {
	if len(cards) != HandSize {
		return false
	}
	seen := make(map[models.CardColor]bool, HandSize)
	for _, c := range cards {
		if seen[c.Color] {
			return false
		}
		seen[c.Color] = true
	}
	return len(seen) == 6
}

func distinctColors(cards []*models.Card) int {
	seen := make(map[models.CardColor]bool, HandSize)
	for _, c := range cards {
		seen[c.Color] = true
	}
	return len(seen)
}

func sparkleCount(cards []*models.Card) int {
	n := 0
	for _, c := range cards {
		if c.Sparkle {
			n++
		}
	}
	return n
}
