// internal/game/score.go
package game

import "github.com/hanabira-dev/rikka-server/internal/models"

// YakuType names a scoring pattern.
type YakuType string

const (
	YakuIsshiki     YakuType = "isshiki"      // single-color hand
	YakuSanren      YakuType = "sanren"       // both groups are runs
	YakuSanshiki    YakuType = "sanshiki"     // exactly three colors, claim wins only
	YakuThreePairs  YakuType = "three_pairs"  // three identical pairs
	YakuAllSparkles YakuType = "all_sparkles" // every card is a sparkle
	YakuRikka       YakuType = "rikka"        // single color, all active values distinct
	YakuMusou       YakuType = "musou"        // one card of every color
)

var yakuPoints = map[YakuType]int{
	YakuIsshiki:     1,
	YakuSanren:      3,
	YakuSanshiki:    3,
	YakuThreePairs:  5,
	YakuAllSparkles: 5,
	YakuRikka:       6,
	YakuMusou:       9,
}

// RiichiBonus is the flat bonus granted when the winner had declared ready.
// Declaring ready itself costs nothing; the lock-in is the price.
const RiichiBonus = 1

// YakuResult is one named pattern with its fixed point value.
type YakuResult struct {
	Name   YakuType `json:"name"`
	Points int      `json:"points"`
}

// ScoreResult is the resolved points breakdown for a winning hand.
type ScoreResult struct {
	Total   int          `json:"total"`
	Yaku    []YakuResult `json:"yaku"`
	Bonuses int          `json:"bonuses"`
}

// Score resolves the best scoring interpretation of a winning 6-card hand.
//
// A hand can satisfy several structural patterns at once (a three-pairs hand
// may also partition into sets, a rainbow may also be all sparkles). Each
// applicable structural base forms a candidate; color patterns (rikka, else
// isshiki; sanshiki on claim wins) stack onto every candidate. The candidate
// with the highest total wins. Bonuses are counted once per hand: one point
// per sparkle card plus the riichi bonus when wasReady is set.
//
// A hand with a valid partition but no named pattern scores bonus-only; a
// strictly zero total is a legal win.
func Score(cards []*models.Card, wonByClaim, wasReady bool) *ScoreResult {
	bonuses := sparkleCount(cards)
	if wasReady {
		bonuses += RiichiBonus
	}

	var addons []YakuResult
	if distinctColors(cards) == 1 {
		if allActiveValuesDistinct(cards) {
			addons = append(addons, yaku(YakuRikka))
		} else {
			addons = append(addons, yaku(YakuIsshiki))
		}
	}
	if wonByClaim && distinctColors(cards) == 3 {
		addons = append(addons, yaku(YakuSanshiki))
	}

	var candidates [][]YakuResult
	if hasStandardPartition(cards) {
		base := []YakuResult{}
		if hasDoubleRunPartition(cards) {
			base = append(base, yaku(YakuSanren))
		}
		candidates = append(candidates, base)
	}
	if isThreePairs(cards) {
		candidates = append(candidates, []YakuResult{yaku(YakuThreePairs)})
	}
	if isAllSparkles(cards) {
		candidates = append(candidates, []YakuResult{yaku(YakuAllSparkles)})
	}
	if isRainbow(cards) {
		candidates = append(candidates, []YakuResult{yaku(YakuMusou)})
	}
	if len(candidates) == 0 {
		// Not a winning structure; callers gate on CheckWin, but return a
		// bonus-only result rather than panicking.
		return &ScoreResult{Total: bonuses, Yaku: []YakuResult{}, Bonuses: bonuses}
	}

	best := &ScoreResult{Total: -1}
	for _, base := range candidates {
		list := make([]YakuResult, 0, len(base)+len(addons))
		list = append(list, base...)
		list = append(list, addons...)
		total := bonuses
		for _, y := range list {
			total += y.Points
		}
		if total > best.Total {
			best = &ScoreResult{Total: total, Yaku: list, Bonuses: bonuses}
		}
	}
	return best
}

func yaku(t YakuType) YakuResult {
	return YakuResult{Name: t, Points: yakuPoints[t]}
}

func allActiveValuesDistinct(cards []*models.Card) bool {
	seen := make(map[int]bool, len(cards))
	for _, c := range cards {
		if seen[c.ActiveValue()] {
			return false
		}
		seen[c.ActiveValue()] = true
	}
	return true
}
