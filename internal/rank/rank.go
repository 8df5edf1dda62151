// internal/rank/rank.go
package rank

// Rank is a named tier derived from a user's lifetime total score.
type Rank string

const (
	Novice      Rank = "novice"
	Apprentice  Rank = "apprentice"
	Adept       Rank = "adept"
	Expert      Rank = "expert"
	Master      Rank = "master"
	Grandmaster Rank = "grandmaster"
)

type threshold struct {
	min  int
	rank Rank
}

// Highest tier first; the first threshold at or below the score wins.
var thresholds = []threshold{
	{50000, Grandmaster},
	{25000, Master},
	{10000, Expert},
	{5000, Adept},
	{1000, Apprentice},
	{0, Novice},
}

// ForScore maps a lifetime total score to its tier. Negative totals stay
// Novice.
func ForScore(total int) Rank {
	for _, t := range thresholds {
		if total >= t.min {
			return t.rank
		}
	}
	return Novice
}

// Next returns the following tier and the points still needed to reach it.
// At the top tier it returns the same rank and zero.
func Next(total int) (Rank, int) {
	current := ForScore(total)
	for i, t := range thresholds {
		if t.rank == current {
			if i == 0 {
				return current, 0
			}
			next := thresholds[i-1]
			return next.rank, next.min - total
		}
	}
	return Novice, 0
}
