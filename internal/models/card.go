// internal/models/card.go
package models

import "github.com/google/uuid"

// CardColor is one of the six printed colors in the Rikka deck.
type CardColor string

const (
	ColorRed    CardColor = "red"
	ColorBlue   CardColor = "blue"
	ColorGreen  CardColor = "green"
	ColorYellow CardColor = "yellow"
	ColorPurple CardColor = "purple"
	ColorBlack  CardColor = "black"
)

// Colors lists every card color in deck-generation order.
var Colors = []CardColor{ColorRed, ColorBlue, ColorGreen, ColorYellow, ColorPurple, ColorBlack}

// Card is a single Rikka card. Each card carries two printed values; only one
// of them is "active" at a time, selected by the Flipped orientation flag.
// Sparkle marks the bonus cards that feed specific scoring patterns.
type Card struct {
	ID      uuid.UUID `json:"id"`
	Color   CardColor `json:"color"`
	ValueA  int       `json:"topValue"`
	ValueB  int       `json:"bottomValue"`
	Flipped bool      `json:"isFlipped"`
	Sparkle bool      `json:"isSparkle,omitempty"`
}

// ActiveValue returns the printed value currently in play for this card.
func (c *Card) ActiveValue() int {
	if c.Flipped {
		return c.ValueB
	}
	return c.ValueA
}

// Flip toggles which printed value is active.
func (c *Card) Flip() {
	c.Flipped = !c.Flipped
}

// Clone returns a copy of the card, safe to hand to a view without aliasing
// the authoritative state.
func (c *Card) Clone() *Card {
	cp := *c
	return &cp
}
