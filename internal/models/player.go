// internal/models/player.go
package models

import (
	"github.com/google/uuid"
)

// Player is one seat in a room. Hand is bounded to 5 cards between turns and
// 6 during the holder's draw/discard window. ExternalID links the seat to a
// persistent account identity when the session provider supplied one; it is
// the key used to re-attach a reconnecting transport.
type Player struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Hand       []*Card   `json:"hand"`
	Connected  bool      `json:"isConnected"`
	Score      int       `json:"score"`
	Ready      bool      `json:"isRiichi"`
	IsHost     bool      `json:"isHost"`
	ExternalID string    `json:"dbUserId,omitempty"`
}

// TakeCard removes and returns the identified card from the hand, or nil if
// the player does not hold it.
func (p *Player) TakeCard(cardID uuid.UUID) *Card {
	for i, c := range p.Hand {
		if c.ID == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return c
		}
	}
	return nil
}
