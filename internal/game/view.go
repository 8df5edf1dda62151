// internal/game/view.go
package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/hanabira-dev/rikka-server/internal/models"
)

// SanitizedState is the per-recipient projection of a room. It carries the
// viewer's own hand face-up, opponents' hands and the deck as zeroed
// placeholders of the true length, and the discard pile in full.
type SanitizedState struct {
	RoomID          string                    `json:"roomId"`
	Name            string                    `json:"name"`
	Status          Status                    `json:"status"`
	MaxPlayers      int                       `json:"maxPlayers"`
	Deck            []*models.Card            `json:"deck"`
	DiscardPile     []*models.Card            `json:"discardPile"`
	Players         map[string]*models.Player `json:"players"`
	Seats           []string                  `json:"seats"`
	HostID          string                    `json:"hostId"`
	CurrentPlayerID string                    `json:"currentPlayerId,omitempty"`
	TurnStartTime   time.Time                 `json:"turnStartTime"`
	Interruption    *Interruption             `json:"interruption,omitempty"`
	WinnerID        string                    `json:"winnerId,omitempty"`
	ScoreResult     *ScoreResult              `json:"scoreResult,omitempty"`
}

// sanitizedFor builds the viewer's projection. Lock must be held. Every card
// in the output is a copy or a placeholder; nothing aliases live room state.
func (r *Room) sanitizedFor(viewerID uuid.UUID) *SanitizedState {
	s := &SanitizedState{
		RoomID:        r.ID,
		Name:          r.Name,
		Status:        r.Status,
		MaxPlayers:    r.Capacity,
		Deck:          maskedCards(len(r.Deck)),
		DiscardPile:   cloneCards(r.DiscardPile),
		Players:       make(map[string]*models.Player, len(r.Players)),
		Seats:         make([]string, 0, len(r.Seats)),
		HostID:        r.HostID.String(),
		TurnStartTime: r.TurnStartTime,
	}
	if r.CurrentPlayerID != uuid.Nil {
		s.CurrentPlayerID = r.CurrentPlayerID.String()
	}
	if r.WinnerID != uuid.Nil {
		s.WinnerID = r.WinnerID.String()
	}
	s.ScoreResult = r.Result

	for _, id := range r.Seats {
		s.Seats = append(s.Seats, id.String())
		p := r.Players[id]
		view := &models.Player{
			ID:         p.ID,
			Name:       p.Name,
			Connected:  p.Connected,
			Score:      p.Score,
			Ready:      p.Ready,
			IsHost:     p.IsHost,
			ExternalID: p.ExternalID,
		}
		if id == viewerID {
			view.Hand = cloneCards(p.Hand)
		} else {
			view.Hand = maskedCards(len(p.Hand))
		}
		s.Players[id.String()] = view
	}

	if r.Interruption != nil {
		intr := &Interruption{
			Type:        r.Interruption.Type,
			CardID:      r.Interruption.CardID,
			DiscarderID: r.Interruption.DiscarderID,
			Claimants:   make(map[uuid.UUID]ClaimState, len(r.Interruption.Claimants)),
			ExpiresAt:   r.Interruption.ExpiresAt,
		}
		for id, st := range r.Interruption.Claimants {
			intr.Claimants[id] = st
		}
		s.Interruption = intr
	}
	return s
}

// maskedCards yields n zero-valued placeholders so clients see counts but
// never faces.
func maskedCards(n int) []*models.Card {
	out := make([]*models.Card, n)
	for i := range out {
		out[i] = &models.Card{}
	}
	return out
}

func cloneCards(cards []*models.Card) []*models.Card {
	out := make([]*models.Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	return out
}
