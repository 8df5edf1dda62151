// internal/game/room.go
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hanabira-dev/rikka-server/internal/models"
)

// Status is a room's lifecycle state.
type Status string

const (
	StatusWaiting     Status = "waiting"
	StatusPlaying     Status = "playing"
	StatusInterrupted Status = "interrupted"
	StatusEnded       Status = "ended"
)

// ClaimState tracks one eligible claimant inside an interruption window.
type ClaimState string

const (
	ClaimPending ClaimState = "pending"
	ClaimClaimed ClaimState = "claimed"
	ClaimPassed  ClaimState = "passed"
)

const (
	// InitialScore is every player's starting score.
	InitialScore = 25000
	// DealSize is the hand dealt on join and restart.
	DealSize = 5
	// DefaultClaimWindow bounds how long claimants may sit on a discard.
	DefaultClaimWindow = 10 * time.Second
	// DefaultCapacity applies when room creation omits one.
	DefaultCapacity = 4
)

// Interruption is the claim (ron) window opened when a discard completes at
// least one opponent's hand. It exists only until every eligible claimant
// has responded or the window expires.
type Interruption struct {
	Type        string                   `json:"type"`
	CardID      uuid.UUID                `json:"discardCardId"`
	DiscarderID uuid.UUID                `json:"discardPlayerId"`
	Claimants   map[uuid.UUID]ClaimState `json:"claimants"`
	ExpiresAt   time.Time                `json:"expiresAt"`
}

// EventType labels server-initiated events delivered to seated players.
type EventType string

const (
	EventStateUpdate   EventType = "state_update"
	EventRoomClosed    EventType = "room_closed"
	EventRejoinSuccess EventType = "rejoin_success"
)

// Event is one server-initiated message for a single recipient.
type Event struct {
	Type   EventType       `json:"type"`
	RoomID string          `json:"roomId,omitempty"`
	State  *SanitizedState `json:"state,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// MatchPlayer is one seat's terminal outcome inside a MatchResult.
type MatchPlayer struct {
	ID         uuid.UUID
	Name       string
	ExternalID string
	Score      int
	Won        bool
}

// MatchResult is the terminal outcome handed to the match recorder. It is a
// detached snapshot; the recorder never touches live room state.
type MatchResult struct {
	RoomID    string
	WinnerID  uuid.UUID
	LoserID   uuid.UUID
	Breakdown *ScoreResult
	Players   []MatchPlayer
	EndedAt   time.Time
}

// LeaveResult tells the caller what a leave did to the room.
type LeaveResult struct {
	// Closed means the host left and every other occupant must be evicted.
	Closed bool
	Reason string
	// Empty means the last player left and the room should be deleted.
	Empty bool
}

// Room owns the full authoritative state of one match. All mutation is
// serialized through Mu; exported operations acquire it themselves.
type Room struct {
	ID       string
	Name     string
	Capacity int
	Status   Status

	Deck        []*models.Card
	DiscardPile []*models.Card
	Players     map[uuid.UUID]*models.Player
	// Seats fixes turn order at join time and is never re-sorted.
	Seats  []uuid.UUID
	HostID uuid.UUID

	CurrentPlayerID uuid.UUID
	TurnStartTime   time.Time
	Interruption    *Interruption
	Result          *ScoreResult
	WinnerID        uuid.UUID

	ClaimWindow time.Duration

	Mu         sync.Mutex
	rng        *rand.Rand
	claimTimer *time.Timer

	// SendFn delivers an event to one seated player. It is invoked with the
	// room lock held; implementations must hand off to an async writer and
	// never re-acquire the lock.
	SendFn func(playerID uuid.UUID, ev Event)

	// OnMatchEnd receives terminal outcomes. Invoked with the lock held;
	// implementations must be fire-and-forget.
	OnMatchEnd func(res MatchResult)

	// OnSummaryChange fires when a gameplay transition changes the
	// lobby-facing summary (Info). Invoked on its own goroutine, so
	// implementations may call back into the room. Seat-count changes from
	// join and leave are the caller's concern.
	OnSummaryChange func()
}

// NewRoom builds an empty waiting room with a freshly shuffled deck.
func NewRoom(id, name string, capacity int, rng *rand.Rand) *Room {
	if capacity < 2 {
		capacity = DefaultCapacity
	}
	if name == "" {
		name = "Room " + id
	}
	deck := GenerateDeck()
	Shuffle(deck, rng)
	return &Room{
		ID:            id,
		Name:          name,
		Capacity:      capacity,
		Status:        StatusWaiting,
		Deck:          deck,
		DiscardPile:   []*models.Card{},
		Players:       make(map[uuid.UUID]*models.Player),
		TurnStartTime: time.Now(),
		ClaimWindow:   DefaultClaimWindow,
		rng:           rng,
	}
}

// Join seats a new player, dealing five cards. The first seat becomes host.
// Reaching capacity starts the match with a random first turn holder.
func (r *Room) Join(name, externalID string) (*models.Player, *SanitizedState, *Error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != StatusWaiting {
		return nil, nil, NewError(ErrGameAlreadyStarted, "game already started")
	}
	if len(r.Players) >= r.Capacity {
		return nil, nil, NewError(ErrRoomFull, "room is full")
	}
	if externalID != "" {
		for _, p := range r.Players {
			if p.ExternalID == externalID {
				return nil, nil, NewError(ErrAlreadyInRoom, "identity already seated in this room")
			}
		}
	}

	p := &models.Player{
		ID:         uuid.New(),
		Name:       name,
		Hand:       r.dealCards(DealSize),
		Connected:  true,
		Score:      InitialScore,
		IsHost:     len(r.Players) == 0,
		ExternalID: externalID,
	}
	if p.IsHost {
		r.HostID = p.ID
	}
	r.Players[p.ID] = p
	r.Seats = append(r.Seats, p.ID)

	if len(r.Players) == r.Capacity {
		r.startPlaying()
	}
	r.broadcastState()
	return p, r.sanitizedFor(p.ID), nil
}

// Start is the host's explicit waiting -> playing transition.
func (r *Room) Start(playerID uuid.UUID) (*SanitizedState, *Error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if _, ok := r.Players[playerID]; !ok {
		return nil, NewError(ErrPlayerNotFound, "player not in room")
	}
	if playerID != r.HostID {
		return nil, NewError(ErrNotHost, "only the host can start the game")
	}
	if r.Status != StatusWaiting {
		return nil, NewError(ErrGameAlreadyStarted, "game already started")
	}
	if len(r.Players) < 2 {
		return nil, NewError(ErrNotEnoughPlayers, "need at least two players to start")
	}
	r.startPlaying()
	r.broadcastState()
	return r.sanitizedFor(playerID), nil
}

// Draw pops one card from the deck into the turn holder's hand, reshuffling
// the discard pile into the deck when the deck runs dry.
func (r *Room) Draw(playerID uuid.UUID) (*SanitizedState, *Error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, gerr := r.requireTurn(playerID)
	if gerr != nil {
		return nil, gerr
	}
	if len(p.Hand) >= HandSize {
		return nil, NewError(ErrInvalidAction, "hand already has six cards")
	}
	if len(r.Deck) == 0 {
		if len(r.DiscardPile) == 0 {
			return nil, NewError(ErrInvalidAction, "no cards left to draw")
		}
		r.Deck = r.DiscardPile
		r.DiscardPile = []*models.Card{}
		Shuffle(r.Deck, r.rng)
	}
	card := r.Deck[len(r.Deck)-1]
	r.Deck = r.Deck[:len(r.Deck)-1]
	p.Hand = append(p.Hand, card)

	r.broadcastState()
	return r.sanitizedFor(playerID), nil
}

// Discard moves a card from the turn holder's full hand to the discard pile,
// clearing its orientation. If the discard completes any opponent's hand the
// room enters an interruption window; otherwise the turn advances.
func (r *Room) Discard(playerID, cardID uuid.UUID) (*SanitizedState, *Error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, gerr := r.requireTurn(playerID)
	if gerr != nil {
		return nil, gerr
	}
	if len(p.Hand) != HandSize {
		return nil, NewError(ErrInvalidAction, "must hold six cards to discard")
	}
	card := p.TakeCard(cardID)
	if card == nil {
		return nil, NewError(ErrInvalidAction, "card not in hand")
	}
	card.Flipped = false
	r.DiscardPile = append(r.DiscardPile, card)

	claimants := r.eligibleClaimants(card, playerID)
	if len(claimants) > 0 {
		r.beginInterruption(card, playerID, claimants)
	} else {
		r.advanceTurn()
	}
	r.broadcastState()
	return r.sanitizedFor(playerID), nil
}

// Flip toggles a held card's orientation. Ready players have locked hands
// and may not flip.
func (r *Room) Flip(playerID, cardID uuid.UUID) (*SanitizedState, *Error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, gerr := r.requireTurn(playerID)
	if gerr != nil {
		return nil, gerr
	}
	if p.Ready {
		return nil, NewError(ErrInvalidAction, "hand is locked after declaring ready")
	}
	var card *models.Card
	for _, c := range p.Hand {
		if c.ID == cardID {
			card = c
			break
		}
	}
	if card == nil {
		return nil, NewError(ErrInvalidAction, "card not in hand")
	}
	card.Flip()

	r.broadcastState()
	return r.sanitizedFor(playerID), nil
}

// DeclareReady locks the caller's hand in exchange for a scoring bonus. The
// flag is irreversible until the match ends and carries no point cost.
func (r *Room) DeclareReady(playerID uuid.UUID) (*SanitizedState, *Error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, gerr := r.requireTurn(playerID)
	if gerr != nil {
		return nil, gerr
	}
	if p.Ready {
		return nil, NewError(ErrInvalidAction, "already declared ready")
	}
	p.Ready = true

	r.broadcastState()
	return r.sanitizedFor(playerID), nil
}

// ClaimWin records a pending claimant's win claim. Once no claimant remains
// pending the interruption resolves.
func (r *Room) ClaimWin(playerID uuid.UUID) (*SanitizedState, *Error) {
	return r.respondToInterruption(playerID, ClaimClaimed)
}

// PassWin records a pending claimant's explicit decline.
func (r *Room) PassWin(playerID uuid.UUID) (*SanitizedState, *Error) {
	return r.respondToInterruption(playerID, ClaimPassed)
}

func (r *Room) respondToInterruption(playerID uuid.UUID, response ClaimState) (*SanitizedState, *Error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if _, ok := r.Players[playerID]; !ok {
		return nil, NewError(ErrPlayerNotFound, "player not in room")
	}
	if r.Status != StatusInterrupted || r.Interruption == nil {
		return nil, NewError(ErrInvalidAction, "no claim window is open")
	}
	state, ok := r.Interruption.Claimants[playerID]
	if !ok {
		return nil, NewError(ErrInvalidAction, "not eligible to claim this discard")
	}
	if state != ClaimPending {
		return nil, NewError(ErrInvalidAction, "already responded to this discard")
	}
	r.Interruption.Claimants[playerID] = response

	if !r.hasPendingClaimants() {
		r.resolveInterruption()
	}
	r.broadcastState()
	return r.sanitizedFor(playerID), nil
}

// Restart is the host's full reset: fresh deck, five cards each, scores and
// flags cleared. Re-enters playing, or waiting with fewer than two seats.
func (r *Room) Restart(playerID uuid.UUID) (*SanitizedState, *Error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if _, ok := r.Players[playerID]; !ok {
		return nil, NewError(ErrPlayerNotFound, "player not in room")
	}
	if playerID != r.HostID {
		return nil, NewError(ErrNotHost, "only the host can restart")
	}
	r.stopClaimTimer()
	r.Interruption = nil
	r.Result = nil
	r.WinnerID = uuid.Nil
	r.CurrentPlayerID = uuid.Nil

	r.Deck = GenerateDeck()
	Shuffle(r.Deck, r.rng)
	r.DiscardPile = []*models.Card{}
	for _, id := range r.Seats {
		p := r.Players[id]
		p.Hand = r.dealCards(DealSize)
		p.Score = InitialScore
		p.Ready = false
	}

	if len(r.Players) >= 2 {
		r.startPlaying()
	} else {
		r.Status = StatusWaiting
		r.notifySummaryChanged()
	}
	r.broadcastState()
	return r.sanitizedFor(playerID), nil
}

// Leave removes a player. A leaving host tears the room down; the caller is
// responsible for evicting the remaining occupants when Closed is set.
func (r *Room) Leave(playerID uuid.UUID) (LeaveResult, *Error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, ok := r.Players[playerID]
	if !ok {
		return LeaveResult{}, NewError(ErrPlayerNotFound, "player not in room")
	}

	if playerID == r.HostID {
		r.stopClaimTimer()
		r.Status = StatusEnded
		return LeaveResult{Closed: true, Reason: "host left the room"}, nil
	}

	// Return the leaver's cards to the bottom of the deck so the room keeps
	// holding all 42 cards.
	r.Deck = append(p.Hand, r.Deck...)
	delete(r.Players, playerID)
	for i, id := range r.Seats {
		if id == playerID {
			r.Seats = append(r.Seats[:i], r.Seats[i+1:]...)
			break
		}
	}

	if len(r.Players) == 0 {
		r.stopClaimTimer()
		return LeaveResult{Empty: true}, nil
	}

	if r.Status == StatusInterrupted && r.Interruption != nil {
		delete(r.Interruption.Claimants, playerID)
		if !r.hasPendingClaimants() {
			r.resolveInterruption()
		}
	}
	if r.Status == StatusPlaying && r.CurrentPlayerID == playerID {
		r.CurrentPlayerID = r.nextSeatAfter(playerID)
		r.TurnStartTime = time.Now()
	}
	if r.Status == StatusPlaying && len(r.Players) < 2 {
		// A two-player match cannot continue alone; park the survivor.
		r.Status = StatusWaiting
		r.CurrentPlayerID = uuid.Nil
		r.notifySummaryChanged()
	}

	r.broadcastState()
	return LeaveResult{}, nil
}

// MarkDisconnected clears a player's connectivity flag without unseating
// them; the session manager owns the grace window that follows.
func (r *Room) MarkDisconnected(playerID uuid.UUID) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, ok := r.Players[playerID]
	if !ok || !p.Connected {
		return false
	}
	p.Connected = false
	r.broadcastState()
	return true
}

// Reconnect restores a player's connectivity and returns the sanitized view
// to re-deliver on the new transport.
func (r *Room) Reconnect(playerID uuid.UUID) (*SanitizedState, *Error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, ok := r.Players[playerID]
	if !ok {
		return nil, NewError(ErrPlayerNotFound, "player not in room")
	}
	p.Connected = true
	r.broadcastState()
	return r.sanitizedFor(playerID), nil
}

// FindDisconnectedByExternal returns the seat bound to an external identity,
// if that seat is currently disconnected.
func (r *Room) FindDisconnectedByExternal(externalID string) (uuid.UUID, bool) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if externalID == "" {
		return uuid.Nil, false
	}
	for _, p := range r.Players {
		if p.ExternalID == externalID && !p.Connected {
			return p.ID, true
		}
	}
	return uuid.Nil, false
}

// Info derives the lobby summary for this room.
func (r *Room) Info() models.RoomInfo {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return models.RoomInfo{
		RoomID:      r.ID,
		Name:        r.Name,
		PlayerCount: len(r.Players),
		MaxPlayers:  r.Capacity,
		Status:      string(r.Status),
	}
}

// ViewFor returns the sanitized projection for one recipient.
func (r *Room) ViewFor(playerID uuid.UUID) *SanitizedState {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.sanitizedFor(playerID)
}

// PlayerIDs returns the seats in join order.
func (r *Room) PlayerIDs() []uuid.UUID {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	ids := make([]uuid.UUID, len(r.Seats))
	copy(ids, r.Seats)
	return ids
}

// Close stops the room's timers. Called when the store drops the room.
func (r *Room) Close() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.stopClaimTimer()
}

// --- internal helpers; all assume the lock is held ---

func (r *Room) dealCards(n int) []*models.Card {
	hand := make([]*models.Card, 0, HandSize)
	for i := 0; i < n && len(r.Deck) > 0; i++ {
		card := r.Deck[len(r.Deck)-1]
		r.Deck = r.Deck[:len(r.Deck)-1]
		hand = append(hand, card)
	}
	return hand
}

func (r *Room) startPlaying() {
	r.Status = StatusPlaying
	r.CurrentPlayerID = r.Seats[r.rng.Intn(len(r.Seats))]
	r.TurnStartTime = time.Now()
	r.notifySummaryChanged()
}

func (r *Room) notifySummaryChanged() {
	if r.OnSummaryChange != nil {
		go r.OnSummaryChange()
	}
}

func (r *Room) requireTurn(playerID uuid.UUID) (*models.Player, *Error) {
	p, ok := r.Players[playerID]
	if !ok {
		return nil, NewError(ErrPlayerNotFound, "player not in room")
	}
	if r.Status == StatusInterrupted {
		return nil, NewError(ErrInterruptionActive, "a claim window is open")
	}
	if r.Status != StatusPlaying {
		return nil, NewError(ErrGameNotActive, fmt.Sprintf("game is %s", r.Status))
	}
	if r.CurrentPlayerID != playerID {
		return nil, NewError(ErrNotYourTurn, "not your turn")
	}
	return p, nil
}

func (r *Room) advanceTurn() {
	r.CurrentPlayerID = r.nextSeatAfter(r.CurrentPlayerID)
	r.TurnStartTime = time.Now()
}

func (r *Room) nextSeatAfter(playerID uuid.UUID) uuid.UUID {
	if len(r.Seats) == 0 {
		return uuid.Nil
	}
	for i, id := range r.Seats {
		if id == playerID {
			return r.Seats[(i+1)%len(r.Seats)]
		}
	}
	return r.Seats[0]
}

// eligibleClaimants returns, in seat order, every other player whose hand
// plus the discarded card forms a winning hand.
func (r *Room) eligibleClaimants(card *models.Card, discarderID uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range r.Seats {
		if id == discarderID {
			continue
		}
		p := r.Players[id]
		if len(p.Hand) != HandSize-1 {
			continue
		}
		candidate := make([]*models.Card, 0, HandSize)
		candidate = append(candidate, p.Hand...)
		candidate = append(candidate, card)
		if CheckWin(candidate) {
			out = append(out, id)
		}
	}
	return out
}

func (r *Room) beginInterruption(card *models.Card, discarderID uuid.UUID, claimants []uuid.UUID) {
	intr := &Interruption{
		Type:        "ron",
		CardID:      card.ID,
		DiscarderID: discarderID,
		Claimants:   make(map[uuid.UUID]ClaimState, len(claimants)),
		ExpiresAt:   time.Now().Add(r.ClaimWindow),
	}
	for _, id := range claimants {
		intr.Claimants[id] = ClaimPending
	}
	r.Interruption = intr
	r.Status = StatusInterrupted
	r.scheduleClaimExpiry(intr)
	r.notifySummaryChanged()
}

// scheduleClaimExpiry arms the window timer. On expiry every pending
// claimant is treated as passed and the window resolves.
func (r *Room) scheduleClaimExpiry(intr *Interruption) {
	r.stopClaimTimer()
	r.claimTimer = time.AfterFunc(r.ClaimWindow, func() {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		if r.Interruption != intr {
			return // stale timer
		}
		for id, st := range r.Interruption.Claimants {
			if st == ClaimPending {
				r.Interruption.Claimants[id] = ClaimPassed
			}
		}
		r.resolveInterruption()
		r.broadcastState()
	})
}

func (r *Room) stopClaimTimer() {
	if r.claimTimer != nil {
		r.claimTimer.Stop()
		r.claimTimer = nil
	}
}

func (r *Room) hasPendingClaimants() bool {
	for _, st := range r.Interruption.Claimants {
		if st == ClaimPending {
			return true
		}
	}
	return false
}

// resolveInterruption closes the window: the first claimant in seat order
// wins off the discard, or with zero claims the turn simply resumes.
func (r *Room) resolveInterruption() {
	intr := r.Interruption
	if intr == nil {
		return
	}
	r.stopClaimTimer()

	var winner *models.Player
	for _, id := range r.Seats {
		if intr.Claimants[id] == ClaimClaimed {
			winner = r.Players[id]
			break
		}
	}
	if winner == nil {
		r.Interruption = nil
		r.Status = StatusPlaying
		r.CurrentPlayerID = r.nextSeatAfter(intr.DiscarderID)
		r.TurnStartTime = time.Now()
		r.notifySummaryChanged()
		return
	}

	var contested *models.Card
	for _, c := range r.DiscardPile {
		if c.ID == intr.CardID {
			contested = c
			break
		}
	}
	hand := make([]*models.Card, 0, HandSize)
	hand = append(hand, winner.Hand...)
	if contested != nil {
		hand = append(hand, contested)
	}

	result := Score(hand, true, winner.Ready)
	winner.Score += result.Total
	if discarder, ok := r.Players[intr.DiscarderID]; ok {
		discarder.Score -= result.Total
	}

	r.Result = result
	r.WinnerID = winner.ID
	r.Status = StatusEnded
	r.Interruption = nil
	r.notifySummaryChanged()

	if r.OnMatchEnd != nil {
		r.OnMatchEnd(r.matchResult(winner.ID, intr.DiscarderID))
	}
}

func (r *Room) matchResult(winnerID, loserID uuid.UUID) MatchResult {
	res := MatchResult{
		RoomID:    r.ID,
		WinnerID:  winnerID,
		LoserID:   loserID,
		Breakdown: r.Result,
		EndedAt:   time.Now(),
	}
	for _, id := range r.Seats {
		p := r.Players[id]
		res.Players = append(res.Players, MatchPlayer{
			ID:         p.ID,
			Name:       p.Name,
			ExternalID: p.ExternalID,
			Score:      p.Score,
			Won:        p.ID == winnerID,
		})
	}
	return res
}

// broadcastState pushes each seated, connected player their own sanitized
// projection.
func (r *Room) broadcastState() {
	if r.SendFn == nil {
		return
	}
	for _, id := range r.Seats {
		if !r.Players[id].Connected {
			continue
		}
		r.SendFn(id, Event{Type: EventStateUpdate, RoomID: r.ID, State: r.sanitizedFor(id)})
	}
}
