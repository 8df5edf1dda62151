// internal/game/room_test.go
package game

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanabira-dev/rikka-server/internal/models"
)

// eventSink captures per-player events the way the websocket layer would.
type eventSink struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	playerID uuid.UUID
	ev       Event
}

func (s *eventSink) send(playerID uuid.UUID, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, capturedEvent{playerID: playerID, ev: ev})
}

func (s *eventSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newTestRoom(t *testing.T, capacity int) (*Room, *eventSink) {
	t.Helper()
	sink := &eventSink{}
	r := NewRoom("ABC123", "test room", capacity, rand.New(rand.NewSource(1)))
	r.SendFn = sink.send
	t.Cleanup(r.Close)
	return r, sink
}

func seatTwo(t *testing.T, r *Room) (host, guest *models.Player) {
	t.Helper()
	host, _, gerr := r.Join("alice", "ext-alice")
	require.Nil(t, gerr)
	guest, _, gerr = r.Join("bob", "ext-bob")
	require.Nil(t, gerr)
	return host, guest
}

// totalCards sums deck, discard pile, and every hand.
func totalCards(r *Room) int {
	n := len(r.Deck) + len(r.DiscardPile)
	for _, p := range r.Players {
		n += len(p.Hand)
	}
	return n
}

// giveHand replaces a player's hand, recycling the old cards into the deck
// and pulling nothing from it, so the 42-card total stays intact for
// conservation checks.
func giveHand(r *Room, p *models.Player, cards []*models.Card) {
	r.Deck = append(r.Deck, p.Hand...)
	r.Deck = r.Deck[:len(r.Deck)-len(cards)]
	p.Hand = cards
}

// inertHand can never be completed to a win by one more card: only two reds
// share a color and they are three apart.
func inertHand(base models.CardColor) []*models.Card {
	return []*models.Card{
		card(base, 1, 2), card(base, 4, 5),
		card(models.ColorYellow, 2, 3), card(models.ColorGreen, 6, 7), card(models.ColorPurple, 3, 4),
	}
}

func TestJoinDealsAndAssignsHost(t *testing.T) {
	r, _ := newTestRoom(t, 4)
	host, state, gerr := r.Join("alice", "ext-alice")
	require.Nil(t, gerr)

	assert.True(t, host.IsHost)
	assert.Equal(t, host.ID, r.HostID)
	assert.Len(t, host.Hand, DealSize)
	assert.Equal(t, InitialScore, host.Score)
	assert.Equal(t, StatusWaiting, r.Status)
	assert.Equal(t, DeckSize-DealSize, len(state.Deck))

	guest, _, gerr := r.Join("bob", "ext-bob")
	require.Nil(t, gerr)
	assert.False(t, guest.IsHost)
	assert.Equal(t, DeckSize, totalCards(r))
}

func TestJoinRejectsDuplicateIdentity(t *testing.T) {
	r, _ := newTestRoom(t, 4)
	_, _, gerr := r.Join("alice", "ext-alice")
	require.Nil(t, gerr)

	_, _, gerr = r.Join("alice again", "ext-alice")
	require.NotNil(t, gerr)
	assert.Equal(t, ErrAlreadyInRoom, gerr.Code)
}

func TestJoinFullRoomAutoStarts(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)

	assert.Equal(t, StatusPlaying, r.Status)
	assert.Contains(t, r.Seats, r.CurrentPlayerID)

	_, _, gerr := r.Join("carol", "ext-carol")
	require.NotNil(t, gerr)
	assert.Equal(t, ErrGameAlreadyStarted, gerr.Code)
}

func TestStartRequiresHostAndQuorum(t *testing.T) {
	r, _ := newTestRoom(t, 4)
	host, _, gerr := r.Join("alice", "ext-alice")
	require.Nil(t, gerr)

	_, gerr = r.Start(host.ID)
	require.NotNil(t, gerr)
	assert.Equal(t, ErrNotEnoughPlayers, gerr.Code)

	guest, _, gerr := r.Join("bob", "ext-bob")
	require.Nil(t, gerr)

	_, gerr = r.Start(guest.ID)
	require.NotNil(t, gerr)
	assert.Equal(t, ErrNotHost, gerr.Code)

	_, gerr = r.Start(host.ID)
	require.Nil(t, gerr)
	assert.Equal(t, StatusPlaying, r.Status)
}

func TestDrawDiscardAdvancesTurn(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)

	actor := r.Players[r.CurrentPlayerID]
	other := r.Players[r.nextSeatAfter(actor.ID)]
	giveHand(r, actor, inertHand(models.ColorRed))
	giveHand(r, other, inertHand(models.ColorBlue))

	_, gerr := r.Draw(actor.ID)
	require.Nil(t, gerr)
	assert.Len(t, actor.Hand, HandSize)

	// Drawing twice in one turn is rejected.
	_, gerr = r.Draw(actor.ID)
	require.NotNil(t, gerr)
	assert.Equal(t, ErrInvalidAction, gerr.Code)

	discarded := actor.Hand[0]
	_, gerr = r.Discard(actor.ID, discarded.ID)
	require.Nil(t, gerr)

	assert.Len(t, actor.Hand, DealSize)
	assert.Equal(t, discarded.ID, r.DiscardPile[len(r.DiscardPile)-1].ID)
	assert.Equal(t, other.ID, r.CurrentPlayerID, "turn should pass to the next seat")
	assert.Equal(t, DeckSize, totalCards(r))
}

func TestDiscardClearsOrientation(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)

	actor := r.Players[r.CurrentPlayerID]
	giveHand(r, actor, inertHand(models.ColorRed))
	giveHand(r, r.Players[r.nextSeatAfter(actor.ID)], inertHand(models.ColorBlue))

	_, gerr := r.Draw(actor.ID)
	require.Nil(t, gerr)

	target := actor.Hand[2]
	_, gerr = r.Flip(actor.ID, target.ID)
	require.Nil(t, gerr)
	require.True(t, target.Flipped)

	_, gerr = r.Discard(actor.ID, target.ID)
	require.Nil(t, gerr)
	assert.False(t, target.Flipped, "discarded cards land unflipped")
}

func TestOutOfTurnActionLeavesStateUntouched(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)

	waiting := r.Players[r.nextSeatAfter(r.CurrentPlayerID)]
	deckBefore := len(r.Deck)
	handBefore := len(waiting.Hand)

	_, gerr := r.Draw(waiting.ID)
	require.NotNil(t, gerr)
	assert.Equal(t, ErrNotYourTurn, gerr.Code)
	assert.Equal(t, deckBefore, len(r.Deck))
	assert.Equal(t, handBefore, len(waiting.Hand))
}

func TestActionsRejectedBeforeStart(t *testing.T) {
	r, _ := newTestRoom(t, 4)
	host, _, gerr := r.Join("alice", "ext-alice")
	require.Nil(t, gerr)

	_, gerr = r.Draw(host.ID)
	require.NotNil(t, gerr)
	assert.Equal(t, ErrGameNotActive, gerr.Code)
}

func TestDeclareReadyLocksHand(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)

	actor := r.Players[r.CurrentPlayerID]
	_, gerr := r.DeclareReady(actor.ID)
	require.Nil(t, gerr)
	assert.True(t, actor.Ready)

	_, gerr = r.DeclareReady(actor.ID)
	require.NotNil(t, gerr)
	assert.Equal(t, ErrInvalidAction, gerr.Code)

	_, gerr = r.Flip(actor.ID, actor.Hand[0].ID)
	require.NotNil(t, gerr)
	assert.Equal(t, ErrInvalidAction, gerr.Code)
}

func TestEmptyDeckReshufflesDiscards(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)

	actor := r.Players[r.CurrentPlayerID]
	// Empty the deck into the discard pile by hand.
	r.DiscardPile = append(r.DiscardPile, r.Deck...)
	r.Deck = nil

	_, gerr := r.Draw(actor.ID)
	require.Nil(t, gerr)
	assert.Len(t, actor.Hand, HandSize)
	assert.Empty(t, r.DiscardPile)
	assert.Equal(t, DeckSize, totalCards(r))
}

// setupClaimScenario rigs the turn holder with a six-card hand whose spare
// red 3 completes the opponent's run-plus-set hand.
func setupClaimScenario(t *testing.T, r *Room) (discarder, claimant *models.Player, winning *models.Card) {
	t.Helper()
	discarder = r.Players[r.CurrentPlayerID]
	claimant = r.Players[r.nextSeatAfter(discarder.ID)]

	winning = card(models.ColorRed, 3, 4)
	giveHand(r, claimant, []*models.Card{
		card(models.ColorRed, 1, 2), card(models.ColorRed, 2, 3),
		card(models.ColorBlue, 5, 6), card(models.ColorBlue, 5, 6), card(models.ColorBlue, 5, 6),
	})
	giveHand(r, discarder, append(inertHand(models.ColorBlack), winning))
	return discarder, claimant, winning
}

func TestDiscardOpensClaimWindow(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)
	discarder, claimant, winning := setupClaimScenario(t, r)

	_, gerr := r.Discard(discarder.ID, winning.ID)
	require.Nil(t, gerr)

	assert.Equal(t, StatusInterrupted, r.Status)
	require.NotNil(t, r.Interruption)
	assert.Equal(t, winning.ID, r.Interruption.CardID)
	assert.Equal(t, discarder.ID, r.Interruption.DiscarderID)
	assert.Equal(t, ClaimPending, r.Interruption.Claimants[claimant.ID])

	// Gameplay is frozen while the window is open.
	_, gerr = r.Draw(claimant.ID)
	require.NotNil(t, gerr)
	assert.Equal(t, ErrInterruptionActive, gerr.Code)
}

func TestClaimWinTransfersScore(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)
	discarder, claimant, winning := setupClaimScenario(t, r)

	var result MatchResult
	done := make(chan struct{})
	r.OnMatchEnd = func(res MatchResult) {
		result = res
		close(done)
	}

	_, gerr := r.Discard(discarder.ID, winning.ID)
	require.Nil(t, gerr)
	_, gerr = r.ClaimWin(claimant.ID)
	require.Nil(t, gerr)

	assert.Equal(t, StatusEnded, r.Status)
	assert.Equal(t, claimant.ID, r.WinnerID)
	assert.Nil(t, r.Interruption)
	require.NotNil(t, r.Result)

	// Run 1-2-3 + set of 5s across two colors, won by claim: no yaku, no
	// sparkles, zero-point win.
	assert.Equal(t, 0, r.Result.Total)
	assert.Equal(t, InitialScore, claimant.Score)
	assert.Equal(t, InitialScore, discarder.Score)

	select {
	case <-done:
	default:
		t.Fatal("match end callback did not fire")
	}
	assert.Equal(t, claimant.ID, result.WinnerID)
	assert.Equal(t, discarder.ID, result.LoserID)
	assert.Len(t, result.Players, 2)

	// Contested card stays in the discard pile; nothing is lost.
	assert.Equal(t, DeckSize, totalCards(r))
}

func TestClaimWinWithReadyBonusTransfers(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)
	discarder, claimant, winning := setupClaimScenario(t, r)
	claimant.Ready = true

	_, gerr := r.Discard(discarder.ID, winning.ID)
	require.Nil(t, gerr)
	_, gerr = r.ClaimWin(claimant.ID)
	require.Nil(t, gerr)

	require.NotNil(t, r.Result)
	assert.Equal(t, RiichiBonus, r.Result.Total)
	assert.Equal(t, InitialScore+RiichiBonus, claimant.Score)
	assert.Equal(t, InitialScore-RiichiBonus, discarder.Score)
}

func TestPassWinResumesPlay(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)
	discarder, claimant, winning := setupClaimScenario(t, r)

	_, gerr := r.Discard(discarder.ID, winning.ID)
	require.Nil(t, gerr)
	_, gerr = r.PassWin(claimant.ID)
	require.Nil(t, gerr)

	assert.Equal(t, StatusPlaying, r.Status)
	assert.Nil(t, r.Interruption)
	assert.Equal(t, claimant.ID, r.CurrentPlayerID, "turn resumes after the discarder")

	// Responding twice is rejected.
	_, gerr = r.PassWin(claimant.ID)
	require.NotNil(t, gerr)
	assert.Equal(t, ErrInvalidAction, gerr.Code)
}

func TestClaimWindowExpiryTreatsPendingAsPassed(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)
	r.ClaimWindow = 20 * time.Millisecond
	discarder, claimant, winning := setupClaimScenario(t, r)

	_, gerr := r.Discard(discarder.ID, winning.ID)
	require.Nil(t, gerr)

	require.Eventually(t, func() bool {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		return r.Status == StatusPlaying && r.Interruption == nil
	}, time.Second, 5*time.Millisecond)

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, claimant.ID, r.CurrentPlayerID)
}

func TestNonClaimantCannotRespond(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)
	discarder, _, winning := setupClaimScenario(t, r)

	_, gerr := r.Discard(discarder.ID, winning.ID)
	require.Nil(t, gerr)

	_, gerr = r.ClaimWin(discarder.ID)
	require.NotNil(t, gerr)
	assert.Equal(t, ErrInvalidAction, gerr.Code)
}

func TestRestartResetsMatch(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	host, guest := seatTwo(t, r)
	discarder, claimant, winning := setupClaimScenario(t, r)

	_, gerr := r.Discard(discarder.ID, winning.ID)
	require.Nil(t, gerr)
	_, gerr = r.ClaimWin(claimant.ID)
	require.Nil(t, gerr)
	require.Equal(t, StatusEnded, r.Status)

	_, gerr = r.Restart(guest.ID)
	require.NotNil(t, gerr)
	assert.Equal(t, ErrNotHost, gerr.Code)

	_, gerr = r.Restart(host.ID)
	require.Nil(t, gerr)

	assert.Equal(t, StatusPlaying, r.Status)
	assert.Nil(t, r.Result)
	assert.Nil(t, r.Interruption)
	assert.Equal(t, uuid.Nil, r.WinnerID)
	assert.Empty(t, r.DiscardPile)
	assert.Equal(t, DeckSize, totalCards(r))
	for _, p := range r.Players {
		assert.Len(t, p.Hand, DealSize)
		assert.Equal(t, InitialScore, p.Score)
		assert.False(t, p.Ready)
	}
}

func TestHostLeaveClosesRoom(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	host, _ := seatTwo(t, r)

	res, gerr := r.Leave(host.ID)
	require.Nil(t, gerr)
	assert.True(t, res.Closed)
	assert.Equal(t, StatusEnded, r.Status)
}

func TestGuestLeaveKeepsCardsAccounted(t *testing.T) {
	r, _ := newTestRoom(t, 3)
	host, _, gerr := r.Join("alice", "ext-alice")
	require.Nil(t, gerr)
	_, _, gerr = r.Join("bob", "ext-bob")
	require.Nil(t, gerr)
	carol, _, gerr := r.Join("carol", "ext-carol")
	require.Nil(t, gerr)
	require.Equal(t, StatusPlaying, r.Status)

	res, gerr := r.Leave(carol.ID)
	require.Nil(t, gerr)
	assert.False(t, res.Closed)
	assert.False(t, res.Empty)
	assert.Len(t, r.Seats, 2)
	assert.NotContains(t, r.Seats, carol.ID)
	assert.Equal(t, DeckSize, totalCards(r))
	assert.NotEqual(t, carol.ID, r.CurrentPlayerID)
	_ = host
}

func TestDisconnectAndReconnect(t *testing.T) {
	r, sink := newTestRoom(t, 2)
	host, _ := seatTwo(t, r)

	require.True(t, r.MarkDisconnected(host.ID))
	assert.False(t, host.Connected)
	// Second mark is a no-op.
	assert.False(t, r.MarkDisconnected(host.ID))

	id, ok := r.FindDisconnectedByExternal("ext-alice")
	require.True(t, ok)
	assert.Equal(t, host.ID, id)

	state, gerr := r.Reconnect(host.ID)
	require.Nil(t, gerr)
	assert.True(t, host.Connected)
	require.NotNil(t, state)
	assert.Len(t, state.Players[host.ID.String()].Hand, DealSize)

	_, ok = r.FindDisconnectedByExternal("ext-alice")
	assert.False(t, ok)
	assert.Greater(t, sink.count(), 0)
}

func TestInfoSummarizesRoom(t *testing.T) {
	r, _ := newTestRoom(t, 4)
	seatTwo(t, r)

	info := r.Info()
	assert.Equal(t, "ABC123", info.RoomID)
	assert.Equal(t, 2, info.PlayerCount)
	assert.Equal(t, 4, info.MaxPlayers)
	assert.Equal(t, "waiting", info.Status)
}

func TestSummaryChangeFiresOnStatusTransitions(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	var fired atomic.Int32
	r.OnSummaryChange = func() { fired.Add(1) }

	// Autostart flips waiting -> playing.
	seatTwo(t, r)
	require.Eventually(t, func() bool { return fired.Load() >= 1 }, time.Second, 5*time.Millisecond)

	discarder, claimant, winning := setupClaimScenario(t, r)

	// Discard into a claim window: playing -> interrupted.
	_, gerr := r.Discard(discarder.ID, winning.ID)
	require.Nil(t, gerr)
	require.Eventually(t, func() bool { return fired.Load() >= 2 }, time.Second, 5*time.Millisecond)

	// Claim resolution: interrupted -> ended.
	_, gerr = r.ClaimWin(claimant.ID)
	require.Nil(t, gerr)
	require.Eventually(t, func() bool { return fired.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestSummaryChangeFiresWhenPassResumesPlay(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	seatTwo(t, r)
	discarder, claimant, winning := setupClaimScenario(t, r)

	var fired atomic.Int32
	r.OnSummaryChange = func() { fired.Add(1) }

	_, gerr := r.Discard(discarder.ID, winning.ID)
	require.Nil(t, gerr)
	_, gerr = r.PassWin(claimant.ID)
	require.Nil(t, gerr)

	// One for entering the window, one for resuming play.
	require.Eventually(t, func() bool { return fired.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
