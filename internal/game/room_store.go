// internal/game/room_store.go
package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hanabira-dev/rikka-server/internal/models"
)

// RoomStore is the authoritative registry of live rooms, keyed by join code.
type RoomStore struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	claimWindow time.Duration
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*Room)}
}

// SetClaimWindow overrides the claim window applied to new rooms.
func (s *RoomStore) SetClaimWindow(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.claimWindow = d
	}
}

// NewRoomID derives a short join code from a fresh UUID.
func NewRoomID() string {
	return strings.ToUpper(uuid.NewString()[:6])
}

// Create registers a new waiting room and returns it. Each room gets its own
// rand source so shuffles never contend.
func (s *RoomStore) Create(name string, capacity int) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := NewRoomID()
	for s.rooms[id] != nil {
		id = NewRoomID()
	}
	room := NewRoom(id, name, capacity, rand.New(rand.NewSource(time.Now().UnixNano())))
	if s.claimWindow > 0 {
		room.ClaimWindow = s.claimWindow
	}
	s.rooms[id] = room
	return room
}

func (s *RoomStore) Get(id string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[strings.ToUpper(id)]
	return room, ok
}

// Delete drops a room from the registry and stops its timers.
func (s *RoomStore) Delete(id string) {
	s.mu.Lock()
	room := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()
	if room != nil {
		room.Close()
	}
}

// List summarizes every live room for the lobby.
func (s *RoomStore) List() []models.RoomInfo {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()

	infos := make([]models.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	return infos
}

// FindDisconnectedByExternal scans for a seat bound to the given external
// identity that is waiting out its reconnect grace.
func (s *RoomStore) FindDisconnectedByExternal(externalID string) (*Room, uuid.UUID, bool) {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()

	for _, r := range rooms {
		if playerID, ok := r.FindDisconnectedByExternal(externalID); ok {
			return r, playerID, true
		}
	}
	return nil, uuid.Nil, false
}
