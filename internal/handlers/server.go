// internal/handlers/server.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/hanabira-dev/rikka-server/internal/game"
	"github.com/hanabira-dev/rikka-server/internal/protocol"
	"github.com/hanabira-dev/rikka-server/internal/recorder"
	"github.com/hanabira-dev/rikka-server/internal/session"
)

// client is one live websocket connection. Outbound traffic goes through
// OutChan so room logic never blocks on a slow socket; the write pump drains
// it.
type client struct {
	identity string
	playerID uuid.UUID
	roomID   string
	OutChan  chan []byte
	cancel   context.CancelFunc
}

// Server owns the room registry, the connection registry, and the shared
// services handlers need. The mutex guards only the connection maps; room
// state has its own lock. Lock order is room lock before server mutex,
// never the reverse.
type Server struct {
	Rooms    *game.RoomStore
	Sessions *session.Manager
	Recorder *recorder.Recorder
	Pool     *pgxpool.Pool
	Logger   *logrus.Logger

	mu      sync.Mutex
	conns   map[*client]struct{}
	players map[uuid.UUID]*client
}

func NewServer(sessions *session.Manager, rec *recorder.Recorder, pool *pgxpool.Pool, logger *logrus.Logger) *Server {
	return &Server{
		Rooms:    game.NewRoomStore(),
		Sessions: sessions,
		Recorder: rec,
		Pool:     pool,
		Logger:   logger,
		conns:    make(map[*client]struct{}),
		players:  make(map[uuid.UUID]*client),
	}
}

func (s *Server) addConn(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
}

func (s *Server) removeConn(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
	if c.playerID != uuid.Nil && s.players[c.playerID] == c {
		delete(s.players, c.playerID)
	}
}

// bindPlayer maps a seat to its connection so room broadcasts can find it.
func (s *Server) bindPlayer(c *client, roomID string, playerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.roomID = roomID
	c.playerID = playerID
	s.players[playerID] = c
}

// unbindPlayer detaches a connection from its seat without dropping the
// socket; the client returns to the lobby.
func (s *Server) unbindPlayer(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.playerID != uuid.Nil && s.players[c.playerID] == c {
		delete(s.players, c.playerID)
	}
	c.playerID = uuid.Nil
	c.roomID = ""
}

// bindRoom wires a freshly created room's callbacks into the server.
func (s *Server) bindRoom(room *game.Room) {
	room.SendFn = s.sendToPlayer
	room.OnMatchEnd = func(res game.MatchResult) {
		if s.Recorder != nil {
			s.Recorder.RecordMatch(res)
		}
	}
	// Status transitions (start, interruption, match end, restart) change the
	// lobby summary without going through a join or leave handler.
	room.OnSummaryChange = s.broadcastRoomList
}

// sendToPlayer delivers one event to one seat. Called with the room lock
// held, so it must only hand the payload to the write pump. A full channel
// drops the message; the next state broadcast supersedes it anyway.
func (s *Server) sendToPlayer(playerID uuid.UUID, ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.Logger.WithError(err).Error("failed to marshal event")
		return
	}
	s.mu.Lock()
	c := s.players[playerID]
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case c.OutChan <- data:
	default:
		s.Logger.WithField("player_id", playerID).Warn("outbound queue full, dropping event")
	}
}

// sendBytes queues raw bytes for one connection.
func (s *Server) sendBytes(c *client, data []byte) {
	select {
	case c.OutChan <- data:
	default:
		s.Logger.WithField("identity", c.identity).Warn("outbound queue full, dropping message")
	}
}

func (s *Server) sendJSON(c *client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.Logger.WithError(err).Error("failed to marshal outbound message")
		return
	}
	s.sendBytes(c, data)
}

func (s *Server) sendError(c *client, gerr *game.Error) {
	s.sendJSON(c, protocol.ErrorPayload{
		Type:    protocol.TypeError,
		Code:    gerr.Code,
		Message: gerr.Message,
	})
}

// broadcastRoomList pushes the lobby summary to every live connection.
func (s *Server) broadcastRoomList() {
	data, err := json.Marshal(protocol.RoomListPayload{
		Type:  protocol.TypeRoomList,
		Rooms: s.Rooms.List(),
	})
	if err != nil {
		s.Logger.WithError(err).Error("failed to marshal room list")
		return
	}
	s.mu.Lock()
	conns := make([]*client, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		s.sendBytes(c, data)
	}
}

// evictRoom tears a room down: every remaining seat gets room_closed, loses
// its binding, and the room leaves the registry.
func (s *Server) evictRoom(room *game.Room, reason string) {
	data, err := json.Marshal(game.Event{
		Type:   game.EventRoomClosed,
		RoomID: room.ID,
		Reason: reason,
	})
	if err != nil {
		s.Logger.WithError(err).Error("failed to marshal room_closed event")
		return
	}
	for _, id := range room.PlayerIDs() {
		s.mu.Lock()
		c := s.players[id]
		s.mu.Unlock()
		if c == nil {
			continue
		}
		s.sendBytes(c, data)
		s.unbindPlayer(c)
	}
	s.Rooms.Delete(room.ID)
	s.broadcastRoomList()
}

// forfeitSeat is the grace-expiry path: the seat leaves its room as if the
// player had walked away.
func (s *Server) forfeitSeat(roomID string, playerID uuid.UUID) {
	room, ok := s.Rooms.Get(roomID)
	if !ok {
		return
	}
	res, gerr := room.Leave(playerID)
	if gerr != nil {
		return
	}
	switch {
	case res.Closed:
		s.evictRoom(room, res.Reason)
	case res.Empty:
		s.Rooms.Delete(room.ID)
		s.broadcastRoomList()
	default:
		s.broadcastRoomList()
	}
}
