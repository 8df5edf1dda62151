// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/hanabira-dev/rikka-server/internal/auth"
	"github.com/hanabira-dev/rikka-server/internal/database"
	"github.com/hanabira-dev/rikka-server/internal/game"
	"github.com/hanabira-dev/rikka-server/internal/middleware"
	"github.com/hanabira-dev/rikka-server/internal/protocol"
)

const (
	outboundQueueSize = 32
	writeTimeout      = 5 * time.Second
	pingInterval      = 30 * time.Second
)

// WSHandler upgrades the connection, resolves the caller's identity, resumes
// a seat still inside its reconnect grace if one exists, and runs the
// message loop until the socket drops.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := auth.EnsureSession(w, r)
		if err != nil {
			s.Logger.WithError(err).Warn("session setup failed")
			http.Error(w, "authentication failed", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"rikka"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.Logger.WithError(err).Warn("websocket accept error")
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")

		if c.Subprotocol() != "rikka" {
			c.Close(BadSubprotocolError, "client must speak the rikka subprotocol")
			return
		}
		middleware.LogSocketConnect(s.Logger, r.RemoteAddr, identity)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		cl := &client{
			identity: identity,
			OutChan:  make(chan []byte, outboundQueueSize),
			cancel:   cancel,
		}
		s.addConn(cl)
		defer s.removeConn(cl)

		go s.writePump(ctx, c, cl)

		s.resumeSeat(cl)
		s.sendJSON(cl, protocol.RoomListPayload{Type: protocol.TypeRoomList, Rooms: s.Rooms.List()})

		readErr := s.readLoop(ctx, c, cl)
		middleware.LogSocketDisconnect(s.Logger, r.RemoteAddr, identity, readErr)

		s.handleDisconnect(cl)
	}
}

// resumeSeat reattaches a returning identity to a seat waiting out its
// reconnect grace.
func (s *Server) resumeSeat(cl *client) {
	room, playerID, ok := s.Rooms.FindDisconnectedByExternal(cl.identity)
	if !ok {
		return
	}
	s.Sessions.CancelExpiry(cl.identity)
	s.bindPlayer(cl, room.ID, playerID)
	state, gerr := room.Reconnect(playerID)
	if gerr != nil {
		s.unbindPlayer(cl)
		return
	}
	s.sendJSON(cl, game.Event{Type: game.EventRejoinSuccess, RoomID: room.ID, State: state})
	s.Logger.WithFields(map[string]interface{}{
		"identity": cl.identity,
		"room_id":  room.ID,
	}).Info("player resumed seat")
}

// handleDisconnect runs when the read loop exits. A seated player keeps the
// seat for the grace window; expiry forfeits it.
func (s *Server) handleDisconnect(cl *client) {
	s.mu.Lock()
	roomID, playerID := cl.roomID, cl.playerID
	s.mu.Unlock()
	if playerID == uuid.Nil {
		return
	}
	room, ok := s.Rooms.Get(roomID)
	if !ok {
		return
	}
	room.MarkDisconnected(playerID)
	s.Sessions.ScheduleExpiry(cl.identity, func() {
		s.forfeitSeat(roomID, playerID)
	})
}

func (s *Server) writePump(ctx context.Context, c *websocket.Conn, cl *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-cl.OutChan:
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancelWrite()
			if err != nil {
				cl.cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancelPing := context.WithTimeout(ctx, writeTimeout)
			err := c.Ping(pingCtx)
			cancelPing()
			if err != nil {
				cl.cancel()
				return
			}
		}
	}
}

func (s *Server) readLoop(ctx context.Context, c *websocket.Conn, cl *client) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(cl, game.NewError(game.ErrValidation, "invalid JSON"))
			continue
		}
		s.handleMessage(cl, &msg)
	}
}

func (s *Server) handleMessage(cl *client, msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypePing:
		s.sendJSON(cl, map[string]string{"type": protocol.TypePong})

	case protocol.TypeGetRooms:
		s.sendJSON(cl, protocol.RoomListPayload{Type: protocol.TypeRoomList, Rooms: s.Rooms.List()})

	case protocol.TypeCreateRoom:
		s.handleCreateRoom(cl, msg)

	case protocol.TypeJoinRoom:
		s.handleJoinRoom(cl, msg)

	case protocol.TypeLeaveRoom:
		s.handleLeaveRoom(cl)

	case protocol.TypeStartGame:
		s.withRoom(cl, func(room *game.Room, playerID uuid.UUID) (*game.SanitizedState, *game.Error) {
			return room.Start(playerID)
		})

	case protocol.TypeDrawCard:
		s.withRoom(cl, func(room *game.Room, playerID uuid.UUID) (*game.SanitizedState, *game.Error) {
			return room.Draw(playerID)
		})

	case protocol.TypeDiscardCard:
		cardID, gerr := msg.Card()
		if gerr != nil {
			s.sendError(cl, gerr)
			return
		}
		s.withRoom(cl, func(room *game.Room, playerID uuid.UUID) (*game.SanitizedState, *game.Error) {
			return room.Discard(playerID, cardID)
		})

	case protocol.TypeFlipCard:
		cardID, gerr := msg.Card()
		if gerr != nil {
			s.sendError(cl, gerr)
			return
		}
		s.withRoom(cl, func(room *game.Room, playerID uuid.UUID) (*game.SanitizedState, *game.Error) {
			return room.Flip(playerID, cardID)
		})

	case protocol.TypeDeclareReady:
		s.withRoom(cl, func(room *game.Room, playerID uuid.UUID) (*game.SanitizedState, *game.Error) {
			return room.DeclareReady(playerID)
		})

	case protocol.TypeClaimWin:
		s.withRoom(cl, func(room *game.Room, playerID uuid.UUID) (*game.SanitizedState, *game.Error) {
			return room.ClaimWin(playerID)
		})

	case protocol.TypePassWin:
		s.withRoom(cl, func(room *game.Room, playerID uuid.UUID) (*game.SanitizedState, *game.Error) {
			return room.PassWin(playerID)
		})

	case protocol.TypeHostRestart:
		s.withRoom(cl, func(room *game.Room, playerID uuid.UUID) (*game.SanitizedState, *game.Error) {
			return room.Restart(playerID)
		})

	case protocol.TypeUpdateProfile:
		s.handleUpdateProfile(cl, msg)

	default:
		s.sendError(cl, game.NewError(game.ErrValidation, "unknown message type: "+msg.Type))
	}
}

// withRoom resolves the caller's room and seat, then runs one gameplay
// operation. Successful operations broadcast their own state updates; only
// failures come back to the requester.
func (s *Server) withRoom(cl *client, op func(room *game.Room, playerID uuid.UUID) (*game.SanitizedState, *game.Error)) {
	s.mu.Lock()
	roomID, playerID := cl.roomID, cl.playerID
	s.mu.Unlock()
	if roomID == "" || playerID == uuid.Nil {
		s.sendError(cl, game.NewError(game.ErrRoomNotFound, "not in a room"))
		return
	}
	room, ok := s.Rooms.Get(roomID)
	if !ok {
		s.sendError(cl, game.NewError(game.ErrRoomNotFound, "room no longer exists"))
		return
	}
	if _, gerr := op(room, playerID); gerr != nil {
		s.sendError(cl, gerr)
	}
}

func (s *Server) handleCreateRoom(cl *client, msg *protocol.Message) {
	s.mu.Lock()
	seated := cl.playerID != uuid.Nil
	s.mu.Unlock()
	if seated {
		s.sendError(cl, game.NewError(game.ErrAlreadyInRoom, "leave your current room first"))
		return
	}
	name, gerr := msg.PlayerName()
	if gerr != nil {
		s.sendError(cl, gerr)
		return
	}
	capacity, gerr := msg.RoomCapacity()
	if gerr != nil {
		s.sendError(cl, gerr)
		return
	}

	room := s.Rooms.Create(msg.RoomName, capacity)
	s.bindRoom(room)

	player, state, gerr := room.Join(name, cl.identity)
	if gerr != nil {
		s.Rooms.Delete(room.ID)
		s.sendError(cl, gerr)
		return
	}
	s.bindPlayer(cl, room.ID, player.ID)
	s.sendJSON(cl, game.Event{Type: game.EventStateUpdate, RoomID: room.ID, State: state})
	s.broadcastRoomList()
}

func (s *Server) handleJoinRoom(cl *client, msg *protocol.Message) {
	s.mu.Lock()
	seated := cl.playerID != uuid.Nil
	s.mu.Unlock()
	if seated {
		s.sendError(cl, game.NewError(game.ErrAlreadyInRoom, "leave your current room first"))
		return
	}
	name, gerr := msg.PlayerName()
	if gerr != nil {
		s.sendError(cl, gerr)
		return
	}
	code, gerr := msg.Room()
	if gerr != nil {
		s.sendError(cl, gerr)
		return
	}
	room, ok := s.Rooms.Get(code)
	if !ok {
		s.sendError(cl, game.NewError(game.ErrRoomNotFound, "no room with that code"))
		return
	}

	player, state, gerr := room.Join(name, cl.identity)
	if gerr != nil {
		s.sendError(cl, gerr)
		return
	}
	s.bindPlayer(cl, room.ID, player.ID)
	s.sendJSON(cl, game.Event{Type: game.EventStateUpdate, RoomID: room.ID, State: state})
	s.broadcastRoomList()
}

func (s *Server) handleLeaveRoom(cl *client) {
	s.mu.Lock()
	roomID, playerID := cl.roomID, cl.playerID
	s.mu.Unlock()
	if playerID == uuid.Nil {
		s.sendError(cl, game.NewError(game.ErrRoomNotFound, "not in a room"))
		return
	}
	room, ok := s.Rooms.Get(roomID)
	if !ok {
		s.unbindPlayer(cl)
		return
	}

	res, gerr := room.Leave(playerID)
	if gerr != nil {
		s.sendError(cl, gerr)
		return
	}
	s.unbindPlayer(cl)
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

func (s *Server) handleUpdateProfile(cl *client, msg *protocol.Message) {
	username, gerr := msg.NewUsername()
	if gerr != nil {
		s.sendError(cl, gerr)
		return
	}
	if s.Pool != nil {
		if userID, err := uuid.Parse(cl.identity); err == nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := database.UpdateUsername(ctx, s.Pool, userID, username); err != nil {
					s.Logger.WithError(err).Warn("failed to persist username")
				}
			}()
		}
	}
	s.sendJSON(cl, map[string]string{
		"type":     protocol.TypeProfileUpdated,
		"username": username,
	})
}
