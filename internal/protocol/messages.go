// internal/protocol/messages.go
package protocol

import (
	"strings"

	"github.com/google/uuid"

	"github.com/hanabira-dev/rikka-server/internal/game"
)

// Client-to-server message types.
const (
	TypeCreateRoom    = "create_room"
	TypeJoinRoom      = "join_room"
	TypeLeaveRoom     = "leave_room"
	TypeStartGame     = "start_game"
	TypeDrawCard      = "draw_card"
	TypeDiscardCard   = "discard_card"
	TypeFlipCard      = "flip_card"
	TypeDeclareReady  = "declare_ready"
	TypeClaimWin      = "claim_win"
	TypePassWin       = "pass_win"
	TypeHostRestart   = "host_restart"
	TypeGetRooms      = "get_rooms"
	TypeUpdateProfile = "update_profile"
	TypePing          = "ping"
)

// Server-to-client message types not covered by game events.
const (
	TypeError          = "error"
	TypeRoomList       = "room_list_update"
	TypePong           = "pong"
	TypeProfileUpdated = "profile_updated"
)

const (
	MinCapacity   = 2
	MaxCapacity   = 6
	MaxNameLength = 20
)

// Message is the flat client request envelope. Fields beyond Type are
// populated per message type; Validate methods below gate each use.
type Message struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId,omitempty"`
	Name     string `json:"name,omitempty"`
	RoomName string `json:"roomName,omitempty"`
	Capacity int    `json:"maxPlayers,omitempty"`
	CardID   string `json:"cardId,omitempty"`
	Username string `json:"username,omitempty"`
}

// ErrorPayload is the requester-only error envelope.
type ErrorPayload struct {
	Type    string         `json:"type"`
	Code    game.ErrorCode `json:"code"`
	Message string         `json:"message"`
}

// RoomListPayload carries the lobby summary.
type RoomListPayload struct {
	Type  string      `json:"type"`
	Rooms interface{} `json:"rooms"`
}

// PlayerName validates and normalizes the display name for create/join.
func (m *Message) PlayerName() (string, *game.Error) {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return "", game.NewError(game.ErrValidation, "name is required")
	}
	if len(name) > MaxNameLength {
		return "", game.NewError(game.ErrValidation, "name must be at most 20 characters")
	}
	return name, nil
}

// RoomCapacity validates the requested capacity, applying the default when
// the field is absent.
func (m *Message) RoomCapacity() (int, *game.Error) {
	if m.Capacity == 0 {
		return game.DefaultCapacity, nil
	}
	if m.Capacity < MinCapacity || m.Capacity > MaxCapacity {
		return 0, game.NewError(game.ErrValidation, "maxPlayers must be between 2 and 6")
	}
	return m.Capacity, nil
}

// Card parses the card id carried by discard/flip requests.
func (m *Message) Card() (uuid.UUID, *game.Error) {
	id, err := uuid.Parse(m.CardID)
	if err != nil {
		return uuid.Nil, game.NewError(game.ErrValidation, "cardId must be a valid UUID")
	}
	return id, nil
}

// Room validates the room code carried by join requests.
func (m *Message) Room() (string, *game.Error) {
	code := strings.ToUpper(strings.TrimSpace(m.RoomID))
	if code == "" {
		return "", game.NewError(game.ErrValidation, "roomId is required")
	}
	return code, nil
}

// NewUsername validates the username carried by profile updates.
func (m *Message) NewUsername() (string, *game.Error) {
	name := strings.TrimSpace(m.Username)
	if name == "" || len(name) > MaxNameLength {
		return "", game.NewError(game.ErrValidation, "username must be 1-20 characters")
	}
	return name, nil
}
