// internal/models/room_info.go
package models

// RoomInfo is the lobby-facing summary of a room. It is always derived from
// the authoritative room state, never stored on its own.
type RoomInfo struct {
	RoomID      string `json:"roomId"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Status      string `json:"status"`
}
