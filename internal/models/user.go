// internal/models/user.go
package models

import "github.com/google/uuid"

// User is a persistent account identity. Ephemeral users are minted for
// cookie-less guests and can later be claimed with credentials. TotalScore
// accumulates match deltas and drives the rank title.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Username string    `json:"username"`

	IsEphemeral bool `json:"is_ephemeral"`

	TotalScore int `json:"total_score"`
}
