// internal/game/errors.go
package game

// ErrorCode is a stable machine-readable code carried by every gameplay
// error. Codes never change once a client relies on them.
type ErrorCode string

const (
	ErrRoomNotFound       ErrorCode = "ROOM_NOT_FOUND"
	ErrPlayerNotFound     ErrorCode = "PLAYER_NOT_FOUND"
	ErrRoomFull           ErrorCode = "ROOM_FULL"
	ErrGameAlreadyStarted ErrorCode = "GAME_ALREADY_STARTED"
	ErrGameNotActive      ErrorCode = "GAME_NOT_ACTIVE"
	ErrNotYourTurn        ErrorCode = "NOT_YOUR_TURN"
	ErrNotHost            ErrorCode = "NOT_HOST"
	ErrInterruptionActive ErrorCode = "INTERRUPTION_ACTIVE"
	ErrNotEnoughPlayers   ErrorCode = "NOT_ENOUGH_PLAYERS"
	ErrInvalidAction      ErrorCode = "INVALID_ACTION"
	ErrValidation         ErrorCode = "VALIDATION_ERROR"
	ErrAlreadyInRoom      ErrorCode = "ALREADY_IN_ROOM"
	ErrUnknown            ErrorCode = "UNKNOWN_ERROR"
)

// Error is the tagged result type for rejected gameplay operations. A
// rejected operation leaves room state untouched and the error is delivered
// only to the requester.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewError builds a gameplay error with a stable code.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}
