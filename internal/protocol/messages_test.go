// internal/protocol/messages_test.go
package protocol

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanabira-dev/rikka-server/internal/game"
)

func TestPlayerNameValidation(t *testing.T) {
	name, gerr := (&Message{Name: "  alice  "}).PlayerName()
	require.Nil(t, gerr)
	assert.Equal(t, "alice", name)

	_, gerr = (&Message{Name: "   "}).PlayerName()
	require.NotNil(t, gerr)
	assert.Equal(t, game.ErrValidation, gerr.Code)

	_, gerr = (&Message{Name: strings.Repeat("x", MaxNameLength+1)}).PlayerName()
	require.NotNil(t, gerr)
	assert.Equal(t, game.ErrValidation, gerr.Code)
}

func TestRoomCapacityValidation(t *testing.T) {
	capacity, gerr := (&Message{}).RoomCapacity()
	require.Nil(t, gerr)
	assert.Equal(t, game.DefaultCapacity, capacity)

	capacity, gerr = (&Message{Capacity: 6}).RoomCapacity()
	require.Nil(t, gerr)
	assert.Equal(t, 6, capacity)

	for _, bad := range []int{1, 7, -3} {
		_, gerr = (&Message{Capacity: bad}).RoomCapacity()
		require.NotNilf(t, gerr, "capacity %d should be rejected", bad)
		assert.Equal(t, game.ErrValidation, gerr.Code)
	}
}

func TestCardParsing(t *testing.T) {
	want := uuid.New()
	got, gerr := (&Message{CardID: want.String()}).Card()
	require.Nil(t, gerr)
	assert.Equal(t, want, got)

	_, gerr = (&Message{CardID: "not-a-uuid"}).Card()
	require.NotNil(t, gerr)
	assert.Equal(t, game.ErrValidation, gerr.Code)

	_, gerr = (&Message{}).Card()
	require.NotNil(t, gerr)
}

func TestRoomCodeNormalization(t *testing.T) {
	code, gerr := (&Message{RoomID: " ab12cd "}).Room()
	require.Nil(t, gerr)
	assert.Equal(t, "AB12CD", code)

	_, gerr = (&Message{}).Room()
	require.NotNil(t, gerr)
	assert.Equal(t, game.ErrValidation, gerr.Code)
}

func TestUsernameValidation(t *testing.T) {
	name, gerr := (&Message{Username: " neo "}).NewUsername()
	require.Nil(t, gerr)
	assert.Equal(t, "neo", name)

	_, gerr = (&Message{Username: ""}).NewUsername()
	require.NotNil(t, gerr)
}
