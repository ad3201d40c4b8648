// internal/game/hints_test.go
package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHintTierValid(t *testing.T) {
	assert.True(t, HintFirstLetter.Valid())
	assert.True(t, HintDefinition.Valid())
	assert.True(t, HintSentence.Valid())
	assert.False(t, HintTier("answer").Valid())
	assert.False(t, HintTier("").Valid())
}

func TestHintLedgerUse(t *testing.T) {
	l := NewHintLedger()
	roomID, userID := uuid.New(), uuid.New()

	assert.True(t, l.Use(roomID, userID, HintFirstLetter))
	assert.False(t, l.Use(roomID, userID, HintFirstLetter), "a tier charges once per item")
	assert.True(t, l.Use(roomID, userID, HintDefinition))

	flags := l.Flags(roomID, userID)
	assert.True(t, flags.FirstLetter)
	assert.True(t, flags.Definition)
	assert.False(t, flags.Sentence)
}

func TestHintLedgerIsolation(t *testing.T) {
	l := NewHintLedger()
	roomID := uuid.New()
	alice, bob := uuid.New(), uuid.New()

	l.Use(roomID, alice, HintSentence)

	assert.False(t, l.Flags(roomID, bob).Sentence, "hint usage is per-player")
	assert.False(t, l.Flags(uuid.New(), alice).Sentence, "hint usage is per-room")
}

func TestHintLedgerResetRoom(t *testing.T) {
	l := NewHintLedger()
	roomID, userID := uuid.New(), uuid.New()

	assert.True(t, l.Empty(roomID))
	l.Use(roomID, userID, HintFirstLetter)
	assert.False(t, l.Empty(roomID))

	l.ResetRoom(roomID)
	assert.True(t, l.Empty(roomID))
	assert.Equal(t, HintFlags{}, l.Flags(roomID, userID))

	// The tier can be consumed again for the next item.
	assert.True(t, l.Use(roomID, userID, HintFirstLetter))
}
