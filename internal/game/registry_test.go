// internal/game/registry_test.go
package game

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := NewRoomCode()
		assert.True(t, ValidRoomCode(code), "generated code %q must validate", code)
		assert.True(t, strings.HasPrefix(code, "WC-"))
		assert.Len(t, code, len("WC-")+4)
	}
}

func TestValidRoomCode(t *testing.T) {
	assert.True(t, ValidRoomCode("WC-7KQ2"))
	assert.False(t, ValidRoomCode(""))
	assert.False(t, ValidRoomCode("7KQ2"))
	assert.False(t, ValidRoomCode("WC-7KQ"))
	assert.False(t, ValidRoomCode("WC-7KQ22"))
	assert.False(t, ValidRoomCode("WC-7KO2"), "O is excluded from the alphabet")
	assert.False(t, ValidRoomCode("WC-7kq2"), "codes are upper case")
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	roomID := uuid.New()

	_, ok := r.lookup(roomID)
	assert.False(t, ok)

	rt := r.acquire(roomID)
	require.NotNil(t, rt)
	assert.Same(t, rt, r.acquire(roomID), "acquire is idempotent")
	assert.Equal(t, 1, r.count())

	got, ok := r.lookup(roomID)
	require.True(t, ok)
	assert.Same(t, rt, got)

	r.remove(roomID)
	_, ok = r.lookup(roomID)
	assert.False(t, ok)
	assert.Equal(t, 0, r.count())
}

func TestRegistryRemoveStopsTimers(t *testing.T) {
	r := NewRegistry()
	roomID := uuid.New()
	rt := r.acquire(roomID)

	fired := make(chan struct{}, 1)
	rt.mu.Lock()
	rt.roundTimer = time.AfterFunc(50*time.Millisecond, func() { fired <- struct{}{} })
	rt.removalTimers[uuid.New()] = time.AfterFunc(50*time.Millisecond, func() { fired <- struct{}{} })
	rt.mu.Unlock()

	r.remove(roomID)

	select {
	case <-fired:
		t.Fatal("timer fired after the runtime was removed")
	case <-time.After(120 * time.Millisecond):
	}
}

func TestStopAllTimersClearsRemovals(t *testing.T) {
	rt := &roomRuntime{removalTimers: make(map[uuid.UUID]*time.Timer)}
	rt.removalTimers[uuid.New()] = time.AfterFunc(time.Hour, func() {})
	rt.roundTimer = time.AfterFunc(time.Hour, func() {})

	rt.mu.Lock()
	rt.stopAllTimers()
	rt.mu.Unlock()

	assert.Empty(t, rt.removalTimers)
	assert.Nil(t, rt.roundTimer)
}
