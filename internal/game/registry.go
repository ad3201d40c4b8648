// internal/game/registry.go
package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Room code format: fixed prefix plus a 4-character suffix drawn from an
// alphabet without easily-confused glyphs (no 0/O, 1/I/L).
const (
	roomCodePrefix    = "WC-"
	roomCodeSuffixLen = 4
	roomCodeAlphabet  = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

var codeRand = rand.New(rand.NewSource(time.Now().UnixNano()))
var codeRandMu sync.Mutex

// NewRoomCode generates a random room code in the shareable format.
// Uniqueness against live rooms is enforced by the store at creation time;
// callers retry on collision.
func NewRoomCode() string {
	codeRandMu.Lock()
	defer codeRandMu.Unlock()
	var sb strings.Builder
	sb.WriteString(roomCodePrefix)
	for i := 0; i < roomCodeSuffixLen; i++ {
		sb.WriteByte(roomCodeAlphabet[codeRand.Intn(len(roomCodeAlphabet))])
	}
	return sb.String()
}

// ValidRoomCode reports whether s matches the shareable code format.
func ValidRoomCode(s string) bool {
	if !strings.HasPrefix(s, roomCodePrefix) {
		return false
	}
	suffix := s[len(roomCodePrefix):]
	if len(suffix) != roomCodeSuffixLen {
		return false
	}
	for i := 0; i < len(suffix); i++ {
		if !strings.ContainsRune(roomCodeAlphabet, rune(suffix[i])) {
			return false
		}
	}
	return true
}

// roomRuntime is the per-room resource table: the lock serializing all
// command handlers and timer callbacks for the room, plus every timer handle
// whose lifecycle is tied 1:1 to the room. Purged atomically with the room
// record so no stale callback can resurrect deleted state.
type roomRuntime struct {
	mu sync.Mutex
	id uuid.UUID

	matchTimer    *matchTimer
	roundTimer    *time.Timer
	advanceTimer  *time.Timer
	endTimer      *time.Timer
	removalTimers map[uuid.UUID]*time.Timer // Disconnect grace timers by user id.

	actionIndex int // Sequential audit-trail index.
}

// stopActiveTimers cancels all match-scoped timers. Assumes rt.mu is held.
func (rt *roomRuntime) stopActiveTimers() {
	if rt.matchTimer != nil {
		rt.matchTimer.Stop()
		rt.matchTimer = nil
	}
	if rt.roundTimer != nil {
		rt.roundTimer.Stop()
		rt.roundTimer = nil
	}
	if rt.advanceTimer != nil {
		rt.advanceTimer.Stop()
		rt.advanceTimer = nil
	}
	if rt.endTimer != nil {
		rt.endTimer.Stop()
		rt.endTimer = nil
	}
}

// stopAllTimers additionally cancels pending disconnect-removal checks.
// Assumes rt.mu is held.
func (rt *roomRuntime) stopAllTimers() {
	rt.stopActiveTimers()
	for userID, t := range rt.removalTimers {
		t.Stop()
		delete(rt.removalTimers, userID)
	}
}

// Registry owns the runtime resource table for every live room.
type Registry struct {
	mu       sync.Mutex
	runtimes map[uuid.UUID]*roomRuntime
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[uuid.UUID]*roomRuntime)}
}

// acquire returns the runtime for a room, creating it on first use.
func (r *Registry) acquire(roomID uuid.UUID) *roomRuntime {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.runtimes[roomID]
	if !ok {
		rt = &roomRuntime{
			id:            roomID,
			removalTimers: make(map[uuid.UUID]*time.Timer),
		}
		r.runtimes[roomID] = rt
	}
	return rt
}

// lookup returns the runtime for a room without creating one.
func (r *Registry) lookup(roomID uuid.UUID) (*roomRuntime, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.runtimes[roomID]
	return rt, ok
}

// remove tears down and discards a room's runtime. The caller must NOT hold
// the runtime lock.
func (r *Registry) remove(roomID uuid.UUID) {
	r.mu.Lock()
	rt, ok := r.runtimes[roomID]
	if ok {
		delete(r.runtimes, roomID)
	}
	r.mu.Unlock()

	if ok {
		rt.mu.Lock()
		rt.stopAllTimers()
		rt.mu.Unlock()
	}
}

// detach discards a room's runtime entry without touching its timers. For
// callers that already hold the runtime lock and have stopped the timers
// themselves.
func (r *Registry) detach(roomID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runtimes, roomID)
}

// count returns the number of live runtimes. Used by tests and diagnostics.
func (r *Registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runtimes)
}
