// internal/game/hints.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// HintTier is one of the three graduated content reveals.
type HintTier string

const (
	HintFirstLetter HintTier = "first_letter"
	HintDefinition  HintTier = "definition"
	HintSentence    HintTier = "sentence"
)

// Valid reports whether t names a known hint tier.
func (t HintTier) Valid() bool {
	switch t {
	case HintFirstLetter, HintDefinition, HintSentence:
		return true
	}
	return false
}

// HintFlags records which tiers a player has consumed for the current item.
type HintFlags struct {
	FirstLetter bool
	Definition  bool
	Sentence    bool
}

// set marks a tier consumed and reports whether it was newly consumed.
func (f *HintFlags) set(t HintTier) bool {
	switch t {
	case HintFirstLetter:
		if f.FirstLetter {
			return false
		}
		f.FirstLetter = true
	case HintDefinition:
		if f.Definition {
			return false
		}
		f.Definition = true
	case HintSentence:
		if f.Sentence {
			return false
		}
		f.Sentence = true
	}
	return true
}

// HintLedger tracks hint consumption per room and player for the item
// currently in play. Entries are cleared whenever the active item changes
// and when a room is deleted. Never persisted: losing in-flight hint state
// on restart only forfeits a partial-credit deduction.
type HintLedger struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]map[uuid.UUID]*HintFlags
}

// NewHintLedger creates an empty ledger.
func NewHintLedger() *HintLedger {
	return &HintLedger{rooms: make(map[uuid.UUID]map[uuid.UUID]*HintFlags)}
}

// Use marks a tier consumed for (room, player). Returns false when the tier
// was already consumed for the current item.
func (l *HintLedger) Use(roomID, userID uuid.UUID, tier HintTier) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	players, ok := l.rooms[roomID]
	if !ok {
		players = make(map[uuid.UUID]*HintFlags)
		l.rooms[roomID] = players
	}
	flags, ok := players[userID]
	if !ok {
		flags = &HintFlags{}
		players[userID] = flags
	}
	return flags.set(tier)
}

// Flags returns a copy of the consumption flags for (room, player).
func (l *HintLedger) Flags(roomID, userID uuid.UUID) HintFlags {
	l.mu.Lock()
	defer l.mu.Unlock()
	if players, ok := l.rooms[roomID]; ok {
		if flags, ok := players[userID]; ok {
			return *flags
		}
	}
	return HintFlags{}
}

// ResetRoom clears all hint state for a room. Called on game start, round
// advance, game end, and room deletion.
func (l *HintLedger) ResetRoom(roomID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rooms, roomID)
}

// Empty reports whether the room has no recorded hint usage.
func (l *HintLedger) Empty(roomID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	players, ok := l.rooms[roomID]
	return !ok || len(players) == 0
}
