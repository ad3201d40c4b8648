// internal/game/events.go
package game

import (
	"github.com/google/uuid"
	"github.com/wordclash/server/internal/models"
)

// EventType represents the type of a room event delivered over WebSockets.
type EventType string

// Constants defining the outbound event vocabulary.
const (
	EventRoomCreated        EventType = "room_created"
	EventRoomJoined         EventType = "room_joined"
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerLeft         EventType = "player_left"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventPlayerReconnected  EventType = "player_reconnected"
	EventPlayerRemoved      EventType = "player_removed"
	EventPlayerReady        EventType = "player_ready"
	EventSettingsUpdated    EventType = "settings_updated"
	EventGameStarted        EventType = "game_started"
	EventNextRound          EventType = "next_round"
	EventAnswerSubmitted    EventType = "answer_submitted"
	EventPlayerEliminated   EventType = "player_eliminated"
	EventHintRevealed       EventType = "hint_revealed"
	EventTimerUpdate        EventType = "timer_update"
	EventGameEnded          EventType = "game_ended"
	EventGameRestarted      EventType = "game_restarted"
	EventError              EventType = "error"
)

// Event is the standard structure for room broadcast and unicast messages.
type Event struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// PlayerSummary is the roster entry included in state-bearing events.
type PlayerSummary struct {
	UserID       uuid.UUID `json:"userId"`
	Username     string    `json:"username"`
	Score        int       `json:"score"`
	CorrectCount int       `json:"correctCount"`
	Streak       int       `json:"streak"`
	IsReady      bool      `json:"isReady"`
	IsConnected  bool      `json:"isConnected"`
	IsEliminated bool      `json:"isEliminated"`
	IsHost       bool      `json:"isHost"`
}

// summarizePlayers builds the roster view from session records.
func summarizePlayers(sessions []*models.PlayerSession, hostID uuid.UUID) []PlayerSummary {
	out := make([]PlayerSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, PlayerSummary{
			UserID:       s.UserID,
			Username:     s.Username,
			Score:        s.Score,
			CorrectCount: s.CorrectCount,
			Streak:       s.Streak,
			IsReady:      s.IsReady,
			IsConnected:  s.IsConnected,
			IsEliminated: s.IsEliminated,
			IsHost:       s.UserID == hostID,
		})
	}
	return out
}

// publicItem returns the client-safe view of a content item: the answer field
// is withheld until the engine reveals it with a result event.
func publicItem(item *models.ContentItem) map[string]interface{} {
	if item == nil {
		return nil
	}
	view := map[string]interface{}{
		"id":         item.ID,
		"mode":       item.Mode,
		"difficulty": item.Difficulty,
	}
	switch item.Mode {
	case models.ModeGrammar:
		view["sentence"] = item.Sentence
		view["question"] = item.Question
		view["options"] = item.Options
	default:
		// Spelling: the word itself is the answer, so only metadata ships.
		view["definition"] = item.Definition
		view["partOfSpeech"] = item.PartOfSpeech
		view["wordLength"] = len(item.Word)
	}
	return view
}

// ErrorEvent builds the unicast error event for an engine failure.
func ErrorEvent(err error) Event {
	if ee, ok := err.(*EngineError); ok {
		return Event{Type: EventError, Payload: map[string]interface{}{
			"code":    ee.Code,
			"message": ee.Message,
		}}
	}
	return Event{Type: EventError, Payload: map[string]interface{}{
		"code":    CodeInternal,
		"message": "internal server error",
	}}
}
