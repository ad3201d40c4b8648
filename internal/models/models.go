// internal/models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// GameMode selects the kind of content a room serves.
type GameMode string

const (
	ModeSpelling GameMode = "spelling"
	ModeGrammar  GameMode = "grammar"
)

// Difficulty is the content tier requested from the content provider.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// CompetitionType is the round-progression and elimination ruleset for a room.
// Team and Relay are accepted in settings but currently run with the default
// round-limited progression.
type CompetitionType string

const (
	CompetitionElimination CompetitionType = "elimination"
	CompetitionTimed       CompetitionType = "timed"
	CompetitionTeam        CompetitionType = "team"
	CompetitionRelay       CompetitionType = "relay"
)

// Valid reports whether t is one of the closed set of competition types.
func (t CompetitionType) Valid() bool {
	switch t {
	case CompetitionElimination, CompetitionTimed, CompetitionTeam, CompetitionRelay:
		return true
	}
	return false
}

// RoomSettings is the host-tunable settings bag for a room.
type RoomSettings struct {
	CompetitionType CompetitionType `json:"competitionType"`
	TimeLimit       int             `json:"timeLimit"`   // Seconds per content item.
	TotalRounds     int             `json:"totalRounds"` // Ignored for timed competitions.
	HintsEnabled    bool            `json:"hintsEnabled"`
}

// GameState is the per-room state of an active match. Embedded in Room; only
// meaningful while the room is active.
type GameState struct {
	CurrentRound    int             `json:"currentRound"`
	TotalRounds     int             `json:"totalRounds"`
	CurrentItem     *ContentItem    `json:"currentItem,omitempty"`
	TimeLeft        int             `json:"timeLeft"` // Seconds remaining for the current item.
	CompetitionType CompetitionType `json:"competitionType"`
	GlobalTimer     int             `json:"globalTimer"` // Seconds remaining on the match clock.
	StartedAt       time.Time       `json:"startedAt"`
}

// Room is an isolated multiplayer match instance identified by a shareable code.
type Room struct {
	ID             uuid.UUID    `json:"id"`
	Code           string       `json:"code"` // Human-shareable, e.g. "WC-7KQ2".
	HostID         uuid.UUID    `json:"hostId"`
	Mode           GameMode     `json:"mode"`
	Difficulty     Difficulty   `json:"difficulty"`
	MaxPlayers     int          `json:"maxPlayers"`
	CurrentPlayers int          `json:"currentPlayers"`
	IsActive       bool         `json:"isActive"`
	Settings       RoomSettings `json:"settings"`
	GameState      *GameState   `json:"gameState,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// PlayerSession is a player's mutable scoring and state record scoped to one
// room. Exactly one live session exists per (room, player) pair.
type PlayerSession struct {
	ID       uuid.UUID `json:"id"`
	RoomID   uuid.UUID `json:"roomId"`
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`

	Score         int `json:"score"`
	CorrectCount  int `json:"correctCount"`
	TotalAttempts int `json:"totalAttempts"`
	Streak        int `json:"streak"`
	BestStreak    int `json:"bestStreak"`
	HintsUsed     int `json:"hintsUsed"`
	ElapsedTime   int `json:"elapsedTime"` // Seconds spent in the current match.

	IsReady        bool       `json:"isReady"`
	IsComplete     bool       `json:"isComplete"`
	IsConnected    bool       `json:"isConnected"`
	IsEliminated   bool       `json:"isEliminated"`
	EliminatedAt   *time.Time `json:"eliminatedAt,omitempty"`
	DisconnectedAt *time.Time `json:"disconnectedAt,omitempty"`

	JoinedAt time.Time `json:"joinedAt"`
}

// ResetForRestart zeroes the match-scoped fields of a session so the player
// can opt into a rematch. Identity and connection state are preserved.
func (s *PlayerSession) ResetForRestart() {
	s.Score = 0
	s.CorrectCount = 0
	s.TotalAttempts = 0
	s.Streak = 0
	s.BestStreak = 0
	s.HintsUsed = 0
	s.ElapsedTime = 0
	s.IsReady = false
	s.IsComplete = false
	s.IsEliminated = false
	s.EliminatedAt = nil
}

// ContentItem is a single quiz item. Immutable once fetched; the engine only
// discards it when the round advances.
type ContentItem struct {
	ID         uuid.UUID  `json:"id"`
	Mode       GameMode   `json:"mode"`
	Difficulty Difficulty `json:"difficulty"`

	// Spelling fields.
	Word         string `json:"word,omitempty"`
	Definition   string `json:"definition,omitempty"`
	ExampleUsage string `json:"exampleUsage,omitempty"`
	PartOfSpeech string `json:"partOfSpeech,omitempty"`

	// Grammar fields.
	Sentence      string   `json:"sentence,omitempty"`
	Question      string   `json:"question,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectOption string   `json:"correctOption,omitempty"`
}

// Answer returns the canonical answer string for the item: the target word
// for spelling items, the correct option for grammar items.
func (c *ContentItem) Answer() string {
	if c.Mode == ModeGrammar {
		return c.CorrectOption
	}
	return c.Word
}

// UserStats is the persistent cross-match profile for a player. Accuracy is
// averaged with the prior recorded value when a match result is folded in.
type UserStats struct {
	UserID       uuid.UUID `json:"userId"`
	Username     string    `json:"username"`
	GamesPlayed  int       `json:"gamesPlayed"`
	TotalScore   int       `json:"totalScore"`
	BestScore    int       `json:"bestScore"`
	WordsCorrect int       `json:"wordsCorrect"`
	Accuracy     float64   `json:"accuracy"` // Percentage, 0..100.
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ApplyResult folds one match result into the profile.
func (u *UserStats) ApplyResult(score, correct, attempts int) {
	u.GamesPlayed++
	u.TotalScore += score
	if score > u.BestScore {
		u.BestScore = score
	}
	u.WordsCorrect += correct

	matchAccuracy := 0.0
	if attempts > 0 {
		matchAccuracy = float64(correct) / float64(attempts) * 100
	}
	if u.GamesPlayed <= 1 || u.Accuracy == 0 {
		u.Accuracy = matchAccuracy
	} else {
		u.Accuracy = (u.Accuracy + matchAccuracy) / 2
	}
	u.UpdatedAt = time.Now()
}
