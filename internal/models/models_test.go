// internal/models/models_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompetitionTypeValid(t *testing.T) {
	assert.True(t, CompetitionElimination.Valid())
	assert.True(t, CompetitionTimed.Valid())
	assert.True(t, CompetitionTeam.Valid())
	assert.True(t, CompetitionRelay.Valid())
	assert.False(t, CompetitionType("battle-royale").Valid())
	assert.False(t, CompetitionType("").Valid())
}

func TestContentItemAnswer(t *testing.T) {
	spelling := ContentItem{Mode: ModeSpelling, Word: "rhythm"}
	assert.Equal(t, "rhythm", spelling.Answer())

	grammar := ContentItem{Mode: ModeGrammar, Word: "ignored", CorrectOption: "goes"}
	assert.Equal(t, "goes", grammar.Answer())
}

func TestResetForRestart(t *testing.T) {
	now := time.Now()
	s := PlayerSession{
		Username:     "alice",
		Score:        42,
		CorrectCount: 4,
		Streak:       2,
		BestStreak:   3,
		HintsUsed:    1,
		IsReady:      true,
		IsComplete:   true,
		IsEliminated: true,
		EliminatedAt: &now,
		IsConnected:  true,
	}
	s.ResetForRestart()

	assert.Zero(t, s.Score)
	assert.Zero(t, s.CorrectCount)
	assert.Zero(t, s.Streak)
	assert.Zero(t, s.BestStreak)
	assert.Zero(t, s.HintsUsed)
	assert.False(t, s.IsReady)
	assert.False(t, s.IsComplete)
	assert.False(t, s.IsEliminated)
	assert.Nil(t, s.EliminatedAt)
	assert.Equal(t, "alice", s.Username, "identity survives the reset")
	assert.True(t, s.IsConnected, "connection state survives the reset")
}

func TestApplyResult(t *testing.T) {
	u := UserStats{}
	u.ApplyResult(30, 3, 4)

	assert.Equal(t, 1, u.GamesPlayed)
	assert.Equal(t, 30, u.TotalScore)
	assert.Equal(t, 30, u.BestScore)
	assert.Equal(t, 3, u.WordsCorrect)
	assert.InDelta(t, 75.0, u.Accuracy, 0.01)

	// A second match averages accuracy and keeps the best score.
	u.ApplyResult(10, 1, 4)
	assert.Equal(t, 2, u.GamesPlayed)
	assert.Equal(t, 40, u.TotalScore)
	assert.Equal(t, 30, u.BestScore)
	assert.InDelta(t, 50.0, u.Accuracy, 0.01)
}

func TestApplyResultNoAttempts(t *testing.T) {
	u := UserStats{}
	u.ApplyResult(0, 0, 0)
	assert.Equal(t, 1, u.GamesPlayed)
	assert.InDelta(t, 0.0, u.Accuracy, 0.01)
}
