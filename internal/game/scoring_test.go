// internal/game/scoring_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAnswer(t *testing.T) {
	assert.True(t, CheckAnswer("rhythm", "rhythm"))
	assert.True(t, CheckAnswer("RHYTHM", "rhythm"))
	assert.True(t, CheckAnswer("  Rhythm  ", "rhythm"))
	assert.False(t, CheckAnswer("rythm", "rhythm"))
	assert.False(t, CheckAnswer("", "rhythm"))
	assert.False(t, CheckAnswer("   ", "rhythm"))
	assert.False(t, CheckAnswer("anything", ""))
}

func TestScoreCorrect(t *testing.T) {
	cases := []struct {
		name  string
		flags HintFlags
		want  int
	}{
		{"no hints", HintFlags{}, 10},
		{"first letter", HintFlags{FirstLetter: true}, 8},
		{"definition", HintFlags{Definition: true}, 7},
		{"sentence", HintFlags{Sentence: true}, 6},
		{"first letter and definition", HintFlags{FirstLetter: true, Definition: true}, 5},
		{"first letter and sentence", HintFlags{FirstLetter: true, Sentence: true}, 4},
		{"definition and sentence", HintFlags{Definition: true, Sentence: true}, 3},
		{"all three", HintFlags{FirstLetter: true, Definition: true, Sentence: true}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreCorrect(tc.flags))
		})
	}
}

func TestScoreCorrectFloor(t *testing.T) {
	// A correct answer is never worth less than a point, whatever was used.
	got := ScoreCorrect(HintFlags{FirstLetter: true, Definition: true, Sentence: true})
	assert.GreaterOrEqual(t, got, MinCorrectPoints)
}
