// internal/game/scoring.go
package game

import "strings"

// Scoring constants. The hint deduction schedule is the canonical one:
// first letter -2, definition -3, example sentence -4, with correct answers
// never worth less than MinCorrectPoints.
const (
	BasePoints       = 10
	MinCorrectPoints = 1

	firstLetterPenalty = 2
	definitionPenalty  = 3
	sentencePenalty    = 4
)

// CheckAnswer reports whether the submission matches the target answer.
// Matching is a case-insensitive exact comparison after trimming whitespace.
func CheckAnswer(submitted, target string) bool {
	submitted = strings.TrimSpace(submitted)
	if submitted == "" || target == "" {
		return false
	}
	return strings.EqualFold(submitted, target)
}

// ScoreCorrect computes the points for a correct answer given the hint tiers
// consumed for the current item.
func ScoreCorrect(hints HintFlags) int {
	points := BasePoints
	if hints.FirstLetter {
		points -= firstLetterPenalty
	}
	if hints.Definition {
		points -= definitionPenalty
	}
	if hints.Sentence {
		points -= sentencePenalty
	}
	if points < MinCorrectPoints {
		points = MinCorrectPoints
	}
	return points
}
