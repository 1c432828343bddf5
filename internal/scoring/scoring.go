// Package scoring grades submitted answers. Grading is pure: identical inputs
// always produce identical results, so it can be verified independently of any
// store state.
package scoring

import (
	"strings"

	"emotech-quiz-service/internal/domain"
)

const (
	baseScore = 100

	// DefaultTimeLimit is the per-question limit in seconds when a game
	// carries no explicit setting.
	DefaultTimeLimit = 30
	// DefaultHintPenalty is subtracted from a correct answer's score when the
	// participant used the hint.
	DefaultHintPenalty = 15
)

// Settings are the grading knobs taken from the game's settings.
type Settings struct {
	TimeLimit   int
	HintPenalty int
}

// DefaultSettings returns the grading defaults (30s limit, 15-point hint penalty).
func DefaultSettings() Settings {
	return Settings{TimeLimit: DefaultTimeLimit, HintPenalty: DefaultHintPenalty}
}

func (s Settings) withDefaults() Settings {
	if s.TimeLimit <= 0 {
		s.TimeLimit = DefaultTimeLimit
	}
	if s.HintPenalty <= 0 {
		s.HintPenalty = DefaultHintPenalty
	}
	return s
}

// Result is the outcome of grading one submission.
type Result struct {
	Correct bool
	Score   int
}

// matcher compares the canonical correct answer against a submitted one.
// Each question type carries its own strategy.
type matcher func(correct, submitted string) bool

func exactMatch(correct, submitted string) bool {
	return correct == submitted
}

func foldedMatch(correct, submitted string) bool {
	return strings.EqualFold(strings.TrimSpace(correct), strings.TrimSpace(submitted))
}

var matchers = map[domain.QuestionType]matcher{
	domain.QuestionMCQ:       exactMatch,
	domain.QuestionTrueFalse: foldedMatch,
	domain.QuestionInput:     foldedMatch,
	domain.QuestionScrambled: foldedMatch,
}

// Grade scores a submission against the question. A correct answer earns
// base 100 plus a time bonus of max(0, limit-elapsed), minus the hint penalty
// when a hint was used. Incorrect answers score zero.
func Grade(q domain.Question, answer string, timeTaken int, usedHint bool, s Settings) Result {
	s = s.withDefaults()

	match, ok := matchers[q.Type]
	if !ok {
		// Question types are validated at creation; fall back to the lenient
		// strategy for anything that slipped through.
		match = foldedMatch
	}

	if !match(q.CorrectAnswer, answer) {
		return Result{Correct: false, Score: 0}
	}

	score := baseScore
	if timeTaken < s.TimeLimit {
		bonus := s.TimeLimit - timeTaken
		if bonus > 0 {
			score += bonus
		}
	}
	if usedHint {
		score -= s.HintPenalty
	}
	return Result{Correct: true, Score: score}
}
