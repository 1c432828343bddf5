package scoring

import (
	"testing"

	"emotech-quiz-service/internal/domain"
)

func TestGradeCorrectAnswers(t *testing.T) {
	settings := Settings{TimeLimit: 30, HintPenalty: 15}

	tests := []struct {
		name      string
		question  domain.Question
		answer    string
		timeTaken int
		usedHint  bool
		wantScore int
	}{
		{
			name:      "mcq fast no hint",
			question:  domain.Question{Type: domain.QuestionMCQ, CorrectAnswer: "Paris"},
			answer:    "Paris",
			timeTaken: 10,
			wantScore: 120,
		},
		{
			name:      "true false slow with hint",
			question:  domain.Question{Type: domain.QuestionTrueFalse, CorrectAnswer: "true"},
			answer:    "True",
			timeTaken: 25,
			usedHint:  true,
			wantScore: 90,
		},
		{
			name:      "input trimmed case insensitive",
			question:  domain.Question{Type: domain.QuestionInput, CorrectAnswer: "Gopher"},
			answer:    "  gopher ",
			timeTaken: 15,
			wantScore: 115,
		},
		{
			name:      "scrambled with hint",
			question:  domain.Question{Type: domain.QuestionScrambled, CorrectAnswer: "channel"},
			answer:    "CHANNEL",
			timeTaken: 20,
			usedHint:  true,
			wantScore: 95,
		},
		{
			name:      "at limit gets no bonus",
			question:  domain.Question{Type: domain.QuestionMCQ, CorrectAnswer: "a"},
			answer:    "a",
			timeTaken: 30,
			wantScore: 100,
		},
		{
			name:      "over limit with hint floors at 85",
			question:  domain.Question{Type: domain.QuestionMCQ, CorrectAnswer: "a"},
			answer:    "a",
			timeTaken: 45,
			usedHint:  true,
			wantScore: 85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grade(tt.question, tt.answer, tt.timeTaken, tt.usedHint, settings)
			if !got.Correct {
				t.Fatalf("expected correct answer, got %+v", got)
			}
			if got.Score != tt.wantScore {
				t.Fatalf("expected score %d, got %d", tt.wantScore, got.Score)
			}
		})
	}
}

func TestGradeIncorrectScoresZero(t *testing.T) {
	settings := DefaultSettings()

	q := domain.Question{Type: domain.QuestionMCQ, CorrectAnswer: "Paris"}
	if got := Grade(q, "London", 1, false, settings); got.Correct || got.Score != 0 {
		t.Fatalf("expected incorrect zero score, got %+v", got)
	}

	// MCQ comparison is exact: case differences are wrong answers.
	if got := Grade(q, "paris", 1, false, settings); got.Correct {
		t.Fatalf("expected mcq exact match to reject case difference, got %+v", got)
	}
}

func TestGradeIsDeterministic(t *testing.T) {
	q := domain.Question{Type: domain.QuestionInput, CorrectAnswer: "42"}
	first := Grade(q, "42", 12, true, DefaultSettings())
	for i := 0; i < 5; i++ {
		if got := Grade(q, "42", 12, true, DefaultSettings()); got != first {
			t.Fatalf("expected identical results, got %+v then %+v", first, got)
		}
	}
}

func TestGradeZeroSettingsFallBackToDefaults(t *testing.T) {
	q := domain.Question{Type: domain.QuestionMCQ, CorrectAnswer: "a"}
	got := Grade(q, "a", 10, false, Settings{})
	if got.Score != 120 {
		t.Fatalf("expected default 30s limit to yield 120, got %d", got.Score)
	}
}
