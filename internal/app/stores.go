package app

import (
	"context"
	"time"

	"emotech-quiz-service/internal/domain"
)

// GameStore holds authoritative game records.
type GameStore interface {
	Create(ctx context.Context, g domain.Game) error
	Get(ctx context.Context, code string) (domain.Game, error)
	// Transition atomically moves a game from one status to the next and
	// stamps the matching timestamp. It fails with ErrGameNotFound when the
	// code is unknown and ErrInvalidTransition when the game is not in the
	// required state; status never moves backward.
	Transition(ctx context.Context, code string, from, to domain.GameStatus, at time.Time) (domain.Game, error)
}

// QuestionStore holds authoritative question records.
type QuestionStore interface {
	Add(ctx context.Context, q domain.Question) error
	Get(ctx context.Context, id string) (domain.Question, error)
	// ListByGame returns the game's questions sorted by their order key.
	ListByGame(ctx context.Context, gameCode string) ([]domain.Question, error)
}

// ParticipantStore holds authoritative participant records, their answers and
// cheat history. The multi-effect operations are single atomic units: a
// concurrent reader never observes a partially applied answer or penalty.
type ParticipantStore interface {
	// Create fails with ErrNameTaken when the name is already used in the game.
	Create(ctx context.Context, p domain.Participant) error
	Get(ctx context.Context, id string) (domain.Participant, error)
	// ListByGame returns participants in join order.
	ListByGame(ctx context.Context, gameCode string) ([]domain.Participant, error)
	// RecordAnswer appends the answer record and increments the total score as
	// one atomic insert-if-absent keyed by (participant, question). Exactly
	// one of N concurrent calls for the same pair succeeds; the rest fail with
	// ErrAlreadyAnswered. Returns the new total score.
	RecordAnswer(ctx context.Context, participantID string, rec domain.AnswerRecord) (int, error)
	// RecordCheat appends the cheat log, increments the named counter and
	// deducts the penalty in one atomic unit. Returns the new total score.
	RecordCheat(ctx context.Context, entry domain.CheatLog, counter string, points int) (int, error)
	ListCheatLogs(ctx context.Context, gameCode string) ([]domain.CheatLog, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// EventJournal records every broadcast so request/response clients can poll
// for events they would otherwise have received over a socket.
type EventJournal interface {
	Append(ctx context.Context, gameCode string, e domain.Event) error
	// Since returns events with Seq greater than cursor, plus the cursor to
	// resume from.
	Since(ctx context.Context, gameCode string, cursor int64) ([]domain.Event, int64, error)
}
