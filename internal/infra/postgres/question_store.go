package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"emotech-quiz-service/internal/domain"
)

// QuestionStore is a Postgres-backed implementation of app.QuestionStore.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) Add(ctx context.Context, q domain.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO questions (id, game_code, type, text, options, correct_answer, image_url, hint, ord, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		q.ID, q.GameCode, q.Type, q.Text, options, q.CorrectAnswer, q.ImageURL, q.Hint, q.Order, q.CreatedAt)
	if isUniqueViolation(err) {
		return domain.NewError(domain.KindConflict, "question id already exists")
	}
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *QuestionStore) Get(ctx context.Context, id string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, game_code, type, text, options, correct_answer, image_url, hint, ord, created_at
		 FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, err
}

func (s *QuestionStore) ListByGame(ctx context.Context, gameCode string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, game_code, type, text, options, correct_answer, image_url, hint, ord, created_at
		 FROM questions WHERE game_code = $1 ORDER BY ord, created_at`, gameCode)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q       domain.Question
		options []byte
	)
	err := row.Scan(&q.ID, &q.GameCode, &q.Type, &q.Text, &options, &q.CorrectAnswer, &q.ImageURL, &q.Hint, &q.Order, &q.CreatedAt)
	if err != nil {
		return domain.Question{}, err
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return domain.Question{}, fmt.Errorf("unmarshal options: %w", err)
		}
	}
	return q, nil
}
