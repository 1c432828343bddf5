package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"emotech-quiz-service/internal/anticheat"
	"emotech-quiz-service/internal/domain"
)

// ParticipantStore is a Postgres-backed implementation of app.ParticipantStore.
// The answers table's (participant_id, question_id) primary key is the atomic
// insert-if-absent the duplicate-submission guarantee rests on; the score
// increment rides in the same transaction.
type ParticipantStore struct {
	pool *pgxpool.Pool
}

func NewParticipantStore(pool *pgxpool.Pool) *ParticipantStore {
	return &ParticipantStore{pool: pool}
}

func (s *ParticipantStore) Create(ctx context.Context, p domain.Participant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO participants (id, game_code, name, avatar, joined_at, total_score, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.GameCode, p.Name, p.Avatar, p.JoinedAt, p.TotalScore, p.IsActive)
	if isUniqueViolation(err) {
		return domain.ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (s *ParticipantStore) Get(ctx context.Context, id string) (domain.Participant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, game_code, name, avatar, joined_at, total_score,
		        tab_switches, copy_attempts, dev_tools_attempts, is_active
		 FROM participants WHERE id = $1`, id)
	p, err := scanParticipant(row)
	if err != nil {
		return domain.Participant{}, err
	}

	answers, err := s.answersFor(ctx, id)
	if err != nil {
		return domain.Participant{}, err
	}
	p.Answers = answers
	return p, nil
}

func (s *ParticipantStore) ListByGame(ctx context.Context, gameCode string) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, game_code, name, avatar, joined_at, total_score,
		        tab_switches, copy_attempts, dev_tools_attempts, is_active
		 FROM participants WHERE game_code = $1 ORDER BY seq`, gameCode)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		p.Answers = []domain.AnswerRecord{}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (s *ParticipantStore) RecordAnswer(ctx context.Context, participantID string, rec domain.AnswerRecord) (total int, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO answers (participant_id, question_id, answer, is_correct, score, time_taken, used_hint, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		participantID, rec.QuestionID, rec.Answer, rec.IsCorrect, rec.Score, rec.TimeTaken, rec.UsedHint, rec.SubmittedAt)
	if isUniqueViolation(err) {
		return 0, domain.ErrAlreadyAnswered
	}
	if err != nil {
		return 0, fmt.Errorf("insert answer: %w", err)
	}

	err = tx.QueryRow(ctx,
		`UPDATE participants SET total_score = total_score + $1 WHERE id = $2 RETURNING total_score`,
		rec.Score, participantID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrParticipantNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("apply score: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

func (s *ParticipantStore) RecordCheat(ctx context.Context, entry domain.CheatLog, counter string, points int) (total int, err error) {
	counterColumn := ""
	switch counter {
	case anticheat.CounterTabSwitches:
		counterColumn = "tab_switches"
	case anticheat.CounterCopyAttempts:
		counterColumn = "copy_attempts"
	default:
		counterColumn = "dev_tools_attempts"
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return 0, fmt.Errorf("marshal details: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO cheat_logs (id, participant_id, game_code, type, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.ParticipantID, entry.GameCode, entry.Type, details, entry.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert cheat log: %w", err)
	}

	err = tx.QueryRow(ctx,
		`UPDATE participants
		 SET total_score = total_score - $1, `+counterColumn+` = `+counterColumn+` + 1
		 WHERE id = $2 RETURNING total_score`,
		points, entry.ParticipantID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrParticipantNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("apply penalty: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

func (s *ParticipantStore) ListCheatLogs(ctx context.Context, gameCode string) ([]domain.CheatLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, participant_id, game_code, type, details, created_at
		 FROM cheat_logs WHERE game_code = $1 ORDER BY created_at`, gameCode)
	if err != nil {
		return nil, fmt.Errorf("list cheat logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.CheatLog
	for rows.Next() {
		var (
			entry   domain.CheatLog
			details []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ParticipantID, &entry.GameCode, &entry.Type, &details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cheat log: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *ParticipantStore) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE participants SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

func (s *ParticipantStore) answersFor(ctx context.Context, participantID string) ([]domain.AnswerRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT question_id, answer, is_correct, score, time_taken, used_hint, submitted_at
		 FROM answers WHERE participant_id = $1 ORDER BY submitted_at`, participantID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	answers := []domain.AnswerRecord{}
	for rows.Next() {
		var rec domain.AnswerRecord
		if err := rows.Scan(&rec.QuestionID, &rec.Answer, &rec.IsCorrect, &rec.Score, &rec.TimeTaken, &rec.UsedHint, &rec.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, rec)
	}
	return answers, rows.Err()
}

func scanParticipant(row pgx.Row) (domain.Participant, error) {
	var p domain.Participant
	err := row.Scan(&p.ID, &p.GameCode, &p.Name, &p.Avatar, &p.JoinedAt, &p.TotalScore,
		&p.CheatFlags.TabSwitches, &p.CheatFlags.CopyAttempts, &p.CheatFlags.DevToolsAttempts, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("scan participant: %w", err)
	}
	return p, nil
}
