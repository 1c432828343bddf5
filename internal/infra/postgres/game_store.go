package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"emotech-quiz-service/internal/domain"
)

// codeUniqueViolation is the Postgres error code for unique constraint breaches.
const codeUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// GameStore is a Postgres-backed implementation of app.GameStore.
type GameStore struct {
	pool *pgxpool.Pool
}

func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

func (s *GameStore) Create(ctx context.Context, g domain.Game) error {
	settings, err := json.Marshal(g.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO games (code, title, organizer_id, status, settings, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		g.Code, g.Title, g.OrganizerID, g.Status, settings, g.CreatedAt)
	if isUniqueViolation(err) {
		return domain.NewError(domain.KindConflict, "game code already in use")
	}
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *GameStore) Get(ctx context.Context, code string) (domain.Game, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT code, title, organizer_id, status, settings, created_at, started_at, ended_at
		 FROM games WHERE code = $1`, code)
	return scanGame(row)
}

func (s *GameStore) Transition(ctx context.Context, code string, from, to domain.GameStatus, at time.Time) (domain.Game, error) {
	stampColumn := ""
	switch to {
	case domain.GameInProgress:
		stampColumn = "started_at"
	case domain.GameCompleted:
		stampColumn = "ended_at"
	default:
		return domain.Game{}, domain.ErrInvalidTransition
	}

	// The status predicate makes the transition conditional; a game that
	// already moved on matches zero rows.
	row := s.pool.QueryRow(ctx,
		`UPDATE games SET status = $1, `+stampColumn+` = $2
		 WHERE code = $3 AND status = $4
		 RETURNING code, title, organizer_id, status, settings, created_at, started_at, ended_at`,
		to, at, code, from)
	game, err := scanGame(row)
	if err == nil {
		return game, nil
	}
	if domain.KindOf(err) != domain.KindNotFound {
		return domain.Game{}, err
	}

	// Distinguish a missing game from one in the wrong state.
	if _, getErr := s.Get(ctx, code); getErr != nil {
		return domain.Game{}, getErr
	}
	return domain.Game{}, domain.ErrInvalidTransition
}

func scanGame(row pgx.Row) (domain.Game, error) {
	var (
		g        domain.Game
		settings []byte
	)
	err := row.Scan(&g.Code, &g.Title, &g.OrganizerID, &g.Status, &settings, &g.CreatedAt, &g.StartedAt, &g.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("scan game: %w", err)
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &g.Settings); err != nil {
			return domain.Game{}, fmt.Errorf("unmarshal settings: %w", err)
		}
	}
	return g, nil
}
