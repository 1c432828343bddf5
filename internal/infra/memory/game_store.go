package memory

import (
	"context"
	"sync"
	"time"

	"emotech-quiz-service/internal/domain"
)

// GameStore is an in-memory implementation of app.GameStore.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]domain.Game
}

func NewGameStore() *GameStore {
	return &GameStore{games: make(map[string]domain.Game)}
}

func (s *GameStore) Create(_ context.Context, g domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.Code]; ok {
		return domain.NewError(domain.KindConflict, "game code already in use")
	}
	s.games[g.Code] = g
	return nil
}

func (s *GameStore) Get(_ context.Context, code string) (domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[code]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return game, nil
}

func (s *GameStore) Transition(_ context.Context, code string, from, to domain.GameStatus, at time.Time) (domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[code]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if game.Status != from {
		return domain.Game{}, domain.ErrInvalidTransition
	}

	game.Status = to
	stamp := at
	switch to {
	case domain.GameInProgress:
		game.StartedAt = &stamp
	case domain.GameCompleted:
		game.EndedAt = &stamp
	}
	s.games[code] = game
	return game, nil
}
