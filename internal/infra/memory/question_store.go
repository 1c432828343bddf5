package memory

import (
	"context"
	"sort"
	"sync"

	"emotech-quiz-service/internal/domain"
)

// QuestionStore is an in-memory implementation of app.QuestionStore.
type QuestionStore struct {
	mu     sync.RWMutex
	byID   map[string]domain.Question
	byGame map[string][]string
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{
		byID:   make(map[string]domain.Question),
		byGame: make(map[string][]string),
	}
}

func (s *QuestionStore) Add(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[q.ID]; ok {
		return domain.NewError(domain.KindConflict, "question id already exists")
	}
	s.byID[q.ID] = q
	s.byGame[q.GameCode] = append(s.byGame[q.GameCode], q.ID)
	return nil
}

func (s *QuestionStore) Get(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.byID[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *QuestionStore) ListByGame(_ context.Context, gameCode string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byGame[gameCode]
	questions := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		questions = append(questions, s.byID[id])
	}
	// Order is a sort key, not necessarily unique; insertion order breaks ties.
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})
	return questions, nil
}
