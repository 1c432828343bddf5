package memory

import (
	"context"
	"sync"

	"emotech-quiz-service/internal/anticheat"
	"emotech-quiz-service/internal/domain"
)

// ParticipantStore is an in-memory implementation of app.ParticipantStore.
// One mutex guards participants, their answers and the cheat log together, so
// the multi-effect operations are atomic units to any concurrent reader.
type ParticipantStore struct {
	mu        sync.RWMutex
	byID      map[string]*domain.Participant
	byGame    map[string][]string
	names     map[string]map[string]struct{} // gameCode -> taken names
	cheatLogs map[string][]domain.CheatLog   // gameCode -> entries
}

func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{
		byID:      make(map[string]*domain.Participant),
		byGame:    make(map[string][]string),
		names:     make(map[string]map[string]struct{}),
		cheatLogs: make(map[string][]domain.CheatLog),
	}
}

func (s *ParticipantStore) Create(_ context.Context, p domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken, ok := s.names[p.GameCode]
	if !ok {
		taken = make(map[string]struct{})
		s.names[p.GameCode] = taken
	}
	if _, exists := taken[p.Name]; exists {
		return domain.ErrNameTaken
	}

	taken[p.Name] = struct{}{}
	stored := p
	s.byID[p.ID] = &stored
	s.byGame[p.GameCode] = append(s.byGame[p.GameCode], p.ID)
	return nil
}

func (s *ParticipantStore) Get(_ context.Context, id string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return snapshot(p), nil
}

func (s *ParticipantStore) ListByGame(_ context.Context, gameCode string) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byGame[gameCode]
	out := make([]domain.Participant, 0, len(ids))
	for _, id := range ids {
		out = append(out, snapshot(s.byID[id]))
	}
	return out, nil
}

func (s *ParticipantStore) RecordAnswer(_ context.Context, participantID string, rec domain.AnswerRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[participantID]
	if !ok {
		return 0, domain.ErrParticipantNotFound
	}
	for _, existing := range p.Answers {
		if existing.QuestionID == rec.QuestionID {
			return 0, domain.ErrAlreadyAnswered
		}
	}

	p.Answers = append(p.Answers, rec)
	p.TotalScore += rec.Score
	return p.TotalScore, nil
}

func (s *ParticipantStore) RecordCheat(_ context.Context, entry domain.CheatLog, counter string, points int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[entry.ParticipantID]
	if !ok {
		return 0, domain.ErrParticipantNotFound
	}

	switch counter {
	case anticheat.CounterTabSwitches:
		p.CheatFlags.TabSwitches++
	case anticheat.CounterCopyAttempts:
		p.CheatFlags.CopyAttempts++
	default:
		p.CheatFlags.DevToolsAttempts++
	}
	p.TotalScore -= points
	s.cheatLogs[entry.GameCode] = append(s.cheatLogs[entry.GameCode], entry)
	return p.TotalScore, nil
}

func (s *ParticipantStore) ListCheatLogs(_ context.Context, gameCode string) ([]domain.CheatLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CheatLog(nil), s.cheatLogs[gameCode]...), nil
}

func (s *ParticipantStore) SetActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	p.IsActive = active
	return nil
}

// snapshot copies a participant so callers never share the store's record.
func snapshot(p *domain.Participant) domain.Participant {
	out := *p
	out.Answers = append([]domain.AnswerRecord(nil), p.Answers...)
	return out
}
