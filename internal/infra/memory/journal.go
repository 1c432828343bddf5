package memory

import (
	"context"
	"sync"

	"emotech-quiz-service/internal/domain"
)

// maxJournalEvents caps the per-game event history; the feed is a catch-up
// mechanism, not durable storage.
const maxJournalEvents = 1024

// Journal is an in-memory implementation of app.EventJournal.
type Journal struct {
	mu     sync.RWMutex
	events map[string][]domain.Event
	seqs   map[string]int64
}

func NewJournal() *Journal {
	return &Journal{
		events: make(map[string][]domain.Event),
		seqs:   make(map[string]int64),
	}
}

func (j *Journal) Append(_ context.Context, gameCode string, e domain.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.seqs[gameCode]++
	e.Seq = j.seqs[gameCode]
	events := append(j.events[gameCode], e)
	if len(events) > maxJournalEvents {
		events = events[len(events)-maxJournalEvents:]
	}
	j.events[gameCode] = events
	return nil
}

func (j *Journal) Since(_ context.Context, gameCode string, cursor int64) ([]domain.Event, int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	next := cursor
	var out []domain.Event
	for _, e := range j.events[gameCode] {
		if e.Seq > cursor {
			out = append(out, e)
			if e.Seq > next {
				next = e.Seq
			}
		}
	}
	return out, next, nil
}
