package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"emotech-quiz-service/internal/domain"
)

// Journal is a Redis-backed implementation of app.EventJournal. Events live in
// a per-game list (RPUSH) whose length doubles as the sequence number, so
// cursors are stable across restarts as long as the key lives.
type Journal struct {
	client *redis.Client
	ttl    time.Duration
}

func NewJournal(client *redis.Client, ttl time.Duration) *Journal {
	return &Journal{client: client, ttl: ttl}
}

func (j *Journal) Append(ctx context.Context, gameCode string, e domain.Event) error {
	key := j.key(gameCode)

	// Seq is derived from list position at read time, so it is not stored.
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := j.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if j.ttl > 0 {
		pipe.Expire(ctx, key, j.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (j *Journal) Since(ctx context.Context, gameCode string, cursor int64) ([]domain.Event, int64, error) {
	key := j.key(gameCode)

	raw, err := j.client.LRange(ctx, key, cursor, -1).Result()
	if err != nil {
		return nil, cursor, fmt.Errorf("read events: %w", err)
	}

	events := make([]domain.Event, 0, len(raw))
	next := cursor
	for i, item := range raw {
		var e domain.Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, cursor, fmt.Errorf("decode event: %w", err)
		}
		e.Seq = cursor + int64(i) + 1
		events = append(events, e)
		next = e.Seq
	}
	return events, next, nil
}

func (j *Journal) key(gameCode string) string {
	return "quiz:" + gameCode + ":events"
}
