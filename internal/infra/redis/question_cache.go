package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"emotech-quiz-service/internal/app"
	"emotech-quiz-service/internal/domain"
)

// QuestionCache fronts a QuestionStore with a Redis cache of per-game question
// lists. Questions are read on every submit and every game view, so the list
// is cached as JSON under question list key: quiz:{gameCode}:questions.
// Writes pass through and invalidate the cached list.
type QuestionCache struct {
	client *redis.Client
	inner  app.QuestionStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, inner app.QuestionStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Add(ctx context.Context, q domain.Question) error {
	if err := c.inner.Add(ctx, q); err != nil {
		return err
	}
	// Drop the stale list; the next read refills it.
	_ = c.client.Del(ctx, c.listKey(q.GameCode)).Err()
	return nil
}

// Get always hits the inner store: single-question reads are keyed by ID and
// the ID alone does not locate a cached game list.
func (c *QuestionCache) Get(ctx context.Context, id string) (domain.Question, error) {
	return c.inner.Get(ctx, id)
}

func (c *QuestionCache) ListByGame(ctx context.Context, gameCode string) ([]domain.Question, error) {
	key := c.listKey(gameCode)

	if questions, ok := c.fromCache(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(gameCode, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.fromCache(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.inner.ListByGame(ctx, gameCode)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) fromCache(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) listKey(gameCode string) string {
	return "quiz:" + gameCode + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
