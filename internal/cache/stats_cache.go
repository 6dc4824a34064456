package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"feedbacksurvey/internal/model"
)

// MaxTexts is how many recent free-text answers are kept per question
const MaxTexts = 50

// StatsCache keeps running answer tallies per question
type StatsCache interface {
	// Record adds one submitted response to the tallies
	Record(ctx context.Context, answers []model.Answer) error
	// Counts returns rating value -> number of responses
	Counts(ctx context.Context, questionID int) (map[int]int64, error)
	// Texts returns the most recent text answers, newest first
	Texts(ctx context.Context, questionID int, limit int) ([]string, error)
	// TextTotal returns how many responses answered a text question
	TextTotal(ctx context.Context, questionID int) (int64, error)
}

type statsCache struct {
	client *redis.Client
	prefix string
}

// NewStatsCache creates a Redis-backed stats cache. Ratings live in a ZSET
// per question (member = rating value, score = count), texts in a capped list.
func NewStatsCache(client *redis.Client, questionnaire string) StatsCache {
	return &statsCache{
		client: client,
		prefix: "survey:" + questionnaire,
	}
}

func (c *statsCache) ratingsKey(questionID int) string {
	return fmt.Sprintf("%s:q:%d:ratings", c.prefix, questionID)
}

func (c *statsCache) textsKey(questionID int) string {
	return fmt.Sprintf("%s:q:%d:texts", c.prefix, questionID)
}

func (c *statsCache) textCountKey(questionID int) string {
	return fmt.Sprintf("%s:q:%d:count", c.prefix, questionID)
}

func (c *statsCache) Record(ctx context.Context, answers []model.Answer) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, a := range answers {
			switch a.Value.Kind {
			case model.QuestionKindRating:
				pipe.ZIncrBy(ctx, c.ratingsKey(a.QuestionID), 1, strconv.Itoa(a.Value.Rating))
			case model.QuestionKindText:
				pipe.Incr(ctx, c.textCountKey(a.QuestionID))
				if a.Value.Text == "" {
					continue
				}
				pipe.LPush(ctx, c.textsKey(a.QuestionID), a.Value.Text)
				pipe.LTrim(ctx, c.textsKey(a.QuestionID), 0, MaxTexts-1)
			}
		}
		return nil
	})
	return err
}

func (c *statsCache) Counts(ctx context.Context, questionID int) (map[int]int64, error) {
	results, err := c.client.ZRangeWithScores(ctx, c.ratingsKey(questionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int64, len(results))
	for _, z := range results {
		member, _ := z.Member.(string)
		value, err := strconv.Atoi(member)
		if err != nil {
			return nil, fmt.Errorf("bad rating member %q: %w", member, err)
		}
		counts[value] = int64(z.Score)
	}
	return counts, nil
}

func (c *statsCache) Texts(ctx context.Context, questionID int, limit int) ([]string, error) {
	if limit <= 0 || limit > MaxTexts {
		limit = MaxTexts
	}
	return c.client.LRange(ctx, c.textsKey(questionID), 0, int64(limit-1)).Result()
}

func (c *statsCache) TextTotal(ctx context.Context, questionID int) (int64, error) {
	n, err := c.client.Get(ctx, c.textCountKey(questionID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

type memoryStatsCache struct {
	mu         sync.RWMutex
	ratings    map[int]map[int]int64
	texts      map[int][]string // newest first
	textCounts map[int]int64
}

// NewMemoryStatsCache is the in-process variant used without Redis
func NewMemoryStatsCache() StatsCache {
	return &memoryStatsCache{
		ratings:    make(map[int]map[int]int64),
		texts:      make(map[int][]string),
		textCounts: make(map[int]int64),
	}
}

func (c *memoryStatsCache) Record(_ context.Context, answers []model.Answer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range answers {
		switch a.Value.Kind {
		case model.QuestionKindRating:
			if c.ratings[a.QuestionID] == nil {
				c.ratings[a.QuestionID] = make(map[int]int64)
			}
			c.ratings[a.QuestionID][a.Value.Rating]++
		case model.QuestionKindText:
			c.textCounts[a.QuestionID]++
			if a.Value.Text == "" {
				continue
			}
			texts := append([]string{a.Value.Text}, c.texts[a.QuestionID]...)
			if len(texts) > MaxTexts {
				texts = texts[:MaxTexts]
			}
			c.texts[a.QuestionID] = texts
		}
	}
	return nil
}

func (c *memoryStatsCache) Counts(_ context.Context, questionID int) (map[int]int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	counts := make(map[int]int64, len(c.ratings[questionID]))
	for k, v := range c.ratings[questionID] {
		counts[k] = v
	}
	return counts, nil
}

func (c *memoryStatsCache) Texts(_ context.Context, questionID int, limit int) ([]string, error) {
	if limit <= 0 || limit > MaxTexts {
		limit = MaxTexts
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	texts := c.texts[questionID]
	if len(texts) > limit {
		texts = texts[:limit]
	}
	return append([]string(nil), texts...), nil
}

func (c *memoryStatsCache) TextTotal(_ context.Context, questionID int) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.textCounts[questionID], nil
}
