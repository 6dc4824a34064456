package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"feedbacksurvey/internal/model"
)

// ErrMiss is returned when a key is not cached
var ErrMiss = errors.New("cache miss")

// SessionCache mirrors hosted session state so it can be inspected from
// outside the process that owns the session
type SessionCache interface {
	Set(ctx context.Context, snap *model.SessionSnapshot) error
	Get(ctx context.Context, id string) (*model.SessionSnapshot, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache stores snapshots under session:{id} with the given TTL
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) key(id string) string {
	return "session:" + id
}

func (c *sessionCache) Set(ctx context.Context, snap *model.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(snap.SessionID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.SessionSnapshot, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var snap model.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

type memorySessionCache struct {
	mu    sync.RWMutex
	items map[string]model.SessionSnapshot
}

// NewMemorySessionCache is used when Redis is not configured. Entries never expire;
// the session service deletes them when a session closes.
func NewMemorySessionCache() SessionCache {
	return &memorySessionCache{items: make(map[string]model.SessionSnapshot)}
}

func (c *memorySessionCache) Set(_ context.Context, snap *model.SessionSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *snap
	cp.State.Answers = append([]model.Answer(nil), snap.State.Answers...)
	c.items[snap.SessionID] = cp
	return nil
}

func (c *memorySessionCache) Get(_ context.Context, id string) (*model.SessionSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.items[id]
	if !ok {
		return nil, ErrMiss
	}
	return &snap, nil
}

func (c *memorySessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	return nil
}
