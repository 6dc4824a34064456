package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"feedbacksurvey/internal/model"
)

// ErrNotFound is returned when a stored document does not exist
var ErrNotFound = errors.New("not found")

// DefaultListLimit caps List when the caller passes a non-positive limit
const DefaultListLimit = 50

// ResponseRepo stores submitted survey responses
type ResponseRepo interface {
	Create(ctx context.Context, resp *model.Response) error
	GetByID(ctx context.Context, id string) (*model.Response, error)
	// List returns the most recent responses first
	List(ctx context.Context, limit int) ([]*model.Response, error)
	Count(ctx context.Context) (int64, error)
}

type memoryResponseRepo struct {
	mu        sync.RWMutex
	responses map[string]*model.Response
}

// NewMemoryResponseRepo keeps responses in process memory
func NewMemoryResponseRepo() ResponseRepo {
	return &memoryResponseRepo{responses: make(map[string]*model.Response)}
}

func (r *memoryResponseRepo) Create(_ context.Context, resp *model.Response) error {
	if resp.ID == "" {
		return errors.New("response id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *resp
	cp.Answers = append([]model.Answer(nil), resp.Answers...)
	r.responses[resp.ID] = &cp
	return nil
}

func (r *memoryResponseRepo) GetByID(_ context.Context, id string) (*model.Response, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resp, ok := r.responses[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *resp
	return &cp, nil
}

func (r *memoryResponseRepo) List(_ context.Context, limit int) ([]*model.Response, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	r.mu.RLock()
	out := make([]*model.Response, 0, len(r.responses))
	for _, resp := range r.responses {
		cp := *resp
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryResponseRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.responses)), nil
}
