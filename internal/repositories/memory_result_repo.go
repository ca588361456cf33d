package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/yoockh/brdextractor/internal/models"
	"github.com/yoockh/brdextractor/internal/utils"
)

type memoryEntry struct {
	result    models.Result
	expiresAt time.Time
}

type memoryResultRepo struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryResultRepo(ttl time.Duration, now func() time.Time) ResultRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &memoryResultRepo{ttl: ttl, now: now, entries: make(map[string]memoryEntry)}
}

func (r *memoryResultRepo) Save(_ context.Context, res *models.Result) error {
	if res == nil || res.ID == "" {
		return utils.E(utils.CodeInvalidArgument, "memoryResultRepo.Save", "result id is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, e := range r.entries {
		if now.After(e.expiresAt) {
			delete(r.entries, id)
		}
	}
	r.entries[res.ID] = memoryEntry{result: *res, expiresAt: now.Add(r.ttl)}
	return nil
}

func (r *memoryResultRepo) Get(_ context.Context, id string) (*models.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	if r.now().After(e.expiresAt) {
		delete(r.entries, id)
		return nil, utils.ErrNotFound
	}
	out := e.result
	return &out, nil
}
