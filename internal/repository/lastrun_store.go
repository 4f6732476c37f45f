package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/models"
	domrepo "github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/repository"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/cache"
)

const lastRunKey = "runs:last"

// CacheLastRunStore keeps the most recent terminal run in a cache slot.
// One key, overwritten on every terminal run; this is deliberately not a
// run history.
type CacheLastRunStore struct {
	cache cache.Service
	ttl   time.Duration
}

// NewCacheLastRunStore creates the store. A zero ttl keeps the slot until
// the next terminal run overwrites it.
func NewCacheLastRunStore(c cache.Service, ttl time.Duration) *CacheLastRunStore {
	return &CacheLastRunStore{cache: c, ttl: ttl}
}

func (s *CacheLastRunStore) Put(ctx context.Context, lr *models.LastRun) error {
	return s.cache.Set(ctx, lastRunKey, lr, s.ttl)
}

func (s *CacheLastRunStore) Get(ctx context.Context) (*models.LastRun, error) {
	var lr models.LastRun
	if err := s.cache.Get(ctx, lastRunKey, &lr); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrNoLastRun
		}
		return nil, err
	}
	return &lr, nil
}
