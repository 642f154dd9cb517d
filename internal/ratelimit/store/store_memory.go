package store

import (
	"context"
	"sync"
	"time"

	"faraid/internal/ratelimit/models"
)

// InMemoryStore keeps a sliding window of request timestamps per key. It is
// local to one process; use RedisStore when several replicas share a limit.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// AllowN admits cost requests for key if they fit under limit within window.
// A denied call records nothing.
func (s *InMemoryStore) AllowN(_ context.Context, key string, cost, limit int, window time.Duration) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stamps := prune(s.windows[key], now.Add(-window))

	if len(stamps)+cost > limit {
		s.windows[key] = stamps
		resetAt := now.Add(window)
		if len(stamps) > 0 {
			resetAt = stamps[0].Add(window)
		}
		return &models.Result{
			Allowed:   false,
			Limit:     limit,
			Remaining: max(limit-len(stamps), 0),
			ResetAt:   resetAt,
		}, nil
	}

	for range cost {
		stamps = append(stamps, now)
	}
	s.windows[key] = stamps
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(stamps),
		ResetAt:   stamps[0].Add(window),
	}, nil
}

// Reset forgets key.
func (s *InMemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// prune drops timestamps at or before cutoff. Stamps are in arrival order.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}
