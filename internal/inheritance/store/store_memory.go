package store

import (
	"context"
	"slices"
	"sync"

	"faraid/internal/inheritance/models"
)

// InMemoryStore keeps history in process. Records are copied on the way in
// and out.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.Record
	byOwner map[string][]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*models.Record),
		byOwner: make(map[string][]string),
	}
}

func (s *InMemoryStore) Save(_ context.Context, rec *models.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return ErrConflict
	}
	s.records[rec.ID] = rec.Clone()
	s.byOwner[rec.OwnerID] = append(s.byOwner[rec.OwnerID], rec.ID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, ownerID, id string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID string, limit int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byOwner[ownerID]
	out := make([]*models.Record, 0, min(len(ids), max(limit, 0)))
	for _, id := range ids {
		out = append(out, s.records[id])
	}
	// Insertion order breaks ties so equal timestamps stay newest first.
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b *models.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i, rec := range out {
		out[i] = rec.Clone()
	}
	return out, nil
}
