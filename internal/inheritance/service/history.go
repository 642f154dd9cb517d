package service

import (
	"context"
	"errors"

	"faraid/internal/inheritance/models"
	"faraid/internal/inheritance/store"
	dErrors "faraid/pkg/domain-errors"
	"faraid/pkg/requestcontext"
)

// History lists the caller's saved calculations, newest first. A limit outside
// (0, listLimit] is replaced by listLimit.
func (s *Service) History(ctx context.Context, limit int) ([]*models.Record, error) {
	owner, err := s.historyOwner(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}
	records, err := s.history.ListByOwner(ctx, owner, limit)
	if err != nil {
		s.metrics.IncrementHistoryError("list")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list history")
	}
	return records, nil
}

// Get returns one of the caller's saved calculations.
func (s *Service) Get(ctx context.Context, id string) (*models.Record, error) {
	owner, err := s.historyOwner(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.history.Get(ctx, owner, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "calculation not found")
		}
		s.metrics.IncrementHistoryError("get")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load calculation")
	}
	return rec, nil
}

func (s *Service) historyOwner(ctx context.Context) (string, error) {
	if s.history == nil {
		return "", dErrors.New(dErrors.CodeUnavailable, "history is disabled")
	}
	owner := requestcontext.OwnerID(ctx)
	if owner == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return owner, nil
}
