package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faraid/internal/inheritance/engine"
	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
	"faraid/internal/inheritance/store"
)

func newRecord(t *testing.T, owner string, createdAt time.Time) *models.Record {
	t.Helper()
	res, err := engine.New().Calculate(fiqh.Shafii, models.Estate{Total: decimal.NewFromInt(120000)}, models.HeirCounts{
		fiqh.Husband: 1, fiqh.FullSister: 2, fiqh.Mother: 1,
	})
	require.NoError(t, err)
	return &models.Record{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Madhab:    res.Madhab,
		Result:    res,
		ElapsedMS: 0.25,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
	}
}

func TestInMemoryStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	rec := newRecord(t, "owner-1", time.Now())

	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, "owner-1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	got.Result.Shares[0].Reason = "changed"
	again, err := s.Get(ctx, "owner-1", rec.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again.Result.Shares[0].Reason)
}

func TestInMemoryStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	rec := newRecord(t, "owner-1", time.Now())
	require.NoError(t, s.Save(ctx, rec))

	t.Run("duplicate id", func(t *testing.T) {
		assert.ErrorIs(t, s.Save(ctx, rec), store.ErrConflict)
	})
	t.Run("other owner", func(t *testing.T) {
		_, err := s.Get(ctx, "owner-2", rec.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
	t.Run("unknown id", func(t *testing.T) {
		_, err := s.Get(ctx, "owner-1", uuid.NewString())
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
	t.Run("missing owner", func(t *testing.T) {
		bad := newRecord(t, "", time.Now())
		assert.Error(t, s.Save(ctx, bad))
	})
}

func TestInMemoryStore_ListByOwner(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 5; i++ {
		rec := newRecord(t, "owner-1", base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, rec.ID)
		require.NoError(t, s.Save(ctx, rec))
	}
	require.NoError(t, s.Save(ctx, newRecord(t, "owner-2", base)))

	got, err := s.ListByOwner(ctx, "owner-1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, rec := range got {
		assert.Equal(t, ids[4-i], rec.ID, fmt.Sprintf("position %d", i))
	}

	none, err := s.ListByOwner(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// shareSummary flattens shares to comparable strings; decimals decoded from
// storage may differ in internal scale.
func shareSummary(res *models.Result) []string {
	out := make([]string, 0, len(res.Shares))
	for _, s := range res.Shares {
		out = append(out, fmt.Sprintf("%s %s %s %d", s.Key, s.Fraction, s.Amount.String(), s.Count))
	}
	return out
}
