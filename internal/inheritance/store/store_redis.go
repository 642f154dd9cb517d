package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"faraid/internal/inheritance/models"
)

// RedisStore keeps each record as a JSON string and indexes an owner's
// records in a sorted set scored by creation time.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) recordKey(id string) string {
	return s.prefix + "history:record:" + id
}

func (s *RedisStore) ownerKey(ownerID string) string {
	return s.prefix + "history:owner:" + ownerID
}

func (s *RedisStore) Save(ctx context.Context, rec *models.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	created, err := s.client.SetNX(ctx, s.recordKey(rec.ID), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	if !created {
		return ErrConflict
	}

	err = s.client.ZAdd(ctx, s.ownerKey(rec.OwnerID), redis.Z{
		Score:  float64(rec.CreatedAt.UnixMilli()),
		Member: rec.ID,
	}).Err()
	if err != nil {
		_ = s.client.Del(ctx, s.recordKey(rec.ID)).Err()
		return fmt.Errorf("index record: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, ownerID, id string) (*models.Record, error) {
	payload, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	rec, err := decodeRecord(payload)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *RedisStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := s.client.ZRevRange(ctx, s.ownerKey(ownerID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list record ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	out := make([]*models.Record, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a record; skip it.
			continue
		}
		rec, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRecord(payload []byte) (*models.Record, error) {
	var rec models.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
