package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"parsid/internal/registrar"
	"parsid/pkg/platform/sentinel"
)

const handleKeyPrefix = "parsid:handle:"

// RedisHandleStore shares reservations across registrar instances. Reserve
// relies on SETNX so the first writer wins.
type RedisHandleStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisHandleStore {
	return &RedisHandleStore{client: client}
}

func (s *RedisHandleStore) Reserve(ctx context.Context, handle string, rec registrar.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode handle record: %w", err)
	}
	ok, err := s.client.SetNX(ctx, handleKeyPrefix+handle, payload, 0).Result()
	if err != nil {
		return fmt.Errorf("reserve handle: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisHandleStore) Lookup(ctx context.Context, handle string) (registrar.Record, error) {
	raw, err := s.client.Get(ctx, handleKeyPrefix+handle).Bytes()
	if errors.Is(err, redis.Nil) {
		return registrar.Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return registrar.Record{}, fmt.Errorf("lookup handle: %w", err)
	}
	var rec registrar.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return registrar.Record{}, fmt.Errorf("decode handle record: %w", err)
	}
	return rec, nil
}
