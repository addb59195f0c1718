package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the slot as a JSON blob under one key with a server-side TTL,
// so several processes sharing a store also share the report.
type Redis[T any] struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedis[T any](rdb *redis.Client, key string, ttl time.Duration) *Redis[T] {
	return &Redis[T]{rdb: rdb, key: key, ttl: ttl}
}

func Key(name string) string { return fmt.Sprintf("inv:cache:%s", name) }

func (r *Redis[T]) Get(ctx context.Context) (Entry[T], bool, error) {
	b, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry[T]{}, false, nil
	}
	if err != nil {
		return Entry[T]{}, false, err
	}
	var e Entry[T]
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry[T]{}, false, err
	}
	return e, true, nil
}

func (r *Redis[T]) Set(ctx context.Context, e Entry[T]) error {
	if r.ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key, b, r.ttl).Err()
}

func (r *Redis[T]) Invalidate(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}
