// Package cache holds single-slot caches for computed reports.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Entry is a cached value and when it was computed.
type Entry[T any] struct {
	Value      T         `json:"value"`
	ComputedAt time.Time `json:"computedAt"`
}

// Slot caches one value with a TTL measured from ComputedAt.
type Slot[T any] interface {
	Get(ctx context.Context) (Entry[T], bool, error)
	Set(ctx context.Context, e Entry[T]) error
	Invalidate(ctx context.Context) error
}

// Load returns the cached entry or computes, stores and returns a fresh one.
// A failing cache backend is logged and falls through to compute.
func Load[T any](ctx context.Context, s Slot[T], now func() time.Time, log *zap.Logger, compute func(context.Context) (T, error)) (Entry[T], error) {
	e, ok, err := s.Get(ctx)
	if err != nil {
		log.Warn("cache read", zap.Error(err))
	}
	if err == nil && ok {
		return e, nil
	}
	v, err := compute(ctx)
	if err != nil {
		return Entry[T]{}, err
	}
	e = Entry[T]{Value: v, ComputedAt: now().UTC()}
	if err := s.Set(ctx, e); err != nil {
		log.Warn("cache write", zap.Error(err))
	}
	return e, nil
}
