package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache stores encoded values by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// flighter is implemented by caches that deduplicate concurrent loads. Each
// instance owns its group so equal keys in different caches never merge.
type flighter interface {
	flights() *singleflight.Group
}

// Load returns the cached value for key, or calls load, caches its result and
// returns it. Concurrent loads of the same key on the same cache share one
// call. Cache failures are logged and never fail the request.
func Load[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return load(ctx)
	}

	if data, ok, err := c.Get(ctx, key); err != nil {
		slog.Warn("cache get failed", "key", key, "error", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
	}

	fill := func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(v); err == nil {
			if err := c.Set(ctx, key, data, ttl); err != nil {
				slog.Warn("cache set failed", "key", key, "error", err)
			}
		}
		return v, nil
	}

	var (
		v   any
		err error
	)
	if f, ok := c.(flighter); ok {
		v, err, _ = f.flights().Do(key, fill)
	} else {
		v, err = fill()
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Invalidate deletes keys, logging failures.
func Invalidate(ctx context.Context, c Cache, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		slog.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}
