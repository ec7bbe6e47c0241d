package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Store is the contract between consumers and a cache backend. Values are
// opaque byte payloads; callers own serialization.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	FlushAll(ctx context.Context) error
}

// Producer computes a value on cache miss. The store flag reports whether the
// result should be written back; a failed or empty upstream result returns
// store=false so the next call recomputes instead of pinning a bad entry.
type Producer[T any] func(ctx context.Context) (value T, store bool, err error)

// GetOrCompute returns the value cached under key, or runs produce on a miss.
// On a hit the producer is not invoked. The produced value is written back
// only when the producer succeeds and asks for it to be stored. Backend
// failures are logged and treated as misses; they never mask the produced
// value.
func GetOrCompute[T any](ctx context.Context, s Store, key string, ttl time.Duration, produce Producer[T]) (T, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
	}
	if ok {
		var value T
		if err := json.Unmarshal(data, &value); err == nil {
			return value, nil
		}
		slog.Warn("Dropping unreadable cache entry", "key", key)
		if err := s.Delete(ctx, key); err != nil {
			slog.Warn("Cache delete failed", "key", key, "error", err)
		}
	}

	value, storeValue, err := produce(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if storeValue {
		data, err := json.Marshal(value)
		if err != nil {
			slog.Warn("Cache marshal failed", "key", key, "error", err)
			return value, nil
		}
		if err := s.Set(ctx, key, data, ttl); err != nil {
			slog.Warn("Cache write failed", "key", key, "error", err)
		}
	}

	return value, nil
}
