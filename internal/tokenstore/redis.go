package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/johnpapajani/rezi-web-sub002/internal/errs"
)

// RedisBackend stores entries in Redis under a common prefix. It suits
// embeddings of the SDK where the session must survive process restarts on a
// shared host (kiosk terminals, backend-for-frontend deployments).
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisBackend wraps an existing Redis client. prefix namespaces the three
// session keys, typically one prefix per end user.
func NewRedisBackend(rdb *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{rdb: rdb, prefix: prefix}
}

// Get returns the stored value or errs.ErrNotFound.
func (r *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errs.ErrNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

// SetAll stores every entry in one MSET, which Redis applies atomically.
func (r *RedisBackend) SetAll(ctx context.Context, entries map[string]string) error {
	args := make([]any, 0, len(entries)*2)
	for k, v := range entries {
		args = append(args, r.prefix+k, v)
	}
	if err := r.rdb.MSet(ctx, args...).Err(); err != nil {
		return fmt.Errorf("redis mset: %w", err)
	}
	return nil
}

// DeleteAll removes the keys in one DEL.
func (r *RedisBackend) DeleteAll(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	if err := r.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
