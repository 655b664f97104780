package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type (
	redisStore struct {
		client redis.UniversalClient
	}
)

// NewRedisStore builds a counter store on a shared redis backend.
// Atomicity of increment-and-read is delegated to redis itself, so
// multiple server processes pointed at the same instance share one
// consistent set of windows.
func NewRedisStore(client redis.UniversalClient) CounterStore {
	return &redisStore{client: client}
}

func (r *redisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("unable to increment counter %v, cause %w", key, err)
	}
	// fixed-window semantics: the TTL is set only by the first hit in the
	// window, later hits ride on it until it expires
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("unable to set window on counter %v, cause %w", key, err)
		}
	}
	remaining, err := r.client.PTTL(ctx, key).Result()
	if err != nil || remaining < 0 {
		remaining = window
	}
	return count, remaining, nil
}
