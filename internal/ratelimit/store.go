package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type (
	// CounterStore holds the per-key window state. Incr atomically bumps
	// the counter for key inside the current window, starting a fresh
	// window when none is active, and reports the new count plus how long
	// the window still has to run.
	CounterStore interface {
		Incr(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)
	}
)

// OpenStore selects a counter store from a storage URI: "memory://" for an
// in-process store (state lost on restart, not shared between processes)
// or "redis://..." for a shared networked store.
func OpenStore(uri string) (CounterStore, error) {
	switch {
	case uri == "" || uri == "memory://":
		return NewMemoryStore()
	case strings.HasPrefix(uri, "redis://"), strings.HasPrefix(uri, "rediss://"):
		opts, err := redis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("unable to parse rate limit storage uri, cause %w", err)
		}
		return NewRedisStore(redis.NewClient(opts)), nil
	default:
		return nil, fmt.Errorf("unsupported rate limit storage uri %q", uri)
	}
}
