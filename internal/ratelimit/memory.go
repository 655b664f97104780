package ratelimit

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
)

const lockStripes = 64

type (
	memoryStore struct {
		cache *bigcache.BigCache
		locks [lockStripes]sync.Mutex
		now   func() time.Time
	}
)

// NewMemoryStore builds the in-process counter store. Window state lives
// in a bigcache instance whose eviction only bounds memory; correctness
// comes from the window-end timestamp stored with each counter, rolled
// over lazily on the first increment past the boundary.
func NewMemoryStore() (CounterStore, error) {
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(24*time.Hour))
	if err != nil {
		return nil, err
	}
	return &memoryStore{cache: cache, now: time.Now}, nil
}

func (m *memoryStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	// per-key read-modify-write must be atomic; stripe locks by key hash
	mu := &m.locks[xxhash.Sum64String(key)%lockStripes]
	mu.Lock()
	defer mu.Unlock()

	now := m.now()
	var count int64
	var windowEnd time.Time
	if buf, err := m.cache.Get(key); err == nil && len(buf) == 16 {
		count = int64(binary.BigEndian.Uint64(buf[:8]))
		windowEnd = time.Unix(0, int64(binary.BigEndian.Uint64(buf[8:])))
	} else if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return 0, 0, err
	}
	if count == 0 || !now.Before(windowEnd) {
		count = 0
		windowEnd = now.Add(window)
	}
	count++

	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], uint64(count))
	binary.BigEndian.PutUint64(buf[8:], uint64(windowEnd.UnixNano()))
	if err := m.cache.Set(key, buf); err != nil {
		return 0, 0, err
	}
	return count, windowEnd.Sub(now), nil
}
