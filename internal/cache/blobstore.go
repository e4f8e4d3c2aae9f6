// Package cache implements the fleet-wide keyed blob store: snapshot
// cache, in-flight markers, and monthly credit counters. Every Coordinator and
// the snapshot fetcher share one Store instance so these are global rather
// than per-process, mirroring the teacher's Redis-or-in-memory
// EventBus dual-mode construction.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the keyed blob store contract: TTL'd byte blobs plus the atomic
// primitives the snapshot fetcher's in-flight marker and credit quota need.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX sets key only if absent, returning whether it was newly set.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Incr atomically increments a counter key, creating it with the given
	// TTL on first use, and returns the new value.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, key string) error
}

// NewStore returns a Redis-backed Store when addr is non-empty, falling
// back to an in-memory Store otherwise (single-process deployments, local
// development, tests).
func NewStore(addr string) Store {
	if addr == "" {
		return newMemoryStore()
	}
	return newRedisStore(addr)
}

// --- Redis implementation ---

type redisStore struct {
	client *redis.Client
}

func newRedisStore(addr string) *redisStore {
	return &redisStore{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, ttl).Result()
}

func (r *redisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		r.client.Expire(ctx, key, ttl)
	}
	return n, nil
}

func (r *redisStore) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// --- in-memory fallback ---

type memoryEntry struct {
	value    []byte
	expireAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func newMemoryStore() *memoryStore {
	s := &memoryStore{entries: make(map[string]memoryEntry)}
	go s.cleanupExpired()
	return s
}

func (m *memoryStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		m.mu.Lock()
		now := time.Now()
		for k, e := range m.entries {
			if !e.expireAt.IsZero() && now.After(e.expireAt) {
				delete(m.entries, k)
			}
		}
		m.mu.Unlock()
	}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expireAt time.Time
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}
	m.entries[key] = memoryEntry{value: value, expireAt: expireAt}
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		if e.expireAt.IsZero() || time.Now().Before(e.expireAt) {
			return false, nil
		}
	}
	var expireAt time.Time
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}
	m.entries[key] = memoryEntry{value: value, expireAt: expireAt}
	return true, nil
}

func (m *memoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if ok && !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		ok = false
	}

	var n int64
	if ok {
		n = parseInt64(e.value) + 1
	} else {
		n = 1
	}

	expireAt := e.expireAt
	if !ok {
		expireAt = time.Now().Add(ttl)
	}
	m.entries[key] = memoryEntry{value: formatInt64(n), expireAt: expireAt}
	return n, nil
}

func (m *memoryStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func parseInt64(b []byte) int64 {
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int64(c-'0')
	}
	return n
}

func formatInt64(n int64) []byte {
	if n == 0 {
		return []byte("0")
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return buf[i:]
}
