package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the dumb key/value boundary the session layer persists through.
// No validation happens here; that is the route guard's job.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// ErrNotFound is returned when a key was never set or has been cleared.
var ErrNotFound = errors.New("store: key not found")

// RedisKV wraps go-redis.
type RedisKV struct{ client *redis.Client }

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	res, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return res, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// MemoryKV is a simple in-memory TTL store used when redis is unavailable.
type MemoryKV struct {
	mu    sync.Mutex
	items map[string]memItem
}

type memItem struct {
	value     string
	expiresAt time.Time
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: map[string]memItem{}}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
	item, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return item.value, nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
	expires := time.Time{}
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	m.items[key] = memItem{value: value, expiresAt: expires}
	return nil
}

func (m *MemoryKV) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *MemoryKV) cleanupLocked() {
	now := time.Now()
	for k, v := range m.items {
		if !v.expiresAt.IsZero() && now.After(v.expiresAt) {
			delete(m.items, k)
		}
	}
}

// NewKV tries redis, falls back to memory.
func NewKV(ctx context.Context, client *redis.Client) KV {
	if client != nil {
		if err := client.Ping(ctx).Err(); err == nil {
			return &RedisKV{client: client}
		}
	}
	return NewMemoryKV()
}
