package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisLimiter shares the window across dashboard replicas; it degrades to
// the in-memory fallback when redis is unreachable.
type RedisLimiter struct {
	Client   *redis.Client
	Window   time.Duration
	Prefix   string
	Fallback *InMemoryLimiter
}

func NewRedis(client *redis.Client, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		Client:   client,
		Window:   window,
		Prefix:   "rl:",
		Fallback: NewInMemory(window),
	}
}

func (l *RedisLimiter) Allow(key string, limit int) Decision {
	if limit <= 0 {
		limit = 1
	}
	if l.Client == nil {
		return l.fallback(key, limit)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	redisKey := l.Prefix + key
	res, err := rateLimitScript.Run(ctx, l.Client, []string{redisKey}, int(l.Window.Milliseconds())).Result()
	if err != nil {
		return l.fallback(key, limit)
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return l.fallback(key, limit)
	}
	count, ok := toInt(vals[0])
	if !ok {
		return l.fallback(key, limit)
	}
	ttlMS, ok := toInt(vals[1])
	if !ok || ttlMS < 0 {
		ttlMS = int(l.Window.Milliseconds())
	}
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit,
		Count:     count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().UTC().Add(time.Duration(ttlMS) * time.Millisecond),
	}
}

func (l *RedisLimiter) fallback(key string, limit int) Decision {
	if l.Fallback != nil {
		return l.Fallback.Allow(key, limit)
	}
	return Decision{Allowed: true, Count: 0, Limit: limit, Remaining: limit, ResetAt: time.Now().UTC().Add(l.Window)}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
