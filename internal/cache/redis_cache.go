package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codenerd-labs/bookmarkd/internal/logging"
)

// RedisCache wraps a redis client with an in-process fallback. Every
// Redis error is logged and treated as a miss (Get) or a silent no-op
// (Set/Delete/InvalidatePrefix) rather than propagated, so a Redis
// outage degrades recommendation latency without ever failing a
// request outright.
type RedisCache struct {
	client   *redis.Client
	fallback *memoryCache
}

// New connects to redisURL. If redisURL is empty or disabled is true,
// the returned Cache is purely in-process.
func New(redisURL string, disabled bool) Cache {
	fallback := newMemoryCache(10_000)
	if disabled || redisURL == "" {
		logging.Get(logging.CategoryCache).Info("redis disabled, using in-process cache")
		return fallback
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logging.Get(logging.CategoryCache).Warn("invalid redis url %q: %v, using in-process cache", redisURL, err)
		return fallback
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.Get(logging.CategoryCache).Warn("redis unreachable at %s: %v, using in-process cache", redisURL, err)
		client.Close()
		return fallback
	}

	return &RedisCache{client: client, fallback: fallback}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		return val, true
	}
	if err != redis.Nil {
		logging.Get(logging.CategoryCache).Warn("redis get %q failed: %v", key, err)
	}
	return r.fallback.Get(ctx, key)
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logging.Get(logging.CategoryCache).Warn("redis set %q failed: %v", key, err)
		r.fallback.Set(ctx, key, value, ttl)
	}
}

func (r *RedisCache) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		logging.Get(logging.CategoryCache).Warn("redis delete %q failed: %v", key, err)
	}
	r.fallback.Delete(ctx, key)
}

// InvalidatePrefix scans for matching keys using SCAN (not KEYS, which
// blocks the Redis event loop on large keyspaces) and deletes them in
// batches.
func (r *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) {
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			r.client.Del(ctx, batch...)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		r.client.Del(ctx, batch...)
	}
	if err := iter.Err(); err != nil {
		logging.Get(logging.CategoryCache).Warn("redis scan prefix %q failed: %v", prefix, err)
	}
	r.fallback.InvalidatePrefix(ctx, prefix)
}

// Close releases the underlying Redis connection.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
