// Package cache provides namespaced, TTL-bound key/value storage for
// recommendation results, intent analyses, and job progress. It is
// backed by Redis when configured and reachable, and falls back to an
// in-process store when Redis is unavailable — a cache miss is always
// the failure mode, never an error surfaced to the caller.
package cache

import (
	"context"
	"time"
)

// Cache is the interface every component depends on; RedisCache and
// memoryCache both satisfy it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// InvalidatePrefix deletes every key starting with prefix, used when
	// a user's feedback or bookmarks change underneath a cached result.
	InvalidatePrefix(ctx context.Context, prefix string)
}

// Namespace keys so unrelated components never collide even if they
// pick the same logical key.
const (
	NamespaceRecommendation = "rec"
	NamespaceIntent         = "intent"
	NamespaceProgress       = "progress"
	NamespaceEmbedding      = "embed"
)

// Key builds a namespaced cache key from its parts.
func Key(namespace string, parts ...string) string {
	key := namespace
	for _, p := range parts {
		key += ":" + p
	}
	return key
}
