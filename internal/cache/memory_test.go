package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := newMemoryCache(10)
	ctx := context.Background()

	c.Set(ctx, "a", []byte("hello"), time.Minute)
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, []byte("hello"), v)
}

func TestMemoryCacheExpiresEntries(t *testing.T) {
	c := newMemoryCache(10)
	ctx := context.Background()

	c.Set(ctx, "a", []byte("hello"), -time.Second)
	_, ok := c.Get(ctx, "a")
	require.False(t, ok)
}

func TestMemoryCacheEvictsAtCapacity(t *testing.T) {
	c := newMemoryCache(2)
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"), time.Hour)
	c.Set(ctx, "b", []byte("2"), time.Minute)
	c.Set(ctx, "c", []byte("3"), time.Hour)

	require.LessOrEqual(t, len(c.entries), 2)
}

func TestMemoryCacheInvalidatePrefix(t *testing.T) {
	c := newMemoryCache(10)
	ctx := context.Background()

	c.Set(ctx, Key(NamespaceRecommendation, "user1", "p1"), []byte("x"), time.Hour)
	c.Set(ctx, Key(NamespaceRecommendation, "user1", "p2"), []byte("y"), time.Hour)
	c.Set(ctx, Key(NamespaceRecommendation, "user2", "p1"), []byte("z"), time.Hour)

	c.InvalidatePrefix(ctx, Key(NamespaceRecommendation, "user1"))

	_, ok := c.Get(ctx, Key(NamespaceRecommendation, "user1", "p1"))
	require.False(t, ok)
	_, ok = c.Get(ctx, Key(NamespaceRecommendation, "user2", "p1"))
	require.True(t, ok)
}

func TestKeyBuildsNamespacedPath(t *testing.T) {
	require.Equal(t, "rec:1:2", Key(NamespaceRecommendation, "1", "2"))
}
