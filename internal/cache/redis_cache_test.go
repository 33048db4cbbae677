package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewFallsBackToMemoryWhenDisabled(t *testing.T) {
	c := New("", true)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)
}

func TestNewFallsBackToMemoryWhenUnreachable(t *testing.T) {
	c := New("redis://127.0.0.1:1/0", false)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)
}
