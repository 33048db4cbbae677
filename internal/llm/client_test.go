package llm

import (
	"context"
	"testing"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
	"github.com/stretchr/testify/require"
)

func TestCallWithoutAPIKeyReturnsLLMUnavailable(t *testing.T) {
	c := New(Config{})
	_, err := c.Call(context.Background(), "", "summarize this", &Schema{Type: "object"})
	require.Error(t, err)
	require.Equal(t, apperr.KindLLMUnavailable, apperr.KindOf(err))
}

func TestNewAppliesDefaults(t *testing.T) {
	c := New(Config{})
	require.Equal(t, "gemini-2.5-flash", c.model)
	require.Equal(t, 3, c.maxRetries)
}
