package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsStealthHostMatchesExactAndSubdomain(t *testing.T) {
	s := New(Config{StealthHosts: []string{"github.com"}})

	require.True(t, s.isStealthHost("https://github.com/foo/bar"))
	require.True(t, s.isStealthHost("https://gist.github.com/foo"))
	require.False(t, s.isStealthHost("https://example.com"))
}

func TestStrategiesForReordersForStealthHosts(t *testing.T) {
	s := New(Config{StealthHosts: []string{"leetcode.com"}})

	ordered := s.strategiesFor("https://leetcode.com/problems/two-sum")
	require.Equal(t, "headless", ordered[0].name())

	ordered = s.strategiesFor("https://example.com")
	require.Equal(t, "fast", ordered[0].name())
}

func TestRateLimiterDelaysSecondCall(t *testing.T) {
	rl := newRateLimiter(3600, 10*time.Millisecond, 20*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	rl.wait(ctx)
	rl.wait(ctx)
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestScrapeRejectsInvalidURL(t *testing.T) {
	s := New(Config{})
	_, err := s.Scrape(context.Background(), "not a url")
	require.Error(t, err)
}
