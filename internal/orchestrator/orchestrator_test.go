package orchestrator

import (
	"context"
	"testing"

	"github.com/codenerd-labs/bookmarkd/internal/cache"
	"github.com/codenerd-labs/bookmarkd/internal/engine"
	"github.com/codenerd-labs/bookmarkd/internal/explain"
	"github.com/codenerd-labs/bookmarkd/internal/feedback"
	"github.com/codenerd-labs/bookmarkd/internal/intent"
	"github.com/codenerd-labs/bookmarkd/internal/skillgap"
	"github.com/codenerd-labs/bookmarkd/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:", 100)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestOrchestrator(t *testing.T, s *store.Store) *Orchestrator {
	t.Helper()
	ch := cache.New("", true)
	fast := engine.NewFastSemanticEngine(nil)
	ctxEngine := engine.NewContextAwareEngine(fast)
	return New(Deps{
		Store:         s,
		Cache:         ch,
		FastEngine:    fast,
		ContextEngine: ctxEngine,
		Intent:        intent.New(s, ch, nil, nil, intent.Config{}),
		Feedback:      feedback.New(s, ch),
		SkillGap:      skillgap.New(s),
		Explainer:     explain.New(nil, nil),
	})
}

func TestGetRecommendationsReturnsScoredItems(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.CreateUser("alice", "a@example.com", "hash", nil)
	require.NoError(t, err)
	_, err = s.UpsertBookmark(uid, store.UpsertItem{URL: "https://go.dev", Title: "Go docs", Tags: []string{"go"}, QualityScore: 8})
	require.NoError(t, err)

	o := newTestOrchestrator(t, s)
	result, err := o.GetRecommendations(context.Background(), Request{UserID: uid, Text: "build an api in go", Technologies: []string{"go"}})
	require.NoError(t, err)
	require.NotEmpty(t, result.Items)
	require.NotEmpty(t, result.Items[0].Reason)
}

func TestGetRecommendationsCachesRepeatRequests(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.CreateUser("bob", "b@example.com", "hash", nil)
	require.NoError(t, err)
	_, err = s.UpsertBookmark(uid, store.UpsertItem{URL: "https://go.dev", Title: "Go docs", Tags: []string{"go"}, QualityScore: 8})
	require.NoError(t, err)

	o := newTestOrchestrator(t, s)
	req := Request{UserID: uid, Text: "build an api in go", Technologies: []string{"go"}}

	first, err := o.GetRecommendations(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Metrics.CacheHit)

	second, err := o.GetRecommendations(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Metrics.CacheHit)
}

func TestGetRecommendationsPropagatesStoreUnavailable(t *testing.T) {
	s := newTestStore(t)
	o := newTestOrchestrator(t, s)
	s.Close()

	_, err := o.GetRecommendations(context.Background(), Request{UserID: 1, Text: "build something"})
	require.Error(t, err)
}

func TestGetRecommendationsSelectsFastEngineForSmallCandidateSets(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.CreateUser("carol", "c@example.com", "hash", nil)
	require.NoError(t, err)
	_, err = s.UpsertBookmark(uid, store.UpsertItem{URL: "https://go.dev", Title: "Go docs", QualityScore: 8, Tags: []string{"go"}})
	require.NoError(t, err)

	o := newTestOrchestrator(t, s)
	result, err := o.GetRecommendations(context.Background(), Request{UserID: uid, Text: "go basics", Technologies: []string{"go"}})
	require.NoError(t, err)
	require.Equal(t, "fast_semantic", result.Metrics.EngineUsed)
}

func TestGetRecommendationsRespectsMinScore(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.CreateUser("dave", "d@example.com", "hash", nil)
	require.NoError(t, err)
	_, err = s.UpsertBookmark(uid, store.UpsertItem{URL: "https://unrelated.com", Title: "Unrelated", Tags: []string{"cobol"}, QualityScore: 1})
	require.NoError(t, err)

	o := newTestOrchestrator(t, s)
	result, err := o.GetRecommendations(context.Background(), Request{UserID: uid, Text: "go basics", Technologies: []string{"go"}, MinScore: 90})
	require.NoError(t, err)
	require.Empty(t, result.Items)
}
