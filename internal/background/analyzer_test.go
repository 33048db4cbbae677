package background

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
	"github.com/codenerd-labs/bookmarkd/internal/llm"
	"github.com/codenerd-labs/bookmarkd/internal/store"
	"github.com/stretchr/testify/require"
)

type fakeLLMClient struct {
	response json.RawMessage
	err      error
	calls    int
}

func (f *fakeLLMClient) Call(ctx context.Context, apiKey, prompt string, schema *llm.Schema) (json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:", 100)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func alwaysSameKey(userID int64) (string, error) { return "test-key", nil }

func TestAnalyzeOneWritesAnalysis(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.CreateUser("alice", "alice@example.com", "hash", nil)
	require.NoError(t, err)
	res, err := s.UpsertBookmark(uid, store.UpsertItem{URL: "https://go.dev/blog", Title: "Go blog", ExtractedText: "about goroutines"})
	require.NoError(t, err)

	client := &fakeLLMClient{response: json.RawMessage(`{
		"technologies": ["go"],
		"content_type": "article",
		"difficulty": "intermediate",
		"key_concepts": ["goroutines"],
		"relevance_score": 80,
		"learning_path": ["read more go docs"],
		"project_applicability": "backend services",
		"skill_development": ["concurrency"]
	}`)}

	a := New(s, client, alwaysSameKey, nil, Config{})
	item := store.UnanalyzedItem{ContentID: res.ID, UserID: uid, URL: "https://go.dev/blog", Title: "Go blog", ExtractedText: "about goroutines"}
	require.NoError(t, a.analyzeOne(item))
	require.Equal(t, 1, client.calls)

	analysis, err := s.GetAnalysis(res.ID)
	require.NoError(t, err)
	require.NotNil(t, analysis)
	require.Equal(t, store.ContentArticle, analysis.ContentType)
	require.Equal(t, 80, analysis.RelevanceScore)
}

func TestProcessCycleMarksFailureOnLLMError(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.CreateUser("bob", "bob@example.com", "hash", nil)
	require.NoError(t, err)
	res, err := s.UpsertBookmark(uid, store.UpsertItem{URL: "https://example.com", Title: "Example"})
	require.NoError(t, err)

	client := &fakeLLMClient{err: context.DeadlineExceeded}

	a := New(s, client, alwaysSameKey, nil, Config{BatchSize: 10})
	a.processCycle()

	b, err := s.GetBookmark(uid, res.ID)
	require.NoError(t, err)
	require.NotNil(t, b.AnalysisFailedAt)
	require.Equal(t, 1, b.AnalysisAttempts)
}

func TestProcessCycleSkipsWhenNothingUnanalyzed(t *testing.T) {
	s := newTestStore(t)
	client := &fakeLLMClient{}
	a := New(s, client, alwaysSameKey, nil, Config{})
	a.processCycle()
	require.Equal(t, 0, client.calls)
}

func TestAnalyzeOneReservesRateLimitSlotBeforeLLMCall(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.CreateUser("carol", "carol@example.com", "hash", nil)
	require.NoError(t, err)
	res, err := s.UpsertBookmark(uid, store.UpsertItem{URL: "https://example.com", Title: "Example"})
	require.NoError(t, err)

	client := &fakeLLMClient{response: json.RawMessage(`{"technologies":[],"content_type":"article","difficulty":"beginner","relevance_score":50}`)}
	denied := func(userID int64) error { return apperr.RateLimited(time.Second, "per-minute request limit reached") }

	a := New(s, client, alwaysSameKey, denied, Config{})
	item := store.UnanalyzedItem{ContentID: res.ID, UserID: uid, URL: "https://example.com", Title: "Example"}
	err = a.analyzeOne(item)
	require.Error(t, err)
	require.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
	require.Equal(t, 0, client.calls, "the model must never be called once the reservation is denied")
}

func TestProcessCyclePausesInsteadOfFailingOnRateLimit(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.CreateUser("dave", "dave@example.com", "hash", nil)
	require.NoError(t, err)
	res, err := s.UpsertBookmark(uid, store.UpsertItem{URL: "https://example.com", Title: "Example"})
	require.NoError(t, err)

	client := &fakeLLMClient{}
	denied := func(userID int64) error { return apperr.RateLimited(time.Millisecond, "per-minute request limit reached") }

	a := New(s, client, alwaysSameKey, denied, Config{Interval: time.Second})
	a.processCycle()

	b, err := s.GetBookmark(uid, res.ID)
	require.NoError(t, err)
	require.Nil(t, b.AnalysisFailedAt, "a self-imposed rate-limit pause is not an analysis failure")
	require.Equal(t, 0, b.AnalysisAttempts)
}

func TestStartStopIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	client := &fakeLLMClient{}
	a := New(s, client, alwaysSameKey, nil, Config{Interval: 10 * time.Millisecond})

	a.Start()
	a.Start() // second call is a no-op, not a second goroutine
	time.Sleep(20 * time.Millisecond)
	a.Stop()
	a.Stop() // second call is a no-op
}
