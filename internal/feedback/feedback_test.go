package feedback

import (
	"context"
	"testing"

	"github.com/codenerd-labs/bookmarkd/internal/cache"
	"github.com/codenerd-labs/bookmarkd/internal/engine"
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

func seedAnalyzed(t *testing.T, s *store.Store, uid int64, url string, ct store.ContentType, techs []string) int64 {
	t.Helper()
	res, err := s.UpsertBookmark(uid, store.UpsertItem{URL: url, Title: url})
	require.NoError(t, err)
	require.NoError(t, s.UpsertAnalysis(res.ID, store.ContentAnalysis{
		ContentID:    res.ID,
		ContentType:  ct,
		Technologies: techs,
	}))
	return res.ID
}

func TestGetPreferencesWeightsPositiveEventsUp(t *testing.T) {
	s := newTestStore(t)
	ch := cache.New("", true)
	l := New(s, ch)

	uid, err := s.CreateUser("alice", "a@example.com", "hash", nil)
	require.NoError(t, err)
	cid := seedAnalyzed(t, s, uid, "https://go.dev", store.ContentTutorial, []string{"go"})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := l.RecordFeedback(ctx, uid, store.UserFeedback{ContentID: cid, FeedbackType: store.FeedbackHelpful})
		require.NoError(t, err)
	}

	prefs, err := l.GetPreferences(ctx, uid)
	require.NoError(t, err)
	require.Greater(t, prefs.Weights["technology:go"], 0.0)
	require.Greater(t, prefs.Weights["content_type:tutorial"], 0.0)
}

func TestGetPreferencesWeightsNegativeEventsDown(t *testing.T) {
	s := newTestStore(t)
	ch := cache.New("", true)
	l := New(s, ch)

	uid, err := s.CreateUser("bob", "b@example.com", "hash", nil)
	require.NoError(t, err)
	cid := seedAnalyzed(t, s, uid, "https://example.com/php", store.ContentArticle, []string{"php"})

	ctx := context.Background()
	_, err = l.RecordFeedback(ctx, uid, store.UserFeedback{ContentID: cid, FeedbackType: store.FeedbackNotRelevant})
	require.NoError(t, err)

	prefs, err := l.GetPreferences(ctx, uid)
	require.NoError(t, err)
	require.Less(t, prefs.Weights["technology:php"], 0.0)
}

func TestGetPreferencesCachesUntilRecordFeedbackInvalidates(t *testing.T) {
	s := newTestStore(t)
	ch := cache.New("", true)
	l := New(s, ch)

	uid, err := s.CreateUser("carol", "c@example.com", "hash", nil)
	require.NoError(t, err)
	cid := seedAnalyzed(t, s, uid, "https://go.dev", store.ContentTutorial, []string{"go"})
	ctx := context.Background()

	prefsBefore, err := l.GetPreferences(ctx, uid)
	require.NoError(t, err)
	require.Empty(t, prefsBefore.Weights)

	_, err = l.RecordFeedback(ctx, uid, store.UserFeedback{ContentID: cid, FeedbackType: store.FeedbackSaved})
	require.NoError(t, err)

	prefsAfter, err := l.GetPreferences(ctx, uid)
	require.NoError(t, err)
	require.NotEmpty(t, prefsAfter.Weights)
}

func TestPersonalizeBoostsMatchingCandidatesAndCapsAt20Percent(t *testing.T) {
	s := newTestStore(t)
	ch := cache.New("", true)
	l := New(s, ch)

	uid, err := s.CreateUser("dave", "d@example.com", "hash", nil)
	require.NoError(t, err)
	cid := seedAnalyzed(t, s, uid, "https://go.dev", store.ContentTutorial, []string{"go"})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := l.RecordFeedback(ctx, uid, store.UserFeedback{ContentID: cid, FeedbackType: store.FeedbackHelpful})
		require.NoError(t, err)
	}

	candidates := []engine.ScoredCandidate{
		{
			Bookmark: store.Bookmark{ID: cid},
			Analysis: &store.ContentAnalysis{ContentType: store.ContentTutorial, Technologies: []string{"go"}},
			Score:    50,
		},
	}

	out, err := l.Personalize(ctx, uid, candidates)
	require.NoError(t, err)
	require.InDelta(t, 60.0, out[0].Score, 0.01, "boost should be capped at +20%% of the base score")
}

func TestPersonalizeLeavesScoresUntouchedWithoutHistory(t *testing.T) {
	s := newTestStore(t)
	ch := cache.New("", true)
	l := New(s, ch)

	uid, err := s.CreateUser("erin", "e@example.com", "hash", nil)
	require.NoError(t, err)

	candidates := []engine.ScoredCandidate{{Score: 42}}
	out, err := l.Personalize(context.Background(), uid, candidates)
	require.NoError(t, err)
	require.Equal(t, 42.0, out[0].Score)
}
