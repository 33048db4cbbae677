package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUpsertAnalysisClearsFailureState(t *testing.T) {
	s := newTestStore(t)
	uid := mustUser(t, s, "alice")

	res, err := s.UpsertBookmark(uid, UpsertItem{URL: "https://go.dev", Title: "Go"})
	require.NoError(t, err)
	require.NoError(t, s.MarkAnalysisFailed(res.ID))

	b, err := s.GetBookmark(uid, res.ID)
	require.NoError(t, err)
	require.NotNil(t, b.AnalysisFailedAt)
	require.Equal(t, 1, b.AnalysisAttempts)

	err = s.UpsertAnalysis(res.ID, ContentAnalysis{
		Technologies:   []string{"go"},
		ContentType:    ContentDocumentation,
		Difficulty:     DifficultyBeginner,
		RelevanceScore: 80,
	})
	require.NoError(t, err)

	b, err = s.GetBookmark(uid, res.ID)
	require.NoError(t, err)
	require.Nil(t, b.AnalysisFailedAt)
	require.Equal(t, 0, b.AnalysisAttempts)

	a, err := s.GetAnalysis(res.ID)
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, ContentDocumentation, a.ContentType)
	require.Equal(t, []string{"go"}, a.Technologies)
}

func TestListUnanalyzedExcludesAnalyzedAndInCooldown(t *testing.T) {
	s := newTestStore(t)
	uid := mustUser(t, s, "bob")

	analyzed, err := s.UpsertBookmark(uid, UpsertItem{URL: "https://a.com", Title: "A"})
	require.NoError(t, err)
	require.NoError(t, s.UpsertAnalysis(analyzed.ID, ContentAnalysis{ContentType: ContentArticle}))

	failing, err := s.UpsertBookmark(uid, UpsertItem{URL: "https://b.com", Title: "B"})
	require.NoError(t, err)
	require.NoError(t, s.MarkAnalysisFailed(failing.ID))

	pending, err := s.UpsertBookmark(uid, UpsertItem{URL: "https://c.com", Title: "C"})
	require.NoError(t, err)

	items, err := s.ListUnanalyzed(time.Now(), 30*time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, pending.ID, items[0].ContentID)

	items, err = s.ListUnanalyzed(time.Now().Add(time.Hour), 30*time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, items, 2, "after cooldown elapses, the failed item becomes eligible again")
}

func TestListUnanalyzedClaimsItemsSoConcurrentWorkersDontDuplicate(t *testing.T) {
	s := newTestStore(t)
	uid := mustUser(t, s, "eve")

	pending, err := s.UpsertBookmark(uid, UpsertItem{URL: "https://c.com", Title: "C"})
	require.NoError(t, err)

	now := time.Now()
	first, err := s.ListUnanalyzed(now, 30*time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, pending.ID, first[0].ContentID)

	// A second worker polling immediately after must not be handed the
	// same bookmark while the first worker's claim is still live.
	second, err := s.ListUnanalyzed(now, 30*time.Minute, 10)
	require.NoError(t, err)
	require.Empty(t, second)

	// Once the claim expires, the bookmark is eligible again (the first
	// worker never finished, e.g. it crashed).
	third, err := s.ListUnanalyzed(now.Add(claimTTL+time.Second), 30*time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, third, 1)
}
