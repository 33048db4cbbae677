package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCrossUserIsolation verifies that no Store read can surface another
// user's bookmarks, feedback, or projects, even when ids collide.
func TestCrossUserIsolation(t *testing.T) {
	s := newTestStore(t)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	aliceBookmark, err := s.UpsertBookmark(alice, UpsertItem{URL: "https://secret.com", Title: "Alice's secret"})
	require.NoError(t, err)

	_, err = s.GetBookmark(bob, aliceBookmark.ID)
	require.Error(t, err, "bob must not be able to read alice's bookmark by id")

	bobList, err := s.ListBookmarks(bob, BookmarkFilter{}, Page{Limit: 50})
	require.NoError(t, err)
	require.Empty(t, bobList)

	require.Error(t, s.DeleteBookmark(bob, aliceBookmark.ID))

	aliceList, err := s.ListBookmarks(alice, BookmarkFilter{}, Page{Limit: 50})
	require.NoError(t, err)
	require.Len(t, aliceList, 1, "alice's bookmark must survive bob's failed delete attempt")

	projectID, err := s.CreateProject(alice, "Alice Project", "", nil)
	require.NoError(t, err)
	_, err = s.GetProject(bob, projectID)
	require.Error(t, err)

	_, err = s.RecordFeedback(alice, UserFeedback{ContentID: aliceBookmark.ID, FeedbackType: FeedbackSaved})
	require.NoError(t, err)

	bobFeedback, err := s.ListFeedback(bob, aliceList[0].SavedAt)
	require.NoError(t, err)
	require.Empty(t, bobFeedback)
}
