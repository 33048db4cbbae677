package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", 100)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustUser(t *testing.T, s *Store, username string) int64 {
	t.Helper()
	id, err := s.CreateUser(username, username+"@example.com", "hash", nil)
	require.NoError(t, err)
	return id
}

func TestUpsertBookmarkCreatesThenUpdates(t *testing.T) {
	s := newTestStore(t)
	uid := mustUser(t, s, "alice")

	res, err := s.UpsertBookmark(uid, UpsertItem{URL: "https://go.dev", Title: "Go"})
	require.NoError(t, err)
	require.True(t, res.Created)

	res2, err := s.UpsertBookmark(uid, UpsertItem{URL: "https://go.dev", Title: "The Go Programming Language"})
	require.NoError(t, err)
	require.False(t, res2.Created)
	require.Equal(t, res.ID, res2.ID)

	b, err := s.GetBookmark(uid, res.ID)
	require.NoError(t, err)
	require.Equal(t, "The Go Programming Language", b.Title)
}

func TestGetBookmarkNotFound(t *testing.T) {
	s := newTestStore(t)
	uid := mustUser(t, s, "bob")

	_, err := s.GetBookmark(uid, 999)
	require.Error(t, err)
}

func TestListBookmarksFiltersByCategoryAndQuery(t *testing.T) {
	s := newTestStore(t)
	uid := mustUser(t, s, "carol")

	_, err := s.UpsertBookmark(uid, UpsertItem{URL: "https://a.com", Title: "Flask Tutorial", Category: "python"})
	require.NoError(t, err)
	_, err = s.UpsertBookmark(uid, UpsertItem{URL: "https://b.com", Title: "React Guide", Category: "javascript"})
	require.NoError(t, err)

	results, err := s.ListBookmarks(uid, BookmarkFilter{Category: "python"}, Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Flask Tutorial", results[0].Title)

	results, err = s.ListBookmarks(uid, BookmarkFilter{Query: "React"}, Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestBulkUpsertBookmarksReportsProgress(t *testing.T) {
	s := newTestStore(t)
	uid := mustUser(t, s, "dave")

	var calls []BulkProgress
	items := []UpsertItem{
		{URL: "https://1.com", Title: "One"},
		{URL: "https://2.com", Title: "Two"},
		{URL: "https://3.com", Title: "Three"},
	}
	progress, err := s.BulkUpsertBookmarks(uid, items, func(p BulkProgress) { calls = append(calls, p) })
	require.NoError(t, err)
	require.Equal(t, 3, progress.Processed)
	require.Equal(t, 3, progress.Succeeded)
	require.Len(t, calls, 3)
	require.Equal(t, 3, calls[2].Processed)
}

func TestDeleteBookmarkRemovesRow(t *testing.T) {
	s := newTestStore(t)
	uid := mustUser(t, s, "erin")

	res, err := s.UpsertBookmark(uid, UpsertItem{URL: "https://x.com", Title: "X"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteBookmark(uid, res.ID))
	_, err = s.GetBookmark(uid, res.ID)
	require.Error(t, err)

	require.Error(t, s.DeleteBookmark(uid, res.ID))
}
