package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codenerd-labs/bookmarkd/internal/cache"
	"github.com/codenerd-labs/bookmarkd/internal/progress"
	"github.com/stretchr/testify/require"
)

func TestBulkIngestProcessesAllItemsAndPublishesTerminalEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, richPage("Page"))
	}))
	defer srv.Close()

	s := newTestStore(t)
	uid, err := s.CreateUser("alice", "a@example.com", "hash", nil)
	require.NoError(t, err)

	prog := progress.New(nil)
	p := New(s, newTestScraper(), nil, cache.New("", true), prog, Config{})

	ctx := context.Background()
	sub := prog.Subscribe(ctx, uid, "job-1", 0)

	reqs := []Request{{URL: srv.URL + "/a"}, {URL: srv.URL + "/b"}, {URL: srv.URL + "/c"}}
	result, err := p.BulkIngest(ctx, uid, "job-1", reqs, nil)
	require.NoError(t, err)
	require.Equal(t, 3, result.Succeeded)
	require.Equal(t, 3, result.Created)
	require.Equal(t, 0, result.Updated)
	require.Equal(t, 0, result.Failed)

	var last progress.Event
	for ev := range sub {
		last = ev
	}
	require.Equal(t, progress.StatusDone, last.Status)
	require.Equal(t, 3, last.Processed)
}

func TestBulkIngestSeparatesCreatedFromUpdated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, richPage("Page"))
	}))
	defer srv.Close()

	s := newTestStore(t)
	uid, err := s.CreateUser("zoe", "z@example.com", "hash", nil)
	require.NoError(t, err)

	p := New(s, newTestScraper(), nil, cache.New("", true), nil, Config{})

	// Save one URL up front so re-importing it below is an update, not a
	// fresh save.
	_, err = p.Ingest(context.Background(), uid, Request{URL: srv.URL + "/already-saved"})
	require.NoError(t, err)

	reqs := []Request{
		{URL: srv.URL + "/already-saved"},
		{URL: srv.URL + "/new-one"},
		{URL: srv.URL + "/new-two"},
	}
	result, err := p.BulkIngest(context.Background(), uid, "job-created-updated", reqs, nil)
	require.NoError(t, err)
	require.Equal(t, 3, result.Succeeded)
	require.Equal(t, 2, result.Created)
	require.Equal(t, 1, result.Updated)
}

func TestBulkIngestCountsFailuresWithoutAbortingJob(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, richPage("Page"))
	}))
	defer srv.Close()

	s := newTestStore(t)
	uid, err := s.CreateUser("bob", "b@example.com", "hash", nil)
	require.NoError(t, err)

	p := New(s, newTestScraper(), nil, cache.New("", true), nil, Config{})
	reqs := []Request{{URL: srv.URL + "/a"}, {URL: srv.URL + "/b"}, {URL: srv.URL + "/c"}}

	result, err := p.BulkIngest(context.Background(), uid, "job-2", reqs, nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.Succeeded)
	require.Equal(t, 1, result.Failed)
}

func TestBulkIngestStopsWhenCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, richPage("Page"))
	}))
	defer srv.Close()

	s := newTestStore(t)
	uid, err := s.CreateUser("carol", "c@example.com", "hash", nil)
	require.NoError(t, err)

	p := New(s, newTestScraper(), nil, cache.New("", true), nil, Config{})
	reqs := []Request{{URL: srv.URL + "/a"}, {URL: srv.URL + "/b"}, {URL: srv.URL + "/c"}}

	calls := 0
	cancelAfterFirst := func(jobID string) bool {
		calls++
		return calls > 1
	}

	result, err := p.BulkIngest(context.Background(), uid, "job-3", reqs, cancelAfterFirst)
	require.NoError(t, err)
	require.True(t, result.Cancelled)
	require.Equal(t, 1, result.Succeeded)
}
