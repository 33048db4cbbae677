package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/cache"
	"github.com/codenerd-labs/bookmarkd/internal/scraper"
	"github.com/codenerd-labs/bookmarkd/internal/store"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}
func (f *fakeEmbedder) Dimensions() int { return 3 }
func (f *fakeEmbedder) Name() string    { return "fake" }

func richPage(title string) string {
	body := strings.Repeat("Go is a statically typed, compiled language. ", 80)
	return fmt.Sprintf(`<html><head><title>%s</title>
<meta name="description" content="A deep dive into the topic.">
</head><body><h1>%s</h1><h2>Overview</h2><p>%s</p></body></html>`, title, title, body)
}

func thinPage() string {
	return `<html><head></head><body><p>hi</p></body></html>`
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:", 100)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestScraper() *scraper.Scraper {
	return scraper.New(scraper.Config{QualityFloor: 5, RequestsPerHour: 100_000, MinDelay: 0})
}

func TestIngestSavesNewBookmarkWithEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, richPage("Learning Go"))
	}))
	defer srv.Close()

	s := newTestStore(t)
	uid, err := s.CreateUser("alice", "a@example.com", "hash", nil)
	require.NoError(t, err)

	embedder := &fakeEmbedder{}
	p := New(s, newTestScraper(), embedder, cache.New("", true), nil, Config{})

	outcome, err := p.Ingest(context.Background(), uid, Request{URL: srv.URL, Tags: []string{"go"}})
	require.NoError(t, err)
	require.True(t, outcome.Created)
	require.Equal(t, 1, embedder.calls)

	saved, err := s.GetBookmark(uid, outcome.BookmarkID)
	require.NoError(t, err)
	require.Equal(t, "Learning Go", saved.Title)
	require.NotEmpty(t, saved.Embedding)
}

func TestIngestRejectsLowQualityScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, thinPage())
	}))
	defer srv.Close()

	s := newTestStore(t)
	uid, err := s.CreateUser("bob", "b@example.com", "hash", nil)
	require.NoError(t, err)

	p := New(s, newTestScraper(), nil, cache.New("", true), nil, Config{})
	_, err = p.Ingest(context.Background(), uid, Request{URL: srv.URL})
	require.Error(t, err)
}

func TestIngestSkipsRescrapeWhenAlreadySavedAndNotForced(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, richPage("Learning Go"))
	}))
	defer srv.Close()

	s := newTestStore(t)
	uid, err := s.CreateUser("carol", "c@example.com", "hash", nil)
	require.NoError(t, err)

	p := New(s, newTestScraper(), nil, cache.New("", true), nil, Config{})
	first, err := p.Ingest(context.Background(), uid, Request{URL: srv.URL})
	require.NoError(t, err)
	require.True(t, first.Created)
	require.Equal(t, 1, hits)

	second, err := p.Ingest(context.Background(), uid, Request{URL: srv.URL, Category: "programming"})
	require.NoError(t, err)
	require.True(t, second.Skipped)
	require.Equal(t, 1, hits, "should not re-scrape when already saved and not forced")
}

func TestIngestForceRescrapes(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, richPage("Learning Go"))
	}))
	defer srv.Close()

	s := newTestStore(t)
	uid, err := s.CreateUser("dave", "d@example.com", "hash", nil)
	require.NoError(t, err)

	p := New(s, newTestScraper(), nil, cache.New("", true), nil, Config{})
	_, err = p.Ingest(context.Background(), uid, Request{URL: srv.URL})
	require.NoError(t, err)

	_, err = p.Ingest(context.Background(), uid, Request{URL: srv.URL, Force: true})
	require.NoError(t, err)
	require.Equal(t, 2, hits)
}

func TestIngestInvalidatesRecommendationCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, richPage("Learning Go"))
	}))
	defer srv.Close()

	s := newTestStore(t)
	uid, err := s.CreateUser("erin", "e@example.com", "hash", nil)
	require.NoError(t, err)

	ch := cache.New("", true)
	ctx := context.Background()
	recKey := cache.Key(cache.NamespaceRecommendation, "1", "stale")
	ch.Set(ctx, recKey, []byte("stale"), time.Minute)

	p := New(s, newTestScraper(), nil, ch, nil, Config{})
	_, err = p.Ingest(ctx, uid, Request{URL: srv.URL})
	require.NoError(t, err)

	_, ok := ch.Get(ctx, recKey)
	require.False(t, ok, "recommendation cache for the user should be invalidated on ingest")
}
