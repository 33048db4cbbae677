// Package ingestion turns a URL into a saved, searchable bookmark: scrape,
// quality-gate, embed, persist, and invalidate anything cached against the
// user's old bookmark set. AI content analysis is deliberately left to the
// background analyzer so a save never blocks on an LLM call.
package ingestion

import (
	"context"
	"strconv"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
	"github.com/codenerd-labs/bookmarkd/internal/cache"
	"github.com/codenerd-labs/bookmarkd/internal/embedding"
	"github.com/codenerd-labs/bookmarkd/internal/logging"
	"github.com/codenerd-labs/bookmarkd/internal/progress"
	"github.com/codenerd-labs/bookmarkd/internal/scraper"
	"github.com/codenerd-labs/bookmarkd/internal/store"
)

// Request describes one URL a user wants saved.
type Request struct {
	URL       string
	UserNotes string
	Category  string
	Tags      []string
	Force     bool // re-scrape even if the URL is already saved
}

// Outcome reports what happened to one ingested URL.
type Outcome struct {
	BookmarkID int64
	Created    bool
	Skipped    bool
	Reason     string
}

// Pipeline wires the scrape -> quality-gate -> embed -> persist -> cache
// invalidation flow used by both single-bookmark saves and bulk imports.
type Pipeline struct {
	store        *store.Store
	scraper      *scraper.Scraper
	embedder     embedding.Engine
	cache        cache.Cache
	progress     *progress.Stream
	qualityFloor int
	concurrency  int
}

// Config tunes Pipeline behavior.
type Config struct {
	QualityFloor int // minimum scrape quality (0-10) to accept; default 5
	Concurrency  int // max concurrent scrapes during BulkIngest; default 1
}

// New builds a Pipeline. embedder and cache may be nil: without an
// embedder, bookmarks are saved without a vector; without a cache,
// invalidation is a no-op.
func New(st *store.Store, sc *scraper.Scraper, embedder embedding.Engine, ch cache.Cache, prog *progress.Stream, cfg Config) *Pipeline {
	floor := cfg.QualityFloor
	if floor <= 0 {
		floor = 5
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{store: st, scraper: sc, embedder: embedder, cache: ch, progress: prog, qualityFloor: floor, concurrency: concurrency}
}

// Ingest runs the single-bookmark flow for req, owned by userID.
func (p *Pipeline) Ingest(ctx context.Context, userID int64, req Request) (Outcome, error) {
	timer := logging.StartTimer(logging.CategoryIngestion, "Ingest")
	defer timer.Stop()

	existing, err := p.store.GetBookmarkByURL(userID, req.URL)
	hasExisting := err == nil
	if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return Outcome{}, err
	}

	if hasExisting && !req.Force {
		item := store.UpsertItem{
			URL: req.URL, Title: existing.Title, UserNotes: req.UserNotes, Category: req.Category,
			Tags: req.Tags, ExtractedText: existing.ExtractedText, QualityScore: existing.QualityScore,
			Embedding: existing.Embedding,
		}
		res, err := p.store.UpsertBookmark(userID, item)
		if err != nil {
			return Outcome{}, err
		}
		p.invalidate(ctx, userID)
		return Outcome{BookmarkID: res.ID, Created: false, Skipped: true, Reason: "already saved, metadata updated without re-scraping"}, nil
	}

	scraped, err := p.scraper.Scrape(ctx, req.URL)
	if err != nil {
		return Outcome{}, err
	}
	if scraped.QualityScore < p.qualityFloor {
		return Outcome{}, apperr.ScrapeFailed(scraped.QualityScore, scraped.Partial, "scraped content below quality floor")
	}

	var vec []float32
	if p.embedder != nil {
		canonical := embedding.BuildCanonicalText(embedding.BookmarkText{
			Title:           scraped.Title,
			MetaDescription: scraped.MetaDescription,
			Headings:        scraped.Headings,
			UserNotes:       req.UserNotes,
			Body:            scraped.Body,
		})
		vec, err = p.embedder.Embed(ctx, canonical)
		if err != nil {
			logging.Get(logging.CategoryIngestion).Warn("embedding failed for %s, saving without vector: %v", req.URL, err)
			vec = nil
		}
	}

	res, err := p.store.UpsertBookmark(userID, store.UpsertItem{
		URL:           req.URL,
		Title:         scraped.Title,
		UserNotes:     req.UserNotes,
		Category:      req.Category,
		Tags:          req.Tags,
		ExtractedText: scraped.Body,
		QualityScore:  scraped.QualityScore,
		Embedding:     vec,
	})
	if err != nil {
		return Outcome{}, err
	}

	p.invalidate(ctx, userID)
	return Outcome{BookmarkID: res.ID, Created: res.Created}, nil
}

func (p *Pipeline) invalidate(ctx context.Context, userID int64) {
	if p.cache == nil {
		return
	}
	uid := strconv.FormatInt(userID, 10)
	p.cache.InvalidatePrefix(ctx, cache.Key(cache.NamespaceRecommendation, uid))
	p.cache.Delete(ctx, cache.Key("bookmarks", uid))
}
