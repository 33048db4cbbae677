// Package scraper fetches a URL's content and notes, quality-scores the
// extraction, and picks between a fast HTTP/HTML path and a headless
// browser path depending on the target host's anti-bot posture.
package scraper

import (
	"context"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
	"github.com/codenerd-labs/bookmarkd/internal/logging"
)

// Result is a scrape's extracted content plus the quality score used to
// decide whether a strategy's output is good enough to keep.
type Result struct {
	Title           string
	MetaDescription string
	Headings        []string
	Body            string
	QualityScore    int // 0-10
	Strategy        string
	Partial         bool
}

// Config controls strategy selection and the politeness policy applied
// to every outbound request.
type Config struct {
	StealthHosts       []string
	RequestsPerHour    int
	MinDelay           time.Duration
	MaxDelay           time.Duration
	QualityFloor       int
	MaxExtractedChars  int
	HeadlessBrowserBin string
}

// strategy is one extraction approach. Scraper tries each in order.
type strategy interface {
	name() string
	fetch(ctx context.Context, rawURL string, maxChars int) (Result, error)
}

// Scraper selects and runs extraction strategies with rate limiting.
type Scraper struct {
	cfg        Config
	strategies []strategy
	limiter    *rateLimiter
}

// New builds a Scraper with the fast HTTP path first and the headless
// browser path second; stealth hosts skip straight to headless.
func New(cfg Config) *Scraper {
	if cfg.QualityFloor <= 0 {
		cfg.QualityFloor = 5
	}
	if cfg.MaxExtractedChars <= 0 {
		cfg.MaxExtractedChars = 100_000
	}
	return &Scraper{
		cfg: cfg,
		strategies: []strategy{
			&fastStrategy{},
			&headlessStrategy{bin: cfg.HeadlessBrowserBin},
		},
		limiter: newRateLimiter(cfg.RequestsPerHour, cfg.MinDelay, cfg.MaxDelay),
	}
}

// Scrape fetches rawURL, trying strategies in order and keeping the
// first whose quality score meets the configured floor. If none do, it
// returns the best-effort result from whichever strategy scored
// highest, with Partial set and quality forced to at least 3 so a
// caller never mistakes a degraded scrape for an analysis-ready one.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (Result, error) {
	timer := logging.StartTimer(logging.CategoryScraper, "Scrape")
	defer timer.Stop()

	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return Result{}, apperr.InvalidInput("invalid url", err)
	}

	s.limiter.wait(ctx)

	ordered := s.strategiesFor(rawURL)

	var best Result
	haveBest := false

	for _, strat := range ordered {
		res, err := strat.fetch(ctx, rawURL, s.cfg.MaxExtractedChars)
		if err != nil {
			logging.Get(logging.CategoryScraper).Warn("%s strategy failed for %s: %v", strat.name(), rawURL, err)
			continue
		}
		res.Strategy = strat.name()

		if !haveBest || res.QualityScore > best.QualityScore {
			best = res
			haveBest = true
		}
		if res.QualityScore >= s.cfg.QualityFloor {
			return res, nil
		}
	}

	if !haveBest {
		return Result{}, apperr.ScrapeFailed(0, true, "all scrape strategies failed")
	}

	best.Partial = true
	if best.QualityScore < 3 {
		best.QualityScore = 3
	}
	return best, nil
}

// strategiesFor returns strategies in the order to try them: stealth
// hosts go straight to the headless browser since the fast path is
// known to be blocked or JS-gated there.
func (s *Scraper) strategiesFor(rawURL string) []strategy {
	if !s.isStealthHost(rawURL) {
		return s.strategies
	}
	reordered := make([]strategy, len(s.strategies))
	copy(reordered, s.strategies)
	for i, j := 0, len(reordered)-1; i < j; i, j = i+1, j-1 {
		reordered[i], reordered[j] = reordered[j], reordered[i]
	}
	return reordered
}

func (s *Scraper) isStealthHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, sh := range s.cfg.StealthHosts {
		if host == sh || strings.HasSuffix(host, "."+sh) {
			return true
		}
	}
	return false
}

// rateLimiter enforces a requests-per-hour ceiling plus a randomized
// delay between requests, so a bulk import doesn't look like a scraping
// bot hammering a site.
type rateLimiter struct {
	mu         sync.Mutex
	minDelay   time.Duration
	maxDelay   time.Duration
	interval   time.Duration
	lastAt     time.Time
	sleepSince bool
}

func newRateLimiter(requestsPerHour int, minDelay, maxDelay time.Duration) *rateLimiter {
	if requestsPerHour <= 0 {
		requestsPerHour = 30
	}
	if minDelay <= 0 {
		minDelay = 2 * time.Second
	}
	if maxDelay <= minDelay {
		maxDelay = minDelay + 6*time.Second
	}
	return &rateLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		interval: time.Hour / time.Duration(requestsPerHour),
	}
}

func (r *rateLimiter) wait(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if r.sleepSince {
		elapsed := now.Sub(r.lastAt)
		delay := r.minDelay + time.Duration(rand.Int63n(int64(r.maxDelay-r.minDelay)+1))
		if delay < r.interval {
			delay = r.interval
		}
		if elapsed < delay {
			select {
			case <-ctx.Done():
			case <-time.After(delay - elapsed):
			}
		}
	}
	r.lastAt = time.Now()
	r.sleepSince = true
}
