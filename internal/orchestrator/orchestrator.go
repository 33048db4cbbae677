// Package orchestrator wires every scoring and personalization stage
// together behind one entry point, applying a degradation matrix so a
// down dependency narrows the result instead of failing the request.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
	"github.com/codenerd-labs/bookmarkd/internal/cache"
	"github.com/codenerd-labs/bookmarkd/internal/engine"
	"github.com/codenerd-labs/bookmarkd/internal/explain"
	"github.com/codenerd-labs/bookmarkd/internal/feedback"
	"github.com/codenerd-labs/bookmarkd/internal/intent"
	"github.com/codenerd-labs/bookmarkd/internal/logging"
	"github.com/codenerd-labs/bookmarkd/internal/ratelimit"
	"github.com/codenerd-labs/bookmarkd/internal/skillgap"
	"github.com/codenerd-labs/bookmarkd/internal/store"
)

const (
	fastCandidateThreshold = 50
	resultCacheTTL         = 5 * time.Minute
	explainConcurrency     = 4
)

// Request is a recommendation request from a user.
type Request struct {
	UserID             int64
	ProjectID          int64
	Text               string
	Technologies       []string
	MaxRecommendations int
	MinScore           float64
	EnginePreference   string
	ForceIntent        bool
}

// Item is one recommendation surfaced to the caller.
type Item struct {
	Bookmark store.Bookmark
	Score    float64
	Reason   string
}

// Metrics reports which stages ran for observability/debugging.
type Metrics struct {
	EngineUsed       string
	CandidateCount   int
	CacheHit         bool
	EmbedderDegraded bool
	LLMDegraded      bool
}

// Result is GetRecommendations' return value.
type Result struct {
	Items   []Item
	Metrics Metrics
}

// Orchestrator is the top-level recommendation entry point.
type Orchestrator struct {
	store      *store.Store
	cache      cache.Cache
	fastEngine engine.Scorer
	ctxEngine  engine.Scorer
	intent     *intent.Analyzer
	feedback   *feedback.Learner
	skillgap   *skillgap.Analyzer
	explainer  *explain.Explainer
	keys       *ratelimit.Registry
	defaultKey string
}

// Deps bundles every component the Orchestrator wires together.
type Deps struct {
	Store         *store.Store
	Cache         cache.Cache
	FastEngine    engine.Scorer
	ContextEngine engine.Scorer
	Intent        *intent.Analyzer
	Feedback      *feedback.Learner
	SkillGap      *skillgap.Analyzer
	Explainer     *explain.Explainer
	Keys          *ratelimit.Registry
	DefaultAPIKey string
}

// New builds an Orchestrator from its dependencies.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{
		store:      deps.Store,
		cache:      deps.Cache,
		fastEngine: deps.FastEngine,
		ctxEngine:  deps.ContextEngine,
		intent:     deps.Intent,
		feedback:   deps.Feedback,
		skillgap:   deps.SkillGap,
		explainer:  deps.Explainer,
		keys:       deps.Keys,
		defaultKey: deps.DefaultAPIKey,
	}
}

// GetRecommendations runs the full recommendation pipeline for req.
func (o *Orchestrator) GetRecommendations(ctx context.Context, req Request) (Result, error) {
	timer := logging.StartTimer(logging.CategoryOrchestrator, "get_recommendations")
	defer timer.Stop()

	if req.MaxRecommendations <= 0 {
		req.MaxRecommendations = 20
	}

	cacheKey := o.cacheKey(req)
	if o.cache != nil {
		if raw, ok := o.cache.Get(ctx, cacheKey); ok {
			var cached Result
			if err := json.Unmarshal(raw, &cached); err == nil {
				cached.Metrics.CacheHit = true
				return cached, nil
			}
		}
	}

	apiKey := o.resolveKey(req.UserID)
	metrics := Metrics{}

	in := o.resolveIntent(ctx, req, apiKey, &metrics)

	candidates, err := o.store.GetOrderedContentForUser(req.UserID)
	if err != nil {
		return Result{}, apperr.StoreUnavailable("fetch candidates for recommendations", err)
	}
	metrics.CandidateCount = len(candidates)

	chosen, name := o.selectEngine(req, len(candidates))
	metrics.EngineUsed = name

	engineReq := engine.Request{
		UserID:           req.UserID,
		Text:             req.Text,
		Technologies:     req.Technologies,
		Intent:           in,
		MaxResults:       req.MaxRecommendations * 3, // generous pre-rerank headroom
		MinQuality:       0,
		EnginePreference: req.EnginePreference,
	}

	scored, err := chosen.Score(ctx, engineReq, candidates)
	if err != nil {
		metrics.EmbedderDegraded = true
		logging.Get(logging.CategoryOrchestrator).Warn("engine scoring degraded: %v", err)
	}

	if o.feedback != nil {
		scored, err = o.feedback.Personalize(ctx, req.UserID, scored)
		if err != nil {
			logging.Get(logging.CategoryOrchestrator).Warn("feedback personalization skipped: %v", err)
		}
	}

	if o.skillgap != nil {
		gap, err := o.skillgap.AnalyzeGap(req.UserID, in)
		if err != nil {
			logging.Get(logging.CategoryOrchestrator).Warn("skill gap analysis skipped: %v", err)
		} else {
			scored = skillgap.Boost(scored, gap)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	floor := req.MinScore
	filtered := scored[:0:0]
	for _, c := range scored {
		if c.Score < floor {
			continue
		}
		filtered = append(filtered, c)
		if len(filtered) >= req.MaxRecommendations {
			break
		}
	}

	items := o.explainAll(ctx, req.UserID, filtered, in, apiKey)

	result := Result{Items: items, Metrics: metrics}
	if o.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			o.cache.Set(ctx, cacheKey, raw, resultCacheTTL)
		}
	}
	return result, nil
}

// explainAll generates a reason for every candidate, up to
// explainConcurrency LLM calls in flight at once; candidates without an
// explainer just keep their bookmark title as the reason. Order matches
// candidates regardless of which goroutine finishes first.
func (o *Orchestrator) explainAll(ctx context.Context, userID int64, candidates []engine.ScoredCandidate, in *intent.Intent, apiKey string) []Item {
	items := make([]Item, len(candidates))
	for i, c := range candidates {
		items[i] = Item{Bookmark: c.Bookmark, Score: c.Score, Reason: c.Bookmark.Title}
	}
	if o.explainer == nil {
		return items
	}

	var g errgroup.Group
	g.SetLimit(explainConcurrency)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			items[i].Reason = o.explainer.Explain(ctx, userID, c, in, apiKey)
			return nil
		})
	}
	g.Wait()
	return items
}

func (o *Orchestrator) resolveKey(userID int64) string {
	if o.keys != nil {
		if key, err := o.keys.GetKey(userID); err == nil && key != "" {
			return key
		}
	}
	return o.defaultKey
}

// fallbackConfidence is what intent.FallbackAnalyze always sets; seeing
// it back means the LLM path failed and the rule-based fallback ran.
const fallbackConfidence = 0.4

func (o *Orchestrator) resolveIntent(ctx context.Context, req Request, apiKey string, metrics *Metrics) *intent.Intent {
	if o.intent == nil || req.Text == "" {
		return nil
	}
	result, err := o.intent.AnalyzeIntent(ctx, req.UserID, req.Text, req.ProjectID, apiKey, req.ForceIntent)
	if err != nil {
		if !apperr.Recoverable(err) {
			logging.Get(logging.CategoryOrchestrator).Warn("intent analysis failed: %v", err)
			return nil
		}
		metrics.LLMDegraded = true
		logging.Get(logging.CategoryOrchestrator).Warn("intent analysis degraded: %v", err)
		return nil
	}
	if result.ConfidenceScore <= fallbackConfidence {
		metrics.LLMDegraded = true
	}
	return &result
}

func (o *Orchestrator) selectEngine(req Request, candidateCount int) (engine.Scorer, string) {
	if req.EnginePreference == "fast" || candidateCount <= fastCandidateThreshold {
		return o.fastEngine, o.fastEngine.Name()
	}
	return o.ctxEngine, o.ctxEngine.Name()
}

// cacheKey derives a stable key from the user and normalized request
// fields, so identical requests always hit the same cache entry.
func (o *Orchestrator) cacheKey(req Request) string {
	techs := append([]string{}, req.Technologies...)
	sort.Strings(techs)
	fingerprint := fmt.Sprintf("%d|%d|%s|%s|%d|%.2f|%s",
		req.UserID, req.ProjectID, strings.ToLower(strings.TrimSpace(req.Text)),
		strings.Join(techs, ","), req.MaxRecommendations, req.MinScore, req.EnginePreference)
	sum := sha256.Sum256([]byte(fingerprint))
	return cache.Key(cache.NamespaceRecommendation, fmt.Sprint(req.UserID), hex.EncodeToString(sum[:])[:16])
}
