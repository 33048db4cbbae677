package engine

import (
	"context"

	"github.com/codenerd-labs/bookmarkd/internal/embedding"
	"github.com/codenerd-labs/bookmarkd/internal/store"
)

// FastSemanticEngine is the lightweight scorer meant for small candidate
// sets or latency-sensitive calls: one embedding call, one batched
// similarity pass, no intent-derived boosts.
type FastSemanticEngine struct {
	embedder embedding.Engine
}

// NewFastSemanticEngine builds a FastSemanticEngine. embedder may be nil,
// in which case the semantic similarity component is skipped entirely
// (the embedder-down branch of the degradation matrix).
func NewFastSemanticEngine(embedder embedding.Engine) *FastSemanticEngine {
	return &FastSemanticEngine{embedder: embedder}
}

func (e *FastSemanticEngine) Name() string { return "fast_semantic" }

func (e *FastSemanticEngine) Score(ctx context.Context, req Request, candidates []store.OrderedContent) ([]ScoredCandidate, error) {
	out, err := e.scoreAll(ctx, req, candidates)
	if err != nil {
		return nil, err
	}
	return sortAndFilter(req, out), nil
}

// scoreAll computes every candidate's base score without filtering or
// sorting, so ContextAwareEngine can layer its boosts on the full set
// before the shared floor/sort/cap pass runs once.
func (e *FastSemanticEngine) scoreAll(ctx context.Context, req Request, candidates []store.OrderedContent) ([]ScoredCandidate, error) {
	var queryVec []float32
	if e.embedder != nil && req.Text != "" {
		if v, err := e.embedder.Embed(ctx, req.Text); err == nil {
			queryVec = v
		}
	}

	out := make([]ScoredCandidate, 0, len(candidates))
	for _, oc := range candidates {
		comp := ScoreComponents{
			TechnologyOverlap: technologyOverlap(req.Technologies, oc.Bookmark.Tags),
			ContentTypeMatch:  contentTypeMatch(goalOf(req), contentType(oc)),
			DifficultyMatch:   difficultyMatch(stageOf(req), difficultyOf(oc)),
			QualityScore:      float64(oc.Bookmark.QualityScore) / 10,
			IntentAlignment:   intentAlignment(req, oc),
		}
		if queryVec != nil && len(oc.Bookmark.Embedding) > 0 {
			if sim, err := embedding.CosineSimilarity(queryVec, oc.Bookmark.Embedding); err == nil {
				comp.SemanticSimilarity = clamp01((sim + 1) / 2)
			}
		}

		score := clampScore(100 * (0.35*comp.TechnologyOverlap +
			0.25*comp.SemanticSimilarity +
			0.15*comp.ContentTypeMatch +
			0.10*comp.DifficultyMatch +
			0.05*comp.QualityScore +
			0.10*comp.IntentAlignment))

		out = append(out, ScoredCandidate{
			Bookmark:   oc.Bookmark,
			Analysis:   oc.Analysis,
			Score:      score,
			Components: comp,
			Confidence: confidenceFor(oc),
		})
	}

	return out, nil
}

func goalOf(req Request) string {
	if req.Intent == nil {
		return ""
	}
	return req.Intent.PrimaryGoal
}

func stageOf(req Request) string {
	if req.Intent == nil {
		return ""
	}
	return req.Intent.LearningStage
}

func confidenceFor(oc store.OrderedContent) float64 {
	if oc.Analysis == nil {
		return 0.5
	}
	return 0.9
}
