package engine

import (
	"context"

	"github.com/codenerd-labs/bookmarkd/internal/intent"
	"github.com/codenerd-labs/bookmarkd/internal/store"
)

const ownershipBonus = 0.1

// ContextAwareEngine reuses FastSemanticEngine's scoring skeleton and
// layers intent-driven boosts on top: technology overlap and content
// type get scaled by the user's stated goal, and a relevance_score from
// content analysis (when present) contributes directly.
type ContextAwareEngine struct {
	fast *FastSemanticEngine
}

// NewContextAwareEngine builds a ContextAwareEngine around a
// FastSemanticEngine sharing the same embedder.
func NewContextAwareEngine(fast *FastSemanticEngine) *ContextAwareEngine {
	return &ContextAwareEngine{fast: fast}
}

func (e *ContextAwareEngine) Name() string { return "context_aware" }

func (e *ContextAwareEngine) Score(ctx context.Context, req Request, candidates []store.OrderedContent) ([]ScoredCandidate, error) {
	base, err := e.fast.scoreAll(ctx, req, candidates)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]store.OrderedContent, len(candidates))
	for _, oc := range candidates {
		byID[oc.Bookmark.ID] = oc
	}

	for i := range base {
		oc, ok := byID[base[i].Bookmark.ID]
		if !ok {
			continue
		}

		score := base[i].Score
		score += ownershipBonus * 100

		if req.Intent != nil {
			score += technologyBoost(req.Intent, base[i].Components.TechnologyOverlap)
			score += contentTypeBoost(req.Intent, contentType(oc))
		}
		if oc.Analysis != nil && oc.Analysis.RelevanceScore > 0 {
			score += float64(oc.Analysis.RelevanceScore) * 0.15
		}

		base[i].Score = clampScore(score)
	}

	return sortAndFilter(req, base), nil
}

func technologyBoost(in *intent.Intent, overlap float64) float64 {
	switch in.PrimaryGoal {
	case intent.GoalLearn:
		return overlap * 10
	case intent.GoalBuild, intent.GoalOptimize:
		return overlap * 20
	default:
		return 0
	}
}

func contentTypeBoost(in *intent.Intent, ct store.ContentType) float64 {
	switch {
	case in.PrimaryGoal == intent.GoalLearn && (ct == store.ContentTutorial || ct == store.ContentCourse):
		return 5
	case in.PrimaryGoal == intent.GoalBuild && ct == store.ContentGuide:
		return 5
	case in.PrimaryGoal == intent.GoalOptimize && ct == store.ContentArticle:
		return 5
	default:
		return 0
	}
}
