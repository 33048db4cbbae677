// Package engine scores a user's saved bookmarks against a
// recommendation request, producing ranked candidates the orchestrator
// further personalizes and explains.
package engine

import (
	"context"

	"github.com/codenerd-labs/bookmarkd/internal/intent"
	"github.com/codenerd-labs/bookmarkd/internal/store"
)

// Request carries everything an engine needs to score a user's
// bookmarks for one recommendation call.
type Request struct {
	UserID           int64
	Text             string
	Technologies     []string
	Intent           *intent.Intent
	MaxResults       int
	DiversityWeight  float64
	MinQuality       int
	EnginePreference string // "fast" forces the fast engine; any other value leaves the choice to candidate count
}

// ScoreComponents breaks a candidate's total score down by contributing
// factor, carried through so Explainer can reference the dominant one
// without ever leaking a raw numeric score to the user.
type ScoreComponents struct {
	TechnologyOverlap  float64
	SemanticSimilarity float64
	ContentTypeMatch   float64
	DifficultyMatch    float64
	QualityScore       float64
	IntentAlignment    float64
}

// ScoredCandidate is one bookmark with its computed score and the
// breakdown an explainer or re-ranker can reason about.
type ScoredCandidate struct {
	Bookmark   store.Bookmark
	Analysis   *store.ContentAnalysis
	Score      float64 // 0-100
	Components ScoreComponents
	Confidence float64
}

// Scorer is the contract both engines implement.
type Scorer interface {
	Score(ctx context.Context, req Request, candidates []store.OrderedContent) ([]ScoredCandidate, error)
	Name() string
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func technologyOverlap(requested, candidate []string) float64 {
	if len(requested) == 0 || len(candidate) == 0 {
		return 0
	}
	want := make(map[string]bool, len(requested))
	for _, t := range requested {
		want[normalizeTech(t)] = true
	}
	hits := 0
	for _, t := range candidate {
		if want[normalizeTech(t)] {
			hits++
		}
	}
	return float64(hits) / float64(len(requested))
}

func normalizeTech(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

func contentTypeMatch(goal string, ct store.ContentType) float64 {
	switch goal {
	case intent.GoalLearn:
		if ct == store.ContentTutorial || ct == store.ContentCourse {
			return 1
		}
	case intent.GoalBuild:
		if ct == store.ContentGuide || ct == store.ContentReference {
			return 1
		}
	case intent.GoalOptimize:
		if ct == store.ContentArticle || ct == store.ContentDocumentation {
			return 1
		}
	}
	if ct == "" {
		return 0
	}
	return 0.3
}

func difficultyMatch(stage string, d store.Difficulty) float64 {
	switch {
	case stage == intent.StageBeginner && d == store.DifficultyBeginner:
		return 1
	case stage == intent.StageIntermediate && d == store.DifficultyIntermediate:
		return 1
	case stage == intent.StageAdvanced && d == store.DifficultyAdvanced:
		return 1
	case d == "":
		return 0
	default:
		return 0.3
	}
}

func intentAlignment(req Request, oc store.OrderedContent) float64 {
	if req.Intent == nil {
		return 0
	}
	score := 0.0
	if oc.Analysis != nil {
		score += technologyOverlap(req.Intent.SpecificTechnologies, oc.Analysis.Technologies)
	}
	score += contentTypeMatch(req.Intent.PrimaryGoal, contentType(oc))
	return clamp01(score / 2)
}

func contentType(oc store.OrderedContent) store.ContentType {
	if oc.Analysis == nil {
		return ""
	}
	return oc.Analysis.ContentType
}

func difficultyOf(oc store.OrderedContent) store.Difficulty {
	if oc.Analysis == nil {
		return ""
	}
	return oc.Analysis.Difficulty
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sortAndFilter applies the shared post-processing: filter below the
// fixed score floor of 25, sort descending with tie-breaks
// (higher quality, newer saved_at, lower id), cap at req.MaxResults.
func sortAndFilter(req Request, scored []ScoredCandidate) []ScoredCandidate {
	const scoreFloor = 25.0

	filtered := scored[:0:0]
	for _, c := range scored {
		if c.Score < scoreFloor {
			continue
		}
		filtered = append(filtered, c)
	}

	for i := 1; i < len(filtered); i++ {
		j := i
		for j > 0 && less(filtered[j], filtered[j-1]) {
			filtered[j], filtered[j-1] = filtered[j-1], filtered[j]
			j--
		}
	}

	max := req.MaxResults
	if max <= 0 {
		max = 20
	}
	if len(filtered) > max {
		filtered = filtered[:max]
	}
	return filtered
}

// less reports whether a should sort before b: higher score first, then
// higher quality_score, then newer saved_at, then lower id.
func less(a, b ScoredCandidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Bookmark.QualityScore != b.Bookmark.QualityScore {
		return a.Bookmark.QualityScore > b.Bookmark.QualityScore
	}
	if !a.Bookmark.SavedAt.Equal(b.Bookmark.SavedAt) {
		return a.Bookmark.SavedAt.After(b.Bookmark.SavedAt)
	}
	return a.Bookmark.ID < b.Bookmark.ID
}
