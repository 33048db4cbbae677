// Package skillgap infers what a user already knows from their
// analyzed bookmarks and boosts recommendations that fill a missing
// prerequisite toward their stated intent.
package skillgap

import (
	"github.com/codenerd-labs/bookmarkd/internal/engine"
	"github.com/codenerd-labs/bookmarkd/internal/intent"
	"github.com/codenerd-labs/bookmarkd/internal/store"
)

// knownThreshold is the minimum number of non-trivial analyses for a
// technology before it counts as "known".
const knownThreshold = 2

// minRelevance is the relevance_score floor for an analysis to count
// toward a technology's known-skill tally.
const minRelevance = 40

const maxBoost = 0.15

// prerequisites is a static dependency graph: learning the key
// technology benefits from first knowing its listed prerequisites.
var prerequisites = map[string][]string{
	"react":      {"javascript"},
	"vue":        {"javascript"},
	"angular":    {"typescript", "javascript"},
	"typescript": {"javascript"},
	"django":     {"python"},
	"flask":      {"python"},
	"fastapi":    {"python"},
	"kubernetes": {"docker"},
	"terraform":  {"aws"},
	"gorm":       {"go", "sql"},
	"grpc":       {"protobuf"},
	"tensorflow": {"python"},
	"pytorch":    {"python"},
}

// Gap is a user's inferred skill standing against a target technology set.
type Gap struct {
	KnownTechnologies    []string
	SkillLevels          map[string]store.Difficulty
	MissingPrerequisites []string
	RecommendedNextSteps []string
	LearningPath         []string
}

// Analyzer computes skill gaps from a user's analyzed bookmarks.
type Analyzer struct {
	store *store.Store
}

// New builds an Analyzer.
func New(st *store.Store) *Analyzer {
	return &Analyzer{store: st}
}

// AnalyzeGap infers userID's known technologies and the gap against the
// target technologies named in in (the request's Intent), if any.
func (a *Analyzer) AnalyzeGap(userID int64, in *intent.Intent) (Gap, error) {
	content, err := a.store.GetOrderedContentForUser(userID)
	if err != nil {
		return Gap{}, err
	}

	type tally struct {
		count        int
		difficulties map[store.Difficulty]int
	}
	byTech := make(map[string]*tally)

	for _, oc := range content {
		if oc.Analysis == nil || oc.Analysis.RelevanceScore < minRelevance {
			continue
		}
		for _, tech := range oc.Analysis.Technologies {
			t, ok := byTech[tech]
			if !ok {
				t = &tally{difficulties: make(map[store.Difficulty]int)}
				byTech[tech] = t
			}
			t.count++
			if oc.Analysis.Difficulty != "" {
				t.difficulties[oc.Analysis.Difficulty]++
			}
		}
	}

	known := make([]string, 0, len(byTech))
	levels := make(map[string]store.Difficulty, len(byTech))
	for tech, t := range byTech {
		if t.count < knownThreshold {
			continue
		}
		known = append(known, tech)
		levels[tech] = dominantDifficulty(t.difficulties)
	}

	var target []string
	if in != nil {
		target = in.SpecificTechnologies
	}

	missing := missingPrerequisites(target, known)
	nextSteps := recommendedNextSteps(missing, known)

	return Gap{
		KnownTechnologies:    known,
		SkillLevels:          levels,
		MissingPrerequisites: missing,
		RecommendedNextSteps: nextSteps,
		LearningPath:         append(append([]string{}, missing...), nextSteps...),
	}, nil
}

func dominantDifficulty(counts map[store.Difficulty]int) store.Difficulty {
	best := store.Difficulty("")
	bestCount := 0
	for d, c := range counts {
		if c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

func missingPrerequisites(target, known []string) []string {
	knownSet := toSet(known)
	var missing []string
	seen := make(map[string]bool)
	for _, tech := range target {
		for _, prereq := range prerequisites[normalize(tech)] {
			if knownSet[prereq] || seen[prereq] {
				continue
			}
			seen[prereq] = true
			missing = append(missing, prereq)
		}
	}
	return missing
}

func recommendedNextSteps(missing, known []string) []string {
	knownSet := toSet(known)
	var steps []string
	seen := make(map[string]bool)
	for tech, prereqs := range prerequisites {
		if knownSet[tech] || seen[tech] {
			continue
		}
		allKnown := true
		for _, p := range prereqs {
			if !knownSet[p] {
				allKnown = false
				break
			}
		}
		if allKnown && len(prereqs) > 0 {
			seen[tech] = true
			steps = append(steps, tech)
		}
	}
	return steps
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[normalize(item)] = true
	}
	return set
}

func normalize(s string) string {
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

// Boost applies up to +15% to candidates whose technologies intersect
// the gap's missing prerequisites or recommended next steps. Applied
// after feedback.Learner.Personalize.
func Boost(candidates []engine.ScoredCandidate, gap Gap) []engine.ScoredCandidate {
	targets := toSet(append(append([]string{}, gap.MissingPrerequisites...), gap.RecommendedNextSteps...))
	if len(targets) == 0 {
		return candidates
	}

	for i := range candidates {
		if candidates[i].Analysis == nil {
			continue
		}
		hit := false
		for _, tech := range candidates[i].Analysis.Technologies {
			if targets[normalize(tech)] {
				hit = true
				break
			}
		}
		if hit {
			candidates[i].Score = clampScore(candidates[i].Score * (1 + maxBoost))
		}
	}
	return candidates
}

func clampScore(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}
