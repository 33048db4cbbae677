// Package explain turns a scored recommendation into a short,
// user-facing reason, preferring the language model and falling back to
// a deterministic template so a reason is always produced.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/engine"
	"github.com/codenerd-labs/bookmarkd/internal/intent"
	"github.com/codenerd-labs/bookmarkd/internal/llm"
	"github.com/codenerd-labs/bookmarkd/internal/logging"
)

const maxChars = 200

// Reserver checks and reserves an LLM call slot for userID before a
// dispatch, returning an apperr.RateLimited error if their quota is
// exhausted. Nil disables reservation.
type Reserver func(userID int64) error

var explainSchema = &llm.Schema{
	Type:       "object",
	Required:   []string{"explanation"},
	Properties: map[string]*llm.Schema{"explanation": {Type: "string"}},
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

// Explainer produces the reason text shown alongside a recommendation.
type Explainer struct {
	client      llm.Client
	reserve     Reserver
	callTimeout time.Duration
}

// New builds an Explainer. client may be nil, in which case every call
// uses the deterministic template. reserve may be nil to skip
// rate-limit reservation.
func New(client llm.Client, reserve Reserver) *Explainer {
	return &Explainer{client: client, reserve: reserve, callTimeout: 10 * time.Second}
}

// Explain never returns an empty string and never exceeds 200 characters.
func (e *Explainer) Explain(ctx context.Context, userID int64, candidate engine.ScoredCandidate, in *intent.Intent, apiKey string) string {
	if e.client != nil {
		text, err := e.explainViaLLM(ctx, userID, candidate, in, apiKey)
		if err == nil && text != "" {
			return truncate(text)
		}
		if err != nil {
			logging.Get(logging.CategoryExplain).Debug("llm explanation failed, using template: %v", err)
		}
	}
	return truncate(template(candidate, in))
}

func (e *Explainer) explainViaLLM(ctx context.Context, userID int64, candidate engine.ScoredCandidate, in *intent.Intent, apiKey string) (string, error) {
	if e.reserve != nil {
		if err := e.reserve(userID); err != nil {
			return "", err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	prompt := buildPrompt(candidate, in)
	raw, err := e.client.Call(callCtx, apiKey, prompt, explainSchema)
	if err != nil {
		return "", err
	}

	var resp explainResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Explanation), nil
}

func buildPrompt(candidate engine.ScoredCandidate, in *intent.Intent) string {
	dominant, _ := dominantComponent(candidate.Components)
	goal := ""
	if in != nil {
		goal = in.PrimaryGoal
	}
	techs := strings.Join(candidate.Bookmark.Tags, ", ")
	difficulty := ""
	if candidate.Analysis != nil {
		difficulty = string(candidate.Analysis.Difficulty)
	}

	return fmt.Sprintf(
		"In 40 words or fewer, conversationally explain why this bookmark is recommended. "+
			"Title: %q. Technologies: %s. Difficulty: %s. User's goal: %s. Strongest match factor: %s. "+
			"Do not mention numeric scores.",
		candidate.Bookmark.Title, techs, difficulty, goal, dominant,
	)
}

// template builds a deterministic fallback keyed on the dominant score
// component and the user's goal, used when the model is unavailable,
// rate-limited, or returns unstructured output.
func template(candidate engine.ScoredCandidate, in *intent.Intent) string {
	dominant, _ := dominantComponent(candidate.Components)
	difficulty := "your level"
	if candidate.Analysis != nil && candidate.Analysis.Difficulty != "" {
		difficulty = string(candidate.Analysis.Difficulty)
	}
	tech := "your stack"
	if len(candidate.Bookmark.Tags) > 0 {
		tech = candidate.Bookmark.Tags[0]
	}
	projectType := "your project"
	if in != nil && in.ProjectType != "" {
		projectType = strings.ReplaceAll(in.ProjectType, "_", " ")
	}

	switch dominant {
	case "technology_overlap":
		return fmt.Sprintf("Matches your %s stack at %s level; relevant for %s work.", tech, difficulty, projectType)
	case "semantic_similarity":
		return fmt.Sprintf("Closely related to what you're working on, at %s level.", difficulty)
	case "content_type_match":
		return fmt.Sprintf("A good fit for your current goal, covering %s at %s level.", tech, difficulty)
	case "difficulty_match":
		return fmt.Sprintf("Pitched right at %s level for %s.", difficulty, projectType)
	case "intent_alignment":
		return fmt.Sprintf("Aligned with what you're trying to do with %s.", projectType)
	default:
		return fmt.Sprintf("Relevant to your %s work at %s level.", tech, difficulty)
	}
}

// dominantComponent returns the name of candidate's highest-weighted
// score component, for both the LLM prompt and the fallback template.
func dominantComponent(c engine.ScoreComponents) (string, float64) {
	best, bestVal := "technology_overlap", c.TechnologyOverlap
	consider := func(name string, val float64) {
		if val > bestVal {
			best, bestVal = name, val
		}
	}
	consider("semantic_similarity", c.SemanticSimilarity)
	consider("content_type_match", c.ContentTypeMatch)
	consider("difficulty_match", c.DifficultyMatch)
	consider("intent_alignment", c.IntentAlignment)
	return best, bestVal
}

func truncate(s string) string {
	if s == "" {
		return "Recommended based on your saved bookmarks."
	}
	if len(s) <= maxChars {
		return s
	}
	return s[:maxChars-len("…")] + "…"
}
