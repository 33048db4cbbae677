// Package intent turns a user's free-text project description into a
// structured Intent the scoring engines and explainer can reason about,
// backed by the language model with a deterministic rule-based fallback.
package intent

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Intent is the structured interpretation of a user's stated goal.
type Intent struct {
	PrimaryGoal          string    `json:"primary_goal"`
	LearningStage        string    `json:"learning_stage"`
	ProjectType          string    `json:"project_type"`
	UrgencyLevel         string    `json:"urgency_level"`
	SpecificTechnologies []string  `json:"specific_technologies"`
	ComplexityPreference string    `json:"complexity_preference"`
	TimeConstraint       string    `json:"time_constraint"`
	FocusAreas           []string  `json:"focus_areas"`
	ContextHash          string    `json:"context_hash"`
	ConfidenceScore      float64   `json:"confidence_score"`
	UpdatedAt            time.Time `json:"updated_at"`
}

const (
	GoalLearn    = "learn"
	GoalBuild    = "build"
	GoalSolve    = "solve"
	GoalOptimize = "optimize"

	StageBeginner     = "beginner"
	StageIntermediate = "intermediate"
	StageAdvanced     = "advanced"

	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"

	ComplexitySimple   = "simple"
	ComplexityModerate = "moderate"
	ComplexityComplex  = "complex"

	TimeQuickTutorial = "quick_tutorial"
	TimeDeepDive      = "deep_dive"
	TimeReference     = "reference"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalize lowercases and collapses whitespace so semantically
// identical input produces the same context_hash.
func normalize(text string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

// ContextHash fingerprints normalized text so a cached Intent can be
// checked for staleness without storing the original text.
func ContextHash(text string) string {
	sum := sha256.Sum256([]byte(normalize(text)))
	return hex.EncodeToString(sum[:])[:16]
}
