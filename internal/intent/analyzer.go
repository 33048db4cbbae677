package intent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
	"github.com/codenerd-labs/bookmarkd/internal/cache"
	"github.com/codenerd-labs/bookmarkd/internal/embedding"
	"github.com/codenerd-labs/bookmarkd/internal/llm"
	"github.com/codenerd-labs/bookmarkd/internal/logging"
	"github.com/codenerd-labs/bookmarkd/internal/store"
)

// Reserver checks and reserves an LLM call slot for userID before a
// dispatch, returning an apperr.RateLimited error if their quota is
// exhausted. Nil disables reservation (tests, or a deployment with no
// registry wired).
type Reserver func(userID int64) error

var intentSchema = &llm.Schema{
	Type: "object",
	Required: []string{
		"primary_goal", "learning_stage", "project_type", "urgency_level",
		"complexity_preference", "time_constraint",
	},
	Properties: map[string]*llm.Schema{
		"primary_goal":           {Type: "string", Enum: []string{GoalLearn, GoalBuild, GoalSolve, GoalOptimize}},
		"learning_stage":         {Type: "string", Enum: []string{StageBeginner, StageIntermediate, StageAdvanced}},
		"project_type":           {Type: "string"},
		"urgency_level":          {Type: "string", Enum: []string{UrgencyLow, UrgencyMedium, UrgencyHigh}},
		"specific_technologies":  {Type: "array", Items: &llm.Schema{Type: "string"}},
		"complexity_preference":  {Type: "string", Enum: []string{ComplexitySimple, ComplexityModerate, ComplexityComplex}},
		"time_constraint":        {Type: "string", Enum: []string{TimeQuickTutorial, TimeDeepDive, TimeReference}},
		"focus_areas":            {Type: "array", Items: &llm.Schema{Type: "string"}},
		"confidence_score":       {Type: "number"},
	},
}

type llmResponse struct {
	PrimaryGoal          string   `json:"primary_goal"`
	LearningStage        string   `json:"learning_stage"`
	ProjectType          string   `json:"project_type"`
	UrgencyLevel         string   `json:"urgency_level"`
	SpecificTechnologies []string `json:"specific_technologies"`
	ComplexityPreference string   `json:"complexity_preference"`
	TimeConstraint       string   `json:"time_constraint"`
	FocusAreas           []string `json:"focus_areas"`
	ConfidenceScore      float64  `json:"confidence_score"`
}

// Analyzer derives a structured Intent from free text, preferring the
// language model and falling back to deterministic rules.
type Analyzer struct {
	store       *store.Store
	cache       cache.Cache
	client      llm.Client
	reserve     Reserver
	callTimeout time.Duration
	cacheTTL    time.Duration
}

// Config configures an Analyzer.
type Config struct {
	CallTimeout time.Duration
	CacheTTL    time.Duration
}

// New builds an Analyzer. reserve may be nil to skip rate-limit
// reservation (tests, or a process with no registry).
func New(st *store.Store, ch cache.Cache, client llm.Client, reserve Reserver, cfg Config) *Analyzer {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 20 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &Analyzer{store: st, cache: ch, client: client, reserve: reserve, callTimeout: cfg.CallTimeout, cacheTTL: cfg.CacheTTL}
}

// AnalyzeIntent computes the Intent for userText, preferring a cached
// result for an unchanged project or query before calling the model.
// When projectID is set, the context hash is derived from the
// project's own fields rather than userText, so the cached intent
// survives rephrasing the same request and is invalidated only when
// the project itself changes.
func (a *Analyzer) AnalyzeIntent(ctx context.Context, userID int64, userText string, projectID int64, apiKey string, force bool) (Intent, error) {
	var project *store.Project
	hashText := userText
	if projectID != 0 {
		p, err := a.store.GetProject(userID, projectID)
		if err != nil {
			logging.Get(logging.CategoryIntent).Warn("load project %d for intent analysis failed: %v", projectID, err)
		} else {
			project = &p
			hashText = embedding.BuildQueryText(p.Title, p.Description, p.Technologies)
		}
	}
	hash := ContextHash(hashText)

	if project != nil && !force {
		if cached, ok := projectCachedIntent(*project, hash); ok {
			return cached, nil
		}
	}

	cacheKey := cache.Key(cache.NamespaceIntent, hash)
	if !force && a.cache != nil {
		if raw, ok := a.cache.Get(ctx, cacheKey); ok {
			var cached Intent
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	result, err := a.analyzeViaLLM(ctx, userID, userText, apiKey, hash)
	if err != nil {
		logging.Get(logging.CategoryIntent).Warn("llm intent analysis failed, using fallback: %v", err)
		result = FallbackAnalyze(userText)
		result.ContextHash = hash
	}
	result.UpdatedAt = time.Now()

	if raw, err := json.Marshal(result); err == nil && a.cache != nil {
		a.cache.Set(ctx, cacheKey, raw, a.cacheTTL)
	}

	if projectID != 0 {
		if raw, err := json.Marshal(result); err == nil {
			if err := a.store.SaveProjectIntent(userID, projectID, string(raw)); err != nil {
				logging.Get(logging.CategoryIntent).Warn("save project intent failed: %v", err)
			}
		}
	}

	return result, nil
}

func projectCachedIntent(project store.Project, hash string) (Intent, bool) {
	if !project.IntentAnalysisUpdated || project.IntentJSON == "" {
		return Intent{}, false
	}
	var cached Intent
	if err := json.Unmarshal([]byte(project.IntentJSON), &cached); err != nil {
		return Intent{}, false
	}
	if cached.ContextHash != hash {
		return Intent{}, false
	}
	return cached, true
}

func (a *Analyzer) analyzeViaLLM(ctx context.Context, userID int64, userText, apiKey, hash string) (Intent, error) {
	if a.client == nil {
		return Intent{}, apperr.LLMUnavailable("no llm client configured", nil)
	}
	if a.reserve != nil {
		if err := a.reserve(userID); err != nil {
			return Intent{}, err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	prompt := "Analyze the user's stated goal for a software project or learning query.\n" +
		"Text: " + userText + "\n\n" +
		"Determine their primary goal, learning stage, project type, urgency, " +
		"preferred complexity, time constraint, relevant technologies, and focus areas."

	raw, err := a.client.Call(callCtx, apiKey, prompt, intentSchema)
	if err != nil {
		return Intent{}, err
	}

	var resp llmResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Intent{}, apperr.LLMUnstructured("decode intent response", err)
	}

	confidence := resp.ConfidenceScore
	if confidence <= 0 {
		confidence = 0.7
	}
	if confidence > 1 {
		confidence = 1
	}

	return Intent{
		PrimaryGoal:          resp.PrimaryGoal,
		LearningStage:        resp.LearningStage,
		ProjectType:          resp.ProjectType,
		UrgencyLevel:         resp.UrgencyLevel,
		SpecificTechnologies: resp.SpecificTechnologies,
		ComplexityPreference: resp.ComplexityPreference,
		TimeConstraint:       resp.TimeConstraint,
		FocusAreas:           resp.FocusAreas,
		ContextHash:          hash,
		ConfidenceScore:      confidence,
	}, nil
}
