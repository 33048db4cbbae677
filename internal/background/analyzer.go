// Package background runs the periodic worker that turns freshly
// scraped bookmarks into structured content analysis via the
// configured language model.
package background

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
	"github.com/codenerd-labs/bookmarkd/internal/llm"
	"github.com/codenerd-labs/bookmarkd/internal/logging"
	"github.com/codenerd-labs/bookmarkd/internal/store"
)

const defaultInterval = 45 * time.Second

var analysisSchema = &llm.Schema{
	Type:     "object",
	Required: []string{"technologies", "content_type", "difficulty", "relevance_score"},
	Properties: map[string]*llm.Schema{
		"technologies": {Type: "array", Items: &llm.Schema{Type: "string"}},
		"content_type": {Type: "string", Enum: []string{
			string(store.ContentTutorial), string(store.ContentDocumentation),
			string(store.ContentArticle), string(store.ContentVideo),
			string(store.ContentCourse), string(store.ContentGuide),
			string(store.ContentReference),
		}},
		"difficulty": {Type: "string", Enum: []string{
			string(store.DifficultyBeginner), string(store.DifficultyIntermediate), string(store.DifficultyAdvanced),
		}},
		"key_concepts":          {Type: "array", Items: &llm.Schema{Type: "string"}},
		"relevance_score":       {Type: "integer"},
		"learning_path":         {Type: "array", Items: &llm.Schema{Type: "string"}},
		"project_applicability": {Type: "string"},
		"skill_development":     {Type: "array", Items: &llm.Schema{Type: "string"}},
	},
}

type analysisResponse struct {
	Technologies         []string `json:"technologies"`
	ContentType          string   `json:"content_type"`
	Difficulty           string   `json:"difficulty"`
	KeyConcepts          []string `json:"key_concepts"`
	RelevanceScore       int      `json:"relevance_score"`
	LearningPath         []string `json:"learning_path"`
	ProjectApplicability string   `json:"project_applicability"`
	SkillDevelopment     []string `json:"skill_development"`
}

// KeyResolver returns the API key to use for userID's LLM calls: their
// own key if set, otherwise "", which makes the LLM client use its
// configured default key.
type KeyResolver func(userID int64) (string, error)

// Reserver checks and reserves an LLM call slot for userID before a
// dispatch, returning an apperr.RateLimited error if their quota is
// exhausted. Nil disables reservation.
type Reserver func(userID int64) error

// Analyzer periodically claims unanalyzed bookmarks from the store and
// runs them through the language model, writing results back.
type Analyzer struct {
	store       *store.Store
	client      llm.Client
	resolveKey  KeyResolver
	reserve     Reserver
	interval    time.Duration
	cooldown    time.Duration
	batchSize   int
	callTimeout time.Duration

	stop chan struct{}
	done chan struct{}
}

// Config configures an Analyzer.
type Config struct {
	Interval    time.Duration
	Cooldown    time.Duration
	BatchSize   int
	CallTimeout time.Duration
}

// New builds an Analyzer. It does not start running until Start is called.
func New(st *store.Store, client llm.Client, resolveKey KeyResolver, reserve Reserver, cfg Config) *Analyzer {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	return &Analyzer{
		store:       st,
		client:      client,
		resolveKey:  resolveKey,
		reserve:     reserve,
		interval:    cfg.Interval,
		cooldown:    cfg.Cooldown,
		batchSize:   cfg.BatchSize,
		callTimeout: cfg.CallTimeout,
	}
}

// Start launches the background loop if it is not already running.
func (a *Analyzer) Start() {
	if a.stop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	a.stop = stop
	a.done = done
	go a.run(stop, done)
}

// Stop signals the loop to exit and waits (up to 2s) for it to finish.
func (a *Analyzer) Stop() {
	stop := a.stop
	done := a.done
	a.stop = nil
	a.done = nil
	if stop == nil {
		return
	}
	close(stop)
	if done != nil {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}
}

func (a *Analyzer) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.processCycle()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.processCycle()
		}
	}
}

// processCycle claims one batch and analyzes each item; a single
// item's failure never stops the rest of the batch.
func (a *Analyzer) processCycle() {
	timer := logging.StartTimer(logging.CategoryBackground, "analysis_cycle")
	defer timer.Stop()

	items, err := a.store.ListUnanalyzed(time.Now(), a.cooldown, a.batchSize)
	if err != nil {
		logging.Get(logging.CategoryBackground).Warn("list unanalyzed failed: %v", err)
		return
	}
	if len(items) == 0 {
		return
	}

	analyzed := 0
	for _, item := range items {
		err := a.analyzeOne(item)
		if err == nil {
			analyzed++
			continue
		}

		var rlErr *apperr.Error
		if errors.As(err, &rlErr) && rlErr.Kind == apperr.KindRateLimited {
			if rlErr.RetryAfter > a.interval {
				logging.Get(logging.CategoryBackground).Debug("rate-limit budget for user %d exhausted past this cycle, deferring remaining items", item.UserID)
				break
			}
			logging.Get(logging.CategoryBackground).Debug("pausing %s to stay within user %d's rate-limit budget", rlErr.RetryAfter, item.UserID)
			time.Sleep(rlErr.RetryAfter)
			continue
		}

		logging.Get(logging.CategoryBackground).Warn("analysis failed for content %d: %v", item.ContentID, err)
		if markErr := a.store.MarkAnalysisFailed(item.ContentID); markErr != nil {
			logging.Get(logging.CategoryBackground).Warn("mark analysis failed for content %d: %v", item.ContentID, markErr)
		}
	}
	logging.Get(logging.CategoryBackground).Info("analyzed %d/%d bookmarks", analyzed, len(items))
}

func (a *Analyzer) analyzeOne(item store.UnanalyzedItem) error {
	apiKey, err := a.resolveKey(item.UserID)
	if err != nil {
		return err
	}
	if a.reserve != nil {
		if err := a.reserve(item.UserID); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.callTimeout)
	defer cancel()

	prompt := buildAnalysisPrompt(item.Title, item.URL, item.ExtractedText)
	raw, err := a.client.Call(ctx, apiKey, prompt, analysisSchema)
	if err != nil {
		return err
	}

	var resp analysisResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return apperr.LLMUnstructured("decode analysis response", err)
	}

	analysis := store.ContentAnalysis{
		ContentID:            item.ContentID,
		Technologies:         resp.Technologies,
		ContentType:          store.ContentType(resp.ContentType),
		Difficulty:           store.Difficulty(resp.Difficulty),
		KeyConcepts:          resp.KeyConcepts,
		RelevanceScore:       clampScore(resp.RelevanceScore),
		LearningPath:         resp.LearningPath,
		ProjectApplicability: resp.ProjectApplicability,
		SkillDevelopment:     resp.SkillDevelopment,
	}
	return a.store.UpsertAnalysis(item.ContentID, analysis)
}

func buildAnalysisPrompt(title, url, extractedText string) string {
	const maxChars = 8000
	if len(extractedText) > maxChars {
		extractedText = extractedText[:maxChars]
	}
	return "Analyze this saved bookmark for a technical learning assistant.\n" +
		"Title: " + title + "\n" +
		"URL: " + url + "\n" +
		"Content:\n" + extractedText + "\n\n" +
		"Identify the technologies covered, classify its content type and difficulty, " +
		"list key concepts, score its relevance to a working developer from 0-100, " +
		"suggest a learning path, describe what kind of project it applies to, " +
		"and list the skills it develops."
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
