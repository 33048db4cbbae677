// Package feedback maintains each user's preference profile from their
// recorded interactions with past recommendations, and re-ranks newly
// scored candidates against it.
package feedback

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/cache"
	"github.com/codenerd-labs/bookmarkd/internal/engine"
	"github.com/codenerd-labs/bookmarkd/internal/store"
)

const (
	negativeWeight = 1.5 // alpha: negative events weigh more than positive
	saturationAt   = 5   // interaction count at which confidence reaches 1.0
	maxTotalBoost  = 0.2 // cap on Personalize's combined multiplier
)

var positiveEvents = map[store.FeedbackType]bool{
	store.FeedbackClicked:   true,
	store.FeedbackSaved:     true,
	store.FeedbackHelpful:   true,
	store.FeedbackCompleted: true,
}

var negativeEvents = map[store.FeedbackType]bool{
	store.FeedbackDismissed:   true,
	store.FeedbackNotRelevant: true,
}

// Preferences is a user's learned weight per preference key ("technology:go",
// "content_type:tutorial", "difficulty:beginner", ...).
type Preferences struct {
	Weights    map[string]float64
	Confidence map[string]float64
}

// Learner computes and applies preference-based re-ranking.
type Learner struct {
	store *store.Store
	cache cache.Cache
	ttl   time.Duration
}

// New builds a Learner.
func New(st *store.Store, ch cache.Cache) *Learner {
	return &Learner{store: st, cache: ch, ttl: 15 * time.Minute}
}

// RecordFeedback appends the event to the store and invalidates the
// user's cached preference profile so the next GetPreferences recomputes.
func (l *Learner) RecordFeedback(ctx context.Context, userID int64, f store.UserFeedback) (int64, error) {
	id, err := l.store.RecordFeedback(userID, f)
	if err != nil {
		return 0, err
	}
	if l.cache != nil {
		l.cache.Delete(ctx, prefsKey(userID))
	}
	return id, nil
}

// GetPreferences returns userID's cached preference profile, recomputing
// it from their full feedback history on a cache miss.
func (l *Learner) GetPreferences(ctx context.Context, userID int64) (Preferences, error) {
	key := prefsKey(userID)
	if l.cache != nil {
		if raw, ok := l.cache.Get(ctx, key); ok {
			var prefs Preferences
			if err := json.Unmarshal(raw, &prefs); err == nil {
				return prefs, nil
			}
		}
	}

	prefs, err := l.computePreferences(userID)
	if err != nil {
		return Preferences{}, err
	}

	if l.cache != nil {
		if raw, err := json.Marshal(prefs); err == nil {
			l.cache.Set(ctx, key, raw, l.ttl)
		}
	}
	return prefs, nil
}

func (l *Learner) computePreferences(userID int64) (Preferences, error) {
	events, err := l.store.ListFeedback(userID, time.Time{})
	if err != nil {
		return Preferences{}, err
	}

	type counts struct{ positive, negative, total float64 }
	tally := make(map[string]*counts)
	bump := func(key string, positive bool) {
		c, ok := tally[key]
		if !ok {
			c = &counts{}
			tally[key] = c
		}
		c.total++
		if positive {
			c.positive++
		} else {
			c.negative++
		}
	}

	analysisCache := make(map[int64]*store.ContentAnalysis)
	for _, ev := range events {
		positive := positiveEvents[ev.FeedbackType]
		negative := negativeEvents[ev.FeedbackType]
		if !positive && !negative {
			continue
		}

		analysis, ok := analysisCache[ev.ContentID]
		if !ok {
			analysis, _ = l.store.GetAnalysis(ev.ContentID)
			analysisCache[ev.ContentID] = analysis
		}
		if analysis == nil {
			continue
		}

		if analysis.ContentType != "" {
			bump("content_type:"+string(analysis.ContentType), positive)
		}
		if analysis.Difficulty != "" {
			bump("difficulty:"+string(analysis.Difficulty), positive)
		}
		for _, tech := range analysis.Technologies {
			bump("technology:"+tech, positive)
		}
	}

	prefs := Preferences{
		Weights:    make(map[string]float64, len(tally)),
		Confidence: make(map[string]float64, len(tally)),
	}
	for key, c := range tally {
		weight := (c.positive - negativeWeight*c.negative) / (c.total + 1) // +1 smoothing
		confidence := c.total / saturationAt
		if confidence > 1 {
			confidence = 1
		}
		prefs.Weights[key] = weight
		prefs.Confidence[key] = confidence
	}
	return prefs, nil
}

// Personalize multiplies each candidate's score by 1 + the sum of
// matching preference-key boosts (weight * confidence), capped at
// maxTotalBoost combined.
func (l *Learner) Personalize(ctx context.Context, userID int64, candidates []engine.ScoredCandidate) ([]engine.ScoredCandidate, error) {
	prefs, err := l.GetPreferences(ctx, userID)
	if err != nil || len(prefs.Weights) == 0 {
		return candidates, nil
	}

	for i := range candidates {
		boost := 0.0
		keys := matchingKeys(candidates[i])
		for _, key := range keys {
			boost += prefs.Weights[key] * prefs.Confidence[key]
		}
		if boost > maxTotalBoost {
			boost = maxTotalBoost
		}
		if boost < -maxTotalBoost {
			boost = -maxTotalBoost
		}
		candidates[i].Score = clampScore(candidates[i].Score * (1 + boost))
	}
	return candidates, nil
}

func matchingKeys(c engine.ScoredCandidate) []string {
	var keys []string
	if c.Analysis != nil {
		if c.Analysis.ContentType != "" {
			keys = append(keys, "content_type:"+string(c.Analysis.ContentType))
		}
		if c.Analysis.Difficulty != "" {
			keys = append(keys, "difficulty:"+string(c.Analysis.Difficulty))
		}
		for _, tech := range c.Analysis.Technologies {
			keys = append(keys, "technology:"+tech)
		}
	}
	return keys
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

func prefsKey(userID int64) string {
	return cache.Key("prefs", strconv.FormatInt(userID, 10))
}
