// Package store is the single source of truth for every user-owned
// entity: users, bookmarks, content analysis, projects, tasks, and
// feedback, plus the vector similarity search used by the scoring
// engines. Reads of bookmarks, projects and feedback accept a user id and
// filter by it; see Store for the reads that are keyed otherwise.
package store

import "time"

// User is the owning identity for every other entity.
type User struct {
	ID                  int64
	Username            string
	Email               string
	PasswordHash        string
	TechnologyInterests []string
	CreatedAt           time.Time
}

// Bookmark is a user's saved URL plus scraped content and embedding.
type Bookmark struct {
	ID               int64
	UserID           int64
	URL              string
	Title            string
	UserNotes        string
	Category         string
	Tags             []string
	ExtractedText    string
	QualityScore     int
	Embedding        []float32
	SavedAt          time.Time
	AnalysisFailedAt *time.Time
	AnalysisAttempts int
}

// ContentType enumerates the closed vocabulary an analysis's content type
// must belong to.
type ContentType string

const (
	ContentTutorial      ContentType = "tutorial"
	ContentDocumentation ContentType = "documentation"
	ContentArticle       ContentType = "article"
	ContentVideo         ContentType = "video"
	ContentCourse        ContentType = "course"
	ContentGuide         ContentType = "guide"
	ContentReference     ContentType = "reference"
)

// Difficulty enumerates the closed vocabulary an analysis's difficulty
// must belong to.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ContentAnalysis is the LLM-derived structured summary of a Bookmark,
// one-to-one, optional.
type ContentAnalysis struct {
	ID                   int64
	ContentID            int64
	Technologies         []string
	ContentType          ContentType
	Difficulty           Difficulty
	KeyConcepts          []string
	RelevanceScore       int // 0-100
	LearningPath         []string
	ProjectApplicability string
	SkillDevelopment     []string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Project is a user-defined container with a cached Intent.
type Project struct {
	ID                    int64
	UserID                int64
	Title                 string
	Description           string
	Technologies          []string
	IntentJSON            string // serialized Intent, empty if none
	IntentAnalysisUpdated bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Task is a refined sub-context belonging to a Project.
type Task struct {
	ID          int64
	ProjectID   int64
	Title       string
	Description string
	Embedding   []float32
	CreatedAt   time.Time
}

// FeedbackType enumerates the closed vocabulary of user feedback events.
type FeedbackType string

const (
	FeedbackClicked     FeedbackType = "clicked"
	FeedbackSaved       FeedbackType = "saved"
	FeedbackDismissed   FeedbackType = "dismissed"
	FeedbackNotRelevant FeedbackType = "not_relevant"
	FeedbackHelpful     FeedbackType = "helpful"
	FeedbackCompleted   FeedbackType = "completed"
)

// UserFeedback is an append-only event.
type UserFeedback struct {
	ID               int64
	UserID           int64
	ContentID        int64
	RecommendationID string // opaque, may dangle
	FeedbackType     FeedbackType
	ContextData      map[string]any
	Timestamp        time.Time
}

// BookmarkFilter narrows ListBookmarks.
type BookmarkFilter struct {
	Query    string // substring match on title/notes/url
	Category string
	Tag      string
}

// Page requests a stable page of results ordered by saved_at DESC, id DESC.
type Page struct {
	Offset int
	Limit  int
}

// BulkProgress reports incremental bulk-upsert status.
type BulkProgress struct {
	Processed int
	Total     int
	Succeeded int
	Failed    int
}

// ProgressSink receives BulkProgress updates during BulkUpsertBookmarks.
type ProgressSink func(BulkProgress)

// UpsertItem is one bookmark to write in BulkUpsertBookmarks.
type UpsertItem struct {
	URL           string
	Title         string
	UserNotes     string
	Category      string
	Tags          []string
	ExtractedText string
	QualityScore  int
	Embedding     []float32
}

// UpsertResult reports whether UpsertBookmark created or updated a row.
type UpsertResult struct {
	ID      int64
	Created bool
}

// ScoredCandidate pairs a bookmark with its vector distance in a
// SemanticSearch result (ascending distance = closer).
type ScoredCandidate struct {
	Bookmark Bookmark
	Distance float64
}

// OrderedContent is a Bookmark joined with its optional ContentAnalysis,
// as returned by GetOrderedContentForUser.
type OrderedContent struct {
	Bookmark Bookmark
	Analysis *ContentAnalysis
}
