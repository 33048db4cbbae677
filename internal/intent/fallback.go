package intent

import "strings"

// technologyVocabulary is a configurable dictionary of technology
// keywords the fallback analyzer matches against free text.
var technologyVocabulary = []string{
	"go", "golang", "python", "javascript", "typescript", "react", "vue",
	"angular", "node", "django", "flask", "fastapi", "rust", "java",
	"kotlin", "swift", "android", "ios", "kubernetes", "docker", "aws",
	"gcp", "azure", "postgres", "postgresql", "mysql", "redis", "mongodb",
	"graphql", "rest", "grpc", "tensorflow", "pytorch", "sql", "terraform",
}

var projectTypeBuckets = map[string][]string{
	"web_app":      {"web", "website", "react", "vue", "angular", "frontend", "html", "css"},
	"mobile_app":   {"mobile", "android", "ios", "swift", "kotlin", "flutter", "react native"},
	"api":          {"api", "rest", "grpc", "graphql", "backend", "microservice"},
	"data_science": {"data science", "pandas", "tensorflow", "pytorch", "ml", "machine learning", "dataset"},
	"automation":   {"automation", "script", "cron", "ci/cd", "pipeline", "workflow"},
}

var beginnerMarkers = []string{"beginner", "new to", "just starting", "learn the basics", "introduction", "never used"}
var advancedMarkers = []string{"advanced", "expert", "production-grade", "scale", "optimize", "deep dive"}

// FallbackAnalyze deterministically derives an Intent from text using
// dictionary and keyword matching, for use when the language model is
// unavailable or rate-limited.
func FallbackAnalyze(text string) Intent {
	norm := normalize(text)

	return Intent{
		PrimaryGoal:          detectGoal(norm),
		LearningStage:        detectStage(norm),
		ProjectType:          detectProjectType(norm),
		UrgencyLevel:         UrgencyMedium,
		SpecificTechnologies: detectTechnologies(norm),
		ComplexityPreference: ComplexityModerate,
		TimeConstraint:       TimeDeepDive,
		FocusAreas:           nil,
		ContextHash:          ContextHash(text),
		ConfidenceScore:      0.4,
	}
}

func detectGoal(norm string) string {
	switch {
	case containsAny(norm, "build", "create", "implement", "develop"):
		return GoalBuild
	case containsAny(norm, "fix", "debug", "solve", "troubleshoot", "error"):
		return GoalSolve
	case containsAny(norm, "optimize", "improve", "speed up", "performance"):
		return GoalOptimize
	default:
		return GoalLearn
	}
}

func detectStage(norm string) string {
	switch {
	case containsAny(norm, advancedMarkers...):
		return StageAdvanced
	case containsAny(norm, beginnerMarkers...):
		return StageBeginner
	default:
		return StageIntermediate
	}
}

func detectProjectType(norm string) string {
	best, bestCount := "", 0
	for ptype, keywords := range projectTypeBuckets {
		count := 0
		for _, kw := range keywords {
			if strings.Contains(norm, kw) {
				count++
			}
		}
		if count > bestCount || (count > 0 && count == bestCount && ptype < best) {
			best, bestCount = ptype, count
		}
	}
	return best
}

func detectTechnologies(norm string) []string {
	var found []string
	for _, tech := range technologyVocabulary {
		if strings.Contains(norm, tech) {
			found = append(found, tech)
		}
	}
	return found
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
