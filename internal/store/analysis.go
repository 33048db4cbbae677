package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
)

// claimTTL bounds how long ListUnanalyzed's claim on a bookmark holds
// before another worker instance may pick it up, so a worker that
// crashes mid-analysis doesn't strand the bookmark unanalyzed forever.
const claimTTL = 10 * time.Minute

// UpsertAnalysis writes or replaces the analysis for contentID, and
// clears any prior failure/attempt tracking on the owning bookmark.
func (s *Store) UpsertAnalysis(contentID int64, a ContentAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	techJSON, _ := json.Marshal(a.Technologies)
	conceptsJSON, _ := json.Marshal(a.KeyConcepts)
	pathJSON, _ := json.Marshal(a.LearningPath)
	devJSON, _ := json.Marshal(a.SkillDevelopment)

	_, err := s.db.Exec(`
		INSERT INTO content_analysis
			(content_id, technologies, content_type, difficulty, key_concepts,
			 relevance_score, learning_path, project_applicability, skill_development,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(content_id) DO UPDATE SET
			technologies = excluded.technologies,
			content_type = excluded.content_type,
			difficulty = excluded.difficulty,
			key_concepts = excluded.key_concepts,
			relevance_score = excluded.relevance_score,
			learning_path = excluded.learning_path,
			project_applicability = excluded.project_applicability,
			skill_development = excluded.skill_development,
			updated_at = CURRENT_TIMESTAMP`,
		contentID, string(techJSON), string(a.ContentType), string(a.Difficulty),
		string(conceptsJSON), a.RelevanceScore, string(pathJSON), a.ProjectApplicability,
		string(devJSON))
	if err != nil {
		return apperr.StoreUnavailable("upsert analysis", err)
	}

	_, err = s.db.Exec(`UPDATE saved_content SET analysis_failed_at = NULL, analysis_attempts = 0, analysis_claimed_at = NULL WHERE id = ?`, contentID)
	if err != nil {
		return apperr.StoreUnavailable("clear analysis failure state", err)
	}
	return nil
}

// MarkAnalysisFailed records a failed analysis attempt on a bookmark so
// the background worker can apply a cooldown before retrying it, and
// releases its claim so a retry after the cooldown isn't blocked by it.
func (s *Store) MarkAnalysisFailed(contentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE saved_content
		SET analysis_failed_at = CURRENT_TIMESTAMP, analysis_attempts = analysis_attempts + 1, analysis_claimed_at = NULL
		WHERE id = ?`, contentID)
	if err != nil {
		return apperr.StoreUnavailable("mark analysis failed", err)
	}
	return nil
}

// GetAnalysis fetches the analysis for a bookmark, if any.
func (s *Store) GetAnalysis(contentID int64) (*ContentAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, content_id, technologies, content_type, difficulty, key_concepts,
		       relevance_score, learning_path, project_applicability, skill_development,
		       created_at, updated_at
		FROM content_analysis WHERE content_id = ?`, contentID)

	var a ContentAnalysis
	var techJSON, conceptsJSON, pathJSON, devJSON string
	err := row.Scan(&a.ID, &a.ContentID, &techJSON, &a.ContentType, &a.Difficulty,
		&conceptsJSON, &a.RelevanceScore, &pathJSON, &a.ProjectApplicability, &devJSON,
		&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.StoreUnavailable("get analysis", err)
	}

	json.Unmarshal([]byte(techJSON), &a.Technologies)
	json.Unmarshal([]byte(conceptsJSON), &a.KeyConcepts)
	json.Unmarshal([]byte(pathJSON), &a.LearningPath)
	json.Unmarshal([]byte(devJSON), &a.SkillDevelopment)

	return &a, nil
}

// UnanalyzedItem is a bookmark claimed by ListUnanalyzed for background
// processing.
type UnanalyzedItem struct {
	ContentID     int64
	UserID        int64
	URL           string
	Title         string
	ExtractedText string
}

// ListUnanalyzed returns up to batchSize bookmarks with no analysis row,
// excluding ones that failed within cooldown of now, and atomically
// claims them for claimTTL so a second worker instance polling
// concurrently can't be handed the same bookmark. Results are ordered
// oldest-saved-first so ingestion order is roughly preserved.
func (s *Store) ListUnanalyzed(now time.Time, cooldown time.Duration, batchSize int) ([]UnanalyzedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batchSize <= 0 {
		batchSize = 20
	}
	failCutoff := now.Add(-cooldown)
	claimCutoff := now.Add(-claimTTL)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperr.StoreUnavailable("begin list unanalyzed", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT sc.id, sc.user_id, sc.url, sc.title, sc.extracted_text
		FROM saved_content sc
		LEFT JOIN content_analysis ca ON ca.content_id = sc.id
		WHERE ca.id IS NULL
		  AND (sc.analysis_failed_at IS NULL OR sc.analysis_failed_at < ?)
		  AND (sc.analysis_claimed_at IS NULL OR sc.analysis_claimed_at < ?)
		ORDER BY sc.saved_at ASC
		LIMIT ?`, failCutoff, claimCutoff, batchSize)
	if err != nil {
		return nil, apperr.StoreUnavailable("list unanalyzed", err)
	}

	var out []UnanalyzedItem
	for rows.Next() {
		var it UnanalyzedItem
		if err := rows.Scan(&it.ContentID, &it.UserID, &it.URL, &it.Title, &it.ExtractedText); err != nil {
			rows.Close()
			return nil, apperr.StoreUnavailable("scan unanalyzed", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, apperr.StoreUnavailable("iterate unanalyzed", err)
	}
	rows.Close()

	for _, it := range out {
		if _, err := tx.Exec(`UPDATE saved_content SET analysis_claimed_at = ? WHERE id = ?`, now, it.ContentID); err != nil {
			return nil, apperr.StoreUnavailable("claim unanalyzed item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.StoreUnavailable("commit unanalyzed claim", err)
	}
	return out, nil
}
