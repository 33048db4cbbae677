package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row rowScanner) (Bookmark, error) {
	var b Bookmark
	var tagsJSON string
	var embeddingBlob []byte
	var analysisFailedAt sql.NullTime

	err := row.Scan(&b.ID, &b.UserID, &b.URL, &b.Title, &b.UserNotes, &b.Category,
		&tagsJSON, &b.ExtractedText, &b.QualityScore, &embeddingBlob, &b.SavedAt,
		&analysisFailedAt, &b.AnalysisAttempts)
	if err != nil {
		return Bookmark{}, err
	}

	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &b.Tags); err != nil {
			return Bookmark{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	if embeddingBlob != nil {
		emb, err := decodeEmbedding(embeddingBlob)
		if err != nil {
			return Bookmark{}, fmt.Errorf("decode embedding: %w", err)
		}
		b.Embedding = emb
	}
	if analysisFailedAt.Valid {
		t := analysisFailedAt.Time
		b.AnalysisFailedAt = &t
	}

	return b, nil
}

func scanBookmarkWithDistance(row rowScanner, sc *ScoredCandidate) error {
	b, err := scanBookmarkDistanceRow(row, &sc.Distance)
	if err != nil {
		return err
	}
	sc.Bookmark = b
	return nil
}

func scanBookmarkDistanceRow(row rowScanner, distance *float64) (Bookmark, error) {
	var b Bookmark
	var tagsJSON string
	var embeddingBlob []byte
	var analysisFailedAt sql.NullTime

	err := row.Scan(&b.ID, &b.UserID, &b.URL, &b.Title, &b.UserNotes, &b.Category,
		&tagsJSON, &b.ExtractedText, &b.QualityScore, &embeddingBlob, &b.SavedAt,
		&analysisFailedAt, &b.AnalysisAttempts, distance)
	if err != nil {
		return Bookmark{}, err
	}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &b.Tags); err != nil {
			return Bookmark{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	if embeddingBlob != nil {
		emb, err := decodeEmbedding(embeddingBlob)
		if err != nil {
			return Bookmark{}, fmt.Errorf("decode embedding: %w", err)
		}
		b.Embedding = emb
	}
	if analysisFailedAt.Valid {
		t := analysisFailedAt.Time
		b.AnalysisFailedAt = &t
	}
	return b, nil
}

// GetBookmark fetches a single bookmark owned by userID.
func (s *Store) GetBookmark(userID, id int64) (Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, user_id, url, title, user_notes, category, tags,
		       extracted_text, quality_score, embedding, saved_at,
		       analysis_failed_at, analysis_attempts
		FROM saved_content WHERE id = ? AND user_id = ?`, id, userID)

	b, err := scanBookmark(row)
	if err == sql.ErrNoRows {
		return Bookmark{}, apperr.NotFound("bookmark not found", err)
	}
	if err != nil {
		return Bookmark{}, apperr.StoreUnavailable("get bookmark", err)
	}
	return b, nil
}

// GetBookmarkByURL fetches a bookmark by its exact URL for userID.
func (s *Store) GetBookmarkByURL(userID int64, url string) (Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, user_id, url, title, user_notes, category, tags,
		       extracted_text, quality_score, embedding, saved_at,
		       analysis_failed_at, analysis_attempts
		FROM saved_content WHERE url = ? AND user_id = ?`, url, userID)

	b, err := scanBookmark(row)
	if err == sql.ErrNoRows {
		return Bookmark{}, apperr.NotFound("bookmark not found", err)
	}
	if err != nil {
		return Bookmark{}, apperr.StoreUnavailable("get bookmark by url", err)
	}
	return b, nil
}

// ListBookmarks returns a page of userID's bookmarks newest-first,
// optionally narrowed by filter.
func (s *Store) ListBookmarks(userID int64, filter BookmarkFilter, page Page) ([]Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, url, title, user_notes, category, tags,
		       extracted_text, quality_score, embedding, saved_at,
		       analysis_failed_at, analysis_attempts
		FROM saved_content WHERE user_id = ?`
	args := []any{userID}

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Tag != "" {
		query += " AND tags LIKE ?"
		args = append(args, "%\""+filter.Tag+"\"%")
	}
	if filter.Query != "" {
		query += " AND (title LIKE ? OR user_notes LIKE ? OR url LIKE ?)"
		like := "%" + filter.Query + "%"
		args = append(args, like, like, like)
	}

	query += " ORDER BY saved_at DESC, id DESC"

	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, page.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.StoreUnavailable("list bookmarks", err)
	}
	defer rows.Close()

	var out []Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, apperr.StoreUnavailable("scan bookmark", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetOrderedContentForUser returns userID's bookmarks joined with their
// analysis (if any), newest-first, capped at the store's configured
// maximum so a single caller can't pull an unbounded working set.
func (s *Store) GetOrderedContentForUser(userID int64) ([]OrderedContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT sc.id, sc.user_id, sc.url, sc.title, sc.user_notes, sc.category,
		       sc.tags, sc.extracted_text, sc.quality_score, sc.embedding,
		       sc.saved_at, sc.analysis_failed_at, sc.analysis_attempts,
		       ca.id, ca.technologies, ca.content_type, ca.difficulty,
		       ca.key_concepts, ca.relevance_score, ca.learning_path,
		       ca.project_applicability, ca.skill_development,
		       ca.created_at, ca.updated_at
		FROM saved_content sc
		LEFT JOIN content_analysis ca ON ca.content_id = sc.id
		WHERE sc.user_id = ?
		ORDER BY sc.saved_at DESC, sc.id DESC
		LIMIT ?`, userID, s.maxOrderedItems)
	if err != nil {
		return nil, apperr.StoreUnavailable("get ordered content", err)
	}
	defer rows.Close()

	var out []OrderedContent
	for rows.Next() {
		var b Bookmark
		var tagsJSON string
		var embeddingBlob []byte
		var analysisFailedAt sql.NullTime

		var analysisID sql.NullInt64
		var techJSON, conceptsJSON, pathJSON, devJSON sql.NullString
		var contentType, difficulty, applicability sql.NullString
		var relevance sql.NullInt64
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(&b.ID, &b.UserID, &b.URL, &b.Title, &b.UserNotes, &b.Category,
			&tagsJSON, &b.ExtractedText, &b.QualityScore, &embeddingBlob, &b.SavedAt,
			&analysisFailedAt, &b.AnalysisAttempts,
			&analysisID, &techJSON, &contentType, &difficulty, &conceptsJSON,
			&relevance, &pathJSON, &applicability, &devJSON, &createdAt, &updatedAt)
		if err != nil {
			return nil, apperr.StoreUnavailable("scan ordered content", err)
		}

		if tagsJSON != "" {
			json.Unmarshal([]byte(tagsJSON), &b.Tags)
		}
		if embeddingBlob != nil {
			if emb, err := decodeEmbedding(embeddingBlob); err == nil {
				b.Embedding = emb
			}
		}
		if analysisFailedAt.Valid {
			t := analysisFailedAt.Time
			b.AnalysisFailedAt = &t
		}

		oc := OrderedContent{Bookmark: b}
		if analysisID.Valid {
			a := &ContentAnalysis{
				ID:                   analysisID.Int64,
				ContentID:            b.ID,
				ContentType:          ContentType(contentType.String),
				Difficulty:           Difficulty(difficulty.String),
				ProjectApplicability: applicability.String,
				RelevanceScore:       int(relevance.Int64),
				CreatedAt:            createdAt.Time,
				UpdatedAt:            updatedAt.Time,
			}
			json.Unmarshal([]byte(techJSON.String), &a.Technologies)
			json.Unmarshal([]byte(conceptsJSON.String), &a.KeyConcepts)
			json.Unmarshal([]byte(pathJSON.String), &a.LearningPath)
			json.Unmarshal([]byte(devJSON.String), &a.SkillDevelopment)
			oc.Analysis = a
		}

		out = append(out, oc)
	}
	return out, rows.Err()
}

// UpsertBookmark creates or updates userID's bookmark for item.URL,
// matched by the (user_id, url) unique constraint.
func (s *Store) UpsertBookmark(userID int64, item UpsertItem) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertBookmarkLocked(userID, item)
}

func (s *Store) upsertBookmarkLocked(userID int64, item UpsertItem) (UpsertResult, error) {
	tagsJSON, err := json.Marshal(item.Tags)
	if err != nil {
		return UpsertResult{}, apperr.InvalidInput("encode tags", err)
	}

	var embeddingBlob []byte
	if item.Embedding != nil {
		embeddingBlob, err = encodeEmbedding(item.Embedding)
		if err != nil {
			return UpsertResult{}, apperr.InvalidInput("encode embedding", err)
		}
	}

	var existingID int64
	err = s.db.QueryRow(`SELECT id FROM saved_content WHERE user_id = ? AND url = ?`, userID, item.URL).Scan(&existingID)

	switch err {
	case sql.ErrNoRows:
		res, err := s.db.Exec(`
			INSERT INTO saved_content
				(user_id, url, title, user_notes, category, tags, extracted_text, quality_score, embedding, saved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
			userID, item.URL, item.Title, item.UserNotes, item.Category, string(tagsJSON),
			item.ExtractedText, item.QualityScore, embeddingBlob)
		if err != nil {
			return UpsertResult{}, apperr.StoreUnavailable("insert bookmark", err)
		}
		id, _ := res.LastInsertId()
		return UpsertResult{ID: id, Created: true}, nil

	case nil:
		_, err := s.db.Exec(`
			UPDATE saved_content
			SET title = ?, user_notes = ?, category = ?, tags = ?,
			    extracted_text = ?, quality_score = ?, embedding = ?
			WHERE id = ?`,
			item.Title, item.UserNotes, item.Category, string(tagsJSON),
			item.ExtractedText, item.QualityScore, embeddingBlob, existingID)
		if err != nil {
			return UpsertResult{}, apperr.StoreUnavailable("update bookmark", err)
		}
		return UpsertResult{ID: existingID, Created: false}, nil

	default:
		return UpsertResult{}, apperr.StoreUnavailable("check existing bookmark", err)
	}
}

// BulkUpsertBookmarks upserts every item for userID in order, reporting
// incremental progress via sink (which may be nil). A failure on one
// item doesn't stop the rest; its error is counted in the final
// BulkProgress.Failed and swallowed from the return error.
func (s *Store) BulkUpsertBookmarks(userID int64, items []UpsertItem, sink ProgressSink) (BulkProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress := BulkProgress{Total: len(items)}

	for _, item := range items {
		if _, err := s.upsertBookmarkLocked(userID, item); err != nil {
			progress.Failed++
		} else {
			progress.Succeeded++
		}
		progress.Processed++
		if sink != nil {
			sink(progress)
		}
	}

	return progress, nil
}

// DeleteBookmark removes userID's bookmark by id.
func (s *Store) DeleteBookmark(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM saved_content WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return apperr.StoreUnavailable("delete bookmark", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("bookmark not found", nil)
	}
	return nil
}

// DeleteBookmarkByURL removes userID's bookmark matching url exactly.
func (s *Store) DeleteBookmarkByURL(userID int64, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM saved_content WHERE url = ? AND user_id = ?`, url, userID)
	if err != nil {
		return apperr.StoreUnavailable("delete bookmark by url", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("bookmark not found", nil)
	}
	return nil
}
