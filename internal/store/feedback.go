package store

import (
	"encoding/json"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
)

// RecordFeedback appends a feedback event. Events are never mutated or
// deleted once written.
func (s *Store) RecordFeedback(userID int64, f UserFeedback) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctxJSON, err := json.Marshal(f.ContextData)
	if err != nil {
		return 0, apperr.InvalidInput("encode feedback context", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO user_feedback
			(user_id, content_id, recommendation_id, feedback_type, context_data, timestamp)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		userID, f.ContentID, f.RecommendationID, string(f.FeedbackType), string(ctxJSON))
	if err != nil {
		return 0, apperr.StoreUnavailable("record feedback", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// ListFeedback returns userID's feedback events since `since`, most
// recent first. since.IsZero() returns everything.
func (s *Store) ListFeedback(userID int64, since time.Time) ([]UserFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, content_id, recommendation_id, feedback_type, context_data, timestamp
		FROM user_feedback WHERE user_id = ?`
	args := []any{userID}
	if !since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, since)
	}
	query += " ORDER BY timestamp DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.StoreUnavailable("list feedback", err)
	}
	defer rows.Close()

	var out []UserFeedback
	for rows.Next() {
		var f UserFeedback
		var ctxJSON string
		if err := rows.Scan(&f.ID, &f.UserID, &f.ContentID, &f.RecommendationID,
			&f.FeedbackType, &ctxJSON, &f.Timestamp); err != nil {
			return nil, apperr.StoreUnavailable("scan feedback", err)
		}
		if ctxJSON != "" {
			json.Unmarshal([]byte(ctxJSON), &f.ContextData)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
