package store

import (
	"database/sql"
	"encoding/json"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
)

func scanProject(row rowScanner) (Project, error) {
	var p Project
	var techJSON string
	var intentUpdated int
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &techJSON,
		&p.IntentJSON, &intentUpdated, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	if techJSON != "" {
		json.Unmarshal([]byte(techJSON), &p.Technologies)
	}
	p.IntentAnalysisUpdated = intentUpdated != 0
	return p, nil
}

// CreateProject inserts a new project for userID.
func (s *Store) CreateProject(userID int64, title, description string, technologies []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	techJSON, _ := json.Marshal(technologies)
	res, err := s.db.Exec(`
		INSERT INTO projects (user_id, title, description, technologies, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		userID, title, description, string(techJSON))
	if err != nil {
		return 0, apperr.StoreUnavailable("create project", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// GetProject fetches userID's project by id.
func (s *Store) GetProject(userID, id int64) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, user_id, title, description, technologies, intent_json,
		       intent_analysis_updated, created_at, updated_at
		FROM projects WHERE id = ? AND user_id = ?`, id, userID)

	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return Project{}, apperr.NotFound("project not found", err)
	}
	if err != nil {
		return Project{}, apperr.StoreUnavailable("get project", err)
	}
	return p, nil
}

// ListProjects returns all of userID's projects, newest-first.
func (s *Store) ListProjects(userID int64) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, user_id, title, description, technologies, intent_json,
		       intent_analysis_updated, created_at, updated_at
		FROM projects WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, apperr.StoreUnavailable("list projects", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, apperr.StoreUnavailable("scan project", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveProjectIntent caches a computed Intent (serialized as JSON) on the
// project so repeat recommendation requests can skip re-analysis.
func (s *Store) SaveProjectIntent(userID, projectID int64, intentJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE projects SET intent_json = ?, intent_analysis_updated = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`, intentJSON, projectID, userID)
	if err != nil {
		return apperr.StoreUnavailable("save project intent", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("project not found", nil)
	}
	return nil
}

// InvalidateProjectIntent clears the cached Intent, e.g. after the
// project's technologies or description change.
func (s *Store) InvalidateProjectIntent(userID, projectID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE projects SET intent_json = '', intent_analysis_updated = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return apperr.StoreUnavailable("invalidate project intent", err)
	}
	return nil
}

// CreateTask inserts a task under projectID.
func (s *Store) CreateTask(projectID int64, title, description string, embedding []float32) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob []byte
	if embedding != nil {
		var err error
		blob, err = encodeEmbedding(embedding)
		if err != nil {
			return 0, apperr.InvalidInput("encode task embedding", err)
		}
	}

	res, err := s.db.Exec(`
		INSERT INTO tasks (project_id, title, description, embedding, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`, projectID, title, description, blob)
	if err != nil {
		return 0, apperr.StoreUnavailable("create task", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// ListTasks returns projectID's tasks, oldest-first.
func (s *Store) ListTasks(projectID int64) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, project_id, title, description, embedding, created_at
		FROM tasks WHERE project_id = ? ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, apperr.StoreUnavailable("list tasks", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		var blob []byte
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &blob, &t.CreatedAt); err != nil {
			return nil, apperr.StoreUnavailable("scan task", err)
		}
		if blob != nil {
			if emb, err := decodeEmbedding(blob); err == nil {
				t.Embedding = emb
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
