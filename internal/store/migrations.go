package store

import (
	"database/sql"
	"fmt"

	"github.com/codenerd-labs/bookmarkd/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	technology_interests TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS saved_content (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	user_notes TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	extracted_text TEXT NOT NULL DEFAULT '',
	quality_score INTEGER NOT NULL DEFAULT 0,
	embedding BLOB,
	saved_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	analysis_failed_at DATETIME,
	analysis_attempts INTEGER NOT NULL DEFAULT 0,
	analysis_claimed_at DATETIME,
	UNIQUE(user_id, url)
);
CREATE INDEX IF NOT EXISTS idx_saved_content_user ON saved_content(user_id, saved_at DESC);
CREATE INDEX IF NOT EXISTS idx_saved_content_category ON saved_content(user_id, category);

CREATE TABLE IF NOT EXISTS content_analysis (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	content_id INTEGER NOT NULL UNIQUE REFERENCES saved_content(id),
	technologies TEXT NOT NULL DEFAULT '[]',
	content_type TEXT NOT NULL DEFAULT '',
	difficulty TEXT NOT NULL DEFAULT '',
	key_concepts TEXT NOT NULL DEFAULT '[]',
	relevance_score INTEGER NOT NULL DEFAULT 0,
	learning_path TEXT NOT NULL DEFAULT '[]',
	project_applicability TEXT NOT NULL DEFAULT '',
	skill_development TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	technologies TEXT NOT NULL DEFAULT '[]',
	intent_json TEXT NOT NULL DEFAULT '',
	intent_analysis_updated INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id);

CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL REFERENCES projects(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	embedding BLOB,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);

CREATE TABLE IF NOT EXISTS user_feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	content_id INTEGER NOT NULL,
	recommendation_id TEXT NOT NULL DEFAULT '',
	feedback_type TEXT NOT NULL,
	context_data TEXT NOT NULL DEFAULT '{}',
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_feedback_user ON user_feedback(user_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_feedback_content ON user_feedback(user_id, content_id);
`

// columnMigration adds a column to a table that may already exist without
// it, for databases created by an earlier schema version.
type columnMigration struct {
	table  string
	column string
	def    string
}

var pendingColumnMigrations = []columnMigration{
	{"saved_content", "analysis_failed_at", "DATETIME"},
	{"saved_content", "analysis_attempts", "INTEGER NOT NULL DEFAULT 0"},
	{"saved_content", "analysis_claimed_at", "DATETIME"},
}

func runMigrations(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "runMigrations")
	defer timer.Stop()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply base schema: %w", err)
	}

	for _, m := range pendingColumnMigrations {
		if !tableExists(db, m.table) {
			continue
		}
		if columnExists(db, m.table, m.column) {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.def)
		if _, err := db.Exec(stmt); err != nil {
			logging.Get(logging.CategoryStore).Warn("column migration failed for %s.%s: %v", m.table, m.column, err)
			continue
		}
		logging.Get(logging.CategoryStore).Info("added column %s.%s", m.table, m.column)
	}

	return nil
}

func tableExists(db *sql.DB, table string) bool {
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
	return err == nil
}

func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}
