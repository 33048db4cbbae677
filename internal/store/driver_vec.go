//go:build sqlite_vec && cgo

package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// Driver name when built with the sqlite_vec tag: mattn/go-sqlite3 is a
// cgo binding that can load the sqlite-vec extension, unlike the pure-Go
// default driver.
const driverName = "sqlite3"

// enableANN is true in this build: SemanticSearch computes distances in
// SQL with sqlite-vec's vec_distance_cosine instead of in Go. No vec0
// index table is created, so every embedded row of the user is scanned.
const enableANN = true

func init() {
	vec.Auto()
	annSearchFn = vecSearch
}

// vecSearch orders userID's embedded bookmarks by vec_distance_cosine to
// query, computed in SQL over saved_content, and returns the nearest.
func vecSearch(db *sql.DB, userID int64, query []float32, limit int) ([]ScoredCandidate, error) {
	blob, err := encodeEmbedding(query)
	if err != nil {
		return nil, fmt.Errorf("encode query embedding: %w", err)
	}

	rows, err := db.Query(`
		SELECT sc.id, sc.user_id, sc.url, sc.title, sc.user_notes, sc.category,
		       sc.tags, sc.extracted_text, sc.quality_score, sc.embedding,
		       sc.saved_at, sc.analysis_failed_at, sc.analysis_attempts,
		       vec_distance_cosine(sc.embedding, ?) AS distance
		FROM saved_content sc
		WHERE sc.user_id = ? AND sc.embedding IS NOT NULL
		ORDER BY distance ASC
		LIMIT ?`, blob, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ann query: %w", err)
	}
	defer rows.Close()

	var out []ScoredCandidate
	for rows.Next() {
		var sc ScoredCandidate
		if err := scanBookmarkWithDistance(rows, &sc); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
