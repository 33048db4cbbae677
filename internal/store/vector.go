package store

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// annSearchFn is set by driver_vec.go when built with the sqlite_vec tag;
// it stays nil in the default pure-Go build.
var annSearchFn func(db *sql.DB, userID int64, query []float32, limit int) ([]ScoredCandidate, error)

func encodeEmbedding(v []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, f := range v {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	r := bytes.NewReader(b)
	for i := range out {
		if err := binary.Read(r, binary.LittleEndian, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return math.MaxFloat64
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return 1 - sim
}

// SemanticSearch returns the limit bookmarks belonging to userID closest
// to query by cosine distance, ascending. Every embedded row for the user
// is scanned: in SQL via sqlite-vec when the build has it, otherwise in
// Go. No vector index is used.
func (s *Store) SemanticSearch(userID int64, query []float32, limit int) ([]ScoredCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	if enableANN && annSearchFn != nil {
		return annSearchFn(s.db, userID, query, limit)
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, url, title, user_notes, category, tags,
		       extracted_text, quality_score, embedding, saved_at,
		       analysis_failed_at, analysis_attempts
		FROM saved_content
		WHERE user_id = ? AND embedding IS NOT NULL`, userID)
	if err != nil {
		return nil, fmt.Errorf("semantic search scan: %w", err)
	}
	defer rows.Close()

	var candidates []ScoredCandidate
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, ScoredCandidate{
			Bookmark: b,
			Distance: cosineDistance(query, b.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Distance < candidates[j].Distance })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
