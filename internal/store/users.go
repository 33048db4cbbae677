package store

import (
	"database/sql"
	"encoding/json"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
)

func scanUser(row rowScanner) (User, error) {
	var u User
	var techJSON string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &techJSON, &u.CreatedAt); err != nil {
		return User{}, err
	}
	if techJSON != "" {
		json.Unmarshal([]byte(techJSON), &u.TechnologyInterests)
	}
	return u, nil
}

// CreateUser inserts a new user, returning an apperr.Conflict if the
// username or email already exists.
func (s *Store) CreateUser(username, email, passwordHash string, interests []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	techJSON, _ := json.Marshal(interests)
	res, err := s.db.Exec(`
		INSERT INTO users (username, email, password_hash, technology_interests, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`, username, email, passwordHash, string(techJSON))
	if err != nil {
		return 0, apperr.Conflict("username or email already in use", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, username, email, password_hash, technology_interests, created_at
		FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return User{}, apperr.NotFound("user not found", err)
	}
	if err != nil {
		return User{}, apperr.StoreUnavailable("get user", err)
	}
	return u, nil
}

// GetUserByUsername fetches a user by username, used at login.
func (s *Store) GetUserByUsername(username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, username, email, password_hash, technology_interests, created_at
		FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return User{}, apperr.NotFound("user not found", err)
	}
	if err != nil {
		return User{}, apperr.StoreUnavailable("get user by username", err)
	}
	return u, nil
}

// UpdateTechnologyInterests overwrites a user's self-declared interests.
func (s *Store) UpdateTechnologyInterests(userID int64, interests []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	techJSON, _ := json.Marshal(interests)
	res, err := s.db.Exec(`UPDATE users SET technology_interests = ? WHERE id = ?`, string(techJSON), userID)
	if err != nil {
		return apperr.StoreUnavailable("update technology interests", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("user not found", nil)
	}
	return nil
}
