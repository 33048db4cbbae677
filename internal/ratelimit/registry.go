// Package ratelimit stores each user's own LLM API key (encrypted at
// rest) and enforces per-user request quotas so one user's usage can
// never exhaust another's.
package ratelimit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
	"github.com/codenerd-labs/bookmarkd/internal/logging"
)

// Limits bounds a user's LLM call volume across three overlapping
// windows; all three must be satisfied for a call to be allowed.
type Limits struct {
	PerMinute int
	PerDay    int
	PerMonth  int
}

// Usage is the current counters for a user's CheckAndReserve window, for
// display to the user.
type Usage struct {
	Minute, Day, Month int
	MinuteResetAt      time.Time
	DayResetAt         time.Time
	MonthResetAt       time.Time
}

type userWindow struct {
	minuteCount int
	minuteReset time.Time
	dayCount    int
	dayReset    time.Time
	monthCount  int
	monthReset  time.Time
}

type storedKey struct {
	Ciphertext string `json:"ciphertext"`
}

// Registry manages per-user API keys and rate-limit reservations.
type Registry struct {
	mu            sync.Mutex
	encryptionKey string
	keysFile      string
	keys          map[int64]storedKey
	windows       map[int64]*userWindow
	limits        Limits
}

// NewRegistry loads any persisted keys from keysFile (if it exists) and
// returns a ready Registry. encryptionKey must be non-empty; every key
// at rest is encrypted with it.
func NewRegistry(keysFile, encryptionKey string, limits Limits) (*Registry, error) {
	if encryptionKey == "" {
		return nil, apperr.Internal("ratelimit: encryption key is required", nil)
	}

	r := &Registry{
		encryptionKey: encryptionKey,
		keysFile:      keysFile,
		keys:          make(map[int64]storedKey),
		windows:       make(map[int64]*userWindow),
		limits:        limits,
	}

	if keysFile != "" {
		if data, err := os.ReadFile(keysFile); err == nil {
			if err := json.Unmarshal(data, &r.keys); err != nil {
				return nil, fmt.Errorf("parse keys file %s: %w", keysFile, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read keys file %s: %w", keysFile, err)
		}
	}

	return r, nil
}

// SetLimits replaces the quotas applied to future CheckAndReserve calls.
// Existing per-user window counters are left alone; only the thresholds
// they're compared against change.
func (r *Registry) SetLimits(limits Limits) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limits = limits
}

func (r *Registry) persistLocked() error {
	if r.keysFile == "" {
		return nil
	}
	if dir := filepath.Dir(r.keysFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create keys directory: %w", err)
		}
	}
	data, err := json.Marshal(r.keys)
	if err != nil {
		return fmt.Errorf("encode keys: %w", err)
	}
	return os.WriteFile(r.keysFile, data, 0o600)
}

// SetKey stores userID's own API key, encrypted at rest.
func (r *Registry) SetKey(userID int64, apiKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ciphertext, err := encrypt(r.encryptionKey, apiKey)
	if err != nil {
		return apperr.Internal("encrypt api key", err)
	}
	r.keys[userID] = storedKey{Ciphertext: ciphertext}

	if err := r.persistLocked(); err != nil {
		logging.Get(logging.CategoryRateLimit).Warn("failed to persist api keys: %v", err)
	}
	return nil
}

// ClearKey removes userID's stored key, reverting them to the process
// default key for subsequent calls; their per-user quota is unchanged.
func (r *Registry) ClearKey(userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.keys, userID)
	if err := r.persistLocked(); err != nil {
		logging.Get(logging.CategoryRateLimit).Warn("failed to persist api keys: %v", err)
	}
	return nil
}

// HasKey reports whether userID has their own key on file.
func (r *Registry) HasKey(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.keys[userID]
	return ok
}

// GetKey decrypts and returns userID's own key, or "" if they have none.
func (r *Registry) GetKey(userID int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.keys[userID]
	if !ok {
		return "", nil
	}
	plaintext, err := decrypt(r.encryptionKey, stored.Ciphertext)
	if err != nil {
		return "", apperr.Internal("decrypt api key", err)
	}
	return plaintext, nil
}
