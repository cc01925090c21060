// Package tokenstore persists the Kite Connect access token and enforces
// its daily expiry. Kite invalidates access tokens every morning around
// 6 AM IST; tokens saved before that cutoff are treated as dead once the
// cutoff passes.
package tokenstore

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// expiryHour and expiryMinute define the daily cutoff in IST.
// The exchange flushes sessions around 6 AM; 7:30 gives margin for clock skew.
const (
	expiryHour   = 7
	expiryMinute = 30
)

// ist is the Asia/Kolkata timezone. Kite session expiry is defined in IST
// regardless of where this process runs.
var ist = loadIST()

func loadIST() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// Token is the persisted access token record.
type Token struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	SavedAt     time.Time `json:"saved_at"`
}

// Store manages access token persistence and expiry checks.
type Store struct {
	path string
	now  func() time.Time
}

// New creates a Store backed by the given file path.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Save writes the access token with the current timestamp. The file is
// created with 0600 permissions since it holds a live session credential.
func (s *Store) Save(accessToken, userID string) error {
	tok := Token{
		AccessToken: accessToken,
		UserID:      userID,
		SavedAt:     s.now().In(ist),
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// Load returns the stored token if it is still valid.
// Missing, corrupt, and expired token files all yield nil, nil: callers
// treat every one of those as "not authenticated", same as a fresh install.
func (s *Store) Load() (*Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, nil
	}
	if tok.AccessToken == "" {
		return nil, nil
	}

	if s.isExpired(tok.SavedAt) {
		return nil, nil
	}

	return &tok, nil
}

// Clear deletes the stored token. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// isExpired reports whether a token saved at savedAt is past the daily cutoff.
func (s *Store) isExpired(savedAt time.Time) bool {
	now := s.now().In(ist)
	savedAt = savedAt.In(ist)

	todayExpiry := time.Date(now.Year(), now.Month(), now.Day(), expiryHour, expiryMinute, 0, 0, ist)

	// Saved before today's cutoff and the cutoff has passed.
	if !now.Before(todayExpiry) && savedAt.Before(todayExpiry) {
		return true
	}

	// Saved on an earlier day.
	if savedAt.Year() != now.Year() || savedAt.YearDay() != now.YearDay() {
		return savedAt.Before(now)
	}

	return false
}
