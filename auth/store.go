// Package auth holds the on-device credential state: token, refresh token,
// the serialized user and the onboarding flag, read once at process start
// and written on sign-in, sign-out and onboarding completion.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matchpoint-app/matchpoint-go/models"
)

// Credentials is the persisted key-value state
type Credentials struct {
	Token              string       `json:"token,omitempty"`
	RefreshToken       string       `json:"refreshToken,omitempty"`
	User               *models.User `json:"user,omitempty"`
	OnboardingComplete bool         `json:"onboardingComplete"`
}

// Store reads and writes credentials at a fixed path. The file stands in
// for the device's secure key-value storage.
type Store struct {
	path string
}

// NewStore creates a store at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads credentials from disk. A missing file is empty credentials,
// not an error.
func (s *Store) Load() (*Credentials, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return &creds, nil
}

// Save writes credentials to disk, creating parent directories as needed
func (s *Store) Save(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials dir: %w", err)
	}
	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// Clear removes the credentials file. Clearing an absent file is a no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
