package spotify

import (
	"errors"
	"io/fs"
	"time"

	"github.com/desertthunder/slx/internal/shared"
)

// StoredToken is the on-disk token record. Only the refresh token is kept;
// access tokens are short-lived and re-minted on every run.
type StoredToken struct {
	RefreshToken string `json:"refresh_token"`
	SavedAt      string `json:"saved_at"`
}

// TokenStore persists the refresh token between runs.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store backed by the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the backing file path.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the stored refresh token. Returns an empty token without error
// when the file does not exist yet.
func (s *TokenStore) Load() (StoredToken, error) {
	var token StoredToken
	if err := shared.ReadJSONFile(s.path, &token); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StoredToken{}, nil
		}
		return StoredToken{}, err
	}
	return token, nil
}

// Save writes the refresh token with the current timestamp.
func (s *TokenStore) Save(refreshToken string) error {
	return shared.WriteJSONFile(s.path, StoredToken{
		RefreshToken: refreshToken,
		SavedAt:      time.Now().UTC().Format(time.RFC3339),
	})
}
