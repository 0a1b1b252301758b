package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/teemow/workspace-mcp/internal/scopes"
)

// credentialRecord is the on-disk representation of a credential.
type credentialRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes"`
	Generation   int64     `json:"generation"`
}

// FileStore persists the credential as a JSON file readable only by the
// owning user. The file holds a long-lived refresh token, so the 0600 mode
// is a confidentiality requirement, not a nicety.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultCredentialPath returns the per-user cache location for the
// credential file, e.g. ~/.cache/workspace-mcp/credential.json on Linux.
func DefaultCredentialPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine user cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "workspace-mcp", "credential.json"), nil
}

// Load reads the persisted credential. A missing file is not an error; it
// just means the session starts unauthenticated.
func (s *FileStore) Load() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var rec credentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse credential file %s: %w", s.path, err)
	}

	return &Credential{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		Expiry:       rec.Expiry.UTC(),
		Scopes:       scopes.NewScopeSet(rec.Scopes...),
		Generation:   rec.Generation,
	}, nil
}

// Save writes the credential with mode 0600, creating the parent directory
// with 0700 if needed.
func (s *FileStore) Save(cred *Credential) error {
	rec := credentialRecord{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.Expiry.UTC(),
		Scopes:       cred.Scopes.Sorted(),
		Generation:   cred.Generation,
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// Delete removes the persisted credential. A missing file is fine.
func (s *FileStore) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credential file: %w", err)
	}
	return nil
}
