// Package credfile persists the session token between CLI invocations.
//
// Credentials live in ~/.consolekit/auth.json with owner-only
// permissions, alongside the user config file.
package credfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/trainsphere/consolekit/internal/apperr"
)

const (
	credDirName  = ".consolekit"
	credFileName = "auth.json"

	dirMode  = 0o700
	fileMode = 0o600
)

// Credentials is the on-disk record of the last authenticated session.
type Credentials struct {
	Token       string    `json:"token"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}

// Store reads and writes the credentials file under a base directory.
// The zero-value base means the user's home directory.
type Store struct {
	baseDir string
}

// NewStore returns a store rooted at the user's home directory.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	return &Store{baseDir: home}, nil
}

// NewStoreAt returns a store rooted at an explicit directory. Used in
// tests and by the --config-dir override.
func NewStoreAt(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Path returns the credentials file location.
func (s *Store) Path() string {
	return filepath.Join(s.baseDir, credDirName, credFileName)
}

// Save writes the credentials with owner-only permissions. The write
// goes through a temp file and rename so a crash cannot leave a
// half-written credentials file behind.
func (s *Store) Save(creds Credentials) error {
	dir := filepath.Dir(s.Path())
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return apperr.Wrap(apperr.CodeCredentialStore, "creating credentials directory", err,
			map[string]any{"path": dir})
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.CodeCredentialStore, "encoding credentials", err, nil)
	}

	tmp, err := os.CreateTemp(dir, credFileName+".*")
	if err != nil {
		return apperr.Wrap(apperr.CodeCredentialStore, "creating credentials file", err,
			map[string]any{"path": dir})
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return apperr.Wrap(apperr.CodeCredentialStore, "restricting credentials file mode", err, nil)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperr.Wrap(apperr.CodeCredentialStore, "writing credentials", err, nil)
	}
	if err := tmp.Close(); err != nil {
		return apperr.Wrap(apperr.CodeCredentialStore, "closing credentials file", err, nil)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		return apperr.Wrap(apperr.CodeCredentialStore, "installing credentials file", err,
			map[string]any{"path": s.Path()})
	}
	return nil
}

// Load reads the stored credentials. A missing file returns ok=false
// without an error; that is the normal logged-out state.
func (s *Store) Load() (Credentials, bool, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, false, nil
		}
		return Credentials{}, false, apperr.Wrap(apperr.CodeCredentialStore, "reading credentials", err,
			map[string]any{"path": s.Path()})
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, false, apperr.Wrap(apperr.CodeCredentialStore, "parsing credentials", err,
			map[string]any{"path": s.Path()})
	}
	if creds.Token == "" {
		return Credentials{}, false, nil
	}
	return creds, true, nil
}

// Clear removes the credentials file. Clearing an absent file is a
// no-op.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return apperr.Wrap(apperr.CodeCredentialStore, "removing credentials", err,
			map[string]any{"path": s.Path()})
	}
	return nil
}
