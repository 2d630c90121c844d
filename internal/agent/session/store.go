package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pokemcp/pkg/logging"
)

// DefaultTokenFile is the credential file location relative to the home
// directory.
const DefaultTokenFile = ".config/pokemcp/session.json"

const subsystemStore = "CredentialStore"

// CredentialStore persists one Session in a single file.
//
// SECURITY: The file holds bearer credentials.
//   - The directory is created with 0700 and the file with 0600 permissions
//   - Writes go to a temporary file in the same directory that is renamed
//     over the target, so readers never observe a partial record
//   - Token values are never logged
//
// Concurrent writers from different processes are not coordinated; the last
// rename wins.
type CredentialStore struct {
	mu   sync.Mutex
	path string
}

// NewCredentialStore creates a store for path. An empty path selects
// DefaultTokenFile under the user's home directory.
func NewCredentialStore(path string) (*CredentialStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, DefaultTokenFile)
	}
	return &CredentialStore{path: path}, nil
}

// Path returns the credential file location.
func (s *CredentialStore) Path() string {
	return s.path
}

// Save replaces the stored session.
func (s *CredentialStore) Save(sess *Session) error {
	if !sess.Valid() {
		return errors.New("refusing to store a session without access token or expiry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.writeAtomic(data); err != nil {
		logging.Audit("token_store_failed", "Session storage failed",
			"path", s.path,
			"error", err.Error(),
		)
		return err
	}

	logging.Audit("token_stored", "Session stored",
		"path", s.path,
		"user_id", sess.UserID,
		"expires_at", sess.ExpiresAt,
		"has_refresh_token", sess.RefreshToken != "",
	)
	return nil
}

func (s *CredentialStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary credential file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict credential file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credential file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	committed = true

	// The target may predate this store with looser permissions.
	if err := os.Chmod(s.path, 0600); err != nil {
		return fmt.Errorf("failed to restrict credential file permissions: %w", err)
	}
	return nil
}

// Load returns the stored session, or nil when there is none. A missing,
// unreadable or malformed file counts as no session; Load never fails.
func (s *CredentialStore) Load() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn(subsystemStore, "Ignoring unreadable credential file %s: %v", s.path, err)
		}
		return nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		logging.Warn(subsystemStore, "Ignoring malformed credential file %s", s.path)
		return nil
	}

	if !sess.Valid() {
		logging.Debug(subsystemStore, "Credential file %s has no usable session", s.path)
		return nil
	}
	return &sess
}

// Clear removes the stored session. Clearing an absent session is not an
// error.
func (s *CredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete credential file: %w", err)
	}

	logging.Audit("token_deleted", "Session cleared", "path", s.path)
	return nil
}
