package tokenstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"repfit/pkg/logging"
)

// DefaultStorageDir is the default directory for persisted client state,
// relative to the user's home directory.
const DefaultStorageDir = ".config/repfit"

// sessionFileName is the file holding the current session within the
// storage directory. Other state kept under the same directory uses
// disjoint names (oauth_state.json, demo/) so key scopes never collide.
const sessionFileName = "session.json"

// FileStore persists the session as a JSON file.
//
// SECURITY: This store handles bearer credentials. The session file is
// created with 0600 permissions and the storage directory with 0700.
// Token values are never logged, only expiry instants.
//
// If the backing directory cannot be created or written (quota, read-only
// home, disabled persistence) the store degrades: Get reports absent,
// Set/Clear log a warning. The caller then treats the user as
// unauthenticated instead of crashing.
type FileStore struct {
	mu  sync.Mutex
	dir string

	// cached mirrors the file contents; invalidated when an external
	// process rewrites the file (see Watcher).
	cached *Session
	loaded bool

	unavailable bool
}

// NewFileStore creates a file-backed store rooted at dir. An empty dir
// resolves to ~/.config/repfit.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logging.Warn("TokenStore", "Cannot determine home directory, session persistence disabled: %v", err)
			return &FileStore{unavailable: true}
		}
		dir = filepath.Join(homeDir, DefaultStorageDir)
	}

	s := &FileStore{dir: dir}
	if err := os.MkdirAll(dir, 0700); err != nil {
		logging.Warn("TokenStore", "Cannot create storage directory %s, session persistence disabled: %v", dir, err)
		s.unavailable = true
	}
	return s
}

// Dir returns the storage directory, or "" when persistence is disabled.
func (s *FileStore) Dir() string {
	if s.unavailable {
		return ""
	}
	return s.dir
}

// Get returns the persisted session. A missing or unreadable file reports
// absent rather than failing.
func (s *FileStore) Get() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return nil, false
	}

	if s.loaded {
		if s.cached == nil {
			return nil, false
		}
		return s.cached.Clone(), true
	}

	session, err := s.readFile()
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("TokenStore", "Failed to read session file: %v", err)
		}
		s.cached = nil
		s.loaded = true
		return nil, false
	}

	s.cached = session
	s.loaded = true
	return session.Clone(), true
}

// Set overwrites the persisted session atomically (temp file + rename).
func (s *FileStore) Set(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		logging.Warn("TokenStore", "Session persistence unavailable, session kept in memory only")
		s.cached = session.Clone()
		s.loaded = true
		return nil
	}

	if err := s.writeFile(session); err != nil {
		logging.Warn("TokenStore", "Failed to persist session: %v", err)
		s.cached = session.Clone()
		s.loaded = true
		return err
	}

	s.cached = session.Clone()
	s.loaded = true

	logging.Info("TokenStore", "Session stored, access token expires %s", session.Expiry.Format(time.RFC3339))
	return nil
}

// Clear removes the session file. A file that is already gone is not an
// error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	s.loaded = true

	if s.unavailable {
		return nil
	}

	err := os.Remove(s.sessionPath())
	if err != nil && !os.IsNotExist(err) {
		logging.Warn("TokenStore", "Failed to remove session file: %v", err)
		return err
	}

	logging.Info("TokenStore", "Session cleared")
	return nil
}

// Invalidate drops the in-memory cache so the next Get re-reads the file.
// The Watcher calls this when another process rewrites the session file.
func (s *FileStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.loaded = false
}

func (s *FileStore) sessionPath() string {
	return filepath.Join(s.dir, sessionFileName)
}

func (s *FileStore) readFile() (*Session, error) {
	data, err := os.ReadFile(s.sessionPath())
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *FileStore) writeFile(session *Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Write to a temp file first so a crash mid-write cannot leave a
	// truncated session behind, then rename into place.
	tmp, err := os.CreateTemp(s.dir, sessionFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to restrict session file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close session file: %w", err)
	}

	if err := os.Rename(tmpName, s.sessionPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
