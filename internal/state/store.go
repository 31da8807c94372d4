// Package state persists the last-used profile id between invocations.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
)

const (
	stateFile = "state.toml"
	lockFile  = "state.lock"
)

type document struct {
	LastProfile string    `toml:"last_profile"`
	UpdatedAt   time.Time `toml:"updated_at"`
}

// Store is a file-backed profile store. Concurrent processes are serialised
// with an advisory lock next to the state file.
type Store struct {
	dir  string
	lock *flock.Flock
}

// New returns a store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	return &Store{dir: dir, lock: flock.New(filepath.Join(dir, lockFile))}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, stateFile)
}

// LastProfile returns the saved profile id, or "" when nothing is saved yet.
func (s *Store) LastProfile() (string, error) {
	if _, err := os.Stat(s.dir); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err := s.lock.RLock(); err != nil {
		return "", fmt.Errorf("lock state: %w", err)
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read state: %w", err)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse state %s: %w", s.Path(), err)
	}
	return doc.LastProfile, nil
}

// SaveProfile records id as the last-used profile.
func (s *Store) SaveProfile(id string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock state: %w", err)
	}
	defer s.lock.Unlock()

	data, err := toml.Marshal(document{LastProfile: id, UpdatedAt: time.Now().UTC().Truncate(time.Second)})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
