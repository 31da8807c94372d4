package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrSuperseded is returned for a run whose results were discarded because a
// newer request replaced it.
var ErrSuperseded = errors.New("run superseded by a newer request")

// ProfileStore persists the last-used profile id.
type ProfileStore interface {
	LastProfile() (string, error)
	SaveProfile(id string) error
}

// Session serialises user requests: at most one run is current, a new
// request cancels and supersedes the one in flight, and the output of the
// last successful run is kept until another run succeeds.
type Session struct {
	orch  *Orchestrator
	store ProfileStore

	mu        sync.Mutex
	profileID string
	restored  bool
	current   string
	cancel    context.CancelFunc
	last      *Result
}

// NewSession restores the active profile from store, falling back to the
// table default when none is saved or the saved id is no longer known. A nil
// store keeps the profile in memory only.
func NewSession(orch *Orchestrator, store ProfileStore) (*Session, error) {
	s := &Session{orch: orch, store: store, profileID: orch.Table().Default().ID}
	if store == nil {
		return s, nil
	}

	id, err := store.LastProfile()
	if err != nil {
		return nil, fmt.Errorf("load last profile: %w", err)
	}
	if _, err := orch.Table().Lookup(id); id != "" && err == nil {
		s.profileID = id
		s.restored = true
	}
	return s, nil
}

// Restored reports whether the active profile was loaded from the store
// rather than taken from the table default.
func (s *Session) Restored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restored
}

// ProfileID returns the active profile id.
func (s *Session) ProfileID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileID
}

// SetProfile switches the active profile, persists it and supersedes any
// run in flight.
func (s *Session) SetProfile(id string) error {
	if _, err := s.orch.Table().Lookup(id); err != nil {
		return err
	}

	s.mu.Lock()
	s.profileID = id
	s.supersedeLocked()
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveProfile(id); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
	}
	return nil
}

// Run starts a run of src with the active profile, superseding any run in
// flight. It returns ErrSuperseded if another request replaced this one
// before it finished. A failed run leaves Last unchanged.
func (s *Session) Run(ctx context.Context, src Source, updates chan<- Update) (*Result, error) {
	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.supersedeLocked()
	s.current = runID
	s.cancel = cancel
	profileID := s.profileID
	s.mu.Unlock()

	res, err := s.orch.Run(runCtx, runID, src, profileID, updates)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != runID {
		return nil, ErrSuperseded
	}
	s.current = ""
	s.cancel = nil
	if err != nil {
		return nil, err
	}
	s.last = res
	return res, nil
}

// Last returns the output of the most recent successful run, or nil.
func (s *Session) Last() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Session) supersedeLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.current = ""
	s.cancel = nil
}
