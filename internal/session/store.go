package session

import (
	"sync"
	"time"
)

// Snapshot is the complete mutable session state. It is always replaced
// as a unit so readers never observe a token without its derived user
// or vice versa.
type Snapshot struct {
	// Token is the current bearer token; empty when unauthenticated
	Token string

	// User is derived from Token; nil exactly when Token is empty
	User *User

	// WorkspaceID is the selected workspace
	WorkspaceID string

	// ExpiresAt is the token expiry, cached so authentication checks
	// do not re-decode the token
	ExpiresAt time.Time
}

// Store holds the session snapshot in process memory. All mutation goes
// through Replace and Clear; there are no field-level setters.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewStore returns an empty Store.
func NewStore() *Store { return &Store{} }

// Replace installs a new snapshot atomically.
func (s *Store) Replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// Clear resets the store to the unauthenticated state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Token returns the current bearer token, or empty.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Token
}
