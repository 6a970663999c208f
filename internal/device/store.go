package device

import "sync"

// Snapshot is a State together with the store version it was read at.
type Snapshot struct {
	State
	Version uint64 `json:"version"`
}

// Store holds the canonical device State.
//
// All methods are thread-safe. Reads return copies; the only way to change
// the state is Update.
type Store struct {
	mu      sync.RWMutex
	state   State
	version uint64
}

// NewStore creates a store holding InitialState at version 0.
func NewStore() *Store {
	return &Store{state: InitialState()}
}

// Snapshot returns the current state and its version.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{State: s.state, Version: s.version}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Version returns the number of changes applied so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Update computes the next state from the current one and stores it.
//
// fn runs with the write lock held and must not block. The version is
// bumped only when the returned state differs from the current one.
//
// Returns:
//   - State: The state after the update
//   - uint64: The version after the update
//   - bool: True if the state changed
func (s *Store) Update(fn func(State) State) (State, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.state)
	if next.Equal(s.state) {
		return s.state, s.version, false
	}

	s.state = next
	s.version++
	return s.state, s.version, true
}
