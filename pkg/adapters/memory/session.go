package memory

import (
	"context"
	"sync"

	"github.com/aretw0/roteiro/pkg/domain"
)

// SessionStore implements ports.SessionStore in memory.
// Safe for concurrent use.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.NavigationState
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string]*domain.NavigationState)}
}

// Save stores an isolated copy of the state.
func (s *SessionStore) Save(ctx context.Context, sessionID string, state *domain.NavigationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = state.Clone()
	return nil
}

// Load returns a copy so callers cannot mutate stored state by pointer.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.NavigationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Clone(), nil
}

// Delete removes the session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the live session IDs.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
