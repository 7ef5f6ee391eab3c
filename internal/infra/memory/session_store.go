package memory

import (
	"context"
	"sync"

	"survey-builder/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	factory  app.SessionFactory
	mu       sync.RWMutex
	sessions map[string]*app.BuilderSession
}

func NewSessionStore(factory app.SessionFactory) *SessionStore {
	return &SessionStore{
		factory:  factory,
		sessions: make(map[string]*app.BuilderSession),
	}
}

func (s *SessionStore) Acquire(ctx context.Context, draftID string) *app.BuilderSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[draftID]; ok {
		session.Attach()
		return session
	}
	session := s.factory(ctx, draftID)
	session.Attach()
	s.sessions[draftID] = session
	return session
}

func (s *SessionStore) Get(draftID string) (*app.BuilderSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[draftID]
	return session, ok
}

func (s *SessionStore) Release(draftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[draftID]
	if !ok {
		return
	}
	if session.Detach() {
		delete(s.sessions, draftID)
	}
}
