package app

import (
	"context"

	"survey-builder/internal/domain"
)

// SessionRepository abstracts where builder sessions live (in-memory, Redis-marked, etc).
// Acquire and Release must be atomic with respect to each other, so a session
// is never dropped while a connection is being attached to it.
type SessionRepository interface {
	// Acquire returns the draft's session, creating it if needed, with one more
	// connection attached.
	Acquire(ctx context.Context, draftID string) *BuilderSession
	Get(draftID string) (*BuilderSession, bool)
	// Release detaches one connection and drops the session once it is idle.
	Release(draftID string)
}

// SessionFactory builds the session for a draft the first time it is opened.
type SessionFactory func(ctx context.Context, draftID string) *BuilderSession

// NewSessionFactory returns a SessionFactory sharing deps between sessions.
func NewSessionFactory(deps SessionDeps) SessionFactory {
	return func(ctx context.Context, draftID string) *BuilderSession {
		return NewBuilderSession(ctx, draftID, deps)
	}
}

// BuilderService contains the builder use cases shared by every transport.
type BuilderService struct {
	sessions SessionRepository
}

func NewBuilderService(sessions SessionRepository) *BuilderService {
	return &BuilderService{sessions: sessions}
}

// Open attaches a connection to the draft's session, creating it if needed.
func (s *BuilderService) Open(ctx context.Context, draftID string) (*BuilderSession, error) {
	if draftID == "" {
		return nil, domain.ErrSessionNotFound
	}
	return s.sessions.Acquire(ctx, draftID), nil
}

// Session returns an already opened session.
func (s *BuilderService) Session(draftID string) (*BuilderSession, error) {
	session, ok := s.sessions.Get(draftID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Close detaches a connection and drops the session once nobody is attached.
// The draft's persisted state survives and is restored on the next Open.
func (s *BuilderService) Close(_ context.Context, draftID string) {
	s.sessions.Release(draftID)
}
