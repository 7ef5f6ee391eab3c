package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"survey-builder/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions themselves stay in process so snapshots keep flowing through the
// in-process subscribers; Redis marks which drafts are open on some instance.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	factory  app.SessionFactory
	mu       sync.RWMutex
	sessions map[string]*app.BuilderSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration, factory app.SessionFactory) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(ctx, s.key(draftID), "1", s.ttl).Err()
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
		_ = s.client.Del(context.Background(), s.key(draftID)).Err()
	}
}

func (s *SessionStore) key(draftID string) string {
	return "survey:session:" + draftID
}
