package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"survey-builder/internal/app"
	"survey-builder/internal/domain"
	"survey-builder/internal/infra/memory"
	"survey-builder/internal/storage"
)

func TestBuilderServiceOpenAndClose(t *testing.T) {
	sessions := memory.NewSessionStore(app.NewSessionFactory(app.SessionDeps{Storage: storage.New(memory.NewKV())}))
	svc := app.NewBuilderService(sessions)
	ctx := context.Background()

	_, err := svc.Open(ctx, "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	first, err := svc.Open(ctx, "draft-7")
	require.NoError(t, err)
	second, err := svc.Open(ctx, "draft-7")
	require.NoError(t, err)
	assert.Same(t, first, second)

	svc.Close(ctx, "draft-7")
	_, err = svc.Session("draft-7")
	assert.NoError(t, err, "session stays while a connection is attached")

	svc.Close(ctx, "draft-7")
	_, err = svc.Session("draft-7")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type hookedSessions struct {
	app.SessionRepository
	beforeAcquire func()
}

func (h *hookedSessions) Acquire(ctx context.Context, draftID string) *app.BuilderSession {
	if hook := h.beforeAcquire; hook != nil {
		h.beforeAcquire = nil
		hook()
	}
	return h.SessionRepository.Acquire(ctx, draftID)
}

func TestBuilderServiceCloseDuringOpenKeepsOneSession(t *testing.T) {
	repo := &hookedSessions{
		SessionRepository: memory.NewSessionStore(app.NewSessionFactory(app.SessionDeps{Storage: storage.New(memory.NewKV())})),
	}
	svc := app.NewBuilderService(repo)
	ctx := context.Background()

	a, err := svc.Open(ctx, "d1")
	require.NoError(t, err)

	repo.beforeAcquire = func() { svc.Close(ctx, "d1") }
	b, err := svc.Open(ctx, "d1")
	require.NoError(t, err)
	assert.NotSame(t, a, b, "the idle session was dropped")
	assert.False(t, b.IsIdle())

	c, err := svc.Open(ctx, "d1")
	require.NoError(t, err)
	assert.Same(t, b, c)

	current, err := svc.Session("d1")
	require.NoError(t, err)
	assert.Same(t, b, current)
}
