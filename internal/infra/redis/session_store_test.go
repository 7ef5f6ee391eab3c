package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"survey-builder/internal/app"
	"survey-builder/internal/storage"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	factory := app.NewSessionFactory(app.SessionDeps{Storage: storage.New(NewKV(client, "", 0))})
	store := NewSessionStore(client, time.Minute, factory)

	_ = store.Acquire(context.Background(), "draft-1")
	if !mr.Exists("survey:session:draft-1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("survey:session:draft-1"); ttl != time.Minute {
		t.Fatalf("expected liveness ttl, got %v", ttl)
	}

	store.Release("draft-1")
	if mr.Exists("survey:session:draft-1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
