package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"survey-builder/internal/domain"
)

func TestSurveyCacheRoundTripsThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewSurveyCache(newClient(mr), time.Minute)
	ctx := context.Background()

	if _, err := cache.GetSurvey(ctx, "abc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected miss, got %v", err)
	}

	if err := cache.PutSurvey(ctx, sampleEntry("first")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := cache.PutSurvey(ctx, sampleEntry("second")); err != nil {
		t.Fatalf("put duplicate: %v", err)
	}

	got, err := cache.GetSurvey(ctx, "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "first" {
		t.Fatalf("expected first write to win, got %q", got.Title)
	}
	if len(got.Questions) != 1 || got.Questions[0].ScaleMax == nil || *got.Questions[0].ScaleMax != 5 {
		t.Fatalf("unexpected questions %+v", got.Questions)
	}

	ttl := mr.TTL("survey:cache:abc")
	if ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with jitter, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := cache.GetSurvey(ctx, "abc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestKVMapsMissingKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	kv := NewKV(newClient(mr), "builder:", 0)
	ctx := context.Background()
	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := kv.Set(ctx, "k", `"v"`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("builder:k"); got != `"v"` {
		t.Fatalf("expected prefixed key, got %q", got)
	}
}

func sampleEntry(title string) domain.CachedSurvey {
	five := 5
	return domain.CachedSurvey{
		Key: "abc",
		Content: domain.SurveyContent{
			Title: title,
			Questions: []domain.SurveyQuestion{
				{ID: "q1", Type: domain.ExternalRating, Text: "Rate", ScaleMax: &five},
			},
		},
	}
}
