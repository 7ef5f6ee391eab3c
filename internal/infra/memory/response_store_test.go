package memory

import (
	"context"
	"testing"
)

func TestResponseStoreAssignsIncreasingIDs(t *testing.T) {
	store := NewResponseStore()
	ctx := context.Background()

	answers := map[string]any{"q1": "great"}
	id1, err := store.SaveResponse(ctx, "srv_a", answers)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	id2, _ := store.SaveResponse(ctx, "srv_b", map[string]any{"q1": 4.0})
	id3, _ := store.SaveResponse(ctx, "srv_a", map[string]any{"q1": "fine"})
	if id1 != 1 || id2 != 2 || id3 != 3 {
		t.Fatalf("unexpected ids %d %d %d", id1, id2, id3)
	}

	answers["q1"] = "mutated"
	got := store.Responses("srv_a")
	if len(got) != 2 || got[0]["q1"] != "great" || got[1]["q1"] != "fine" {
		t.Fatalf("unexpected responses %v", got)
	}
	if len(store.Responses("missing")) != 0 {
		t.Fatalf("expected no responses for unknown survey")
	}
}
