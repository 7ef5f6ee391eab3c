package answers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"survey-builder/internal/domain"
	"survey-builder/internal/storage"
)

// Store captures respondent preview answers keyed by question id. The whole map
// lives under one storage key and is rewritten on every change.
type Store struct {
	mu      sync.Mutex
	storage *storage.Adapter
}

func NewStore(s *storage.Adapter) *Store {
	return &Store{storage: s}
}

// Get returns the stored answer for questionID, or the zero answer for t:
// an empty []string for multiple choice, 0 for rating types and "" otherwise.
// Stored arrays come back as []string and numbers as float64.
func (s *Store) Get(ctx context.Context, questionID string, t domain.QuestionType) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw, ok := s.load(ctx)[questionID]; ok {
		if v, ok := decode(raw); ok {
			return v
		}
	}
	return zeroAnswer(t)
}

// Set overwrites the answer for questionID and persists the merged map.
func (s *Store) Set(ctx context.Context, questionID string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(ctx, questionID, value)
}

// ToggleMulti adds optionValue to the question's answer set or removes it when
// present. A stored value that is not a list counts as empty.
func (s *Store) ToggleMulti(ctx context.Context, questionID, optionValue string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current []string
	if raw, ok := s.load(ctx)[questionID]; ok {
		if v, ok := decode(raw); ok {
			current, _ = v.([]string)
		}
	}
	next := make([]string, 0, len(current)+1)
	found := false
	for _, v := range current {
		if v == optionValue && !found {
			found = true
			continue
		}
		next = append(next, v)
	}
	if !found {
		next = append(next, optionValue)
	}
	s.setLocked(ctx, questionID, next)
	return next
}

// All returns every stored answer.
func (s *Store) All(ctx context.Context) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load(ctx)
	out := make(map[string]any, len(all))
	for id, raw := range all {
		if v, ok := decode(raw); ok {
			out[id] = v
		}
	}
	return out
}

func (s *Store) setLocked(ctx context.Context, questionID string, value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	all := s.load(ctx)
	all[questionID] = encoded
	s.storage.Save(ctx, storage.KeyDraftResponses, all)
}

func (s *Store) load(ctx context.Context) map[string]json.RawMessage {
	all := map[string]json.RawMessage{}
	if !s.storage.Load(ctx, storage.KeyDraftResponses, &all) || all == nil {
		return map[string]json.RawMessage{}
	}
	return all
}

func decode(raw json.RawMessage) (any, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return nil, false
	}
	if list, ok := v.([]any); ok {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out, true
	}
	return v, true
}

func zeroAnswer(t domain.QuestionType) any {
	switch {
	case t == domain.MultipleChoice:
		return []string{}
	case t.IsRating():
		return float64(0)
	default:
		return ""
	}
}
