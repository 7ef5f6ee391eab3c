package memory

import (
	"context"
	"sync"
)

// ResponseStore keeps respondent submissions in memory; ids start at 1.
type ResponseStore struct {
	mu        sync.Mutex
	nextID    int64
	bySurvey  map[string][]int64
	responses map[int64]map[string]any
}

func NewResponseStore() *ResponseStore {
	return &ResponseStore{
		bySurvey:  make(map[string][]int64),
		responses: make(map[int64]map[string]any),
	}
}

func (s *ResponseStore) SaveResponse(_ context.Context, surveyID string, answers map[string]any) (int64, error) {
	copied := make(map[string]any, len(answers))
	for k, v := range answers {
		copied[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.responses[s.nextID] = copied
	s.bySurvey[surveyID] = append(s.bySurvey[surveyID], s.nextID)
	return s.nextID, nil
}

// Responses returns the answers recorded for surveyID in submission order.
func (s *ResponseStore) Responses(surveyID string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.bySurvey[surveyID]
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.responses[id])
	}
	return out
}
