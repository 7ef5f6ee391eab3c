package importer_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"survey-builder/internal/domain"
	"survey-builder/internal/importer"
)

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}

func parse(t *testing.T, raw string) *domain.ImportedSurvey {
	t.Helper()
	var s domain.ImportedSurvey
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &s
}

func TestMapRatingDowngradesToShortAnswer(t *testing.T) {
	got := importer.NewMapper(counter()).Map(parse(t, `{"questions":[{"type":"rating","text":"Rate us","choices":[]}]}`))

	want := []domain.Question{{ID: "gen-1", Type: domain.ShortAnswer, Title: "Rate us", Saved: true, Options: []domain.Option{}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mapped questions mismatch (-want +got):\n%s", diff)
	}
}

func TestMapAbsentPayload(t *testing.T) {
	if got := importer.MapExternalSurvey(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice for nil payload, got %#v", got)
	}
	if got := importer.MapExternalSurvey(parse(t, `{}`)); len(got) != 0 {
		t.Fatalf("expected empty slice for {}, got %#v", got)
	}
	if got := importer.MapExternalSurvey(parse(t, `{"questions":{"q1":{}}}`)); len(got) != 0 {
		t.Fatalf("expected empty slice for non-array questions, got %#v", got)
	}
}

func TestMapTypesAndIDs(t *testing.T) {
	payload := parse(t, `{
		"id": "srv_x",
		"questions": [
			{"id": "q1", "type": "multiple_choice_single", "text": "Pick one",
			 "choices": [{"id": "c1", "label": "A"}, {"label": "B"}]},
			{"id": "q2", "type": "multiple_choice_multi", "text": "Pick many", "choices": [{"id": "c1", "label": "X"}]},
			{"type": "open_text", "text": "Why?"},
			{"id": "", "type": "something_new"},
			{"id": "q5"}
		]
	}`)

	got := importer.NewMapper(counter()).Map(payload)

	want := []domain.Question{
		{ID: "q1", Type: domain.SingleChoice, Title: "Pick one", Saved: true, Options: []domain.Option{{ID: "c1", Text: "A"}, {ID: "gen-1", Text: "B"}}},
		{ID: "q2", Type: domain.MultipleChoice, Title: "Pick many", Saved: true, Options: []domain.Option{{ID: "c1", Text: "X"}}},
		{ID: "gen-2", Type: domain.ShortAnswer, Title: "Why?", Saved: true, Options: []domain.Option{}},
		{ID: "gen-3", Type: domain.ShortAnswer, Saved: true, Options: []domain.Option{}},
		{ID: "q5", Type: domain.ShortAnswer, Saved: true, Options: []domain.Option{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mapped questions mismatch (-want +got):\n%s", diff)
	}
}

func TestMapGeneratesUniqueIDsByDefault(t *testing.T) {
	got := importer.MapExternalSurvey(parse(t, `{"questions":[{"text":"a"},{"text":"b"}]}`))
	if len(got) != 2 || got[0].ID == "" || got[0].ID == got[1].ID {
		t.Fatalf("expected two distinct generated ids, got %+v", got)
	}
}
