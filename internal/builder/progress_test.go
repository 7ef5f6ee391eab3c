package builder_test

import (
	"testing"

	"survey-builder/internal/builder"
	"survey-builder/internal/domain"
)

func TestProgress(t *testing.T) {
	cases := []struct {
		name  string
		draft domain.Draft
		want  int
	}{
		{"empty", domain.Draft{}, 0},
		{"complete", domain.Draft{Title: "x", Description: "y", Questions: []domain.Question{{Saved: true}}}, 100},
		{"title only", domain.Draft{Title: "x", Questions: []domain.Question{{Saved: false}}}, 33},
		{"whitespace title", domain.Draft{Title: "  ", Description: "y"}, 33},
		{"saved questions only", domain.Draft{Questions: []domain.Question{{Saved: true}, {Saved: true}}}, 33},
		{"one unsaved", domain.Draft{Title: "x", Description: "y", Questions: []domain.Question{{Saved: true}, {Saved: false}}}, 66},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := builder.Progress(tc.draft); got != tc.want {
				t.Fatalf("Progress() = %d, want %d", got, tc.want)
			}
		})
	}
}
