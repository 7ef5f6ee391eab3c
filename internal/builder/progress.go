package builder

import (
	"strings"

	"survey-builder/internal/domain"
)

// Progress scores a draft from 0 to 100: a third each for a title, a description
// and a non-empty question list that is entirely saved.
func Progress(d domain.Draft) int {
	done := 0
	if strings.TrimSpace(d.Title) != "" {
		done++
	}
	if strings.TrimSpace(d.Description) != "" {
		done++
	}
	if allSaved(d.Questions) {
		done++
	}
	return done * 100 / 3
}

func allSaved(questions []domain.Question) bool {
	if len(questions) == 0 {
		return false
	}
	for _, q := range questions {
		if !q.Saved {
			return false
		}
	}
	return true
}
