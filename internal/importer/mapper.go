package importer

import (
	"github.com/google/uuid"
	"survey-builder/internal/domain"
)

// typeTable maps external question types onto builder types. Rating collapses to
// shortAnswer because the editor has no rating capture control.
var typeTable = map[string]domain.QuestionType{
	domain.ExternalSingleChoice:   domain.SingleChoice,
	domain.ExternalMultipleChoice: domain.MultipleChoice,
	domain.ExternalOpenText:       domain.ShortAnswer,
	domain.ExternalRating:         domain.ShortAnswer,
}

// Mapper converts imported surveys into builder questions.
type Mapper struct {
	newID func() string
}

func NewMapper(newID func() string) Mapper {
	if newID == nil {
		newID = uuid.NewString
	}
	return Mapper{newID: newID}
}

// MapExternalSurvey maps with random UUIDs for missing ids.
func MapExternalSurvey(payload *domain.ImportedSurvey) []domain.Question {
	return NewMapper(nil).Map(payload)
}

// Map returns the builder questions for payload, saved so they render in
// respondent form. A nil payload or one without questions maps to an empty list.
func (m Mapper) Map(payload *domain.ImportedSurvey) []domain.Question {
	if payload == nil || payload.Questions == nil {
		return []domain.Question{}
	}
	out := make([]domain.Question, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		options := make([]domain.Option, 0, len(q.Choices))
		for _, c := range q.Choices {
			options = append(options, domain.Option{ID: m.idOr(c.ID), Text: c.Label})
		}
		out = append(out, domain.Question{
			ID:      m.idOr(q.ID),
			Type:    mapType(q.Type),
			Title:   q.Text,
			Saved:   true,
			Options: options,
		})
	}
	return out
}

func (m Mapper) idOr(id string) string {
	if id != "" {
		return id
	}
	return m.newID()
}

func mapType(external string) domain.QuestionType {
	if t, ok := typeTable[external]; ok {
		return t
	}
	return domain.ShortAnswer
}
