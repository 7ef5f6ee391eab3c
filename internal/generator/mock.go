package generator

import (
	"context"
	"fmt"

	"survey-builder/internal/domain"
)

const (
	mockMinQuestions = 3
	answerHint       = "Your answer..."
)

// Mock produces a fixed feedback survey. It backs local development and stands in
// for the model when the upstream quota is exhausted.
type Mock struct{}

func NewMock() Mock { return Mock{} }

// GenerateSurvey returns between three and five fixed questions; language is ignored.
func (Mock) GenerateSurvey(_ context.Context, description string, numQuestions int, _ string) (domain.SurveyContent, error) {
	questions := mockQuestions()
	n := min(numQuestions, len(questions))
	n = max(n, mockMinQuestions)
	return domain.SurveyContent{
		Title:       "Survey: " + description,
		Description: fmt.Sprintf("Auto-generated (mock) from brief: %q", description),
		Questions:   questions[:n],
	}, nil
}

func mockQuestions() []domain.SurveyQuestion {
	return []domain.SurveyQuestion{
		{
			ID:       "q1",
			Type:     domain.ExternalSingleChoice,
			Text:     "How satisfied are you overall?",
			Required: true,
			Choices: []domain.Choice{
				{ID: "c1", Label: "Very satisfied"},
				{ID: "c2", Label: "Satisfied"},
				{ID: "c3", Label: "Neutral"},
				{ID: "c4", Label: "Dissatisfied"},
				{ID: "c5", Label: "Very dissatisfied"},
			},
		},
		{
			ID:       "q2",
			Type:     domain.ExternalRating,
			Text:     "Rate your overall experience",
			Required: true,
			ScaleMin: ptr(1),
			ScaleMax: ptr(5),
		},
		{
			ID:          "q3",
			Type:        domain.ExternalOpenText,
			Text:        "What did we do well?",
			Required:    true,
			Placeholder: ptr(answerHint),
		},
		{
			ID:          "q4",
			Type:        domain.ExternalOpenText,
			Text:        "What could we improve?",
			Required:    true,
			Placeholder: ptr(answerHint),
		},
		{
			ID:       "q5",
			Type:     domain.ExternalMultipleChoice,
			Text:     "Which aspects mattered most?",
			Required: true,
			Choices: []domain.Choice{
				{ID: "c1", Label: "Price"},
				{ID: "c2", Label: "Quality"},
				{ID: "c3", Label: "Delivery"},
				{ID: "c4", Label: "Customer support"},
			},
		},
	}
}

func ptr[T any](v T) *T { return &v }
