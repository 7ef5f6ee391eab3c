package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
	"survey-builder/internal/domain"
)

const (
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 12 * time.Second
)

const systemPrompt = "You are a survey design assistant. Given a short brief, produce a balanced survey " +
	"that mixes question types (single/multi choice, rating scales, open text). " +
	"Keep language clear and neutral. Return ONLY JSON that matches the provided schema."

// GenAI generates surveys with Gemini structured output.
type GenAI struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGenAI creates a Gemini backed generator. An empty model or a non-positive
// timeout selects the defaults.
func NewGenAI(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{client: client, model: model, timeout: timeout, logger: logger}, nil
}

func (g *GenAI) GenerateSurvey(ctx context.Context, description string, numQuestions int, language string) (domain.SurveyContent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		[]*genai.Content{genai.NewContentFromText(userInstruction(description, numQuestions, language), genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    SurveySchema(),
			Temperature:       genai.Ptr[float32](0.7),
		},
	)
	if err != nil {
		return domain.SurveyContent{}, classifyError(err)
	}
	g.logger.Debug("genai survey generated", zap.String("model", g.model), zap.Duration("elapsed", time.Since(start)))

	return decodeContent(result.Text())
}

// classifyError tags quota and rate limit responses with domain.ErrGeneratorOverloaded.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) &&
		(apiErr.Code == http.StatusTooManyRequests || strings.Contains(strings.ToUpper(apiErr.Status), "RESOURCE_EXHAUSTED")) {
		return fmt.Errorf("generate content: %w: %w", domain.ErrGeneratorOverloaded, err)
	}
	return fmt.Errorf("generate content: %w", err)
}

func userInstruction(description string, numQuestions int, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Brief: %s\n", description)
	fmt.Fprintf(&b, "Target number of questions: %d\n", numQuestions)
	fmt.Fprintf(&b, "Language: %s\n", language)
	b.WriteString("Constraints:\n")
	b.WriteString("- Use rating scale (1-5) when using rating type.\n")
	b.WriteString("- Provide 4-6 choices for multiple choice questions.\n")
	b.WriteString("- Ensure IDs are unique and stable strings (e.g., q1, q2, c1, c2...).\n")
	b.WriteString("- Mix types across the questionnaire and avoid redundancy.\n")
	return b.String()
}

func decodeContent(text string) (domain.SurveyContent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "{}"
	}
	var content domain.SurveyContent
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		return domain.SurveyContent{}, fmt.Errorf("decode survey json: %w", err)
	}
	return content, nil
}

// SurveySchema is the structured output contract handed to the model.
func SurveySchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       str,
			"description": str,
			"questions": {
				Type:     genai.TypeArray,
				MinItems: genai.Ptr[int64](3),
				MaxItems: genai.Ptr[int64](50),
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id": str,
						"type": {
							Type:   genai.TypeString,
							Format: "enum",
							Enum: []string{
								domain.ExternalSingleChoice,
								domain.ExternalMultipleChoice,
								domain.ExternalRating,
								domain.ExternalOpenText,
							},
						},
						"text":     str,
						"required": {Type: genai.TypeBoolean},
						"choices": {
							Type:     genai.TypeArray,
							Nullable: genai.Ptr(true),
							Items: &genai.Schema{
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"id":    str,
									"label": str,
								},
								Required: []string{"id", "label"},
							},
						},
						"scale_min":   {Type: genai.TypeInteger, Nullable: genai.Ptr(true)},
						"scale_max":   {Type: genai.TypeInteger, Nullable: genai.Ptr(true)},
						"placeholder": {Type: genai.TypeString, Nullable: genai.Ptr(true)},
					},
					Required: []string{"id", "type", "text"},
				},
			},
		},
		Required: []string{"title", "description", "questions"},
	}
}
