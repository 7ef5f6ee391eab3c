package domain

import (
	"encoding/json"
	"time"
)

// QuestionType is one of the fixed kinds of question a draft can hold.
type QuestionType string

const (
	SingleChoice   QuestionType = "singleChoice"
	MultipleChoice QuestionType = "multipleChoice"
	ShortAnswer    QuestionType = "shortAnswer"
	OpenQuestion   QuestionType = "openQuestion"
	Scale          QuestionType = "scale"
	NPSScore       QuestionType = "npsScore"
)

// DefaultQuestionType is used when a question is added without an explicit type.
const DefaultQuestionType = ShortAnswer

// IsChoice reports whether questions of this type carry options.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultipleChoice
}

// IsRating reports whether answers to this type are numeric.
func (t QuestionType) IsRating() bool {
	return t == Scale || t == NPSScore
}

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case SingleChoice, MultipleChoice, ShortAnswer, OpenQuestion, Scale, NPSScore:
		return true
	}
	return false
}

// Option is a selectable answer owned by a single question.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question is one item of a survey draft.
type Question struct {
	ID      string       `json:"id" yaml:"id"`
	Type    QuestionType `json:"type" yaml:"type"`
	Title   string       `json:"title" yaml:"title"`
	Saved   bool         `json:"saved" yaml:"saved"`
	Options []Option     `json:"options" yaml:"options,omitempty"`
	IsTag   bool         `json:"isTag,omitempty" yaml:"isTag,omitempty"`
}

// Clone returns a copy that shares no option storage with q.
func (q Question) Clone() Question {
	q.Options = append([]Option(nil), q.Options...)
	if q.Options == nil {
		q.Options = []Option{}
	}
	return q
}

// Draft is the in-progress survey being authored.
type Draft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// DraftSnapshot is what transports push to clients after every change.
type DraftSnapshot struct {
	DraftID     string     `json:"draftId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	Progress    int        `json:"progress"`
	Generating  bool       `json:"generating"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// External question types produced by the generation service.
const (
	ExternalSingleChoice   = "multiple_choice_single"
	ExternalMultipleChoice = "multiple_choice_multi"
	ExternalOpenText       = "open_text"
	ExternalRating         = "rating"
)

// Choice is a selectable label of a generated question.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SurveyQuestion is the strict server-side shape of a generated question.
type SurveyQuestion struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Text        string   `json:"text"`
	Required    bool     `json:"required"`
	Choices     []Choice `json:"choices"`
	ScaleMin    *int     `json:"scale_min"`
	ScaleMax    *int     `json:"scale_max"`
	Placeholder *string  `json:"placeholder"`
}

// UnmarshalJSON treats an absent "required" as true.
func (q *SurveyQuestion) UnmarshalJSON(data []byte) error {
	type plain SurveyQuestion
	decoded := plain{Required: true}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*q = SurveyQuestion(decoded)
	return nil
}

// SurveyContent is what a generator produces and what the cache stores.
type SurveyContent struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Questions   []SurveyQuestion `json:"questions"`
}

// Survey is a generated survey as returned by the generation API.
type Survey struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Questions   []SurveyQuestion `json:"questions"`
}

// GenerateRequest asks the generation service for a survey draft.
type GenerateRequest struct {
	Description  string `json:"description"`
	NumQuestions int    `json:"num_questions"`
	Language     string `json:"language"`
}

// GenerateResponse wraps the generated survey so the payload can grow later.
type GenerateResponse struct {
	Survey Survey `json:"survey"`
}

// CachedSurvey is one row of the generation cache.
type CachedSurvey struct {
	Key             string
	DescriptionNorm string
	NumQuestions    int
	Language        string
	Content         SurveyContent
	CreatedAt       time.Time
}

// SaveResponsesRequest carries a respondent's answers keyed by question id.
type SaveResponsesRequest struct {
	Answers map[string]any `json:"answers"`
}

// SaveResponsesResponse acknowledges a stored submission.
type SaveResponsesResponse struct {
	Success    bool  `json:"success"`
	ResponseID int64 `json:"response_id"`
}
