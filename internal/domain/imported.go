package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ImportedSurvey is a survey produced outside the builder. Every field is optional:
// decoding never fails on wrong field types, it leaves the field empty instead.
type ImportedSurvey struct {
	ID          string             `json:"id,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Questions   []ImportedQuestion `json:"questions,omitempty"`
}

// ImportedQuestion is one external question. Type holds the external type string.
type ImportedQuestion struct {
	ID      string           `json:"id,omitempty"`
	Type    string           `json:"type,omitempty"`
	Text    string           `json:"text,omitempty"`
	Choices []ImportedChoice `json:"choices,omitempty"`
}

// ImportedChoice is one external choice.
type ImportedChoice struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label,omitempty"`
}

// UnmarshalJSON decodes an object leniently. A non-array "questions" field is treated as absent.
func (s *ImportedSurvey) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	*s = ImportedSurvey{
		ID:          looseID(fields["id"]),
		Title:       looseString(fields["title"]),
		Description: looseString(fields["description"]),
	}
	items, ok := looseArray(fields["questions"])
	if !ok {
		return nil
	}
	s.Questions = make([]ImportedQuestion, 0, len(items))
	for _, item := range items {
		s.Questions = append(s.Questions, decodeQuestion(item))
	}
	return nil
}

func decodeQuestion(raw json.RawMessage) ImportedQuestion {
	fields, err := objectFields(raw)
	if err != nil || fields == nil {
		return ImportedQuestion{}
	}
	q := ImportedQuestion{
		ID:   looseID(fields["id"]),
		Type: looseString(fields["type"]),
		Text: looseString(fields["text"]),
	}
	if items, ok := looseArray(fields["choices"]); ok {
		q.Choices = make([]ImportedChoice, 0, len(items))
		for _, item := range items {
			c, _ := objectFields(item)
			q.Choices = append(q.Choices, ImportedChoice{
				ID:    looseID(c["id"]),
				Label: looseString(c["label"]),
			})
		}
	}
	return q
}

// objectFields returns nil fields for JSON null and an error for any other non-object.
func objectFields(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("imported survey: expected object, got %.20s", trimmed)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("imported survey: %w", err)
	}
	return fields, nil
}

func looseString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// looseID accepts string and numeric ids.
func looseID(raw json.RawMessage) string {
	if s := looseString(raw); s != "" {
		return s
	}
	var n json.Number
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil {
		return ""
	}
	if f, err := n.Float64(); err == nil && f == 0 {
		return ""
	}
	return n.String()
}

func looseArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

// ParseImportedSurvey decodes a raw payload. Absent or malformed payloads yield nil.
func ParseImportedSurvey(raw []byte) *ImportedSurvey {
	var s ImportedSurvey
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil
	}
	return &s
}
