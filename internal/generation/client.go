package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"survey-builder/internal/domain"
	"survey-builder/internal/storage"
)

// DefaultPrefixes are tried in order; older deployments only serve /v1.
var DefaultPrefixes = []string{"/v1", "/api"}

// Notifier is told about every successfully generated survey.
type Notifier interface {
	SurveyGenerated(survey domain.ImportedSurvey)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(survey domain.ImportedSurvey)

func (f NotifierFunc) SurveyGenerated(survey domain.ImportedSurvey) { f(survey) }

// RequestError is a non-404 failure status from the generation service.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Client talks to the survey generation service.
type Client struct {
	baseURL    string
	prefixes   []string
	httpClient *http.Client
	logger     *zap.Logger
	storage    *storage.Adapter
	notifier   Notifier
}

// Option configures a Client.
type Option func(*Client)

// WithPrefixes overrides the candidate path prefixes.
func WithPrefixes(prefixes ...string) Option {
	return func(c *Client) {
		c.prefixes = append([]string(nil), prefixes...)
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		prefixes:   DefaultPrefixes,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind returns a copy of c that persists results in s and reports them to n.
func (c *Client) Bind(s *storage.Adapter, n Notifier) *Client {
	clone := *c
	clone.storage = s
	clone.notifier = n
	return &clone
}

type generateBody struct {
	Description  string `json:"description"`
	NumQuestions int    `json:"num_questions"`
	Language     string `json:"language"`
}

type generateResult struct {
	Survey json.RawMessage `json:"survey"`
}

// Generate requests a survey for brief. The first candidate endpoint that does
// not answer 404 decides the outcome. On success the raw survey is persisted and
// the notifier is called exactly once.
func (c *Client) Generate(ctx context.Context, brief string, numQuestions int, language string) (*domain.ImportedSurvey, error) {
	var result generateResult
	err := c.postCandidates(ctx, "/surveys/generate", generateBody{
		Description:  brief,
		NumQuestions: numQuestions,
		Language:     language,
	}, &result)
	if err != nil {
		return nil, err
	}

	survey := domain.ParseImportedSurvey(result.Survey)
	if survey == nil {
		return nil, fmt.Errorf("generate survey: response carried no survey")
	}
	if c.storage != nil {
		c.storage.SaveRaw(ctx, storage.KeyLastGeneratedSurvey, result.Survey)
	}
	if c.notifier != nil {
		c.notifier.SurveyGenerated(*survey)
	}
	c.logger.Info("survey generated", zap.String("survey_id", survey.ID), zap.Int("questions", len(survey.Questions)))
	return survey, nil
}

// SubmitResponses records a respondent's answers for surveyID and returns the
// stored response id.
func (c *Client) SubmitResponses(ctx context.Context, surveyID string, answers map[string]any) (int64, error) {
	if surveyID == "" {
		return 0, domain.ErrSurveyIDRequired
	}
	if answers == nil {
		answers = map[string]any{}
	}
	var resp domain.SaveResponsesResponse
	path := "/surveys/" + url.PathEscape(surveyID) + "/responses"
	if err := c.postCandidates(ctx, path, domain.SaveResponsesRequest{Answers: answers}, &resp); err != nil {
		return 0, err
	}
	return resp.ResponseID, nil
}

func (c *Client) postCandidates(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	var lastErr error
	for _, prefix := range c.prefixes {
		endpoint := c.baseURL + prefix + path
		status, respBody, err := c.post(ctx, endpoint, payload)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			c.logger.Debug("candidate endpoint failed", zap.String("url", endpoint), zap.Error(err))
			lastErr = err
			continue
		}
		switch {
		case status >= 200 && status < 300:
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decode response from %s: %w", endpoint, err)
			}
			return nil
		case status == http.StatusNotFound:
			c.logger.Debug("candidate endpoint not found", zap.String("url", endpoint))
			lastErr = domain.ErrEndpointNotFound
		default:
			return &RequestError{Status: status, Message: failureMessage(status, respBody)}
		}
	}
	if lastErr == nil {
		return domain.ErrEndpointUnavailable
	}
	return lastErr
}

func (c *Client) post(ctx context.Context, endpoint string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// failureMessage prefers the service's "detail" or "error" text over a generic message.
func failureMessage(status int, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		for _, raw := range []json.RawMessage{payload.Detail, payload.Error} {
			var msg string
			if len(raw) > 0 && json.Unmarshal(raw, &msg) == nil && msg != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("request failed: %d", status)
}

// IsRequestError reports whether err carries a service failure status.
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}
