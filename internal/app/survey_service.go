package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"survey-builder/internal/domain"
)

const (
	MinDescriptionLen = 5
	MaxDescriptionLen = 500
	MinNumQuestions   = 3
	MaxNumQuestions   = 20
	MaxSurveyIDLen    = 64

	defaultScaleMin = 1
	defaultScaleMax = 5
)

// SurveyGenerator turns a brief into survey content (mock, GenAI).
type SurveyGenerator interface {
	GenerateSurvey(ctx context.Context, description string, numQuestions int, language string) (domain.SurveyContent, error)
}

// SurveyCache stores generated content by cache key. GetSurvey returns
// domain.ErrNotFound on a miss; PutSurvey ignores duplicate keys.
type SurveyCache interface {
	GetSurvey(ctx context.Context, key string) (domain.SurveyContent, error)
	PutSurvey(ctx context.Context, entry domain.CachedSurvey) error
}

// ResponseRepository records respondent submissions.
type ResponseRepository interface {
	SaveResponse(ctx context.Context, surveyID string, answers map[string]any) (int64, error)
}

// SurveyService is the server side of survey generation.
type SurveyService struct {
	cache     SurveyCache
	responses ResponseRepository
	primary   SurveyGenerator
	fallback  SurveyGenerator
	logger    *zap.Logger
	now       func() time.Time
	sf        singleflight.Group
}

// SurveyServiceOption configures a SurveyService.
type SurveyServiceOption func(*SurveyService)

func WithSurveyLogger(logger *zap.Logger) SurveyServiceOption {
	return func(s *SurveyService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFallback sets the generator used when the primary one is rate limited or times out.
func WithFallback(g SurveyGenerator) SurveyServiceOption {
	return func(s *SurveyService) { s.fallback = g }
}

func WithClock(now func() time.Time) SurveyServiceOption {
	return func(s *SurveyService) { s.now = now }
}

func NewSurveyService(cache SurveyCache, responses ResponseRepository, primary SurveyGenerator, opts ...SurveyServiceOption) *SurveyService {
	s := &SurveyService{
		cache:     cache,
		responses: responses,
		primary:   primary,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeRequest fills defaults and checks bounds.
func NormalizeRequest(req domain.GenerateRequest) (domain.GenerateRequest, error) {
	if req.NumQuestions == 0 {
		req.NumQuestions = DefaultNumQuestions
	}
	if req.Language == "" {
		req.Language = DefaultLanguage
	}
	n := utf8.RuneCountInString(req.Description)
	if n < MinDescriptionLen || n > MaxDescriptionLen {
		return req, fmt.Errorf("%w: description must be %d to %d characters", domain.ErrInvalidRequest, MinDescriptionLen, MaxDescriptionLen)
	}
	if req.NumQuestions < MinNumQuestions || req.NumQuestions > MaxNumQuestions {
		return req, fmt.Errorf("%w: num_questions must be between %d and %d", domain.ErrInvalidRequest, MinNumQuestions, MaxNumQuestions)
	}
	return req, nil
}

// Generate returns the survey for req, from the cache when an equivalent
// request was served before. Identical concurrent requests share one generation.
func (s *SurveyService) Generate(ctx context.Context, req domain.GenerateRequest) (domain.Survey, error) {
	req, err := NormalizeRequest(req)
	if err != nil {
		return domain.Survey{}, err
	}
	key := CacheKey(req.Description, req.NumQuestions, req.Language)

	// The shared generation outlives any single caller; each caller still
	// stops waiting when its own context ends.
	work := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(key, func() (interface{}, error) {
		return s.generate(work, key, req)
	})
	select {
	case <-ctx.Done():
		return domain.Survey{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Survey{}, res.Err
		}
		if res.Shared {
			s.logger.Debug("survey generation shared", zap.String("key", key))
		}
		return res.Val.(domain.Survey), nil
	}
}

func (s *SurveyService) generate(ctx context.Context, key string, req domain.GenerateRequest) (domain.Survey, error) {
	if s.cache != nil {
		content, err := s.cache.GetSurvey(ctx, key)
		switch {
		case err == nil:
			s.logger.Debug("survey cache hit", zap.String("key", key))
			return buildSurvey(req.Description, content)
		case !errors.Is(err, domain.ErrNotFound):
			s.logger.Warn("survey cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	content, err := s.produce(ctx, req)
	if err != nil {
		return domain.Survey{}, err
	}
	fillMissingIDs(&content)
	survey, err := buildSurvey(req.Description, content)
	if err != nil {
		return domain.Survey{}, err
	}

	if s.cache != nil {
		entry := domain.CachedSurvey{
			Key:             key,
			DescriptionNorm: NormalizeDescription(req.Description),
			NumQuestions:    req.NumQuestions,
			Language:        req.Language,
			Content: domain.SurveyContent{
				Title:       survey.Title,
				Description: survey.Description,
				Questions:   survey.Questions,
			},
			CreatedAt: s.now(),
		}
		if err := s.cache.PutSurvey(ctx, entry); err != nil {
			s.logger.Warn("survey cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	s.logger.Info("survey generated",
		zap.String("survey_id", survey.ID),
		zap.Int("questions", len(survey.Questions)),
		zap.String("language", req.Language),
	)
	return survey, nil
}

func (s *SurveyService) produce(ctx context.Context, req domain.GenerateRequest) (domain.SurveyContent, error) {
	primary := s.primary
	if primary == nil {
		primary = s.fallback
	}
	if primary == nil {
		return domain.SurveyContent{}, errors.New("no survey generator configured")
	}
	content, err := primary.GenerateSurvey(ctx, req.Description, req.NumQuestions, req.Language)
	if err == nil {
		return content, nil
	}
	if s.fallback == nil || !IsTransientGenerationError(err) {
		return domain.SurveyContent{}, err
	}
	s.logger.Warn("primary generator unavailable, using fallback", zap.Error(err))
	return s.fallback.GenerateSurvey(ctx, req.Description, req.NumQuestions, req.Language)
}

var transientMarkers = regexp.MustCompile(`\b(insufficient_quota|resource_exhausted|rate[ _-]?limit(ed)?|too many requests|429|timeout|timed out)\b`)

// IsTransientGenerationError reports quota, rate limit and timeout failures.
// Generators that know their error types tag them with
// domain.ErrGeneratorOverloaded; other messages are matched on whole tokens.
func IsTransientGenerationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrGeneratorOverloaded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return transientMarkers.MatchString(strings.ToLower(err.Error()))
}

// SaveResponse stores a respondent's answers for surveyID.
func (s *SurveyService) SaveResponse(ctx context.Context, surveyID string, answers map[string]any) (int64, error) {
	if surveyID == "" {
		return 0, domain.ErrSurveyIDRequired
	}
	if len(surveyID) > MaxSurveyIDLen {
		return 0, fmt.Errorf("%w: survey id longer than %d characters", domain.ErrInvalidRequest, MaxSurveyIDLen)
	}
	if s.responses == nil {
		return 0, errors.New("response storage not configured")
	}
	if answers == nil {
		answers = map[string]any{}
	}
	id, err := s.responses.SaveResponse(ctx, surveyID, answers)
	if err != nil {
		return 0, fmt.Errorf("save response: %w", err)
	}
	s.logger.Info("survey response saved", zap.String("survey_id", surveyID), zap.Int64("response_id", id))
	return id, nil
}

func fillMissingIDs(content *domain.SurveyContent) {
	for i := range content.Questions {
		q := &content.Questions[i]
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		for j := range q.Choices {
			if q.Choices[j].ID == "" {
				q.Choices[j].ID = fmt.Sprintf("c%d", j+1)
			}
		}
	}
}

// buildSurvey checks content against the survey contract and applies rating defaults.
func buildSurvey(description string, content domain.SurveyContent) (domain.Survey, error) {
	questions := make([]domain.SurveyQuestion, len(content.Questions))
	for i, q := range content.Questions {
		switch q.Type {
		case domain.ExternalSingleChoice, domain.ExternalMultipleChoice, domain.ExternalOpenText:
		case domain.ExternalRating:
			if q.ScaleMin == nil {
				q.ScaleMin = intPtr(defaultScaleMin)
			}
			if q.ScaleMax == nil {
				q.ScaleMax = intPtr(defaultScaleMax)
			}
		default:
			return domain.Survey{}, fmt.Errorf("invalid survey: question %d has unsupported type %q", i+1, q.Type)
		}
		if q.ID == "" {
			return domain.Survey{}, fmt.Errorf("invalid survey: question %d has no id", i+1)
		}
		questions[i] = q
	}
	return domain.Survey{
		ID:          SurveyID(description),
		Title:       content.Title,
		Description: content.Description,
		Questions:   questions,
	}, nil
}

func intPtr(v int) *int { return &v }
