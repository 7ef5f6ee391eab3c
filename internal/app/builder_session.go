package app

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"survey-builder/internal/answers"
	"survey-builder/internal/builder"
	"survey-builder/internal/domain"
	"survey-builder/internal/generation"
	"survey-builder/internal/importer"
	"survey-builder/internal/storage"
)

const (
	DefaultNumQuestions = 8
	DefaultLanguage     = "en"
)

// SurveyClient is the generation service as seen by a builder session.
type SurveyClient interface {
	Generate(ctx context.Context, brief string, numQuestions int, language string) (*domain.ImportedSurvey, error)
	SubmitResponses(ctx context.Context, surveyID string, answers map[string]any) (int64, error)
}

// ClientFactory produces a SurveyClient that persists into a draft's storage and
// reports generated surveys to the given notifier.
type ClientFactory func(s *storage.Adapter, n generation.Notifier) SurveyClient

// BindClient adapts a shared generation client to a ClientFactory.
func BindClient(c *generation.Client) ClientFactory {
	return func(s *storage.Adapter, n generation.Notifier) SurveyClient {
		return c.Bind(s, n)
	}
}

// NoClient is used when no generation service is configured; every call fails
// with domain.ErrEndpointUnavailable.
var NoClient ClientFactory = func(*storage.Adapter, generation.Notifier) SurveyClient {
	return unavailableClient{}
}

type unavailableClient struct{}

func (unavailableClient) Generate(context.Context, string, int, string) (*domain.ImportedSurvey, error) {
	return nil, domain.ErrEndpointUnavailable
}

func (unavailableClient) SubmitResponses(context.Context, string, map[string]any) (int64, error) {
	return 0, domain.ErrEndpointUnavailable
}

// SessionDeps are shared by every builder session of a process.
type SessionDeps struct {
	Storage *storage.Adapter
	Client  ClientFactory
	Logger  *zap.Logger
	// Scheduler releases the AddOption guard; nil means builder.NextTick.
	Scheduler builder.Scheduler
	// IDSource generates question and option ids; nil means random UUIDs.
	IDSource func() string
	Now      func() time.Time
}

// BuilderSession owns one survey draft: its question list, its respondent
// answers and its connection to the generation service.
type BuilderSession struct {
	id          string
	store       *builder.Store
	answers     *answers.Store
	storage     *storage.Adapter
	client      SurveyClient
	broadcaster *generation.Broadcaster
	mapper      importer.Mapper
	logger      *zap.Logger
	now         func() time.Time

	generating atomic.Bool

	mu          sync.Mutex
	conns       int
	subscribers map[chan domain.DraftSnapshot]struct{}
}

// NewBuilderSession creates the session for draftID and restores the last
// generated survey from storage.
func NewBuilderSession(ctx context.Context, draftID string, deps SessionDeps) *BuilderSession {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	clientFactory := deps.Client
	if clientFactory == nil {
		clientFactory = NoClient
	}
	storeOpts := []builder.StoreOption{builder.WithLogger(logger), builder.WithScheduler(deps.Scheduler)}
	if deps.IDSource != nil {
		storeOpts = append(storeOpts, builder.WithIDSource(deps.IDSource))
	}
	ns := deps.Storage.Namespace("drafts").Namespace(draftID)

	s := &BuilderSession{
		id:          draftID,
		store:       builder.NewStore(storeOpts...),
		answers:     answers.NewStore(ns),
		storage:     ns,
		broadcaster: generation.NewBroadcaster(),
		mapper:      importer.NewMapper(deps.IDSource),
		logger:      logger.With(zap.String("draft_id", draftID)),
		now:         now,
		subscribers: make(map[chan domain.DraftSnapshot]struct{}),
	}
	s.client = clientFactory(ns, s.broadcaster)
	s.broadcaster.Subscribe(generation.NotifierFunc(s.applyGenerated))
	s.restore(ctx)
	return s
}

func (s *BuilderSession) ID() string { return s.id }

// Broadcaster lets other components listen for surveys generated in this session.
func (s *BuilderSession) Broadcaster() *generation.Broadcaster { return s.broadcaster }

func (s *BuilderSession) restore(ctx context.Context) {
	raw := s.storage.LoadRaw(ctx, storage.KeyLastGeneratedSurvey)
	if raw == nil {
		return
	}
	if mapped := s.mapper.Map(domain.ParseImportedSurvey(raw)); len(mapped) > 0 {
		s.store.ReplaceAll(mapped)
	}
}

func (s *BuilderSession) applyGenerated(survey domain.ImportedSurvey) {
	s.store.ReplaceAll(s.mapper.Map(&survey))
	s.publish()
}

// Apply runs fn against the draft's store and pushes the resulting snapshot to subscribers.
func (s *BuilderSession) Apply(fn func(*builder.Store)) domain.DraftSnapshot {
	fn(s.store)
	return s.publish()
}

// Snapshot returns the current draft with its progress.
func (s *BuilderSession) Snapshot() domain.DraftSnapshot {
	d := s.store.Draft()
	return domain.DraftSnapshot{
		DraftID:     s.id,
		Title:       d.Title,
		Description: d.Description,
		Questions:   d.Questions,
		Progress:    builder.Progress(d),
		Generating:  s.generating.Load(),
		UpdatedAt:   s.now(),
	}
}

// SetBrief remembers the description used for the next generation.
func (s *BuilderSession) SetBrief(ctx context.Context, brief string) {
	s.storage.Save(ctx, storage.KeyCurrentBrief, brief)
}

// Brief returns the stored generation brief, or "" when none is stored.
func (s *BuilderSession) Brief(ctx context.Context) string {
	var brief string
	s.storage.Load(ctx, storage.KeyCurrentBrief, &brief)
	return brief
}

// Generate asks the generation service for a survey built from the stored brief.
// The resulting questions replace the draft's questions through the session's
// broadcaster. Only one generation may be outstanding per session.
func (s *BuilderSession) Generate(ctx context.Context, numQuestions int, language string) (*domain.ImportedSurvey, error) {
	brief := strings.TrimSpace(s.Brief(ctx))
	if brief == "" {
		return nil, domain.ErrBriefRequired
	}
	if numQuestions <= 0 {
		numQuestions = DefaultNumQuestions
	}
	if language == "" {
		language = DefaultLanguage
	}
	if !s.generating.CompareAndSwap(false, true) {
		return nil, domain.ErrGenerationInFlight
	}
	s.publish()
	defer func() {
		s.generating.Store(false)
		s.publish()
	}()

	survey, err := s.client.Generate(ctx, brief, numQuestions, language)
	if err != nil {
		s.logger.Warn("survey generation failed", zap.Error(err))
		return nil, err
	}
	return survey, nil
}

// Answer returns the respondent answer for a question of the draft.
func (s *BuilderSession) Answer(ctx context.Context, questionID string) any {
	q, _ := s.store.Question(questionID)
	return s.answers.Get(ctx, questionID, q.Type)
}

func (s *BuilderSession) SetAnswer(ctx context.Context, questionID string, value any) any {
	s.answers.Set(ctx, questionID, value)
	return s.Answer(ctx, questionID)
}

func (s *BuilderSession) ToggleAnswer(ctx context.Context, questionID, optionValue string) []string {
	return s.answers.ToggleMulti(ctx, questionID, optionValue)
}

// SubmitResponses sends the captured answers to the generation service. An
// empty surveyID means the id of the last generated survey.
func (s *BuilderSession) SubmitResponses(ctx context.Context, surveyID string) (int64, error) {
	if surveyID == "" {
		if last := domain.ParseImportedSurvey(s.storage.LoadRaw(ctx, storage.KeyLastGeneratedSurvey)); last != nil {
			surveyID = last.ID
		}
	}
	return s.client.SubmitResponses(ctx, surveyID, s.answers.All(ctx))
}

// Subscribe returns a channel of draft snapshots starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *BuilderSession) Subscribe() (<-chan domain.DraftSnapshot, func()) {
	ch := make(chan domain.DraftSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.Snapshot()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *BuilderSession) publish() domain.DraftSnapshot {
	snap := s.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscribers only need the latest snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

// Attach records one more connection on the session. Repositories call it
// while holding the lock that guards their lookups.
func (s *BuilderSession) Attach() {
	s.mu.Lock()
	s.conns++
	s.mu.Unlock()
}

// Detach drops one connection and reports whether the session is now idle.
func (s *BuilderSession) Detach() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns > 0 {
		s.conns--
	}
	return s.conns == 0
}

// IsIdle reports whether no connection is attached to the session.
func (s *BuilderSession) IsIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns == 0
}
