package builder

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"survey-builder/internal/domain"
)

const (
	defaultSurveyTitle       = "My Survey Title"
	defaultSurveyDescription = "This is a sample survey."
)

// Store holds one survey draft and the operations the editor dispatches on it.
// No operation fails: stale or out-of-range indices are ignored.
type Store struct {
	mu          sync.RWMutex
	title       string
	description string
	questions   []domain.Question

	newID  func() string
	guard  *Guard
	logger *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDSource replaces the UUID generator, mostly for tests.
func WithIDSource(newID func() string) StoreOption {
	return func(s *Store) { s.newID = newID }
}

// WithScheduler sets when the AddOption guard releases.
func WithScheduler(schedule Scheduler) StoreOption {
	return func(s *Store) { s.guard = NewGuard(schedule) }
}

func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		title:       defaultSurveyTitle,
		description: defaultSurveyDescription,
		questions:   []domain.Question{},
		newID:       uuid.NewString,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.guard == nil {
		s.guard = NewGuard(NextTick)
	}
	return s
}

// AddQuestion appends a blank question and returns its id. An empty type means
// domain.DefaultQuestionType.
func (s *Store) AddQuestion(t domain.QuestionType) string {
	if t == "" {
		t = domain.DefaultQuestionType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	q := domain.Question{
		ID:      s.newID(),
		Type:    t,
		Options: []domain.Option{},
	}
	if t.IsChoice() {
		q.Options = s.blankOptions()
	}
	s.questions = append(s.questions, q)
	return q.ID
}

func (s *Store) DeleteQuestion(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkIndex("DeleteQuestion", index) {
		return
	}
	s.questions = append(s.questions[:index], s.questions[index+1:]...)
}

// DuplicateQuestion appends an unsaved copy of the question at index under a new id.
func (s *Store) DuplicateQuestion(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkIndex("DuplicateQuestion", index) {
		return
	}
	dup := s.questions[index].Clone()
	dup.ID = s.newID()
	dup.Saved = false
	s.questions = append(s.questions, dup)
}

func (s *Store) SetTitle(index int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkIndex("SetTitle", index) {
		return
	}
	s.questions[index].Title = text
}

// SetType changes the question type. Choice types end up with at least two
// options; other types end up with none.
func (s *Store) SetType(index int, t domain.QuestionType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkIndex("SetType", index) {
		return
	}
	q := &s.questions[index]
	q.Type = t
	switch {
	case !t.IsChoice():
		q.Options = []domain.Option{}
	case len(q.Options) < 2:
		q.Options = s.blankOptions()
	}
}

// AddOption appends a blank option. Calls arriving before the previous call's
// guard has been released are dropped; the return value reports whether an
// option was inserted.
func (s *Store) AddOption(questionIndex int) bool {
	if !s.guard.Enter() {
		s.logger.Debug("add option dropped while previous insert is pending", zap.Int("question", questionIndex))
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkIndex("AddOption", questionIndex) {
		return false
	}
	q := &s.questions[questionIndex]
	q.Options = append(q.Options, domain.Option{ID: s.newID()})
	return true
}

func (s *Store) SetOptionText(questionIndex, optionIndex int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkIndex("SetOptionText", questionIndex) {
		return
	}
	options := s.questions[questionIndex].Options
	if !s.assertBounds("SetOptionText option", optionIndex, len(options)) {
		return
	}
	options[optionIndex].Text = text
}

// DeleteOption removes the option with the given id, if the question has one.
func (s *Store) DeleteOption(questionIndex int, optionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkIndex("DeleteOption", questionIndex) {
		return
	}
	q := &s.questions[questionIndex]
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			q.Options = append(q.Options[:i], q.Options[i+1:]...)
			return
		}
	}
}

// Save locks a question; the editor then shows it in respondent form.
func (s *Store) Save(index int) {
	s.setSaved("Save", index, true)
}

// Unsave unlocks a saved question for editing.
func (s *Store) Unsave(index int) {
	s.setSaved("Unsave", index, false)
}

func (s *Store) setSaved(op string, index int, saved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkIndex(op, index) {
		return
	}
	s.questions[index].Saved = saved
}

// Reorder moves the question at source to destination. A nil destination is a
// cancelled drag and changes nothing.
func (s *Store) Reorder(source int, destination *int) {
	if destination == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkIndex("Reorder", source) {
		return
	}
	dst := *destination
	if !s.assertBounds("Reorder destination", dst, len(s.questions)+1) {
		return
	}
	moved := s.questions[source]
	rest := append(s.questions[:source:source], s.questions[source+1:]...)
	if dst > len(rest) {
		dst = len(rest)
	}
	out := make([]domain.Question, 0, len(s.questions))
	out = append(out, rest[:dst]...)
	out = append(out, moved)
	out = append(out, rest[dst:]...)
	s.questions = out
}

// ReplaceAll swaps the whole question list for a copy of questions.
func (s *Store) ReplaceAll(questions []domain.Question) {
	next := cloneQuestions(questions)
	s.mu.Lock()
	s.questions = next
	s.mu.Unlock()
}

func (s *Store) SetSurveyTitle(title string) {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
}

func (s *Store) SetSurveyDescription(description string) {
	s.mu.Lock()
	s.description = description
	s.mu.Unlock()
}

// Questions returns a copy of the ordered question list.
func (s *Store) Questions() []domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneQuestions(s.questions)
}

// Question returns a copy of the question with the given id.
func (s *Store) Question(id string) (domain.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.questions {
		if q.ID == id {
			return q.Clone(), true
		}
	}
	return domain.Question{}, false
}

// Draft returns a copy of the whole draft.
func (s *Store) Draft() domain.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Draft{
		Title:       s.title,
		Description: s.description,
		Questions:   cloneQuestions(s.questions),
	}
}

// Progress is recomputed from the current draft on every call.
func (s *Store) Progress() int {
	return Progress(s.Draft())
}

func (s *Store) blankOptions() []domain.Option {
	return []domain.Option{{ID: s.newID()}, {ID: s.newID()}}
}

// checkIndex must be called with s.mu held.
func (s *Store) checkIndex(op string, index int) bool {
	return s.assertBounds(op, index, len(s.questions))
}

func (s *Store) assertBounds(op string, index, n int) bool {
	if index >= 0 && index < n {
		return true
	}
	if debugAssertions {
		panic(fmt.Sprintf("builder: %s index %d out of range [0,%d)", op, index, n))
	}
	s.logger.Debug("ignoring out of range index", zap.String("op", op), zap.Int("index", index), zap.Int("len", n))
	return false
}

func cloneQuestions(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
	}
	return out
}
