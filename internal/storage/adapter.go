package storage

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"survey-builder/internal/domain"
)

// Keys of the durable builder state.
const (
	KeyLastGeneratedSurvey = "lastGeneratedSurvey"
	KeyDraftResponses      = "draftResponses"
	KeyCurrentBrief        = "currentSurveyBrief"
)

// Backend is a string key-value store (in-memory, Redis).
// Get returns domain.ErrNotFound for missing keys.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Adapter wraps a Backend with JSON encoding. Read, parse and write failures are
// logged and reported as "no data"; they never reach the caller.
type Adapter struct {
	backend Backend
	prefix  string
	logger  *zap.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for swallowed storage errors.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func New(backend Backend, opts ...Option) *Adapter {
	a := &Adapter{backend: backend, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Namespace returns an adapter whose keys are prefixed with "<prefix>:".
func (a *Adapter) Namespace(prefix string) *Adapter {
	clone := *a
	clone.prefix = a.prefix + prefix + ":"
	return &clone
}

// LoadRaw returns the stored JSON for key, or nil when absent or unreadable.
func (a *Adapter) LoadRaw(ctx context.Context, key string) json.RawMessage {
	value, err := a.backend.Get(ctx, a.prefix+key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			a.logger.Debug("storage read failed", zap.String("key", a.prefix+key), zap.Error(err))
		}
		return nil
	}
	if !json.Valid([]byte(value)) {
		a.logger.Debug("storage value is not valid json", zap.String("key", a.prefix+key))
		return nil
	}
	return json.RawMessage(value)
}

// Load decodes the value at key into dst and reports whether it succeeded.
// dst is left untouched on failure.
func (a *Adapter) Load(ctx context.Context, key string, dst any) bool {
	raw := a.LoadRaw(ctx, key)
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		a.logger.Debug("storage decode failed", zap.String("key", a.prefix+key), zap.Error(err))
		return false
	}
	return true
}

// Save encodes v and writes it at key, reporting whether the write succeeded.
func (a *Adapter) Save(ctx context.Context, key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.Debug("storage encode failed", zap.String("key", a.prefix+key), zap.Error(err))
		return false
	}
	return a.SaveRaw(ctx, key, data)
}

// SaveRaw writes already encoded JSON at key.
func (a *Adapter) SaveRaw(ctx context.Context, key string, raw json.RawMessage) bool {
	if err := a.backend.Set(ctx, a.prefix+key, string(raw)); err != nil {
		a.logger.Debug("storage write failed", zap.String("key", a.prefix+key), zap.Error(err))
		return false
	}
	return true
}
