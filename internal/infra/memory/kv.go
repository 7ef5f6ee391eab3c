package memory

import (
	"context"
	"sync"

	"survey-builder/internal/domain"
)

// KV is an in-process storage.Backend. State lives as long as the process.
type KV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewKV() *KV {
	return &KV{values: make(map[string]string)}
}

func (k *KV) Get(_ context.Context, key string) (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	value, ok := k.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return value, nil
}

func (k *KV) Set(_ context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.values[key] = value
	return nil
}
