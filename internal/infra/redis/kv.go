package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"survey-builder/internal/domain"
)

// KV is a Redis backed storage.Backend. Keys live under prefix and are refreshed
// to ttl on every write; a zero ttl keeps them forever.
type KV struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewKV(client *redis.Client, prefix string, ttl time.Duration) *KV {
	return &KV{client: client, prefix: prefix, ttl: ttl}
}

func (k *KV) Get(ctx context.Context, key string) (string, error) {
	value, err := k.client.Get(ctx, k.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	return value, err
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	return k.client.Set(ctx, k.prefix+key, value, k.ttl).Err()
}
