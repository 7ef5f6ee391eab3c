package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"survey-builder/internal/domain"
)

// SurveyCache stores generated survey content in Redis.
// Content is stored as: SET survey:cache:{key} {json}
type SurveyCache struct {
	client *redis.Client
	ttl    time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSurveyCache(client *redis.Client, ttl time.Duration) *SurveyCache {
	return &SurveyCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *SurveyCache) GetSurvey(ctx context.Context, key string) (domain.SurveyContent, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SurveyContent{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SurveyContent{}, fmt.Errorf("get cached survey: %w", err)
	}
	var content domain.SurveyContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return domain.SurveyContent{}, fmt.Errorf("unmarshal cached survey: %w", err)
	}
	return content, nil
}

// PutSurvey writes the entry only if the key is not cached yet.
func (c *SurveyCache) PutSurvey(ctx context.Context, entry domain.CachedSurvey) error {
	raw, err := json.Marshal(entry.Content)
	if err != nil {
		return fmt.Errorf("marshal survey: %w", err)
	}
	if err := c.client.SetNX(ctx, c.key(entry.Key), raw, c.ttlWithJitter()).Err(); err != nil {
		return fmt.Errorf("cache survey: %w", err)
	}
	return nil
}

func (c *SurveyCache) key(key string) string {
	return "survey:cache:" + key
}

func (c *SurveyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
