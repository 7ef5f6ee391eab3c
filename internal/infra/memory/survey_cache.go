package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"survey-builder/internal/domain"
)

// SurveyCache keeps generated surveys in process memory with a TTL.
type SurveyCache struct {
	ttl   time.Duration
	clock func() time.Time
	rnd   *rand.Rand

	mu      sync.RWMutex
	entries map[string]cachedSurvey
}

type cachedSurvey struct {
	entry     domain.CachedSurvey
	expiresAt time.Time
}

// NewSurveyCache creates a cache whose entries expire after ttl plus up to 10%
// jitter. A non-positive ttl keeps entries forever.
func NewSurveyCache(ttl time.Duration) *SurveyCache {
	return &SurveyCache{
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]cachedSurvey),
	}
}

func (c *SurveyCache) GetSurvey(_ context.Context, key string) (domain.SurveyContent, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.entries[key]
	if !ok || c.expired(cached, c.clock()) {
		return domain.SurveyContent{}, domain.ErrNotFound
	}
	return cached.entry.Content, nil
}

// PutSurvey stores entry unless a live entry already holds its key.
func (c *SurveyCache) PutSurvey(_ context.Context, entry domain.CachedSurvey) error {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.entries[entry.Key]; ok && !c.expired(cached, now) {
		return nil
	}
	cached := cachedSurvey{entry: entry}
	if ttl := c.ttlWithJitter(); ttl > 0 {
		cached.expiresAt = now.Add(ttl)
	}
	c.entries[entry.Key] = cached
	return nil
}

func (c *SurveyCache) expired(cached cachedSurvey, now time.Time) bool {
	return !cached.expiresAt.IsZero() && !cached.expiresAt.After(now)
}

// ttlWithJitter must be called with c.mu held; rand.Rand is not safe for concurrent use.
func (c *SurveyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
