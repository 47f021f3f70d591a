package store

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/serroba/ai-referral-go/internal/ratelimit"
)

const rateLimitJanitorInterval = time.Minute

// RateLimitMemoryStore is a single-instance sliding window ratelimit.Store.
// Each key keeps the timestamps of its hits inside the window; keys idle for a
// whole window expire and are swept by the cache janitor.
type RateLimitMemoryStore struct {
	mu   sync.Mutex
	hits *gocache.Cache
	now  func() time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		hits: gocache.New(gocache.NoExpiration, rateLimitJanitorInterval),
		now:  time.Now,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	var inWindow []time.Time

	if v, found := s.hits.Get(key); found {
		for _, ts := range v.([]time.Time) {
			if ts.After(cutoff) {
				inWindow = append(inWindow, ts)
			}
		}
	}

	inWindow = append(inWindow, now)
	s.hits.Set(key, inWindow, window)

	return int64(len(inWindow)), nil
}

// Keys returns the number of tracked keys, including expired keys not yet swept.
func (s *RateLimitMemoryStore) Keys() int {
	return s.hits.ItemCount()
}

var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
