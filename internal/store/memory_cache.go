package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/serroba/ai-referral-go/internal/analytics"
)

// MemorySummaryCache wraps a SummaryReader with an in-process TTL cache.
type MemorySummaryCache struct {
	reader analytics.SummaryReader
	cache  *gocache.Cache
}

// NewMemorySummaryCache creates a new in-process summary cache.
func NewMemorySummaryCache(reader analytics.SummaryReader, ttl time.Duration) *MemorySummaryCache {
	return &MemorySummaryCache{
		reader: reader,
		cache:  gocache.New(ttl, 2*ttl),
	}
}

func (m *MemorySummaryCache) Summary(ctx context.Context, since time.Time) ([]analytics.SourceCount, error) {
	key := summaryKey(since)

	if v, found := m.cache.Get(key); found {
		return cloneCounts(v.([]analytics.SourceCount)), nil
	}

	counts, err := m.reader.Summary(ctx, since)
	if err != nil {
		return nil, err
	}

	m.cache.SetDefault(key, cloneCounts(counts))

	return counts, nil
}

func cloneCounts(counts []analytics.SourceCount) []analytics.SourceCount {
	return append([]analytics.SourceCount(nil), counts...)
}

var _ analytics.SummaryReader = (*MemorySummaryCache)(nil)
