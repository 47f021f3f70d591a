package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/ai-referral-go/internal/analytics"
)

const (
	summaryKeyPrefix = "attribution:summary:"
	// markerField is always written so an empty summary is still a cache hit.
	markerField = "_cached"
	fieldSep    = "|"
)

var errCacheMiss = errors.New("cache miss")

// RedisSummaryCache wraps a SummaryReader with Redis caching.
type RedisSummaryCache struct {
	reader analytics.SummaryReader
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSummaryCache creates a new Redis-cached summary decorator.
func NewRedisSummaryCache(reader analytics.SummaryReader, client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{
		reader: reader,
		client: client,
		ttl:    ttl,
	}
}

// Summary returns the cached summary for since, reading through on a miss.
func (r *RedisSummaryCache) Summary(ctx context.Context, since time.Time) ([]analytics.SourceCount, error) {
	key := summaryKey(since)

	if counts, err := r.getFromCache(ctx, key); err == nil {
		return counts, nil
	}

	counts, err := r.reader.Summary(ctx, since)
	if err != nil {
		return nil, err
	}

	r.cacheSummary(ctx, key, counts)

	return counts, nil
}

func (r *RedisSummaryCache) getFromCache(ctx context.Context, key string) ([]analytics.SourceCount, error) {
	result, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	if _, ok := result[markerField]; !ok {
		return nil, errCacheMiss
	}

	counts := make([]analytics.SourceCount, 0, len(result)-1)

	for field, value := range result {
		if field == markerField {
			continue
		}

		event, source, ok := strings.Cut(field, fieldSep)
		if !ok {
			return nil, errCacheMiss
		}

		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errCacheMiss
		}

		counts = append(counts, analytics.SourceCount{Event: event, Source: source, Count: n})
	}

	sortCounts(counts)

	return counts, nil
}

func (r *RedisSummaryCache) cacheSummary(ctx context.Context, key string, counts []analytics.SourceCount) {
	values := make(map[string]interface{}, len(counts)+1)
	values[markerField] = "1"

	for _, c := range counts {
		values[c.Event+fieldSep+c.Source] = c.Count
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, values)

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

func summaryKey(since time.Time) string {
	return summaryKeyPrefix + strconv.FormatInt(since.Unix(), 10)
}

// Compile-time check.
var _ analytics.SummaryReader = (*RedisSummaryCache)(nil)
