//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/ai-referral-go/internal/analytics"
	"github.com/serroba/ai-referral-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	return client
}

func TestRedisSummaryCacheIntegration(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)

	t.Run("caches summary", func(t *testing.T) {
		since := time.Unix(1_600_000_001, 0)
		client.Del(ctx, "attribution:summary:1600000001")

		reader := &countingReader{counts: []analytics.SourceCount{
			{Event: "ai_referral", Source: "claude", Count: 5},
			{Event: "ai_bot_visit", Source: "gptbot", Count: 2},
		}}
		cache := store.NewRedisSummaryCache(reader, client, time.Minute)

		first, err := cache.Summary(ctx, since)
		require.NoError(t, err)

		second, err := cache.Summary(ctx, since)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, reader.calls)

		client.Del(ctx, "attribution:summary:1600000001")
	})

	t.Run("caches empty summary", func(t *testing.T) {
		since := time.Unix(1_600_000_002, 0)
		client.Del(ctx, "attribution:summary:1600000002")

		reader := &countingReader{}
		cache := store.NewRedisSummaryCache(reader, client, time.Minute)

		_, _ = cache.Summary(ctx, since)
		counts, err := cache.Summary(ctx, since)

		require.NoError(t, err)
		assert.Empty(t, counts)
		assert.Equal(t, 1, reader.calls)

		client.Del(ctx, "attribution:summary:1600000002")
	})
}

func TestRateLimitRedisStoreIntegration(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)

	s, err := store.NewRateLimitRedisStore(client)
	require.NoError(t, err)

	key := "integration:" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { client.Del(ctx, "ratelimit:"+key) })

	for i := int64(1); i <= 3; i++ {
		count, err := s.Record(ctx, key, time.Minute)

		require.NoError(t, err)
		assert.Equal(t, i, count)
	}

	t.Run("prunes expired entries", func(t *testing.T) {
		shortKey := key + ":short"
		t.Cleanup(func() { client.Del(ctx, "ratelimit:"+shortKey) })

		_, _ = s.Record(ctx, shortKey, 50*time.Millisecond)
		time.Sleep(60 * time.Millisecond)

		count, err := s.Record(ctx, shortKey, 50*time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}
