package store

import (
	"context"
	"strconv"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/ai-referral-go/internal/ratelimit"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimitRedisStore is a sliding window ratelimit.Store backed by Redis sorted sets,
// shared by every server instance.
type RateLimitRedisStore struct {
	client   *redis.Client
	memberID func() string
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) (*RateLimitRedisStore, error) {
	memberID, err := nanoid.Standard(12)
	if err != nil {
		return nil, err
	}

	return &RateLimitRedisStore{
		client:   client,
		memberID: memberID,
	}, nil
}

func (s *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()
	redisKey := rateLimitKeyPrefix + key
	cutoff := strconv.FormatInt(now.Add(-window).UnixMicro(), 10)

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMicro()), Member: s.memberID()})
	count := pipe.ZCard(ctx, redisKey)
	pipe.PExpire(ctx, redisKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return count.Val(), nil
}

var _ ratelimit.Store = (*RateLimitRedisStore)(nil)
