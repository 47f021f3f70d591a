package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/ai-referral-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMemoryStore_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("counts hits per key", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for want := int64(1); want <= 3; want++ {
			count, err := s.Record(ctx, "client:collect:60000", time.Minute)

			require.NoError(t, err)
			assert.Equal(t, want, count)
		}

		count, err := s.Record(ctx, "other:collect:60000", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "keys are counted independently")
	})

	t.Run("hits leave the window", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Record(ctx, "client", 50*time.Millisecond)
		_, _ = s.Record(ctx, "client", 50*time.Millisecond)

		time.Sleep(60 * time.Millisecond)

		count, err := s.Record(ctx, "client", 50*time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("concurrent hits are all counted", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, _ = s.Record(ctx, "burst", time.Minute)
			}()
		}

		wg.Wait()

		count, err := s.Record(ctx, "burst", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(51), count)
	})
}

func TestRateLimitMemoryStore_Keys(t *testing.T) {
	s := store.NewRateLimitMemoryStore()

	_, _ = s.Record(context.Background(), "client:collect:60000", time.Minute)
	_, _ = s.Record(context.Background(), "client:global:60000", time.Minute)
	_, _ = s.Record(context.Background(), "client:global:60000", time.Minute)

	assert.Equal(t, 2, s.Keys())
}
