package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/ai-referral-go/internal/analytics"
	"github.com/serroba/ai-referral-go/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	saved   []*analytics.AttributionRecorded
	saveErr error
}

func (m *mockStore) SaveAttribution(_ context.Context, event *analytics.AttributionRecorded) error {
	if m.saveErr != nil {
		return m.saveErr
	}

	m.saved = append(m.saved, event)

	return nil
}

func TestRecordHandler(t *testing.T) {
	t.Run("persists valid event", func(t *testing.T) {
		store := &mockStore{}
		handle := analytics.NewRecordHandler(store)

		err := handle(context.Background(), &analytics.AttributionRecorded{
			ID:         "evt1",
			Event:      "ai_bot_visit",
			Source:     "gptbot",
			OccurredAt: time.Now(),
		})

		require.NoError(t, err)
		assert.Len(t, store.saved, 1)
	})

	t.Run("rejects event without id", func(t *testing.T) {
		store := &mockStore{}
		handle := analytics.NewRecordHandler(store)

		err := handle(context.Background(), &analytics.AttributionRecorded{Event: "ai_referral"})

		require.ErrorIs(t, err, analytics.ErrInvalidEvent)
		require.ErrorIs(t, err, messaging.ErrPoison, "invalid events must not be redelivered")
		assert.Empty(t, store.saved)
	})

	t.Run("wraps store error", func(t *testing.T) {
		storeErr := errors.New("connection reset")
		handle := analytics.NewRecordHandler(&mockStore{saveErr: storeErr})

		err := handle(context.Background(), &analytics.AttributionRecorded{ID: "evt1", Event: "ai_referral"})

		require.ErrorIs(t, err, storeErr)
		assert.Contains(t, err.Error(), "evt1")
	})
}

func TestRequestMetaFromContext(t *testing.T) {
	t.Run("empty context returns zero value", func(t *testing.T) {
		assert.Equal(t, analytics.RequestMeta{}, analytics.RequestMetaFromContext(context.Background()))
	})

	t.Run("round trips", func(t *testing.T) {
		meta := analytics.RequestMeta{ClientIP: "10.0.0.1", UserAgent: "GPTBot"}
		ctx := analytics.ContextWithRequestMeta(context.Background(), meta)

		assert.Equal(t, meta, analytics.RequestMetaFromContext(ctx))
	})
}
