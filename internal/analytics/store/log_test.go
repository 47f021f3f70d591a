package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/ai-referral-go/internal/analytics"
	"github.com/serroba/ai-referral-go/internal/analytics/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogStore(t *testing.T) {
	logStore := store.NewLogStore(zap.NewNop())

	assert.NotNil(t, logStore)
}

func TestLogStore_SaveAttribution(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logStore := store.NewLogStore(zap.New(core))

	event := &analytics.AttributionRecorded{
		ID:           "V1StGXR8_Z5jdHi6B-myT",
		Event:        "ai_referral",
		Source:       "claude",
		ReferralType: "referrer",
		OccurredAt:   time.Now(),
	}

	err := logStore.SaveAttribution(context.Background(), event)

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "claude", logs.All()[0].ContextMap()["source"])
}
