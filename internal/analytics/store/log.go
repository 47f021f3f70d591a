package store

import (
	"context"

	"github.com/serroba/ai-referral-go/internal/analytics"
	"go.uber.org/zap"
)

// LogStore is an analytics.Store that only logs each event. It keeps nothing.
type LogStore struct {
	logger *zap.Logger
}

// NewLogStore creates a new logging store.
func NewLogStore(logger *zap.Logger) *LogStore {
	return &LogStore{logger: logger}
}

func (s *LogStore) SaveAttribution(_ context.Context, event *analytics.AttributionRecorded) error {
	s.logger.Info("attribution event received",
		zap.String("id", event.ID),
		zap.String("event", event.Event),
		zap.String("source", event.Source),
		zap.String("referralType", event.ReferralType),
		zap.String("pageUrl", event.PageURL),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}

var _ analytics.Store = (*LogStore)(nil)
