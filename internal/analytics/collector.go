package analytics

import (
	"context"
	"time"

	"github.com/serroba/ai-referral-go/internal/attribution"
	"github.com/serroba/ai-referral-go/internal/messaging"
	"github.com/serroba/ai-referral-go/internal/metrics"
	"go.uber.org/zap"
)

// IDGenerator generates unique event identifiers.
type IDGenerator func() string

// Collector publishes attribution events to the event bus.
// Publishing is best effort: failures are logged and counted, then dropped.
type Collector struct {
	publish messaging.Publish[AttributionRecorded]
	newID   IDGenerator
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCollector creates a new publishing collector.
func NewCollector(
	publish messaging.Publish[AttributionRecorded],
	newID IDGenerator,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Collector {
	return &Collector{
		publish: publish,
		newID:   newID,
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
}

// Collect implements attribution.Collector.
func (c *Collector) Collect(ctx context.Context, name attribution.EventName, attributes map[string]string) {
	event := NewAttributionRecorded(c.newID(), name, attributes, RequestMetaFromContext(ctx), c.now().UTC())

	c.metrics.EventsTotal.WithLabelValues(event.Event, event.Source).Inc()

	if err := c.publish(ctx, event); err != nil {
		c.metrics.PublishFailures.Inc()
		c.logger.Error("failed to publish attribution event",
			zap.String("id", event.ID),
			zap.String("event", event.Event),
			zap.String("source", event.Source),
			zap.Error(err),
		)

		return
	}

	c.logger.Debug("attribution event published",
		zap.String("id", event.ID),
		zap.String("event", event.Event),
		zap.String("source", event.Source),
	)
}

// Func returns Collect as an attribution.Collector.
func (c *Collector) Func() attribution.Collector {
	return c.Collect
}
