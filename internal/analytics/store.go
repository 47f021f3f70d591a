package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/ai-referral-go/internal/messaging"
)

// ErrInvalidEvent is returned for events that can never be stored. It wraps
// messaging.ErrPoison so consumers drop the message instead of redelivering it.
var ErrInvalidEvent = fmt.Errorf("invalid attribution event: %w", messaging.ErrPoison)

// Store defines the interface for persisting attribution events.
type Store interface {
	SaveAttribution(ctx context.Context, event *AttributionRecorded) error
}

// SourceCount is the number of events recorded for one event name and source.
type SourceCount struct {
	Event  string `json:"event"`
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// SummaryReader aggregates recorded events.
type SummaryReader interface {
	// Summary returns counts of events that occurred at or after since,
	// ordered by count descending, then event and source.
	Summary(ctx context.Context, since time.Time) ([]SourceCount, error)
}
