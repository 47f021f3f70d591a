package analytics

import (
	"context"
	"fmt"

	"github.com/serroba/ai-referral-go/internal/messaging"
)

// NewRecordHandler returns the consumer handler that validates and persists attribution events.
func NewRecordHandler(store Store) messaging.Handler[AttributionRecorded] {
	return func(ctx context.Context, event *AttributionRecorded) error {
		if event.ID == "" || event.Event == "" {
			return fmt.Errorf("%w: missing id or event name", ErrInvalidEvent)
		}

		if err := store.SaveAttribution(ctx, event); err != nil {
			return fmt.Errorf("save attribution %s: %w", event.ID, err)
		}

		return nil
	}
}
