package analytics

import (
	"time"

	"github.com/serroba/ai-referral-go/internal/attribution"
)

// TopicAttributionRecorded carries every emitted attribution event.
const TopicAttributionRecorded = "attribution.recorded"

// AttributionRecorded is the message published for each emitted attribution event.
type AttributionRecorded struct {
	ID           string            `json:"id"`
	Event        string            `json:"event"`
	Source       string            `json:"source"`
	ReferralType string            `json:"referralType,omitempty"`
	Medium       string            `json:"medium,omitempty"`
	Attributes   map[string]string `json:"attributes"`
	PageURL      string            `json:"pageUrl,omitempty"`
	ClientIP     string            `json:"clientIp,omitempty"`
	UserAgent    string            `json:"userAgent,omitempty"`
	Referrer     string            `json:"referrer,omitempty"`
	OccurredAt   time.Time         `json:"occurredAt"`
}

// NewAttributionRecorded builds the message for an emitted event.
func NewAttributionRecorded(
	id string,
	name attribution.EventName,
	attributes map[string]string,
	meta RequestMeta,
	occurredAt time.Time,
) *AttributionRecorded {
	event := &attribution.Event{Name: name, Attributes: attributes}

	return &AttributionRecorded{
		ID:           id,
		Event:        string(name),
		Source:       event.Source(),
		ReferralType: attributes[attribution.AttrReferralType],
		Medium:       attributes[attribution.AttrAIMedium],
		Attributes:   attributes,
		PageURL:      meta.PageURL,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
		Referrer:     meta.Referrer,
		OccurredAt:   occurredAt,
	}
}
