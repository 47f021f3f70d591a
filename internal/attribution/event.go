package attribution

// EventName identifies the kind of attribution event.
type EventName string

const (
	EventReferral EventName = "ai_referral"
	EventBotVisit EventName = "ai_bot_visit"
)

// Attribute keys.
const (
	AttrAISource     = "ai_source"
	AttrAIMedium     = "ai_medium"
	AttrReferralType = "referral_type"
	AttrBotSource    = "bot_source"
)

// Referral types.
const (
	ReferralTypeUTM      = "utm"
	ReferralTypeReferrer = "referrer"
)

const unknown = "unknown"

// Event is a single attribution result. A new Event is built for every classification.
type Event struct {
	Name       EventName         `json:"name"`
	Attributes map[string]string `json:"attributes"`
}

// Source returns the attributed source label, ai_source or bot_source.
func (e *Event) Source() string {
	if e.Name == EventBotVisit {
		return e.Attributes[AttrBotSource]
	}

	return e.Attributes[AttrAISource]
}

// Visit holds the inputs supplied by the browser for one page load.
type Visit struct {
	// URL is the current page URL. A bare "?query" is accepted.
	URL       string
	Referrer  string
	UserAgent string
}
