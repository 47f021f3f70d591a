package attribution

import (
	"net/url"
	"strings"
)

const (
	utmSourceAI      = "ai"
	utmMediumLLMsTxt = "llms-txt"
)

// Classifier attributes a visit to an AI assistant or crawler.
// Checks run in order: UTM parameters, referrer, user agent. The first match wins.
type Classifier struct {
	referrers Matcher
	bots      Matcher
}

// NewClassifier creates a classifier over the given referrer and bot matchers.
func NewClassifier(referrers, bots Matcher) *Classifier {
	return &Classifier{
		referrers: referrers,
		bots:      bots,
	}
}

// NewDefaultClassifier creates a classifier from a Rules bundle.
func NewDefaultClassifier(rules Rules) *Classifier {
	return NewClassifier(rules.Referrers, rules.Bots)
}

// Classify returns the attribution event for v, or nil for an ordinary visit.
func (c *Classifier) Classify(v Visit) *Event {
	if event := InspectQuery(v.URL); event != nil {
		return event
	}

	if event := c.matchReferrer(v.Referrer); event != nil {
		return event
	}

	return c.matchUserAgent(v.UserAgent)
}

// InspectQuery checks the page URL for AI campaign tags.
// A URL whose query cannot be read is treated as having no parameters.
func InspectQuery(pageURL string) *Event {
	if pageURL == "" {
		return nil
	}

	params := queryParams(pageURL)
	utmSource := params.Get("utm_source")
	utmMedium := params.Get("utm_medium")

	if utmSource != utmSourceAI && utmMedium != utmMediumLLMsTxt {
		return nil
	}

	return &Event{
		Name: EventReferral,
		Attributes: map[string]string{
			AttrAISource:     orUnknown(utmSource),
			AttrAIMedium:     orUnknown(utmMedium),
			AttrReferralType: ReferralTypeUTM,
		},
	}
}

// queryParams reads the query of pageURL. Browsers keep malformed escapes in
// the path as typed, so when the URL as a whole does not parse the query is
// taken as the text between the first '?' and the fragment.
func queryParams(pageURL string) url.Values {
	if u, err := url.Parse(pageURL); err == nil {
		return u.Query()
	}

	_, rawQuery, ok := strings.Cut(pageURL, "?")
	if !ok {
		return nil
	}

	rawQuery, _, _ = strings.Cut(rawQuery, "#")

	// ParseQuery keeps every pair it could decode alongside the error.
	params, _ := url.ParseQuery(rawQuery)

	return params
}

func (c *Classifier) matchReferrer(referrer string) *Event {
	if referrer == "" {
		return nil
	}

	source, ok := c.referrers.Match(referrer)
	if !ok {
		return nil
	}

	return &Event{
		Name: EventReferral,
		Attributes: map[string]string{
			AttrAISource:     source,
			AttrReferralType: ReferralTypeReferrer,
		},
	}
}

func (c *Classifier) matchUserAgent(userAgent string) *Event {
	source, ok := c.bots.Match(userAgent)
	if !ok {
		return nil
	}

	return &Event{
		Name: EventBotVisit,
		Attributes: map[string]string{
			AttrBotSource: source,
		},
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}

	return s
}
