package handlers

import (
	"time"

	"github.com/serroba/ai-referral-go/internal/analytics"
)

// VisitBody describes one page view as seen by the browser.
type VisitBody struct {
	URL       string `doc:"Full URL of the landing page, including the query string" example:"https://example.com/docs?utm_source=ai&utm_medium=chatgpt" json:"url"       maxLength:"4096" minLength:"1"`
	Referrer  string `doc:"document.referrer of the landing page"                    example:"https://chatgpt.com/"                                    json:"referrer,omitempty"  maxLength:"4096" required:"false"`
	UserAgent string `doc:"User agent; defaults to the request's User-Agent header"  example:"Mozilla/5.0"                                             json:"userAgent,omitempty" maxLength:"1024" required:"false"`
}

// VisitRequest is the request for tracking or classifying a visit.
type VisitRequest struct {
	Body VisitBody
}

// ClassificationBody is the outcome of classifying one visit.
type ClassificationBody struct {
	Matched    bool              `doc:"Whether the visit produced an attribution event" json:"matched"`
	Event      string            `doc:"Event name"                                      json:"event,omitempty"      example:"ai_referral"`
	Source     string            `doc:"AI source or bot label"                          json:"source,omitempty"     example:"chatgpt"`
	Attributes map[string]string `doc:"Event attributes"                                json:"attributes,omitempty"`
}

// ClassificationResponse is the response for tracking or classifying a visit.
type ClassificationResponse struct {
	Body ClassificationBody
}

// RuleBody is one classification rule.
type RuleBody struct {
	Pattern string `doc:"Case-insensitive regular expression" example:"chatgpt\\.com" json:"pattern"`
	Source  string `doc:"Label reported on match"             example:"chatgpt"       json:"source"`
}

// RulesResponse lists both rule tables in priority order.
type RulesResponse struct {
	Body struct {
		Referrers []RuleBody `doc:"Referrer rules, first match wins"  json:"referrers"`
		Bots      []RuleBody `doc:"User agent rules, first match wins" json:"bots"`
	}
}

// SummaryRequest selects the reporting window.
type SummaryRequest struct {
	Since time.Time `doc:"Count events at or after this time (RFC 3339). Defaults to 24 hours ago." query:"since" required:"false"`
}

// SummaryResponse reports event counts per event name and source.
type SummaryResponse struct {
	Body struct {
		Since  time.Time               `doc:"Start of the reporting window" json:"since"`
		Counts []analytics.SourceCount `doc:"Counts ordered by count, then event and source" json:"counts"`
	}
}
