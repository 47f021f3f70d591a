package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ai-referral-go/internal/ratelimit"
)

// RegisterRoutes registers the attribution routes with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, h *AttributionHandler) {
	// Browsers send one beacon per page load; the collect scope budgets them
	// separately from API writes.
	huma.Register(api, huma.Operation{
		OperationID: "track-visit",
		Method:      http.MethodPost,
		Path:        "/attribution/visits",
		Summary:     "Track a visit",
		Description: "Classifies a page view as an AI referral or AI crawler visit and records the event.",
		Tags:        []string{"Attribution"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeCollect},
		},
	}, h.TrackVisit)

	huma.Register(api, huma.Operation{
		OperationID: "classify-visit",
		Method:      http.MethodPost,
		Path:        "/attribution/classify",
		Summary:     "Classify a visit",
		Description: "Classifies a page view without recording anything.",
		Tags:        []string{"Attribution"},
	}, h.ClassifyVisit)

	huma.Register(api, huma.Operation{
		OperationID: "list-rules",
		Method:      http.MethodGet,
		Path:        "/attribution/rules",
		Summary:     "List classification rules",
		Tags:        []string{"Attribution"},
	}, h.ListRules)

	huma.Register(api, huma.Operation{
		OperationID: "attribution-summary",
		Method:      http.MethodGet,
		Path:        "/attribution/summary",
		Summary:     "Attribution summary",
		Description: "Counts recorded events per event name and source.",
		Tags:        []string{"Attribution"},
	}, h.Summary)
}
