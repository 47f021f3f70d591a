package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ai-referral-go/internal/analytics"
	"github.com/serroba/ai-referral-go/internal/attribution"
	"github.com/serroba/ai-referral-go/internal/metrics"
	"go.uber.org/zap"
)

const defaultSummaryWindow = 24 * time.Hour

// AttributionHandler serves the attribution beacon and its reporting endpoints.
type AttributionHandler struct {
	tracker *attribution.Tracker
	rules   attribution.Rules
	summary analytics.SummaryReader
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *zap.Logger
}

// NewAttributionHandler creates a new attribution handler.
func NewAttributionHandler(
	tracker *attribution.Tracker,
	rules attribution.Rules,
	summary analytics.SummaryReader,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AttributionHandler {
	return &AttributionHandler{
		tracker: tracker,
		rules:   rules,
		summary: summary,
		metrics: m,
		now:     time.Now,
		logger:  logger,
	}
}

// TrackVisit classifies a page view and emits the resulting event.
func (h *AttributionHandler) TrackVisit(ctx context.Context, req *VisitRequest) (*ClassificationResponse, error) {
	meta := analytics.RequestMetaFromContext(ctx)
	visit := visitFromRequest(req, meta)

	// The beacon's own Referer header is the landing page, so the referrer
	// recorded is the one the page reported.
	meta.PageURL = visit.URL
	meta.Referrer = visit.Referrer
	meta.UserAgent = visit.UserAgent
	ctx = analytics.ContextWithRequestMeta(ctx, meta)

	event := h.tracker.Track(ctx, visit)
	if event == nil {
		h.metrics.UnmatchedTotal.Inc()
	}

	return classification(event), nil
}

// ClassifyVisit classifies a page view without emitting anything.
func (h *AttributionHandler) ClassifyVisit(ctx context.Context, req *VisitRequest) (*ClassificationResponse, error) {
	visit := visitFromRequest(req, analytics.RequestMetaFromContext(ctx))

	return classification(h.tracker.Classifier().Classify(visit)), nil
}

// ListRules returns the active rule tables.
func (h *AttributionHandler) ListRules(_ context.Context, _ *struct{}) (*RulesResponse, error) {
	resp := &RulesResponse{}
	resp.Body.Referrers = ruleBodies(h.rules.Referrers)
	resp.Body.Bots = ruleBodies(h.rules.Bots)

	return resp, nil
}

// Summary reports event counts per event name and source.
func (h *AttributionHandler) Summary(ctx context.Context, req *SummaryRequest) (*SummaryResponse, error) {
	since := req.Since
	if since.IsZero() {
		since = h.now().Add(-defaultSummaryWindow)
	}

	since = since.UTC().Truncate(time.Second)

	counts, err := h.summary.Summary(ctx, since)
	if err != nil {
		h.logger.Error("failed to read attribution summary", zap.Time("since", since), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to read summary")
	}

	if counts == nil {
		counts = []analytics.SourceCount{}
	}

	resp := &SummaryResponse{}
	resp.Body.Since = since
	resp.Body.Counts = counts

	return resp, nil
}

// visitFromRequest fills a missing user agent from the request headers.
func visitFromRequest(req *VisitRequest, meta analytics.RequestMeta) attribution.Visit {
	userAgent := req.Body.UserAgent
	if userAgent == "" {
		userAgent = meta.UserAgent
	}

	return attribution.Visit{
		URL:       req.Body.URL,
		Referrer:  req.Body.Referrer,
		UserAgent: userAgent,
	}
}

func classification(event *attribution.Event) *ClassificationResponse {
	resp := &ClassificationResponse{}
	if event == nil {
		return resp
	}

	resp.Body.Matched = true
	resp.Body.Event = string(event.Name)
	resp.Body.Source = event.Source()
	resp.Body.Attributes = event.Attributes

	return resp
}

func ruleBodies(table *attribution.Table) []RuleBody {
	rules := table.Rules()
	bodies := make([]RuleBody, 0, len(rules))

	for _, rule := range rules {
		bodies = append(bodies, RuleBody{
			Pattern: strings.TrimPrefix(rule.Pattern.String(), "(?i)"),
			Source:  rule.Source,
		})
	}

	return bodies
}
