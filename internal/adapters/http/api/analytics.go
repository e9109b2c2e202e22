// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/hirewire/matchcore/internal/analytics"
	"github.com/hirewire/matchcore/internal/domain/model"
)

// AnalyticsDependencies defines the interface for analytics operations.
type AnalyticsDependencies interface {
	Aggregate(ctx context.Context, ownerID string, tr analytics.TimeRange) analytics.Summary
	CorrelateAttributes(ctx context.Context, ownerID string, tr analytics.TimeRange) []analytics.AttributeCorrelation
	Trend(ctx context.Context, ownerID string, tr analytics.TimeRange, b analytics.Bucketing) []analytics.TrendBucket
	RecommendWeights(ctx context.Context, ownerID string, tr analytics.TimeRange) (model.AttributeWeightProfile, error)
}

// AnalyticsHandler handles analytics requests.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// queryRange extracts owner id and time range; owner id is required.
func (h *AnalyticsHandler) queryRange(r *http.Request) (string, analytics.TimeRange, error) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		return "", analytics.TimeRange{}, errors.New("missing owner_id")
	}
	from, to, err := timeRange(r)
	if err != nil {
		return "", analytics.TimeRange{}, err
	}
	return ownerID, analytics.TimeRange{From: from, To: to}, nil
}

// HandleSummary handles GET /analytics/summary requests.
func (h *AnalyticsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.analytics_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ownerID, tr, err := h.queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Aggregate(r.Context(), ownerID, tr))
}

// HandleAttributes handles GET /analytics/attributes requests.
func (h *AnalyticsHandler) HandleAttributes(w http.ResponseWriter, r *http.Request) {
	const op = "api.analytics_attributes"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ownerID, tr, err := h.queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	correlations := h.deps.CorrelateAttributes(r.Context(), ownerID, tr)
	if correlations == nil {
		correlations = []analytics.AttributeCorrelation{}
	}
	writeJSON(w, http.StatusOK, correlations)
}

// HandleTrends handles GET /analytics/trends?bucket=day|week|month.
func (h *AnalyticsHandler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	const op = "api.analytics_trends"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ownerID, tr, err := h.queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	bucketing := analytics.Bucketing(r.URL.Query().Get("bucket"))
	switch bucketing {
	case "":
		bucketing = analytics.BucketDay
	case analytics.BucketDay, analytics.BucketWeek, analytics.BucketMonth:
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	buckets := h.deps.Trend(r.Context(), ownerID, tr, bucketing)
	if buckets == nil {
		buckets = []analytics.TrendBucket{}
	}
	writeJSON(w, http.StatusOK, buckets)
}

// HandleRecommendWeights handles POST /analytics/recommendations.
func (h *AnalyticsHandler) HandleRecommendWeights(w http.ResponseWriter, r *http.Request) {
	const op = "api.analytics_recommendations"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ownerID, tr, err := h.queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := h.deps.RecommendWeights(r.Context(), ownerID, tr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
