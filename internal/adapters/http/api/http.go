// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hirewire/matchcore/internal/adapters/repository"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	MatchDependencies
	AnalyticsDependencies
	ExperimentDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	matchesHandler    *MatchesHandler
	analyticsHandler  *AnalyticsHandler
	experimentHandler *ExperimentHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxListLimit int) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		matchesHandler:    NewMatchesHandler(deps, maxListLimit),
		analyticsHandler:  NewAnalyticsHandler(deps),
		experimentHandler: NewExperimentHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/matches/score", MetricsMiddleware(s.matchesHandler.HandleScore, "matches_score"))
	mux.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandleList, "matches"))
	mux.HandleFunc("/matches/", MetricsMiddleware(s.matchesHandler.HandleMatch, "match"))
	mux.HandleFunc("/analytics/summary", MetricsMiddleware(s.analyticsHandler.HandleSummary, "analytics_summary"))
	mux.HandleFunc("/analytics/attributes", MetricsMiddleware(s.analyticsHandler.HandleAttributes, "analytics_attributes"))
	mux.HandleFunc("/analytics/trends", MetricsMiddleware(s.analyticsHandler.HandleTrends, "analytics_trends"))
	mux.HandleFunc("/analytics/recommendations", MetricsMiddleware(s.analyticsHandler.HandleRecommendWeights, "analytics_recommendations"))
	mux.HandleFunc("/experiments", MetricsMiddleware(s.experimentHandler.HandleCreate, "experiments"))
	mux.HandleFunc("/experiments/", MetricsMiddleware(s.experimentHandler.HandleExperiment, "experiment"))
}

// timeRange parses optional from/to RFC3339 query parameters.
func timeRange(r *http.Request) (from, to time.Time, err error) {
	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from; must be RFC3339")
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to; must be RFC3339")
		}
	}
	return from, to, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates repository sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrOutcomeAlreadySet),
		errors.Is(err, repository.ErrStatusConflict),
		errors.Is(err, repository.ErrCounterRegression):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, repository.ErrInvalidOutcome):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
