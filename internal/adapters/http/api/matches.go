// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hirewire/matchcore/internal/adapters/repository"
	service "github.com/hirewire/matchcore/internal/app"
	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/internal/tracker"
)

// MatchDependencies defines the interface for match operations.
type MatchDependencies interface {
	ScoreAndRecord(ctx context.Context, req service.ScoreRequest) (model.MatchRecord, error)
	Match(ctx context.Context, id string) (model.MatchRecord, error)
	Matches(ctx context.Context, f repository.MatchFilter) ([]model.MatchRecord, error)
	MarkViewed(ctx context.Context, id string) error
	MarkRecommended(ctx context.Context, id string) error
	MarkApplied(ctx context.Context, id string) error
	RecordOutcome(ctx context.Context, id string, in tracker.OutcomeInput) (model.MatchRecord, error)
}

// MatchesHandler handles match scoring and lifecycle requests.
type MatchesHandler struct {
	deps     MatchDependencies
	maxLimit int
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies, maxLimit int) *MatchesHandler {
	if maxLimit < 1 {
		maxLimit = 100
	}
	return &MatchesHandler{deps: deps, maxLimit: maxLimit}
}

// scoreRequest mirrors the POST /matches/score body.
type scoreRequest struct {
	OwnerID   string                 `json:"owner_id"`
	Candidate model.CandidateProfile `json:"candidate"`
	Job       model.JobProfile       `json:"job"`
}

func (s scoreRequest) validate() error {
	switch {
	case strings.TrimSpace(s.OwnerID) == "":
		return errors.New("missing owner_id")
	case strings.TrimSpace(s.Candidate.ID) == "":
		return errors.New("missing candidate.id")
	case strings.TrimSpace(s.Job.ID) == "":
		return errors.New("missing job.id")
	}
	return nil
}

// HandleScore handles POST /matches/score requests.
func (h *MatchesHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_match"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.ScoreAndRecord(r.Context(), service.ScoreRequest{
		OwnerID:   req.OwnerID,
		Candidate: req.Candidate,
		Job:       req.Job,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleList handles GET /matches?owner_id=&limit= requests.
func (h *MatchesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_matches"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	f := repository.MatchFilter{
		OwnerID:     r.URL.Query().Get("owner_id"),
		CandidateID: r.URL.Query().Get("candidate_id"),
		JobID:       r.URL.Query().Get("job_id"),
		Order:       repository.OrderByScoreDesc,
		Limit:       h.maxLimit,
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		f.Limit = n
	}
	from, to, err := timeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	f.From, f.To = from, to

	records, err := h.deps.Matches(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// outcomeRequest mirrors the POST /matches/{id}/outcome body.
type outcomeRequest struct {
	Outcome    string `json:"outcome"`
	Date       string `json:"date,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Correction bool   `json:"correction,omitempty"`
}

// HandleMatch routes GET /matches/{id} and POST /matches/{id}/{action}.
func (h *MatchesHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.match"
	path := strings.TrimPrefix(r.URL.Path, "/matches/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	id, action, _ := strings.Cut(path, "/")
	if id == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		rec, err := h.deps.Match(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case action == "viewed" && r.Method == http.MethodPost:
		h.handleFlag(w, r, id, h.deps.MarkViewed)
	case action == "recommended" && r.Method == http.MethodPost:
		h.handleFlag(w, r, id, h.deps.MarkRecommended)
	case action == "applied" && r.Method == http.MethodPost:
		h.handleFlag(w, r, id, h.deps.MarkApplied)
	case action == "outcome" && r.Method == http.MethodPost:
		h.handleOutcome(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *MatchesHandler) handleFlag(w http.ResponseWriter, r *http.Request, id string, mark func(context.Context, string) error) {
	if err := mark(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *MatchesHandler) handleOutcome(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.record_outcome"
	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	in := tracker.OutcomeInput{
		Outcome:    model.Outcome(req.Outcome),
		Notes:      req.Notes,
		Correction: req.Correction,
	}
	if req.Date != "" {
		date, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("invalid date; must be RFC3339")))
			return
		}
		in.Date = date
	}

	rec, err := h.deps.RecordOutcome(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
