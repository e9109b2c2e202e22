// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/internal/experiments"
)

// ExperimentDependencies defines the interface for experiment operations.
type ExperimentDependencies interface {
	CreateExperiment(ctx context.Context, def model.ExperimentDefinition) error
	Experiment(ctx context.Context, id string) (model.ExperimentDefinition, error)
	PutVariantResult(ctx context.Context, res model.ExperimentVariantResult) error
	EvaluateExperiment(ctx context.Context, id string) (experiments.Evaluation, error)
	StartExperiment(ctx context.Context, id string) error
	PauseExperiment(ctx context.Context, id string) error
	ResumeExperiment(ctx context.Context, id string) error
}

// ExperimentHandler handles experiment requests.
type ExperimentHandler struct {
	deps ExperimentDependencies
}

// NewExperimentHandler creates a new experiment handler.
func NewExperimentHandler(deps ExperimentDependencies) *ExperimentHandler {
	return &ExperimentHandler{deps: deps}
}

// createExperimentRequest mirrors the POST /experiments body.
type createExperimentRequest struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id"`
	Name          string `json:"name"`
	EmailType     string `json:"email_type"`
	PrimaryMetric string `json:"primary_metric"`
}

func (c createExperimentRequest) validate() error {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return errors.New("missing id")
	case strings.TrimSpace(c.OwnerID) == "":
		return errors.New("missing owner_id")
	case strings.TrimSpace(c.Name) == "":
		return errors.New("missing name")
	}
	switch model.ExperimentMetric(c.PrimaryMetric) {
	case model.MetricOpenRate, model.MetricClickRate, model.MetricConversionRate:
		return nil
	default:
		return errors.New("invalid primary_metric")
	}
}

// HandleCreate handles POST /experiments requests.
func (h *ExperimentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_experiment"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req createExperimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	def := model.ExperimentDefinition{
		ID:            req.ID,
		OwnerID:       req.OwnerID,
		Name:          req.Name,
		EmailType:     req.EmailType,
		PrimaryMetric: model.ExperimentMetric(req.PrimaryMetric),
		Status:        model.ExperimentDraft,
	}
	if err := h.deps.CreateExperiment(r.Context(), def); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

// variantRequest mirrors the PUT /experiments/{id}/variants body.
type variantRequest struct {
	Variant   string `json:"variant"`
	Sent      int64  `json:"sent"`
	Opened    int64  `json:"opened"`
	Clicked   int64  `json:"clicked"`
	Converted int64  `json:"converted"`
}

// HandleExperiment routes GET /experiments/{id} and the lifecycle and
// variant sub-resources.
func (h *ExperimentHandler) HandleExperiment(w http.ResponseWriter, r *http.Request) {
	const op = "api.experiment"
	path := strings.TrimPrefix(r.URL.Path, "/experiments/")
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
		def, err := h.deps.Experiment(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, def)
	case action == "evaluate" && r.Method == http.MethodPost:
		ev, err := h.deps.EvaluateExperiment(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ev)
	case action == "start" && r.Method == http.MethodPost:
		h.handleTransition(w, r, id, h.deps.StartExperiment)
	case action == "pause" && r.Method == http.MethodPost:
		h.handleTransition(w, r, id, h.deps.PauseExperiment)
	case action == "resume" && r.Method == http.MethodPost:
		h.handleTransition(w, r, id, h.deps.ResumeExperiment)
	case action == "variants" && r.Method == http.MethodPut:
		h.handleVariant(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *ExperimentHandler) handleTransition(w http.ResponseWriter, r *http.Request, id string, transition func(context.Context, string) error) {
	if err := transition(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ExperimentHandler) handleVariant(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.put_variant"
	var req variantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	variant := model.Variant(req.Variant)
	if variant != model.VariantA && variant != model.VariantB {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	res := model.ExperimentVariantResult{
		ExperimentID: id,
		Variant:      variant,
		Sent:         req.Sent,
		Opened:       req.Opened,
		Clicked:      req.Clicked,
		Converted:    req.Converted,
	}
	if err := h.deps.PutVariantResult(r.Context(), res); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
