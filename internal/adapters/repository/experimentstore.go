package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hirewire/matchcore/internal/domain/model"
)

// variantKey identifies one variant's counter row.
type variantKey struct {
	experimentID string
	variant      model.Variant
}

// InMemoryExperimentStore implements ExperimentStore with a single lock;
// experiment cardinality is small and the compare-and-set must serialize
// anyway.
type InMemoryExperimentStore struct {
	mu          sync.RWMutex
	definitions map[string]*model.ExperimentDefinition
	variants    map[variantKey]model.ExperimentVariantResult
}

// NewInMemoryExperimentStore creates an empty experiment store.
func NewInMemoryExperimentStore() *InMemoryExperimentStore {
	return &InMemoryExperimentStore{
		definitions: make(map[string]*model.ExperimentDefinition),
		variants:    make(map[variantKey]model.ExperimentVariantResult),
	}
}

// PutDefinition inserts or replaces a definition. A completed definition
// can not be replaced; its decision fields are immutable.
func (s *InMemoryExperimentStore) PutDefinition(_ context.Context, def model.ExperimentDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.definitions[def.ID]; ok && existing.Status == model.ExperimentCompleted {
		return ErrStatusConflict
	}
	cp := def
	if cp.Status == "" {
		cp.Status = model.ExperimentDraft
	}
	s.definitions[def.ID] = &cp
	return nil
}

// GetDefinition returns a definition by id.
func (s *InMemoryExperimentStore) GetDefinition(_ context.Context, id string) (model.ExperimentDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.definitions[id]
	if !ok {
		return model.ExperimentDefinition{}, ErrNotFound
	}
	return *def, nil
}

// CompareAndSetStatus atomically transitions status from -> to and, when
// completing, freezes the decision fields in the same step. Two
// concurrent completion attempts cannot both succeed: the second sees a
// current status that no longer matches `from`.
func (s *InMemoryExperimentStore) CompareAndSetStatus(_ context.Context, id string, from, to model.ExperimentStatus, decision ExperimentDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.definitions[id]
	if !ok {
		return ErrNotFound
	}
	if def.Status != from {
		return ErrStatusConflict
	}

	def.Status = to
	if to == model.ExperimentCompleted {
		def.WinnerVariant = decision.Winner
		def.ConfidenceLevel = decision.Confidence
		def.Improvement = decision.Improvement
		decidedAt := decision.DecidedAt
		if decidedAt.IsZero() {
			decidedAt = time.Now().UTC()
		}
		def.CompletedAt = &decidedAt
	}
	def.UpdatedAt = time.Now().UTC()
	return nil
}

// PutVariantResult upserts counters for a variant, rejecting regressions
// while the experiment is active.
func (s *InMemoryExperimentStore) PutVariantResult(_ context.Context, res model.ExperimentVariantResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := variantKey{experimentID: res.ExperimentID, variant: res.Variant}
	if prev, ok := s.variants[key]; ok {
		if res.Sent < prev.Sent || res.Opened < prev.Opened ||
			res.Clicked < prev.Clicked || res.Converted < prev.Converted {
			return ErrCounterRegression
		}
	}
	s.variants[key] = res
	return nil
}

// GetVariantResult returns counters for one variant of one experiment.
func (s *InMemoryExperimentStore) GetVariantResult(_ context.Context, experimentID string, v model.Variant) (model.ExperimentVariantResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.variants[variantKey{experimentID: experimentID, variant: v}]
	if !ok {
		return model.ExperimentVariantResult{}, ErrNotFound
	}
	return res, nil
}
