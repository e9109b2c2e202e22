package repository

import (
	"context"
	"sync"

	"github.com/hirewire/matchcore/internal/domain/model"
)

// InMemoryWeightProfileStore implements WeightProfileStore. Profiles are
// read-shared by scoring; only the external configuration path writes
// them. Analytics only adds recommendations.
type InMemoryWeightProfileStore struct {
	mu              sync.RWMutex
	profiles        map[string]model.AttributeWeightProfile
	recommendations map[string]model.AttributeWeightProfile
	defaultProfile  model.AttributeWeightProfile
}

// NewInMemoryWeightProfileStore creates a store with the given default
// profile as fallback for owners without configuration.
func NewInMemoryWeightProfileStore(defaultProfile model.AttributeWeightProfile) *InMemoryWeightProfileStore {
	return &InMemoryWeightProfileStore{
		profiles:        make(map[string]model.AttributeWeightProfile),
		recommendations: make(map[string]model.AttributeWeightProfile),
		defaultProfile:  defaultProfile,
	}
}

// Profile returns the owner's configured profile or the default.
func (s *InMemoryWeightProfileStore) Profile(_ context.Context, ownerID string) (model.AttributeWeightProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.profiles[ownerID]; ok {
		return p, nil
	}
	return s.defaultProfile, nil
}

// SetProfile installs a tenant profile. This is the external
// configuration write path, not used by the core itself.
func (s *InMemoryWeightProfileStore) SetProfile(_ context.Context, ownerID string, p model.AttributeWeightProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[ownerID] = p
}

// PutRecommendation stores a suggested profile for review.
func (s *InMemoryWeightProfileStore) PutRecommendation(_ context.Context, ownerID string, rec model.AttributeWeightProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendations[ownerID] = rec
	return nil
}

// Recommendation returns the latest stored suggestion for the owner.
func (s *InMemoryWeightProfileStore) Recommendation(_ context.Context, ownerID string) (model.AttributeWeightProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recommendations[ownerID]
	if !ok {
		return model.AttributeWeightProfile{}, ErrNotFound
	}
	return rec, nil
}
