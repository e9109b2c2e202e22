package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/pkg/metrics"
)

// Default match store configuration constants.
const (
	defaultShardCount = 8
)

// Option applies a configuration option to the InMemoryMatchStore.
type Option func(*InMemoryMatchStore)

// WithShardCount sets the number of shards records are spread over.
func WithShardCount(n int) Option {
	return func(s *InMemoryMatchStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// matchShard holds a slice of the record space under its own lock.
type matchShard struct {
	mu      sync.RWMutex
	records map[string]*model.MatchRecord
}

// InMemoryMatchStore implements MatchStore with sharded in-memory maps.
// It is the reference implementation used by tests and the single-node
// deployment; a relational store satisfies the same interface.
type InMemoryMatchStore struct {
	shardCount int
	shards     []*matchShard
}

// NewInMemoryMatchStore creates a sharded in-memory match store.
func NewInMemoryMatchStore(opts ...Option) *InMemoryMatchStore {
	s := &InMemoryMatchStore{
		shardCount: defaultShardCount,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*matchShard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &matchShard{records: make(map[string]*model.MatchRecord)}
	}

	metrics.UpdateRepositoryShardCount(s.shardCount)
	return s
}

func (s *InMemoryMatchStore) shardFor(id string) *matchShard {
	return s.shards[fnv32(id)%uint32(s.shardCount)]
}

// fnv32 hashes an id onto a shard.
func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

// Append durably adds a new match record.
func (s *InMemoryMatchStore) Append(ctx context.Context, rec model.MatchRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	shard := s.shardFor(rec.ID)
	shard.mu.Lock()
	cp := rec
	shard.records[rec.ID] = &cp
	shard.mu.Unlock()

	metrics.UpdateRepositoryRecordsTotal(s.Count(ctx))
	return nil
}

// Get returns a record by id.
func (s *InMemoryMatchStore) Get(_ context.Context, id string) (model.MatchRecord, error) {
	shard := s.shardFor(id)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	rec, ok := shard.records[id]
	if !ok {
		return model.MatchRecord{}, ErrNotFound
	}
	return *rec, nil
}

// List returns records matching the filter in the requested order.
func (s *InMemoryMatchStore) List(_ context.Context, f MatchFilter) ([]model.MatchRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var out []model.MatchRecord
	for _, shard := range s.shards {
		shard.mu.RLock()
		for _, rec := range shard.records {
			if matchesFilter(rec, f) {
				out = append(out, *rec)
			}
		}
		shard.mu.RUnlock()
	}

	switch f.Order {
	case OrderByCreatedDesc:
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID < out[j].ID
		})
	default:
		// Score descending, job id ascending on ties for determinism.
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Overall != out[j].Overall {
				return out[i].Overall > out[j].Overall
			}
			return out[i].JobID < out[j].JobID
		})
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchesFilter(rec *model.MatchRecord, f MatchFilter) bool {
	switch {
	case f.OwnerID != "" && rec.OwnerID != f.OwnerID:
		return false
	case f.CandidateID != "" && rec.CandidateID != f.CandidateID:
		return false
	case f.JobID != "" && rec.JobID != f.JobID:
		return false
	case !f.From.IsZero() && rec.CreatedAt.Before(f.From):
		return false
	case !f.To.IsZero() && rec.CreatedAt.After(f.To):
		return false
	case f.MinOverall > 0 && rec.Overall < f.MinOverall:
		return false
	}
	return true
}

// SetFlags ORs the given lifecycle flags into the record. Flags are
// monotonic: a true flag never reverts.
func (s *InMemoryMatchStore) SetFlags(_ context.Context, id string, flags FlagUpdate) error {
	shard := s.shardFor(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	rec, ok := shard.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.WasViewed = rec.WasViewed || flags.Viewed
	rec.WasRecommended = rec.WasRecommended || flags.Recommended
	rec.WasApplied = rec.WasApplied || flags.Applied
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// SetOutcome applies a terminal outcome exactly once; a repeat terminal
// write requires the Correction flag.
func (s *InMemoryMatchStore) SetOutcome(_ context.Context, id string, upd OutcomeUpdate) error {
	if !upd.Outcome.Valid() {
		return ErrInvalidOutcome
	}

	shard := s.shardFor(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	rec, ok := shard.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Outcome.Terminal() && !upd.Correction {
		return ErrOutcomeAlreadySet
	}

	rec.Outcome = upd.Outcome
	date := upd.Date
	rec.OutcomeDate = &date
	rec.OutcomeNotes = upd.Notes
	rec.TimeToHireDays = upd.TimeToHire
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// Count returns the number of stored records.
func (s *InMemoryMatchStore) Count(_ context.Context) int {
	var n int
	for _, shard := range s.shards {
		shard.mu.RLock()
		n += len(shard.records)
		shard.mu.RUnlock()
	}
	return n
}
