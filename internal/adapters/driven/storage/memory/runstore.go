package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.RunRecord
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.RunRecord),
	}
}

// Save stores or updates a run.
func (s *RunStore) Save(_ context.Context, run domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

// Get retrieves a run by ID.
func (s *RunStore) Get(_ context.Context, id string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// List returns the most recent runs first. A limit <= 0 returns all.
func (s *RunStore) List(_ context.Context, limit int) ([]domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := s.sorted(func(domain.RunRecord) bool { return true })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListBySnapshot returns all runs for a snapshot, most recent first.
func (s *RunStore) ListBySnapshot(_ context.Context, snapshot string) ([]domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(r domain.RunRecord) bool { return r.Snapshot == snapshot }), nil
}

// sorted filters runs newest first (caller must hold lock).
func (s *RunStore) sorted(keep func(domain.RunRecord) bool) []domain.RunRecord {
	result := make([]domain.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		if keep(run) {
			result = append(result, run)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result
}
