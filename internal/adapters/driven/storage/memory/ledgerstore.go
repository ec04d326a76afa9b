package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
)

// Ensure LedgerStore implements the interface.
var _ driven.LedgerStore = (*LedgerStore)(nil)

// LedgerStore is an in-memory implementation of driven.LedgerStore.
// Entries are kept in append order, duplicates included, like the file
// ledger does on disk.
type LedgerStore struct {
	mu      sync.RWMutex
	entries map[domain.LedgerCategory][]domain.LedgerEntry
	writes  map[domain.LedgerCategory]int

	// FailAppend, when set, is returned by every Append.
	FailAppend error
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		entries: make(map[domain.LedgerCategory][]domain.LedgerEntry),
		writes:  make(map[domain.LedgerCategory]int),
	}
}

// Load returns the de-duplicated entries of a category.
func (s *LedgerStore) Load(_ context.Context, category domain.LedgerCategory) (domain.LedgerSet, error) {
	if err := domain.ValidateCategory(category); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(domain.LedgerSet, len(s.entries[category]))
	for _, e := range s.entries[category] {
		set[e.Accession] = e
	}
	return set, nil
}

// Append adds entries to a category as one write.
func (s *LedgerStore) Append(_ context.Context, category domain.LedgerCategory, entries ...domain.LedgerEntry) error {
	if err := domain.ValidateCategory(category); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAppend != nil {
		return s.FailAppend
	}
	s.entries[category] = append(s.entries[category], entries...)
	s.writes[category]++
	return nil
}

// Entries returns the raw entries of a category in append order.
func (s *LedgerStore) Entries(category domain.LedgerCategory) []domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LedgerEntry(nil), s.entries[category]...)
}

// Writes returns how many non-empty appends a category received.
func (s *LedgerStore) Writes(category domain.LedgerCategory) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes[category]
}
