package driven

import (
	"context"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
)

// LedgerStore persists resolved accessions.
// Stores are append-only and must be safe to re-read from scratch.
type LedgerStore interface {
	// Load reads every entry of a category, de-duplicated by accession.
	Load(ctx context.Context, category domain.LedgerCategory) (domain.LedgerSet, error)

	// Append adds entries to a category in a single write.
	Append(ctx context.Context, category domain.LedgerCategory, entries ...domain.LedgerEntry) error
}
