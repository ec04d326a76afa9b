package driven

import (
	"context"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
)

// RunStore persists the history of acquisition and concatenation runs.
type RunStore interface {
	// Save stores or updates a run.
	Save(ctx context.Context, run domain.RunRecord) error

	// Get retrieves a run by ID.
	Get(ctx context.Context, id string) (*domain.RunRecord, error)

	// List returns the most recent runs first, at most limit of them.
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// ListBySnapshot returns all runs for a snapshot, most recent first.
	ListBySnapshot(ctx context.Context, snapshot string) ([]domain.RunRecord, error)
}
