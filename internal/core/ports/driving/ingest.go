package driving

import (
	"context"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
)

// IngestRequest runs acquisition followed by concatenation.
type IngestRequest struct {
	Acquire AcquireRequest

	// FetchURL, when set, fills the snapshot from an archive instead of
	// resolving analyses from the catalog.
	FetchURL string

	ChunkSize int
}

// IngestResult holds the outcome of both stages.
type IngestResult struct {
	Acquire *AcquireResult

	// Concat is nil when the snapshot had nothing to merge.
	Concat *ConcatResult
}

// SnapshotStatus describes a snapshot on disk and its recorded runs.
type SnapshotStatus struct {
	Snapshot   *domain.Snapshot
	Files      int
	ResultPath string
	Runs       []domain.RunRecord
}

// IngestService drives the whole pipeline and reports on past runs.
type IngestService interface {
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// Status inspects a snapshot without modifying its ledger or outputs.
	Status(ctx context.Context, snapshotName string) (*SnapshotStatus, error)

	// Runs lists the most recent runs.
	Runs(ctx context.Context, limit int) ([]domain.RunRecord, error)
}
