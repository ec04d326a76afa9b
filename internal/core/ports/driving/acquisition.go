package driving

import (
	"context"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
)

// AcquireRequest describes one acquisition run.
type AcquireRequest struct {
	// Project is the catalog project accession.
	Project string

	// Count is the number of new analyses to acquire.
	Count int

	// SnapshotName names the workspace; empty derives one from the clock.
	SnapshotName string

	// Resume reopens an existing workspace instead of creating one.
	Resume bool
}

// AcquireResult summarises an acquisition run.
type AcquireResult struct {
	Snapshot *domain.Snapshot

	// Project is the catalog project the run resolved against.
	Project string

	Candidates  int
	Transferred int

	// Files is the workspace manifest after the run.
	Files []string
}

// FetchRequest describes downloading a published snapshot archive.
type FetchRequest struct {
	// URL points at a .tar.gz archive of VCF files.
	URL string

	// SnapshotName names the workspace; empty derives it from the URL.
	SnapshotName string
}

// AcquisitionService discovers and transfers new analyses into a snapshot.
type AcquisitionService interface {
	Acquire(ctx context.Context, req AcquireRequest) (*AcquireResult, error)

	// Fetch fills a fresh snapshot from a published archive.
	Fetch(ctx context.Context, req FetchRequest) (*AcquireResult, error)
}
