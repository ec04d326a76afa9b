package services

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// Ensure AcquisitionService implements the interface.
var _ driving.AcquisitionService = (*AcquisitionService)(nil)

// AcquisitionService resolves new analyses and transfers them into a snapshot.
type AcquisitionService struct {
	workspace *Workspace
	resolver  *CatalogResolver
	engine    *TransferEngine
	fetcher   driven.SnapshotFetcher
	reject    RejectPredicate
	project   string
	runs      driven.RunStore
	metrics   driven.RunMetrics
}

// NewAcquisitionService creates an acquisition service. project is used
// for requests that name none. fetcher, runs and metrics may be nil.
func NewAcquisitionService(
	workspace *Workspace,
	resolver *CatalogResolver,
	engine *TransferEngine,
	fetcher driven.SnapshotFetcher,
	reject RejectPredicate,
	project string,
	runs driven.RunStore,
	metrics driven.RunMetrics,
) *AcquisitionService {
	return &AcquisitionService{
		workspace: workspace,
		resolver:  resolver,
		engine:    engine,
		fetcher:   fetcher,
		reject:    reject,
		project:   project,
		runs:      runs,
		metrics:   metricsOrNoop(metrics),
	}
}

// Acquire opens the snapshot, resolves candidates and transfers them.
// The manifest is only rewritten when every candidate was transferred.
func (s *AcquisitionService) Acquire(ctx context.Context, req driving.AcquireRequest) (*driving.AcquireResult, error) {
	if req.Project == "" {
		req.Project = s.project
	}
	if req.Project == "" {
		return nil, fmt.Errorf("%w: a project accession is required", domain.ErrInvalidInput)
	}

	snapshot, err := s.workspace.OpenOrCreate(req.SnapshotName, req.Resume)
	if err != nil {
		return nil, err
	}

	run := startRun(ctx, s.runs, domain.RunAcquire, snapshot.Name, req.Project)
	result := &driving.AcquireResult{Snapshot: snapshot, Project: req.Project}
	err = s.acquire(ctx, req, snapshot, result)
	run.finish(ctx, result.Transferred, snapshot.Root, err)

	s.flushMetrics(snapshot)
	return result, err
}

func (s *AcquisitionService) acquire(
	ctx context.Context,
	req driving.AcquireRequest,
	snapshot *domain.Snapshot,
	result *driving.AcquireResult,
) error {
	logger.Section("Catalog")
	candidates, err := s.resolver.Resolve(ctx, req.Project, req.Count, s.reject)
	if err != nil {
		return fmt.Errorf("resolve analyses: %w", err)
	}
	result.Candidates = len(candidates)

	logger.Section("Transfer")
	report, err := s.engine.Transfer(ctx, candidates, snapshot.Root)
	result.Transferred = len(report.Transferred)
	if err != nil {
		return fmt.Errorf("transfer analyses: %w", err)
	}

	return s.writeManifest(snapshot, result)
}

// Fetch creates a fresh snapshot and unpacks a published archive into it.
// The ledger is not consulted; archives are curated snapshots. A failed
// fetch removes the snapshot directory so the same command can be rerun.
func (s *AcquisitionService) Fetch(ctx context.Context, req driving.FetchRequest) (*driving.AcquireResult, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("%w: snapshot archives are not supported", domain.ErrInvalidInput)
	}
	if req.URL == "" {
		return nil, fmt.Errorf("%w: an archive URL is required", domain.ErrInvalidInput)
	}
	name := req.SnapshotName
	if name == "" {
		name = domain.SnapshotNameFromURL(req.URL)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: cannot derive a snapshot name from %q", domain.ErrInvalidInput, req.URL)
	}

	snapshot, err := s.workspace.OpenOrCreate(name, false)
	if err != nil {
		return nil, err
	}

	run := startRun(ctx, s.runs, domain.RunFetch, snapshot.Name, "")
	result := &driving.AcquireResult{Snapshot: snapshot}
	err = s.fetch(ctx, req.URL, snapshot, result)
	run.finish(ctx, result.Transferred, snapshot.Root, err)

	if err != nil {
		if rmErr := os.RemoveAll(snapshot.Root); rmErr != nil {
			logger.Warn("Could not remove incomplete snapshot %s: %v", snapshot.Root, rmErr)
		}
		return result, err
	}
	s.flushMetrics(snapshot)
	return result, nil
}

func (s *AcquisitionService) fetch(
	ctx context.Context,
	archiveURL string,
	snapshot *domain.Snapshot,
	result *driving.AcquireResult,
) error {
	logger.Section("Fetch")
	logger.Info("Downloading data snapshot %s from %s", snapshot.Name, archiveURL)
	n, err := s.fetcher.Fetch(ctx, archiveURL, snapshot.Root)
	if err != nil {
		return fmt.Errorf("fetch snapshot archive: %w", err)
	}
	result.Transferred = n
	s.metrics.AnalysesTransferred(n)
	return s.writeManifest(snapshot, result)
}

func (s *AcquisitionService) writeManifest(snapshot *domain.Snapshot, result *driving.AcquireResult) error {
	files, err := s.workspace.Manifest(snapshot)
	if err != nil {
		return err
	}
	result.Files = files
	logger.Info("Total number of files in snapshot %s: %d", snapshot.Name, len(files))
	return nil
}

func (s *AcquisitionService) flushMetrics(snapshot *domain.Snapshot) {
	if err := s.metrics.Flush(snapshot.MetricsPath()); err != nil {
		logger.Warn("Could not write metrics: %v", err)
	}
}
