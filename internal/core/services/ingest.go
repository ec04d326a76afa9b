package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs acquisition and concatenation back to back.
type IngestService struct {
	acquisition driving.AcquisitionService
	concat      driving.ConcatService
	workspace   *Workspace
	runs        driven.RunStore
}

// NewIngestService creates an ingest service. runs may be nil.
func NewIngestService(
	acquisition driving.AcquisitionService,
	concat driving.ConcatService,
	workspace *Workspace,
	runs driven.RunStore,
) *IngestService {
	return &IngestService{
		acquisition: acquisition,
		concat:      concat,
		workspace:   workspace,
		runs:        runs,
	}
}

// Ingest acquires new analyses, or fetches an archive when req.FetchURL is
// set, and merges the snapshot. Concatenation only starts once every
// candidate was transferred, and is skipped when the snapshot holds no files.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	result := &driving.IngestResult{}

	var acquired *driving.AcquireResult
	var err error
	if req.FetchURL != "" {
		acquired, err = s.acquisition.Fetch(ctx, driving.FetchRequest{
			URL:          req.FetchURL,
			SnapshotName: req.Acquire.SnapshotName,
		})
	} else {
		acquired, err = s.acquisition.Acquire(ctx, req.Acquire)
	}
	result.Acquire = acquired
	if err != nil {
		return result, err
	}

	if len(acquired.Files) == 0 {
		logger.Info("Snapshot %s has no files; nothing to merge", acquired.Snapshot.Name)
		return result, nil
	}

	run := startRun(ctx, s.runs, domain.RunIngest, acquired.Snapshot.Name, acquired.Project)
	concatenated, err := s.concat.Concatenate(ctx, driving.ConcatRequest{
		SnapshotName: acquired.Snapshot.Name,
		ChunkSize:    req.ChunkSize,
		Resume:       req.Acquire.Resume,
	})
	result.Concat = concatenated
	var resultPath string
	if concatenated != nil {
		resultPath = concatenated.ResultPath
	}
	run.finish(ctx, len(acquired.Files), resultPath, err)
	return result, err
}

// Status reports the files, predicted result and recorded runs of a snapshot.
func (s *IngestService) Status(ctx context.Context, snapshotName string) (*driving.SnapshotStatus, error) {
	snapshot, err := s.workspace.OpenOrCreate(snapshotName, true)
	if err != nil {
		return nil, err
	}
	files, err := ListVCFFiles(snapshot.Root)
	if err != nil {
		return nil, err
	}
	resultPath, err := s.workspace.ResultPath(snapshot)
	if err != nil {
		return nil, err
	}

	status := &driving.SnapshotStatus{
		Snapshot:   snapshot,
		Files:      len(files),
		ResultPath: resultPath,
	}
	if s.runs != nil {
		runs, err := s.runs.ListBySnapshot(ctx, snapshot.Name)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		status.Runs = runs
	}
	return status, nil
}

// Runs lists the most recent runs.
func (s *IngestService) Runs(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.List(ctx, limit)
}
