package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// Ensure ConcatService implements the interface.
var _ driving.ConcatService = (*ConcatService)(nil)

// ConcatService merges the files of an existing snapshot.
type ConcatService struct {
	workspace    *Workspace
	checker      *AssemblyChecker
	preparer     *InputPreparer
	concatenator *Concatenator
	publisher    driven.ArtifactPublisher
	runs         driven.RunStore
	metrics      driven.RunMetrics
	chunkSize    int
}

// NewConcatService creates a concat service. checker, publisher, runs and
// metrics may be nil; a nil checker skips the assembly check.
func NewConcatService(
	workspace *Workspace,
	checker *AssemblyChecker,
	preparer *InputPreparer,
	concatenator *Concatenator,
	publisher driven.ArtifactPublisher,
	runs driven.RunStore,
	metrics driven.RunMetrics,
	chunkSize int,
) *ConcatService {
	return &ConcatService{
		workspace:    workspace,
		checker:      checker,
		preparer:     preparer,
		concatenator: concatenator,
		publisher:    publisher,
		runs:         runs,
		metrics:      metricsOrNoop(metrics),
		chunkSize:    chunkSize,
	}
}

// Concatenate checks, prepares, merges, validates and optionally publishes
// the files of the snapshot named in req.
func (s *ConcatService) Concatenate(ctx context.Context, req driving.ConcatRequest) (*driving.ConcatResult, error) {
	snapshot, err := s.workspace.OpenOrCreate(req.SnapshotName, true)
	if err != nil {
		return nil, err
	}
	if req.ChunkSize > 0 {
		snapshot.ChunkSize = req.ChunkSize
	} else {
		snapshot.ChunkSize = s.chunkSize
	}

	run := startRun(ctx, s.runs, domain.RunConcat, snapshot.Name, "")
	result := &driving.ConcatResult{}
	err = s.concatenate(ctx, snapshot, req.Resume, result)
	run.finish(ctx, result.Inputs, result.ResultPath, err)

	if flushErr := s.metrics.Flush(snapshot.MetricsPath()); flushErr != nil {
		logger.Warn("Could not write metrics: %v", flushErr)
	}
	return result, err
}

func (s *ConcatService) concatenate(
	ctx context.Context,
	snapshot *domain.Snapshot,
	resume bool,
	result *driving.ConcatResult,
) error {
	files, err := ListVCFFiles(snapshot.Root)
	if err != nil {
		return err
	}
	if s.checker != nil {
		logger.Section("Assembly check")
		checked, err := s.checker.Check(ctx, files, snapshot.AssemblyCheckPath())
		result.Checked = checked
		if err != nil {
			return err
		}
	}

	logger.Section("Prepare")
	if _, err := s.preparer.Prepare(ctx, files); err != nil {
		return fmt.Errorf("prepare inputs: %w", err)
	}
	files, err = s.workspace.Manifest(snapshot)
	if err != nil {
		return err
	}
	result.Inputs = len(files)

	logger.Section("Concatenate")
	outcome, err := s.concatenator.Concatenate(ctx, files, snapshot.ProcessingDir(), snapshot.ChunkSize, resume)
	if err != nil {
		return err
	}
	result.ResultPath = outcome.ResultPath
	result.Stages = len(outcome.Graph.Stages)
	result.Nodes = len(outcome.Graph.Nodes())

	if s.publisher == nil {
		return nil
	}
	logger.Section("Publish")
	key := snapshot.Name + "/" + filepath.Base(outcome.ResultPath)
	uri, err := s.publisher.Publish(ctx, outcome.ResultPath, key)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPublishFailed, err)
	}
	result.PublishedURI = uri
	logger.Info("Published %s to %s", outcome.ResultPath, uri)
	return nil
}

// Predict returns where concatenating totalFiles files will land.
func (s *ConcatService) Predict(totalFiles, chunkSize int, processingDir string) (string, error) {
	if chunkSize <= 0 {
		chunkSize = s.chunkSize
	}
	return PredictConcatResult(totalFiles, chunkSize, processingDir)
}
