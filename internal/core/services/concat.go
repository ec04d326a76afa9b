package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// Files written into the processing directory next to the stages.
const (
	WorkflowFileName = "vertical_concat.nf"
	ParamsFileName   = "vertical_concat_params.yml"
)

// ConcatOutcome describes an executed and validated concatenation.
type ConcatOutcome struct {
	ResultPath string
	Graph      *domain.ConcatGraph
}

// Concatenator submits concat graphs to the workflow engine and validates
// the merged result against its inputs.
type Concatenator struct {
	workflow    driven.WorkflowRunner
	coordinates driven.CoordinateReader
	metrics     driven.RunMetrics
	settings    domain.ConcatSettings
}

// NewConcatenator creates a concatenator. metrics may be nil.
func NewConcatenator(
	workflow driven.WorkflowRunner,
	coordinates driven.CoordinateReader,
	settings domain.ConcatSettings,
	metrics driven.RunMetrics,
) *Concatenator {
	return &Concatenator{
		workflow:    workflow,
		coordinates: coordinates,
		metrics:     metricsOrNoop(metrics),
		settings:    settings,
	}
}

// Concatenate merges files into one file under processingDir.
//
// The processing directory must be empty unless resume is set, in which
// case the workflow engine reuses outputs of completed nodes. The planned
// graph is cross-checked against PredictConcatResult before submission.
// After execution the result must hold exactly the distinct coordinates of
// the inputs or domain.ErrValidationMismatch is returned.
func (c *Concatenator) Concatenate(
	ctx context.Context,
	files []string,
	processingDir string,
	chunkSize int,
	resume bool,
) (*ConcatOutcome, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to concatenate", domain.ErrInvalidInput)
	}
	if err := prepareProcessingDir(processingDir, resume); err != nil {
		return nil, err
	}

	if len(files) == 1 {
		logger.Info("Only one input file; %s is the result", files[0])
		return &ConcatOutcome{ResultPath: files[0], Graph: &domain.ConcatGraph{
			ProcessingDir: processingDir, ChunkSize: chunkSize,
		}}, nil
	}

	expected, err := PredictConcatResult(len(files), chunkSize, processingDir)
	if err != nil {
		return nil, err
	}
	graph, result, err := BuildConcatGraph(files, chunkSize, processingDir)
	if err != nil {
		return nil, err
	}
	if result != expected {
		return nil, fmt.Errorf("concat plan ends at %s but %s was predicted", result, expected)
	}
	nodes := graph.Nodes()
	c.metrics.ConcatNodesBuilt(len(nodes))
	logger.Info("Concatenating %d files in %d stages (%d merges, chunk size %d)",
		len(files), len(graph.Stages), len(nodes), chunkSize)

	if err := writeFileLists(nodes); err != nil {
		return nil, err
	}

	err = c.workflow.Run(ctx, driven.WorkflowSpec{
		Graph:        graph,
		WorkflowFile: filepath.Join(processingDir, WorkflowFileName),
		ParamsFile:   filepath.Join(processingDir, ParamsFileName),
		MergeBinary:  c.settings.BcftoolsBinary,
		Resume:       resume,
	})
	if err != nil {
		return nil, fmt.Errorf("run concat workflow: %w", err)
	}

	if err := c.Validate(ctx, files, result); err != nil {
		return nil, err
	}
	logger.Info("Concatenated output file is in: %s", result)
	return &ConcatOutcome{ResultPath: result, Graph: graph}, nil
}

// Validate checks that output holds exactly the distinct coordinates
// found across inputs.
func (c *Concatenator) Validate(ctx context.Context, inputs []string, output string) error {
	want, err := c.coordinates.Distinct(ctx, inputs...)
	if err != nil {
		return fmt.Errorf("read input coordinates: %w", err)
	}
	got, err := c.coordinates.Distinct(ctx, output)
	if err != nil {
		return fmt.Errorf("read output coordinates: %w", err)
	}
	if !got.Equal(want) {
		missing, extra := want.Diff(got)
		return fmt.Errorf("%w: %s has %s, inputs have %s (%d missing, %d unexpected)",
			domain.ErrValidationMismatch, output, got, want, missing, extra)
	}
	logger.Debug("Validated %s: %s", output, got)
	return nil
}

func prepareProcessingDir(dir string, resume bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create processing directory: %w", err)
	}
	empty, err := dirEmpty(dir)
	if err != nil {
		return err
	}
	if !empty && !resume {
		return fmt.Errorf("%w: processing directory %s already has content; delete it to re-process or resume",
			domain.ErrStateConflict, dir)
	}
	return nil
}

func writeFileLists(nodes []domain.ConcatNode) error {
	for _, node := range nodes {
		if err := os.MkdirAll(filepath.Dir(node.FileList), 0o755); err != nil {
			return fmt.Errorf("create stage directory: %w", err)
		}
		content := strings.Join(node.Inputs, "\n") + "\n"
		if err := os.WriteFile(node.FileList, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write file list for %s: %w", node.ID.Name(), err)
		}
	}
	return nil
}
