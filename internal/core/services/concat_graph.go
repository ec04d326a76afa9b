package services

import (
	"fmt"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
)

// BuildConcatGraph plans the tree reduction of files into one file, merging
// at most chunkSize inputs per node.
//
// Stage s partitions its inputs into ceil(n/chunkSize) consecutive batches;
// node (s, b) merges inputs [chunkSize*b, chunkSize*(b+1)) and, from stage 1
// on, depends on the previous-stage nodes at those same positions. Stages
// repeat on the outputs until one file remains, which is returned as the
// final output. A single input produces no nodes. Batches holding one file
// still get a node so that output paths stay predictable.
func BuildConcatGraph(files []string, chunkSize int, processingDir string) (*domain.ConcatGraph, string, error) {
	if chunkSize < 2 {
		return nil, "", fmt.Errorf("%w: concat chunk size must be at least 2, got %d", domain.ErrInvalidInput, chunkSize)
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("%w: no files to concatenate", domain.ErrInvalidInput)
	}

	graph := &domain.ConcatGraph{
		ProcessingDir: processingDir,
		ChunkSize:     chunkSize,
	}

	inputs := files
	var producers []domain.NodeID
	for stage := 0; len(inputs) > 1; stage++ {
		batches := ceilDiv(len(inputs), chunkSize)
		nodes := make([]domain.ConcatNode, 0, batches)
		outputs := make([]string, 0, batches)
		ids := make([]domain.NodeID, 0, batches)

		for batch := 0; batch < batches; batch++ {
			lo, hi := batch*chunkSize, min((batch+1)*chunkSize, len(inputs))
			node := domain.ConcatNode{
				ID:       domain.NodeID{Stage: stage, Batch: batch},
				Inputs:   append([]string(nil), inputs[lo:hi]...),
				Output:   domain.ConcatOutputPath(processingDir, stage, batch),
				FileList: domain.ConcatFileListPath(processingDir, stage, batch),
			}
			if producers != nil {
				node.DependsOn = append([]domain.NodeID(nil), producers[lo:hi]...)
			}
			nodes = append(nodes, node)
			outputs = append(outputs, node.Output)
			ids = append(ids, node.ID)
		}

		graph.Stages = append(graph.Stages, nodes)
		inputs, producers = outputs, ids
	}

	return graph, inputs[0], nil
}

// ConcatStageCount returns the number of stages needed to reduce totalFiles
// to one: the smallest s with chunkSize^s >= totalFiles.
func ConcatStageCount(totalFiles, chunkSize int) int {
	stages := 0
	for capacity := 1; capacity < totalFiles; stages++ {
		if capacity > totalFiles/chunkSize {
			// Next stage covers everything; avoid overflowing capacity.
			return stages + 1
		}
		capacity *= chunkSize
	}
	return stages
}

// PredictConcatResult returns the final output path of BuildConcatGraph for
// totalFiles inputs without building the graph. The result is always batch 0
// of the last stage. Fewer than two files need no merge and are rejected;
// callers handle that case themselves.
func PredictConcatResult(totalFiles, chunkSize int, processingDir string) (string, error) {
	if chunkSize < 2 {
		return "", fmt.Errorf("%w: concat chunk size must be at least 2, got %d", domain.ErrInvalidInput, chunkSize)
	}
	if totalFiles <= 1 {
		return "", fmt.Errorf("%w: %d files need no concatenation", domain.ErrInvalidInput, totalFiles)
	}
	stage := ConcatStageCount(totalFiles, chunkSize) - 1
	return domain.ConcatOutputPath(processingDir, stage, 0), nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
