package domain

import (
	"fmt"
	"path/filepath"
)

// ConcatDirName is the directory under the processing dir holding all stages.
const ConcatDirName = "vertical_concat"

// NodeID locates a concatenation node in the tree.
type NodeID struct {
	Stage int
	Batch int
}

// Name is the process name used in generated workflows and logs.
func (id NodeID) Name() string {
	return fmt.Sprintf("concat_stage%d_batch%d", id.Stage, id.Batch)
}

// ConcatNode is one merge unit of the tree reduction.
// Nodes are never mutated after the graph is built.
type ConcatNode struct {
	ID NodeID

	// Inputs are merged in this order.
	Inputs []string

	// Output is a pure function of (stage, batch, processing dir).
	Output string

	// FileList is where Inputs are written for the merge tool.
	FileList string

	// DependsOn lists the previous-stage nodes whose outputs feed this node.
	// Empty for stage 0, whose inputs are external files.
	DependsOn []NodeID
}

// ConcatGraph is an arena of nodes indexed by stage then batch.
type ConcatGraph struct {
	ProcessingDir string
	ChunkSize     int
	Stages        [][]ConcatNode
}

// Node returns the node at id.
func (g *ConcatGraph) Node(id NodeID) (*ConcatNode, bool) {
	if id.Stage < 0 || id.Stage >= len(g.Stages) {
		return nil, false
	}
	stage := g.Stages[id.Stage]
	if id.Batch < 0 || id.Batch >= len(stage) {
		return nil, false
	}
	return &stage[id.Batch], true
}

// Nodes returns every node, stage by stage.
func (g *ConcatGraph) Nodes() []ConcatNode {
	var out []ConcatNode
	for _, stage := range g.Stages {
		out = append(out, stage...)
	}
	return out
}

// Edge is a dependency: To cannot start before From completes.
type Edge struct {
	From NodeID
	To   NodeID
}

// Edges returns the explicit dependency list of the graph.
func (g *ConcatGraph) Edges() []Edge {
	var edges []Edge
	for _, stage := range g.Stages {
		for _, node := range stage {
			for _, dep := range node.DependsOn {
				edges = append(edges, Edge{From: dep, To: node.ID})
			}
		}
	}
	return edges
}

// ConcatStageDir is the directory of one stage.
func ConcatStageDir(processingDir string, stage int) string {
	return filepath.Join(processingDir, ConcatDirName, fmt.Sprintf("stage_%d", stage))
}

// ConcatOutputPath is the output of node (stage, batch).
func ConcatOutputPath(processingDir string, stage, batch int) string {
	return filepath.Join(ConcatStageDir(processingDir, stage),
		fmt.Sprintf("concat_output_stage%d_batch%d.vcf.gz", stage, batch))
}

// ConcatFileListPath is the input list of node (stage, batch).
func ConcatFileListPath(processingDir string, stage, batch int) string {
	return filepath.Join(ConcatStageDir(processingDir, stage),
		fmt.Sprintf("batch%d_files_to_be_concatenated.txt", batch))
}
