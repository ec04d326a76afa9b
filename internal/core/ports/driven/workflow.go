package driven

import (
	"context"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
)

// WorkflowSpec describes one submission of a concat graph.
type WorkflowSpec struct {
	// Graph is the dependency graph to execute.
	Graph *domain.ConcatGraph

	// WorkflowFile is where the generated workflow description is written.
	WorkflowFile string

	// ParamsFile is where the serialized parameter set is written.
	ParamsFile string

	// MergeBinary performs each node's merge.
	MergeBinary string

	// Resume reuses outputs of nodes completed by a previous submission.
	Resume bool
}

// WorkflowRunner executes a concat graph on an external workflow engine.
// It must not start a node before all of its predecessors completed.
type WorkflowRunner interface {
	Run(ctx context.Context, spec WorkflowSpec) error
}
