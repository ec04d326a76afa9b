package driving

import "context"

// ConcatRequest describes one concatenation run over a snapshot.
type ConcatRequest struct {
	SnapshotName string

	// ChunkSize overrides the configured fan-in when positive.
	ChunkSize int

	// Resume re-attempts an incomplete execution, reusing completed nodes.
	Resume bool
}

// ConcatResult summarises a concatenation run.
type ConcatResult struct {
	// ResultPath is the validated merged file.
	ResultPath string

	Inputs int
	Stages int
	Nodes  int

	// Checked counts inputs that passed the assembly check this run.
	Checked int

	// PublishedURI is set when the result was promoted to object storage.
	PublishedURI string
}

// ConcatService merges the files of a snapshot into one validated file.
type ConcatService interface {
	Concatenate(ctx context.Context, req ConcatRequest) (*ConcatResult, error)

	// Predict returns where the result of merging totalFiles will land.
	Predict(totalFiles, chunkSize int, processingDir string) (string, error)
}
