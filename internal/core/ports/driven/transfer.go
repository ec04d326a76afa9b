package driven

import "context"

// Transferrer drives the external bulk transfer tool.
// One call covers a whole batch; it may succeed partially, so callers
// must check for artifacts rather than trust the returned error.
type Transferrer interface {
	Transfer(ctx context.Context, sources []string, targetDir string) error
}

// SnapshotFetcher downloads a published snapshot archive and unpacks its
// files directly into targetDir.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, archiveURL, targetDir string) (int, error)
}
