// Package domain defines the core business entities for vcf-ingest.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - AnalysisRecord: One entry of the remote analysis catalog
//   - LedgerEntry: A resolved (done or excluded) accession
//   - Snapshot: One named acquisition run and its workspace
//   - ConcatNode / ConcatGraph: The tree-reduction merge plan
//   - RunRecord: History of acquisition and concatenation runs
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
