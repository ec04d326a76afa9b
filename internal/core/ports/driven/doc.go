// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CatalogClient: Lists the analyses of a remote project
//   - LedgerStore: Append-only record of done and excluded accessions
//   - Transferrer: External bulk transfer tool
//   - SnapshotFetcher: Published snapshot archives
//   - CommandRunner: External merge and index tool invocations
//   - WorkflowRunner: External workflow engine executing the concat graph
//   - CoordinateReader: Distinct variant coordinates of VCF files
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ArtifactPublisher: Uploads validated results. Without it, results stay local.
//   - RunStore: Run history. Without it, runs are not recorded.
//   - RunMetrics: Counters written next to the snapshot. Without it, nothing is exported.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
