// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The two hard parts of the pipeline live here:
//
//   - Acquisition: CatalogResolver picks new analyses against the progress
//     ledger and TransferEngine fetches them in batches, retrying only what
//     is still missing.
//   - Concatenation: BuildConcatGraph plans a balanced tree of merges,
//     PredictConcatResult locates its final output in closed form, and
//     Concatenator runs and validates the plan.
//
// Services are pure Go with no CGO.
package services
