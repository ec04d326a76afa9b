package domain

import "time"

// RunKind identifies what a recorded run did.
type RunKind string

// Run kinds.
const (
	RunAcquire RunKind = "acquire"
	RunFetch   RunKind = "fetch"
	RunConcat  RunKind = "concat"
	RunIngest  RunKind = "ingest"
)

// RunStatus is the outcome of a run.
type RunStatus string

// Run statuses.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one entry in the run registry.
type RunRecord struct {
	ID         string
	Kind       RunKind
	Snapshot   string
	Project    string
	Status     RunStatus
	Items      int
	ResultPath string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took, or zero while running.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
