package driven

// RunMetrics counts what a run did.
type RunMetrics interface {
	CandidatesResolved(n int)
	AnalysesExcluded(n int)
	TransferCalled()
	AnalysesTransferred(n int)
	TransferRetried()
	ConcatNodesBuilt(n int)

	// Flush writes the current values to path.
	Flush(path string) error
}
