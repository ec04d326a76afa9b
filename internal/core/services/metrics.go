package services

import "github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"

// noopMetrics discards every observation.
type noopMetrics struct{}

func (noopMetrics) CandidatesResolved(int)  {}
func (noopMetrics) AnalysesExcluded(int)    {}
func (noopMetrics) TransferCalled()         {}
func (noopMetrics) AnalysesTransferred(int) {}
func (noopMetrics) TransferRetried()        {}
func (noopMetrics) ConcatNodesBuilt(int)    {}
func (noopMetrics) Flush(string) error      { return nil }

func metricsOrNoop(m driven.RunMetrics) driven.RunMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
