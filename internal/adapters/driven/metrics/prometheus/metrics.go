// Package prometheus records run counters and writes them in the
// node_exporter textfile collector format.
package prometheus

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
)

const namespace = "vcf_ingest"

// Metric names.
const (
	MetricCandidatesResolved  = "candidates_resolved_total"
	MetricAnalysesExcluded    = "analyses_excluded_total"
	MetricTransferCalls       = "transfer_calls_total"
	MetricAnalysesTransferred = "analyses_transferred_total"
	MetricTransferRetries     = "transfer_retries_total"
	MetricConcatNodes         = "concat_nodes_total"
)

// Ensure Metrics implements the interface.
var _ driven.RunMetrics = (*Metrics)(nil)

// Metrics holds the counters of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	candidates  prometheus.Counter
	excluded    prometheus.Counter
	calls       prometheus.Counter
	transferred prometheus.Counter
	retries     prometheus.Counter
	nodes       prometheus.Counter
}

// NewMetrics creates and registers the run counters. project is attached as
// a constant label.
func NewMetrics(project string) *Metrics {
	labels := prometheus.Labels{"project": project}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	m := &Metrics{
		registry:    prometheus.NewRegistry(),
		candidates:  counter(MetricCandidatesResolved, "Analyses selected for transfer."),
		excluded:    counter(MetricAnalysesExcluded, "Analyses newly recorded as excluded."),
		calls:       counter(MetricTransferCalls, "Invocations of the bulk transfer tool."),
		transferred: counter(MetricAnalysesTransferred, "Analyses whose artifact arrived and was ledgered."),
		retries:     counter(MetricTransferRetries, "Additional passes over outstanding transfers."),
		nodes:       counter(MetricConcatNodes, "Merge nodes submitted to the workflow engine."),
	}
	m.registry.MustRegister(m.candidates, m.excluded, m.calls, m.transferred, m.retries, m.nodes)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) CandidatesResolved(n int)  { m.candidates.Add(float64(n)) }
func (m *Metrics) AnalysesExcluded(n int)    { m.excluded.Add(float64(n)) }
func (m *Metrics) TransferCalled()           { m.calls.Inc() }
func (m *Metrics) AnalysesTransferred(n int) { m.transferred.Add(float64(n)) }
func (m *Metrics) TransferRetried()          { m.retries.Inc() }
func (m *Metrics) ConcatNodesBuilt(n int)    { m.nodes.Add(float64(n)) }

// Flush writes all counters to path, replacing it atomically.
func (m *Metrics) Flush(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
