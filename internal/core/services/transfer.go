package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

const (
	transferBackoffMultiplier = 1.2
	transferBackoffJitter     = 0.5
)

// TransferReport counts what a Transfer call did.
type TransferReport struct {
	// Attempts is the number of passes over the outstanding work set.
	Attempts int

	// Calls is the number of external transfer invocations.
	Calls int

	// Transferred lists accessions ledgered as done by this call, in order.
	Transferred []string

	// AlreadyDone counts candidates skipped because the ledger had them.
	AlreadyDone int
}

// TransferEngine drives the transfer tool over candidates in batches and
// retries only the items whose artifacts did not appear. The configured
// client decides which source location of a record is fetched.
type TransferEngine struct {
	transferrer driven.Transferrer
	ledger      driven.LedgerStore
	metrics     driven.RunMetrics

	client      string
	batchSize   int
	maxAttempts int
	newBackOff  func() backoff.BackOff
}

// NewTransferEngine creates an engine from transfer settings.
// metrics may be nil.
func NewTransferEngine(
	transferrer driven.Transferrer,
	ledger driven.LedgerStore,
	settings domain.TransferSettings,
	metrics driven.RunMetrics,
) *TransferEngine {
	initial := settings.InitialBackoff
	return &TransferEngine{
		transferrer: transferrer,
		ledger:      ledger,
		metrics:     metricsOrNoop(metrics),
		client:      settings.Client,
		batchSize:   max(settings.BatchSize, 1),
		maxAttempts: max(settings.MaxAttempts, 1),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.Multiplier = transferBackoffMultiplier
			b.RandomizationFactor = transferBackoffJitter
			b.MaxInterval = 10 * time.Minute
			b.MaxElapsedTime = 0
			b.Reset()
			return b
		},
	}
}

// Transfer fetches every candidate into workspaceDir.
//
// The required set is fixed at entry. Each attempt derives the outstanding
// set as required minus ledgered minus completed, so items are never
// fetched twice once their artifact exists. A non-nil error wrapping
// domain.ErrIncompleteBatch names what is still missing.
func (e *TransferEngine) Transfer(
	ctx context.Context,
	candidates []domain.AnalysisRecord,
	workspaceDir string,
) (*TransferReport, error) {
	report := &TransferReport{}
	required := uniqueByAccession(candidates)
	warnSharedArtifacts(required, e.client)

	done, err := e.ledger.Load(ctx, domain.LedgerDone)
	if err != nil {
		return report, fmt.Errorf("load processed analyses: %w", err)
	}
	completed := make(map[string]bool, len(required))
	for _, rec := range required {
		if done.Contains(rec.Accession) {
			completed[rec.Accession] = true
			report.AlreadyDone++
			logger.Debug("Skipping %s: already processed", rec.Accession)
		}
	}

	logger.Info("Total number of files to download: %d", len(required)-report.AlreadyDone)

	attempt := func() error {
		outstanding := outstandingOf(required, completed)
		if len(outstanding) == 0 {
			return nil
		}
		report.Attempts++
		if report.Attempts > 1 {
			e.metrics.TransferRetried()
		}

		for _, batch := range chunk(outstanding, e.batchSize) {
			if err := ctx.Err(); err != nil {
				return backoff.Permanent(err)
			}
			if err := e.transferBatch(ctx, batch, workspaceDir, completed, report); err != nil {
				return backoff.Permanent(err)
			}
		}

		if remaining := outstandingOf(required, completed); len(remaining) > 0 {
			return fmt.Errorf("%w: %d of %d analyses were not downloaded",
				domain.ErrIncompleteBatch, len(remaining), len(required))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(e.newBackOff(), uint64(e.maxAttempts-1)), ctx)
	err = backoff.RetryNotify(attempt, policy, func(err error, wait time.Duration) {
		logger.Warn("%v; retrying in %s", err, wait.Round(time.Millisecond))
	})
	if err != nil {
		if errors.Is(err, domain.ErrIncompleteBatch) {
			missing := outstandingOf(required, completed)
			logger.Error("Giving up after %d attempts with %d analyses missing", report.Attempts, len(missing))
			return report, &domain.UnresolvedError{Accessions: domain.Accessions(missing)}
		}
		return report, err
	}

	logger.Info("Downloaded %d analyses in %d calls", len(report.Transferred), report.Calls)
	return report, nil
}

// transferBatch issues one external call and ledgers each item whose
// artifact appeared. Only ledger failures are returned.
func (e *TransferEngine) transferBatch(
	ctx context.Context,
	batch []domain.AnalysisRecord,
	workspaceDir string,
	completed map[string]bool,
	report *TransferReport,
) error {
	sources := make([]string, len(batch))
	for i, rec := range batch {
		sources[i] = rec.Source(e.client)
	}

	report.Calls++
	e.metrics.TransferCalled()
	if err := e.transferrer.Transfer(ctx, sources, workspaceDir); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Partial success is common; the artifact check below decides.
		logger.Warn("Transfer of a batch of %d files reported: %v", len(batch), err)
	}

	for _, rec := range batch {
		if !artifactExists(filepath.Join(workspaceDir, rec.ArtifactNameFor(e.client))) {
			logger.Warn("Failed to download %s", rec.Source(e.client))
			continue
		}
		if err := e.ledger.Append(ctx, domain.LedgerDone, domain.NewLedgerEntry(rec)); err != nil {
			return fmt.Errorf("record %s as processed: %w", rec.Accession, err)
		}
		completed[rec.Accession] = true
		report.Transferred = append(report.Transferred, rec.Accession)
		e.metrics.AnalysesTransferred(1)
	}
	return nil
}

func artifactExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func outstandingOf(required []domain.AnalysisRecord, completed map[string]bool) []domain.AnalysisRecord {
	var out []domain.AnalysisRecord
	for _, rec := range required {
		if !completed[rec.Accession] {
			out = append(out, rec)
		}
	}
	return out
}

func uniqueByAccession(records []domain.AnalysisRecord) []domain.AnalysisRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.AnalysisRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.Accession]; ok {
			continue
		}
		seen[rec.Accession] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// warnSharedArtifacts flags records that land on the same file name; the
// artifact check cannot tell them apart.
func warnSharedArtifacts(records []domain.AnalysisRecord, client string) {
	owners := make(map[string]string, len(records))
	for _, rec := range records {
		name := rec.ArtifactNameFor(client)
		if other, ok := owners[name]; ok {
			logger.Warn("Analyses %s and %s share artifact name %s", other, rec.Accession, name)
			continue
		}
		owners[name] = rec.Accession
	}
}

// chunk splits items into consecutive slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for lo := 0; lo < len(items); lo += size {
		out = append(out, items[lo:min(lo+size, len(items))])
	}
	return out
}
