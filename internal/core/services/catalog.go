package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// RejectPredicate returns true for records that must never be acquired.
type RejectPredicate func(domain.AnalysisRecord) bool

// RejectNone accepts every record.
func RejectNone(domain.AnalysisRecord) bool { return false }

// RejectTaxonomiesOutside rejects records whose taxonomy is reported and not
// in ids. Records without a taxonomy are accepted. With no ids, nothing is
// rejected.
func RejectTaxonomiesOutside(ids ...string) RejectPredicate {
	if len(ids) == 0 {
		return RejectNone
	}
	accepted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		accepted[id] = struct{}{}
	}
	return func(r domain.AnalysisRecord) bool {
		if r.TaxonomyID == "" {
			return false
		}
		_, ok := accepted[r.TaxonomyID]
		return !ok
	}
}

// CatalogResolver selects the analyses to acquire in a run.
type CatalogResolver struct {
	catalog  driven.CatalogClient
	ledger   driven.LedgerStore
	metrics  driven.RunMetrics
	pageSize int
}

// NewCatalogResolver creates a resolver. A pageSize of zero fetches the
// whole listing in one request. metrics may be nil.
func NewCatalogResolver(
	catalog driven.CatalogClient,
	ledger driven.LedgerStore,
	pageSize int,
	metrics driven.RunMetrics,
) *CatalogResolver {
	return &CatalogResolver{
		catalog:  catalog,
		ledger:   ledger,
		metrics:  metricsOrNoop(metrics),
		pageSize: pageSize,
	}
}

// Resolve returns at most requested analyses of project that are neither
// ledgered nor rejected, in catalog order. Records rejected for the first
// time are appended to the excluded ledger in one write once the listing
// has been read.
func (r *CatalogResolver) Resolve(
	ctx context.Context,
	project string,
	requested int,
	reject RejectPredicate,
) ([]domain.AnalysisRecord, error) {
	if project == "" {
		return nil, fmt.Errorf("%w: a project accession is required", domain.ErrInvalidInput)
	}
	if requested < domain.MinRequestedAnalyses || requested > domain.MaxRequestedAnalyses {
		return nil, fmt.Errorf("%w: number of analyses must be between %d and %d, got %d",
			domain.ErrInvalidInput, domain.MinRequestedAnalyses, domain.MaxRequestedAnalyses, requested)
	}
	if reject == nil {
		reject = RejectNone
	}

	done, err := r.ledger.Load(ctx, domain.LedgerDone)
	if err != nil {
		return nil, fmt.Errorf("load processed analyses: %w", err)
	}
	excluded, err := r.ledger.Load(ctx, domain.LedgerExcluded)
	if err != nil {
		return nil, fmt.Errorf("load excluded analyses: %w", err)
	}

	sel := &selection{
		requested: requested,
		done:      done,
		excluded:  excluded,
		reject:    reject,
		seen:      make(map[string]struct{}),
	}

	if err := r.scan(ctx, project, sel); err != nil {
		return nil, err
	}

	if len(sel.newlyExcluded) > 0 {
		if err := r.ledger.Append(ctx, domain.LedgerExcluded, sel.newlyExcluded...); err != nil {
			return nil, fmt.Errorf("record excluded analyses: %w", err)
		}
		logger.Info("Excluded %d analyses rejected by the acceptance filter", len(sel.newlyExcluded))
	}
	r.metrics.AnalysesExcluded(len(sel.newlyExcluded))
	r.metrics.CandidatesResolved(len(sel.candidates))

	logger.Info("Analyses to process: %d (already processed: %d)", len(sel.candidates), sel.skipped)
	return sel.candidates, nil
}

// scan walks the catalog page by page until enough candidates are found.
func (r *CatalogResolver) scan(ctx context.Context, project string, sel *selection) error {
	if r.pageSize == 0 {
		records, err := r.catalog.List(ctx, project, 0, 0)
		if err != nil {
			return fmt.Errorf("list analyses: %w", err)
		}
		sel.consume(records)
		return nil
	}

	total, err := r.catalog.Count(ctx, project)
	if err != nil {
		return fmt.Errorf("count analyses: %w", err)
	}
	logger.Info("Total analyses in project %s: %d", project, total)

	for offset := 0; offset < total && !sel.full(); offset += r.pageSize {
		logger.Debug("Fetching analyses %d to %d", offset, offset+r.pageSize)
		records, err := r.catalog.List(ctx, project, offset, r.pageSize)
		if err != nil {
			return fmt.Errorf("list analyses at offset %d: %w", offset, err)
		}
		if len(records) == 0 {
			// The listing shrank since it was counted.
			break
		}
		sel.consume(records)
	}
	return nil
}

// selection accumulates the outcome of one Resolve call.
type selection struct {
	requested int
	done      domain.LedgerSet
	excluded  domain.LedgerSet
	reject    RejectPredicate

	seen          map[string]struct{}
	candidates    []domain.AnalysisRecord
	newlyExcluded []domain.LedgerEntry
	skipped       int
}

func (s *selection) full() bool {
	return len(s.candidates) >= s.requested
}

func (s *selection) consume(records []domain.AnalysisRecord) {
	for _, rec := range records {
		if s.full() {
			return
		}
		if _, dup := s.seen[rec.Accession]; dup {
			continue
		}
		s.seen[rec.Accession] = struct{}{}

		if s.done.Contains(rec.Accession) || s.excluded.Contains(rec.Accession) {
			s.skipped++
			continue
		}
		if s.reject(rec) {
			logger.Debug("Rejecting %s (taxonomy %s)", rec.Accession, rec.TaxonomyID)
			s.newlyExcluded = append(s.newlyExcluded, domain.NewLedgerEntry(rec))
			continue
		}
		s.candidates = append(s.candidates, rec)
	}
}
