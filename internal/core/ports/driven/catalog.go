package driven

import (
	"context"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
)

// CatalogClient lists the analyses of a project on the remote catalog.
// Implementations own pagination details, retries and throttling.
type CatalogClient interface {
	// Count returns the total number of analyses in the project.
	Count(ctx context.Context, project string) (int, error)

	// List returns one page of analyses in catalog order.
	// offset == 0 && limit == 0 fetches the whole listing.
	List(ctx context.Context, project string, offset, limit int) ([]domain.AnalysisRecord, error)
}
