package driven

import (
	"context"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
)

// CoordinateReader extracts variant coordinates from VCF files.
type CoordinateReader interface {
	// Distinct returns the distinct (CHROM, POS, REF, ALT) tuples across paths.
	Distinct(ctx context.Context, paths ...string) (domain.CoordinateSet, error)
}
