package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// Assembly check outputs, per input file.
const (
	assemblyCheckLogSuffix  = ".assembly_check.log"
	assemblyCheckDoneSuffix = ".assembly_check.done"
)

// AssemblyChecker verifies snapshot files against the reference assembly
// with vcf_assembly_checker. Files without variant records are skipped.
// A marker is written per passing file so resumed runs do not repeat work.
type AssemblyChecker struct {
	runner   driven.CommandRunner
	reader   driven.CoordinateReader
	settings domain.CheckSettings
}

// NewAssemblyChecker creates an assembly checker.
func NewAssemblyChecker(
	runner driven.CommandRunner,
	reader driven.CoordinateReader,
	settings domain.CheckSettings,
) *AssemblyChecker {
	return &AssemblyChecker{runner: runner, reader: reader, settings: settings}
}

// Check runs the checker over files, writing reports to outputDir, and
// returns how many files were checked by this call.
func (c *AssemblyChecker) Check(ctx context.Context, files []string, outputDir string) (int, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return 0, fmt.Errorf("create assembly check directory: %w", err)
	}

	checked := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return checked, err
		}
		// a.vcf and its compressed a.vcf.gz share one marker.
		name := filepath.Base(compressedName(file))
		marker := filepath.Join(outputDir, name+assemblyCheckDoneSuffix)
		if fileExists(marker) {
			logger.Debug("Skipping assembly check of %s: already passed", file)
			continue
		}

		coords, err := c.reader.Distinct(ctx, file)
		if err != nil {
			return checked, fmt.Errorf("read %s for assembly check: %w", file, err)
		}
		if len(coords) == 0 {
			logger.Info("VCF file %s does not have any variants. Skipping assembly check", file)
			continue
		}

		err = c.runner.Run(ctx, driven.Command{
			Description: fmt.Sprintf("Assembly checking VCF file %s", file),
			Name:        c.settings.AssemblyChecker,
			Args:        c.Args(file, outputDir),
			LogFile:     filepath.Join(outputDir, name+assemblyCheckLogSuffix),
		})
		if err != nil {
			return checked, fmt.Errorf("%w: assembly check of %s failed: %w", domain.ErrValidationMismatch, file, err)
		}
		if err := os.WriteFile(marker, nil, 0o644); err != nil {
			return checked, fmt.Errorf("record assembly check of %s: %w", file, err)
		}
		checked++
	}
	logger.Info("Assembly checked %d of %d files", checked, len(files))
	return checked, nil
}

// Args builds the vcf_assembly_checker argument list for one file.
func (c *AssemblyChecker) Args(file, outputDir string) []string {
	return []string{
		"-i", file,
		"-f", c.settings.AssemblyFasta,
		"-a", c.settings.AssemblyReport,
		"-r", "summary,text,valid",
		"-o", outputDir,
		"--require-genbank",
	}
}
