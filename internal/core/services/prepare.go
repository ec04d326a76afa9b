package services

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// normalisedSuffix marks bcftools norm output until it replaces its input.
const normalisedSuffix = ".norm"

// InputPreparer makes transferred files usable by the merge tool:
// every file ends up bgzip-compressed with a CSI index next to it. With a
// reference FASTA configured, files are also normalised against it on the
// way. The index is written last, so an indexed file is a prepared one.
type InputPreparer struct {
	runner   driven.CommandRunner
	bcftools string
	refFasta string
}

// NewInputPreparer creates a preparer from concat settings.
func NewInputPreparer(runner driven.CommandRunner, settings domain.ConcatSettings) *InputPreparer {
	return &InputPreparer{
		runner:   runner,
		bcftools: settings.BcftoolsBinary,
		refFasta: settings.RefseqFasta,
	}
}

// Prepare compresses plain .vcf files, indexes compressed files lacking an
// index and returns the sorted .vcf.gz paths. A plain file is removed once
// its compressed copy is indexed.
func (p *InputPreparer) Prepare(ctx context.Context, files []string) ([]string, error) {
	out := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		compressed, err := p.prepareOne(ctx, file)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[compressed]; dup {
			continue
		}
		seen[compressed] = struct{}{}
		out = append(out, compressed)
	}
	sort.Strings(out)
	return out, nil
}

func (p *InputPreparer) prepareOne(ctx context.Context, file string) (string, error) {
	compressedInput := strings.HasSuffix(strings.ToLower(file), ".gz")
	if compressedInput && fileExists(file+".csi") {
		return file, nil
	}
	if p.refFasta != "" {
		return p.normalise(ctx, file)
	}
	if compressedInput {
		return file, p.index(ctx, file)
	}

	compressed := compressedName(file)
	err := p.runner.Run(ctx, driven.Command{
		Description: fmt.Sprintf("BGZipping %s", file),
		Name:        p.bcftools,
		Args:        []string{"convert", file, "-O", "z", "-o", compressed},
	})
	if err != nil {
		return "", fmt.Errorf("compress %s: %w", file, err)
	}
	return compressed, p.finish(ctx, file, compressed)
}

// normalise left-aligns and splits records against the reference, warning
// on REF mismatches, and writes the compressed result under the name the
// merge expects.
func (p *InputPreparer) normalise(ctx context.Context, file string) (string, error) {
	compressed := compressedName(file)
	tmp := compressed + normalisedSuffix
	err := p.runner.Run(ctx, driven.Command{
		Description: fmt.Sprintf("Normalising %s", file),
		Name:        p.bcftools,
		Args: []string{
			"norm", "--check-ref", "w", "--fasta-ref", p.refFasta,
			"--output-type", "z", "--output", tmp, file,
		},
	})
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("normalise %s: %w", file, err)
	}
	if err := os.Rename(tmp, compressed); err != nil {
		return "", fmt.Errorf("replace %s with normalised copy: %w", compressed, err)
	}
	return compressed, p.finish(ctx, file, compressed)
}

// finish indexes compressed and drops the original when it was a
// different file.
func (p *InputPreparer) finish(ctx context.Context, original, compressed string) error {
	if err := p.index(ctx, compressed); err != nil {
		return err
	}
	if original != compressed {
		if err := os.Remove(original); err != nil {
			return fmt.Errorf("remove uncompressed %s: %w", original, err)
		}
	}
	logger.Debug("Prepared %s", compressed)
	return nil
}

func (p *InputPreparer) index(ctx context.Context, file string) error {
	err := p.runner.Run(ctx, driven.Command{
		Description: fmt.Sprintf("Indexing %s", file),
		Name:        p.bcftools,
		Args:        []string{"index", "-f", "--csi", file},
	})
	if err != nil {
		return fmt.Errorf("index %s: %w", file, err)
	}
	return nil
}

// compressedName maps a.vcf and a.vcf.gz to a.vcf.gz.
func compressedName(file string) string {
	if strings.HasSuffix(strings.ToLower(file), ".gz") {
		return file
	}
	return strings.TrimSuffix(file, ".vcf") + ".vcf.gz"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
