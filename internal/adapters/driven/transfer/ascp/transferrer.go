// Package ascp drives the Aspera command-line client for bulk transfers.
package ascp

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
)

// LogFileName is where ascp output is collected inside the target directory.
const LogFileName = "ascp.log"

// Ensure Transferrer implements the interface.
var _ driven.Transferrer = (*Transferrer)(nil)

// Transferrer fetches a batch of bulk locations with one ascp invocation:
//
//	ascp -i KEY -QT -l 300m -P 33001 era-fasp@SRC1 era-fasp@SRC2 ... TARGET
type Transferrer struct {
	runner   driven.CommandRunner
	settings domain.TransferSettings
}

// NewTransferrer creates an ascp transferrer.
func NewTransferrer(runner driven.CommandRunner, settings domain.TransferSettings) *Transferrer {
	return &Transferrer{runner: runner, settings: settings}
}

// Transfer runs ascp once for all sources. ascp exits non-zero when any
// file fails, even if others arrived; callers check for artifacts.
func (t *Transferrer) Transfer(ctx context.Context, sources []string, targetDir string) error {
	if len(sources) == 0 {
		return nil
	}
	return t.runner.Run(ctx, driven.Command{
		Description: fmt.Sprintf("Transferring %d files to %s", len(sources), targetDir),
		Name:        t.settings.AscpBinary,
		Args:        t.Args(sources, targetDir),
		LogFile:     filepath.Join(targetDir, LogFileName),
	})
}

// Args builds the ascp argument list.
func (t *Transferrer) Args(sources []string, targetDir string) []string {
	args := []string{}
	if t.settings.AsperaKey != "" {
		args = append(args, "-i", t.settings.AsperaKey)
	}
	args = append(args, "-QT")
	if t.settings.Bandwidth != "" {
		args = append(args, "-l", t.settings.Bandwidth)
	}
	if t.settings.Port > 0 {
		args = append(args, "-P", strconv.Itoa(t.settings.Port))
	}
	for _, src := range sources {
		if t.settings.User != "" {
			src = t.settings.User + "@" + src
		}
		args = append(args, src)
	}
	return append(args, targetDir)
}
