package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driving"
)

var (
	ingestChunkSize int
	ingestFromURL   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download new analyses and merge the snapshot",
	Long: `Runs download followed by concat on the same snapshot. Merging only
starts once every selected analysis was transferred, and is skipped when
the snapshot ends up without files. The validated result is published to
object storage when publish settings are configured.

With --from-url the snapshot is filled from a published archive, as with
fetch, instead of from the catalog.`,
	RunE: runIngest,
}

func init() {
	addAcquireFlags(ingestCmd)
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "Maximum inputs per merge (default from settings)")
	ingestCmd.Flags().StringVar(&ingestFromURL, "from-url", "", "Fill the snapshot from this archive instead of the catalog")
	ingestCmd.MarkFlagsMutuallyExclusive("count", "from-url")
	ingestCmd.MarkFlagsMutuallyExclusive("resume", "from-url")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestFromURL == "" && !cmd.Flags().Changed("count") {
		return errors.New(`required flag "count" not set (or use --from-url)`)
	}
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	result, err := ingestService.Ingest(ctx, driving.IngestRequest{
		Acquire:   acquireRequest(),
		FetchURL:  ingestFromURL,
		ChunkSize: ingestChunkSize,
	})
	if result != nil && result.Acquire != nil {
		printAcquireResult(cmd, result.Acquire)
	}
	if result != nil && result.Concat != nil && result.Concat.ResultPath != "" {
		printConcatResult(cmd, result.Concat)
	}
	if err != nil {
		printHint(cmd, err)
		return fmt.Errorf("ingest failed: %w", err)
	}
	if result != nil && result.Concat == nil {
		cmd.Println("Nothing to merge.")
	}
	return nil
}
