package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driving"
)

var (
	concatSnapshot  string
	concatChunkSize int
	concatResume    bool
)

var concatCmd = &cobra.Command{
	Use:   "concat",
	Short: "Merge the files of a snapshot into one validated VCF",
	Long: `Compresses and indexes the snapshot's VCF files, merges them through a
tree of concatenation stages of at most --chunk-size inputs each, and
checks that the result holds exactly the distinct variants of the inputs.

The processing directory must be empty unless --resume is given, in which
case merge nodes completed by an earlier run are reused.`,
	RunE: runConcat,
}

func init() {
	concatCmd.Flags().StringVar(&concatSnapshot, "snapshot", "", "Snapshot to merge")
	concatCmd.Flags().IntVar(&concatChunkSize, "chunk-size", 0, "Maximum inputs per merge (default from settings)")
	concatCmd.Flags().BoolVar(&concatResume, "resume", false, "Reuse outputs of an interrupted run")
	concatCmd.Flags().StringVar(&overrides.ProjectDir, "project-dir", "", "Project directory holding all snapshots")
	_ = concatCmd.MarkFlagRequired("snapshot")
	rootCmd.AddCommand(concatCmd)
}

func runConcat(cmd *cobra.Command, _ []string) error {
	if concatService == nil {
		return errNotConfigured("concat")
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	result, err := concatService.Concatenate(ctx, driving.ConcatRequest{
		SnapshotName: concatSnapshot,
		ChunkSize:    concatChunkSize,
		Resume:       concatResume,
	})
	if result != nil && result.ResultPath != "" {
		printConcatResult(cmd, result)
	}
	if err != nil {
		printHint(cmd, err)
		return fmt.Errorf("concat failed: %w", err)
	}
	return nil
}

func printConcatResult(cmd *cobra.Command, result *driving.ConcatResult) {
	st := newStyles(cmd.OutOrStdout())
	cmd.Printf("%s %d files in %d stages (%d merges)\n",
		st.Label.Render("Merged:"), result.Inputs, result.Stages, result.Nodes)
	cmd.Printf("%s %s\n", st.Label.Render("Result:"), st.Success.Render(result.ResultPath))
	if result.PublishedURI != "" {
		cmd.Printf("%s %s\n", st.Label.Render("Published:"), result.PublishedURI)
	}
}
