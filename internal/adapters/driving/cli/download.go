package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driving"
)

// Flags shared by download and ingest.
var (
	acquireProject  string
	acquireCount    int
	acquireSnapshot string
	acquireResume   bool
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download new analyses into a snapshot",
	Long: `Resolves up to --count analyses of the project that have not been
downloaded or excluded before, and transfers them into a snapshot directory.

Without --snapshot a new snapshot named after the current time is created.
With --resume an existing snapshot is continued; analyses already recorded
in the progress ledger are skipped.`,
	RunE: runDownload,
}

func init() {
	addAcquireFlags(downloadCmd)
	_ = downloadCmd.MarkFlagRequired("count")
	rootCmd.AddCommand(downloadCmd)
}

func addAcquireFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&acquireProject, "project", "", "Project accession (default from settings)")
	cmd.Flags().IntVarP(&acquireCount, "count", "n", 0, "Number of new analyses to download")
	cmd.Flags().StringVar(&acquireSnapshot, "snapshot", "", "Snapshot name (default: current time)")
	cmd.Flags().BoolVar(&acquireResume, "resume", false, "Continue an existing snapshot")
	cmd.Flags().StringVar(&overrides.ProjectDir, "project-dir", "", "Project directory holding all snapshots")
	cmd.Flags().StringVar(&overrides.LedgerDir, "ledger-dir", "", "Directory of the progress ledger files")
	cmd.Flags().IntVar(&overrides.BatchSize, "batch-size", 0, "Analyses per transfer call")
}

func acquireRequest() driving.AcquireRequest {
	return driving.AcquireRequest{
		Project:      acquireProject,
		Count:        acquireCount,
		SnapshotName: acquireSnapshot,
		Resume:       acquireResume,
	}
}

func runDownload(cmd *cobra.Command, _ []string) error {
	if acquisitionService == nil {
		return errNotConfigured("acquisition")
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	result, err := acquisitionService.Acquire(ctx, acquireRequest())
	if result != nil {
		printAcquireResult(cmd, result)
	}
	if err != nil {
		printHint(cmd, err)
		return fmt.Errorf("download failed: %w", err)
	}
	return nil
}

func printAcquireResult(cmd *cobra.Command, result *driving.AcquireResult) {
	st := newStyles(cmd.OutOrStdout())
	if result.Snapshot != nil {
		cmd.Printf("%s %s\n", st.Label.Render("Snapshot:"), result.Snapshot.Name)
		cmd.Printf("%s %s\n", st.Label.Render("Directory:"), result.Snapshot.Root)
	}
	cmd.Printf("%s %d\n", st.Label.Render("Candidates:"), result.Candidates)
	cmd.Printf("%s %d\n", st.Label.Render("Transferred:"), result.Transferred)
	cmd.Printf("%s %d\n", st.Label.Render("Files in snapshot:"), len(result.Files))
}

// signalContext cancels on SIGINT or SIGTERM so transfers stop between
// batches and the ledger stays consistent.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// printHint adds operator guidance for failures that a rerun can fix.
func printHint(cmd *cobra.Command, err error) {
	if !domain.Retryable(err) {
		return
	}
	st := newStyles(cmd.ErrOrStderr())
	cmd.PrintErrln(st.Muted.Render("hint: rerun with --resume; completed work is skipped"))
}
