package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
)

var (
	statusSnapshot string
	runsLimit      int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the files, expected result and runs of a snapshot",
	RunE:  runStatus,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	RunE:  runRuns,
}

func init() {
	statusCmd.Flags().StringVar(&statusSnapshot, "snapshot", "", "Snapshot to inspect")
	statusCmd.Flags().StringVar(&overrides.ProjectDir, "project-dir", "", "Project directory holding all snapshots")
	_ = statusCmd.MarkFlagRequired("snapshot")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runsCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	status, err := ingestService.Status(cmd.Context(), statusSnapshot)
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Title.Render("Snapshot " + status.Snapshot.Name))
	cmd.Printf("  %s %s\n", st.Label.Render("Directory:"), status.Snapshot.Root)
	cmd.Printf("  %s %d\n", st.Label.Render("VCF files:"), status.Files)
	result := status.ResultPath
	if result == "" {
		result = st.Muted.Render("(no input files)")
	}
	cmd.Printf("  %s %s\n", st.Label.Render("Expected result:"), result)
	cmd.Println()

	if len(status.Runs) == 0 {
		cmd.Println(st.Muted.Render("No runs recorded."))
		return nil
	}
	printRuns(cmd, status.Runs)
	return nil
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	runs, err := ingestService.Runs(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}
	printRuns(cmd, runs)
	return nil
}

func printRuns(cmd *cobra.Command, runs []domain.RunRecord) {
	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Label.Render(fmt.Sprintf("%-8s  %-8s  %-10s  %-19s  %-9s  %6s  %s",
		"ID", "KIND", "STATUS", "STARTED", "DURATION", "ITEMS", "SNAPSHOT")))
	for _, run := range runs {
		cmd.Printf("%-8s  %-8s  %s  %-19s  %-9s  %6d  %s\n",
			shortID(run.ID),
			run.Kind,
			statusStyle(st, run.Status).Render(fmt.Sprintf("%-10s", run.Status)),
			run.StartedAt.Local().Format(time.DateTime),
			formatDuration(run.Duration()),
			run.Items,
			run.Snapshot,
		)
		if run.Error != "" {
			cmd.Printf("          %s\n", st.Error.Render(firstLine(run.Error)))
		}
	}
}

func statusStyle(st styles, s domain.RunStatus) lipgloss.Style {
	switch s {
	case domain.RunSucceeded:
		return st.Success
	case domain.RunFailed:
		return st.Error
	default:
		return st.Warning
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
