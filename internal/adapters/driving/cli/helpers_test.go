package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driving"
)

type mockAcquisition struct {
	got      driving.AcquireRequest
	fetchGot driving.FetchRequest
	result   *driving.AcquireResult
	err      error
}

func (m *mockAcquisition) Acquire(_ context.Context, req driving.AcquireRequest) (*driving.AcquireResult, error) {
	m.got = req
	return m.result, m.err
}

func (m *mockAcquisition) Fetch(_ context.Context, req driving.FetchRequest) (*driving.AcquireResult, error) {
	m.fetchGot = req
	return m.result, m.err
}

type mockConcat struct {
	got       driving.ConcatRequest
	result    *driving.ConcatResult
	err       error
	predicted string
	predictIn [2]int
}

func (m *mockConcat) Concatenate(_ context.Context, req driving.ConcatRequest) (*driving.ConcatResult, error) {
	m.got = req
	return m.result, m.err
}

func (m *mockConcat) Predict(totalFiles, chunkSize int, _ string) (string, error) {
	m.predictIn = [2]int{totalFiles, chunkSize}
	return m.predicted, nil
}

type mockIngest struct {
	got      driving.IngestRequest
	result   *driving.IngestResult
	err      error
	status   *driving.SnapshotStatus
	runs     []domain.RunRecord
	runLimit int
}

func (m *mockIngest) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	m.got = req
	return m.result, m.err
}

func (m *mockIngest) Status(_ context.Context, _ string) (*driving.SnapshotStatus, error) {
	if m.status == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return m.status, nil
}

func (m *mockIngest) Runs(_ context.Context, limit int) ([]domain.RunRecord, error) {
	m.runLimit = limit
	return m.runs, nil
}

// resetCLI clears services, the bootstrap hook and every flag so that
// commands run in one test do not leak into the next.
func resetCLI(t *testing.T) {
	t.Helper()
	clearState := func() {
		acquisitionService = nil
		concatService = nil
		ingestService = nil
		settingsService = nil
		bootstrap = nil
		overrides = Overrides{}
		resetFlags(rootCmd)
	}
	clearState()
	t.Cleanup(clearState)
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
