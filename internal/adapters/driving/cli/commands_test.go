package cli

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driving"
)

func TestDownload_PassesRequest(t *testing.T) {
	resetCLI(t)
	acq := &mockAcquisition{result: &driving.AcquireResult{
		Snapshot:    &domain.Snapshot{Name: "2024_01_02_030405", Root: "/data/30_eva_valid/2024_01_02_030405"},
		Candidates:  3,
		Transferred: 3,
		Files:       []string{"a.vcf.gz", "b.vcf.gz", "c.vcf.gz"},
	}}
	acquisitionService = acq

	out, _, err := execute(t, "download", "--project", "PRJEB1", "-n", "3", "--snapshot", "s1", "--resume")

	require.NoError(t, err)
	assert.Equal(t, driving.AcquireRequest{Project: "PRJEB1", Count: 3, SnapshotName: "s1", Resume: true}, acq.got)
	assert.Contains(t, out, "Snapshot: 2024_01_02_030405")
	assert.Contains(t, out, "Transferred: 3")
	assert.Contains(t, out, "Files in snapshot: 3")
}

func TestDownload_RequiresCount(t *testing.T) {
	resetCLI(t)
	acquisitionService = &mockAcquisition{}

	_, _, err := execute(t, "download")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "count")
}

func TestDownload_RetryableErrorPrintsHint(t *testing.T) {
	resetCLI(t)
	acquisitionService = &mockAcquisition{
		result: &driving.AcquireResult{Candidates: 2, Transferred: 1},
		err:    &domain.UnresolvedError{Accessions: []string{"ERZ2"}},
	}

	out, stderr, err := execute(t, "download", "-n", "2")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncompleteBatch)
	assert.Contains(t, out, "Transferred: 1")
	assert.Contains(t, stderr, "rerun with --resume")
}

func TestDownload_FatalErrorHasNoHint(t *testing.T) {
	resetCLI(t)
	acquisitionService = &mockAcquisition{
		err: fmt.Errorf("%w: snapshot directory has content", domain.ErrStateConflict),
	}

	_, stderr, err := execute(t, "download", "-n", "2")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.NotContains(t, stderr, "hint")
}

func TestDownload_NotConfigured(t *testing.T) {
	resetCLI(t)

	_, _, err := execute(t, "download", "-n", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquisition service not configured")
}

func TestDownload_OverridesReachBootstrap(t *testing.T) {
	resetCLI(t)
	var got Overrides
	SetBootstrap(func(_ string, o Overrides) (*Services, error) {
		got = o
		return &Services{Acquisition: &mockAcquisition{result: &driving.AcquireResult{}}}, nil
	})

	_, _, err := execute(t, "download", "-n", "1", "--project-dir", "/p", "--ledger-dir", "/l", "--batch-size", "7")

	require.NoError(t, err)
	assert.Equal(t, Overrides{ProjectDir: "/p", LedgerDir: "/l", BatchSize: 7}, got)
}

func TestConcat_PassesRequestAndPrintsResult(t *testing.T) {
	resetCLI(t)
	cc := &mockConcat{result: &driving.ConcatResult{
		ResultPath:   "/s/processed/output_2_0/vertical_concat_2_0.vcf.gz",
		Inputs:       5,
		Stages:       2,
		Nodes:        4,
		PublishedURI: "s3://variants/s/vertical_concat_2_0.vcf.gz",
	}}
	concatService = cc

	out, _, err := execute(t, "concat", "--snapshot", "s", "--chunk-size", "2", "--resume")

	require.NoError(t, err)
	assert.Equal(t, driving.ConcatRequest{SnapshotName: "s", ChunkSize: 2, Resume: true}, cc.got)
	assert.Contains(t, out, "Merged: 5 files in 2 stages (4 merges)")
	assert.Contains(t, out, "Result: /s/processed/output_2_0/vertical_concat_2_0.vcf.gz")
	assert.Contains(t, out, "Published: s3://variants/s/vertical_concat_2_0.vcf.gz")
}

func TestConcat_ValidationMismatchFails(t *testing.T) {
	resetCLI(t)
	concatService = &mockConcat{err: fmt.Errorf("%w: 3 coordinates missing", domain.ErrValidationMismatch)}

	_, _, err := execute(t, "concat", "--snapshot", "s")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidationMismatch)
}

func TestIngest_CombinesRequests(t *testing.T) {
	resetCLI(t)
	ing := &mockIngest{result: &driving.IngestResult{
		Acquire: &driving.AcquireResult{Candidates: 2, Transferred: 2},
		Concat:  &driving.ConcatResult{ResultPath: "/r.vcf.gz", Inputs: 2, Stages: 1, Nodes: 1},
	}}
	ingestService = ing

	out, _, err := execute(t, "ingest", "-n", "2", "--chunk-size", "10")

	require.NoError(t, err)
	assert.Equal(t, 2, ing.got.Acquire.Count)
	assert.Equal(t, 10, ing.got.ChunkSize)
	assert.Contains(t, out, "Transferred: 2")
	assert.Contains(t, out, "Result: /r.vcf.gz")
}

func TestIngest_FromURL(t *testing.T) {
	resetCLI(t)
	ing := &mockIngest{result: &driving.IngestResult{
		Acquire: &driving.AcquireResult{Transferred: 4, Files: []string{"a", "b", "c", "d"}},
		Concat:  &driving.ConcatResult{ResultPath: "/r.vcf.gz", Inputs: 4, Stages: 1, Nodes: 1},
	}}
	ingestService = ing

	_, _, err := execute(t, "ingest", "--from-url", "http://host/2021_06_28.tar.gz", "--snapshot", "s")

	require.NoError(t, err)
	assert.Equal(t, "http://host/2021_06_28.tar.gz", ing.got.FetchURL)
	assert.Equal(t, "s", ing.got.Acquire.SnapshotName)
}

func TestIngest_RequiresCountOrURL(t *testing.T) {
	resetCLI(t)
	ingestService = &mockIngest{}

	_, _, err := execute(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "count")
}

func TestIngest_CountAndURLAreExclusive(t *testing.T) {
	resetCLI(t)
	ingestService = &mockIngest{}

	_, _, err := execute(t, "ingest", "-n", "1", "--from-url", "http://host/s.tar.gz")

	require.Error(t, err)
}

func TestIngest_NothingToMerge(t *testing.T) {
	resetCLI(t)
	ingestService = &mockIngest{result: &driving.IngestResult{
		Acquire: &driving.AcquireResult{Candidates: 0},
	}}

	out, _, err := execute(t, "ingest", "-n", "5")

	require.NoError(t, err)
	assert.Contains(t, out, "Files in snapshot: 0")
	assert.Contains(t, out, "Nothing to merge.")
}

func TestFetch_PassesRequest(t *testing.T) {
	resetCLI(t)
	acq := &mockAcquisition{result: &driving.AcquireResult{
		Snapshot:    &domain.Snapshot{Name: "2021_06_28", Root: "/data/30_eva_valid/2021_06_28"},
		Transferred: 2,
		Files:       []string{"a.vcf.gz", "b.vcf.gz"},
	}}
	acquisitionService = acq

	out, _, err := execute(t, "fetch", "--url", "http://host/2021_06_28.tar.gz", "--snapshot", "s1")

	require.NoError(t, err)
	assert.Equal(t, driving.FetchRequest{URL: "http://host/2021_06_28.tar.gz", SnapshotName: "s1"}, acq.fetchGot)
	assert.Contains(t, out, "Snapshot: 2021_06_28")
	assert.Contains(t, out, "Unpacked: 2")
}

func TestFetch_RequiresURL(t *testing.T) {
	resetCLI(t)
	acquisitionService = &mockAcquisition{}

	_, _, err := execute(t, "fetch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}

func TestFetch_Failure(t *testing.T) {
	resetCLI(t)
	acquisitionService = &mockAcquisition{err: fmt.Errorf("%w: snapshot directory has content", domain.ErrStateConflict)}

	_, _, err := execute(t, "fetch", "--url", "http://host/s.tar.gz")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.Contains(t, err.Error(), "fetch failed")
}

func TestPredict_PrintsPath(t *testing.T) {
	resetCLI(t)
	cc := &mockConcat{predicted: "/p/output_2_0/vertical_concat_2_0.vcf.gz"}
	concatService = cc

	out, _, err := execute(t, "predict", "--files", "5", "--chunk-size", "2", "--processing-dir", "/p")

	require.NoError(t, err)
	assert.Equal(t, "/p/output_2_0/vertical_concat_2_0.vcf.gz\n", out)
	assert.Equal(t, [2]int{5, 2}, cc.predictIn)
}

func TestStatus_PrintsSnapshotAndRuns(t *testing.T) {
	resetCLI(t)
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ingestService = &mockIngest{status: &driving.SnapshotStatus{
		Snapshot:   &domain.Snapshot{Name: "s1", Root: "/data/30_eva_valid/s1"},
		Files:      3,
		ResultPath: "/data/30_eva_valid/s1/processed/output_1_0/vertical_concat_1_0.vcf.gz",
		Runs: []domain.RunRecord{{
			ID:         "0123456789abcdef",
			Kind:       domain.RunAcquire,
			Snapshot:   "s1",
			Status:     domain.RunFailed,
			Items:      2,
			Error:      "1 analyses not transferred: ERZ9\ndetails",
			StartedAt:  started,
			FinishedAt: started.Add(90 * time.Second),
		}},
	}}

	out, _, err := execute(t, "status", "--snapshot", "s1")

	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot s1")
	assert.Contains(t, out, "VCF files: 3")
	assert.Contains(t, out, "vertical_concat_1_0.vcf.gz")
	assert.Contains(t, out, "01234567")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "1 analyses not transferred: ERZ9")
	assert.NotContains(t, out, "details")
}

func TestStatus_UnknownSnapshot(t *testing.T) {
	resetCLI(t)
	ingestService = &mockIngest{}

	_, _, err := execute(t, "status", "--snapshot", "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSnapshotNotFound))
}

func TestRuns_UsesLimit(t *testing.T) {
	resetCLI(t)
	ing := &mockIngest{}
	ingestService = ing

	out, _, err := execute(t, "runs", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, ing.runLimit)
	assert.Contains(t, out, "No runs recorded.")
}

func TestIsSettingsOnly(t *testing.T) {
	assert.True(t, isSettingsOnly(settingsSetCmd))
	assert.True(t, isSettingsOnly(versionCmd))
	assert.False(t, isSettingsOnly(downloadCmd))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "-", formatDuration(0))
	assert.Equal(t, "2s", formatDuration(1600*time.Millisecond))
}
