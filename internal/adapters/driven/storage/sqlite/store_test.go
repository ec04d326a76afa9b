package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "runs.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_RecordsMigrations(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run the schema script.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRunStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	runs := store.RunStore()
	ctx := context.Background()
	started := time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)

	run := domain.RunRecord{
		ID:        "run-1",
		Kind:      domain.RunAcquire,
		Snapshot:  "2022_03_01_100000",
		Project:   "PRJEB45554",
		Status:    domain.RunRunning,
		StartedAt: started,
	}
	require.NoError(t, runs.Save(ctx, run))

	got, err := runs.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunRunning, got.Status)
	assert.True(t, got.FinishedAt.IsZero())
	assert.True(t, started.Equal(got.StartedAt))

	run.Status = domain.RunSucceeded
	run.Items = 8
	run.ResultPath = "/data/snap/processed/vertical_concat/stage_1/concat_output_stage1_batch0.vcf.gz"
	run.FinishedAt = started.Add(90 * time.Second)
	require.NoError(t, runs.Save(ctx, run))

	got, err = runs.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, got.Status)
	assert.Equal(t, 8, got.Items)
	assert.Equal(t, run.ResultPath, got.ResultPath)
	assert.Equal(t, 90*time.Second, got.Duration())
}

func TestRunStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.RunStore().Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_ListOrdering(t *testing.T) {
	store := setupTestStore(t)
	runs := store.RunStore()
	ctx := context.Background()
	base := time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, snap := range []string{"s1", "s2", "s1"} {
		require.NoError(t, runs.Save(ctx, domain.RunRecord{
			ID:        string(rune('a' + i)),
			Kind:      domain.RunConcat,
			Snapshot:  snap,
			Status:    domain.RunSucceeded,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := runs.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	limited, err := runs.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID)

	s1, err := runs.ListBySnapshot(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s1, 2)
	assert.Equal(t, "c", s1[0].ID)
	assert.Equal(t, "a", s1[1].ID)

	none, err := runs.ListBySnapshot(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
