package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
)

func TestNewLedgerStore_DefaultPaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")

	store, err := NewLedgerStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ProcessedFileName), store.Path(domain.LedgerDone))
	assert.Equal(t, filepath.Join(dir, ExcludedFileName), store.Path(domain.LedgerExcluded))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLedgerStore_LoadMissingFile(t *testing.T) {
	store, err := NewLedgerStore(t.TempDir())
	require.NoError(t, err)

	set, err := store.Load(context.Background(), domain.LedgerDone)

	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestLedgerStore_AppendThenLoad(t *testing.T) {
	store, err := NewLedgerStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, domain.LedgerDone,
		domain.LedgerEntry{Accession: "ERZ1", Location: "ftp.sra.ebi.ac.uk/vol1/ERZ1/a.vcf.gz"},
		domain.LedgerEntry{Accession: "ERZ2", Location: "ftp.sra.ebi.ac.uk/vol1/ERZ2/b.vcf.gz"},
	))
	require.NoError(t, store.Append(ctx, domain.LedgerDone,
		domain.LedgerEntry{Accession: "ERZ1", Location: "ftp.sra.ebi.ac.uk/vol1/ERZ1/a.vcf.gz"},
	))

	raw, err := os.ReadFile(store.Path(domain.LedgerDone))
	require.NoError(t, err)
	assert.Equal(t, "ERZ1,ftp.sra.ebi.ac.uk/vol1/ERZ1/a.vcf.gz\n"+
		"ERZ2,ftp.sra.ebi.ac.uk/vol1/ERZ2/b.vcf.gz\n"+
		"ERZ1,ftp.sra.ebi.ac.uk/vol1/ERZ1/a.vcf.gz\n", string(raw))

	set, err := store.Load(ctx, domain.LedgerDone)
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Equal(t, "ftp.sra.ebi.ac.uk/vol1/ERZ2/b.vcf.gz", set["ERZ2"].Location)

	excluded, err := store.Load(ctx, domain.LedgerExcluded)
	require.NoError(t, err)
	assert.Empty(t, excluded)
}

func TestLedgerStore_ToleratesBlankAndTruncatedLines(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLedgerStore(dir)
	require.NoError(t, err)
	content := "ERZ1,loc1\n\n   \nERZ2,loc2\nERZ3"
	require.NoError(t, os.WriteFile(store.Path(domain.LedgerExcluded), []byte(content), 0o644))

	set, err := store.Load(context.Background(), domain.LedgerExcluded)
	require.NoError(t, err)
	assert.Len(t, set, 3)
	assert.True(t, set.Contains("ERZ3"))
	assert.Equal(t, "", set["ERZ3"].Location)

	// The next append must not be glued onto the unterminated line.
	require.NoError(t, store.Append(context.Background(), domain.LedgerExcluded,
		domain.LedgerEntry{Accession: "ERZ4", Location: "loc4"}))

	raw, err := os.ReadFile(store.Path(domain.LedgerExcluded))
	require.NoError(t, err)
	assert.Equal(t, content+"\nERZ4,loc4\n", string(raw))
}

func TestLedgerStore_ExplicitPaths(t *testing.T) {
	dir := t.TempDir()
	store := NewLedgerStoreWithPaths(filepath.Join(dir, "done.txt"), filepath.Join(dir, "skip.txt"))

	require.NoError(t, store.Append(context.Background(), domain.LedgerExcluded,
		domain.LedgerEntry{Accession: "ERZ9", Location: "x"}))

	_, err := os.Stat(filepath.Join(dir, "skip.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "done.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestLedgerStore_EmptyAppendCreatesNothing(t *testing.T) {
	store, err := NewLedgerStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Append(context.Background(), domain.LedgerDone))

	_, err = os.Stat(store.Path(domain.LedgerDone))
	assert.True(t, os.IsNotExist(err))
}

func TestLedgerStore_InvalidCategory(t *testing.T) {
	store, err := NewLedgerStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "retry")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLedgerStore_CancelledContext(t *testing.T) {
	store, err := NewLedgerStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = store.Append(ctx, domain.LedgerDone, domain.LedgerEntry{Accession: "ERZ1"})

	assert.ErrorIs(t, err, context.Canceled)
}
