package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "deep")

	store, err := NewConfigStore(nestedPath)
	require.NoError(t, err)

	info, err := os.Stat(nestedPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	assert.Equal(t, filepath.Join(nestedPath, "config.toml"), store.Path())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_ReadsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[catalog]
base_url = "http://localhost:8080/api"
requests_per_second = 2
accepted_taxonomies = ["2697049"]

[transfer]
batch_size = 50
initial_backoff_seconds = 0.5

[publish]
use_ssl = true
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", store.GetString("catalog.base_url"))
	assert.InDelta(t, 2.0, store.GetFloat("catalog.requests_per_second"), 1e-9)
	assert.Equal(t, []string{"2697049"}, store.GetStringSlice("catalog.accepted_taxonomies"))
	assert.Equal(t, 50, store.GetInt("transfer.batch_size"))
	assert.InDelta(t, 0.5, store.GetFloat("transfer.initial_backoff_seconds"), 1e-9)
	assert.True(t, store.GetBool("publish.use_ssl"))
	_, ok := store.Get("catalog")
	assert.False(t, ok, "tables are flattened into dotted keys")
}

func TestConfigStore_SaveWritesTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("concat.chunk_size", 250))
	require.NoError(t, store.Set("concat.bcftools_binary", "/opt/bcftools"))
	require.NoError(t, store.Set("project.dir", "/data"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[concat]")
	assert.Contains(t, string(raw), "[project]")
	assert.NotContains(t, string(raw), `"concat.chunk_size"`)

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 250, reloaded.GetInt("concat.chunk_size"))
	assert.Equal(t, "/opt/bcftools", reloaded.GetString("concat.bcftools_binary"))
	assert.Equal(t, "/data", reloaded.GetString("project.dir"))
}

func TestConfigStore_SaveReload_PreservesTypes(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("key1", "string_value"))
	require.NoError(t, store.Set("key2", int64(42)))
	require.NoError(t, store.Set("key3", true))
	require.NoError(t, store.Set("key4", 3.14159))
	require.NoError(t, store.Set("key5", []string{"a", "b"}))

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "string_value", store2.GetString("key1"))
	assert.Equal(t, 42, store2.GetInt("key2"))
	assert.True(t, store2.GetBool("key3"))
	assert.InDelta(t, 3.14159, store2.GetFloat("key4"), 0.00001)
	assert.Equal(t, []string{"a", "b"}, store2.GetStringSlice("key5"))
}

func TestConfigStore_WrongTypesReturnZero(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("text", "hello"))

	assert.Equal(t, 0, store.GetInt("text"))
	assert.Zero(t, store.GetFloat("text"))
	assert.False(t, store.GetBool("text"))
	assert.Nil(t, store.GetStringSlice("text"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestNewConfigStore_MissingFileIsEmpty(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.NoFileExists(t, store.Path())
	require.NoError(t, store.Set("transfer.client", "http"))
	assert.FileExists(t, store.Path())
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("publish.secret_key", "s3cr3t"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("concat.chunk_size", 250))
	err = store.Set("channel", make(chan int))

	assert.Error(t, err)
	_, ok := store.Get("channel")
	assert.False(t, ok, "a value that cannot be written is not kept")

	reloaded, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Equal(t, 250, reloaded.GetInt("concat.chunk_size"))
}

func TestConfigStore_Load_EmptyTOMLData(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("# Just a comment\n\n"), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("any_key")
	assert.False(t, ok)
	assert.Equal(t, "", store.GetString("project.dir"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("transfer.batch_size", n)
			_ = store.GetInt("transfer.batch_size")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("transfer.batch_size")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a":     1,
		"a.b":   2,
		"c.d":   3,
		"c.e.f": 4,
	})

	assert.Equal(t, 1, nested["a"])
	assert.Equal(t, 2, nested["a.b"])
	assert.Equal(t, map[string]any{"d": 3, "e": map[string]any{"f": 4}}, nested["c"])
	assert.Equal(t, map[string]any{"a": 1, "a.b": 2, "c.d": 3, "c.e.f": 4}, flattenMap(nested, ""))
}
