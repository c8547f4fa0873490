package credential

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")

	store := NewFileStore(path)
	_, ok, err := store.Get(ctx, "openrouter_api_key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "openrouter_api_key", "sk-or-1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened := NewFileStore(path)
	v, ok, err := reopened.Get(ctx, "openrouter_api_key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sk-or-1", v)
}

func TestFileStore_ReadsLatestWriteFromOtherInstance(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	a := NewFileStore(path)
	b := NewFileStore(path)

	require.NoError(t, a.Put(ctx, "openrouter_api_key", "sk-1"))
	require.NoError(t, b.Put(ctx, "openrouter_api_key", "sk-2"))

	v, _, err := a.Get(ctx, "openrouter_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-2", v)
}

func TestFileStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "credentials.yaml"))

	require.NoError(t, store.Delete(ctx, "openrouter_api_key"))
	require.NoError(t, store.Put(ctx, "openrouter_api_key", "sk"))
	require.NoError(t, store.Put(ctx, "other", "x"))
	require.NoError(t, store.Delete(ctx, "openrouter_api_key"))

	_, ok, err := store.Get(ctx, "openrouter_api_key")
	require.NoError(t, err)
	assert.False(t, ok)
	v, ok, err := store.Get(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o600))

	_, _, err := NewFileStore(path).Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestFileStore_NullDocument(t *testing.T) {
	ctx := context.Background()
	for _, content := range []string{"~\n", "null\n", ""} {
		path := filepath.Join(t.TempDir(), "credentials.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		store := NewFileStore(path)

		_, ok, err := store.Get(ctx, "openrouter_api_key")
		require.NoError(t, err, content)
		assert.False(t, ok)

		require.NoError(t, store.Put(ctx, "openrouter_api_key", "sk"), content)
		v, ok, err := store.Get(ctx, "openrouter_api_key")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "sk", v)
	}
}
