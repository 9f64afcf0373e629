package storage

import (
	"context"
	"testing"

	"github.com/annel0/monument/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*AssetStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewAssetStore(dir)
	require.NoError(t, err, "не удалось создать хранилище")
	return store, dir
}

func TestStoreAndLoad(t *testing.T) {
	store, _ := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Store(ctx, "asset:tail1", []byte{1, 2, 3}))

	data, err := store.Load(ctx, "asset:tail1")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestLoadMissingKey(t *testing.T) {
	store, _ := setupTestStore(t)
	defer store.Close()

	_, err := store.Load(context.Background(), "asset:nope")
	assert.True(t, cache.IsCacheMiss(err))
}

func TestPersistsAcrossReopen(t *testing.T) {
	store, dir := setupTestStore(t)
	require.NoError(t, store.Store(context.Background(), "asset:stairs1", []byte("mesh")))
	require.NoError(t, store.Close())

	reopened, err := NewAssetStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.Load(context.Background(), "asset:stairs1")
	require.NoError(t, err)
	assert.Equal(t, []byte("mesh"), data)
}

func TestKeysAndInMemory(t *testing.T) {
	store, err := NewAssetStore("")
	require.NoError(t, err)
	defer store.Close()
	assert.Empty(t, store.Path())

	ctx := context.Background()
	require.NoError(t, store.Store(ctx, "asset:a", []byte("a")))
	require.NoError(t, store.Store(ctx, "asset:b", []byte("b")))
	require.NoError(t, store.Store(ctx, "other:c", []byte("c")))

	keys, err := store.Keys("asset:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"asset:a", "asset:b"}, keys)
}

func TestClosedStore(t *testing.T) {
	store, _ := setupTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.Load(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, store.Store(context.Background(), "k", nil))
}
