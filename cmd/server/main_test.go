package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/monument/internal/logging"
	"github.com/annel0/monument/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReleasesStoreOnCompileError(t *testing.T) {
	prevDir := logging.LogDir
	logging.LogDir = t.TempDir()
	defer func() { logging.LogDir = prevDir }()

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "badger")
	cfgPath := filepath.Join(dir, "monument.yaml")
	cfg := "monument:\n  data_file: " + filepath.Join(dir, "missing.json") + "\n" +
		"assets:\n  dir: " + dir + "\n" +
		"storage:\n  data_path: " + dataPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	err := run(cfgPath)
	assert.ErrorContains(t, err, "монумент не собран")

	// хранилище закрыто: каталог badger снова открывается
	store, err := storage.NewAssetStore(dataPath)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestRunMissingConfig(t *testing.T) {
	prevDir := logging.LogDir
	logging.LogDir = t.TempDir()
	defer func() { logging.LogDir = prevDir }()

	assert.ErrorContains(t, run(filepath.Join(t.TempDir(), "nope.yaml")), "чтение конфигурации")
}
