package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/annel0/monument/internal/compiler"
	"github.com/annel0/monument/internal/config"
	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/monument"
	"github.com/annel0/monument/internal/scene"
	"github.com/annel0/monument/internal/viewport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assetDir каталог с мешами tail1, stairs1, pillar1 (один и тот же квадрат)
func assetDir(t *testing.T) string {
	t.Helper()
	quad, err := os.ReadFile("../assets/testdata/quad.json")
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"tail1", "stairs1", "pillar1"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), quad, 0o644))
	}
	return dir
}

func localConfig(t *testing.T, dir string) *config.Config {
	cfg := config.Default()
	cfg.Assets.Dir = dir
	cfg.Assets.Workers = 2
	cfg.Storage.DataPath = t.TempDir()
	return cfg
}

func TestNewAssetsLoadsAndCaches(t *testing.T) {
	cfg := localConfig(t, assetDir(t))
	a, err := NewAssets(cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer a.Close()

	mesh, err := a.Loader.Load(context.Background(), "tail1").Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, mesh.VertexCount())

	// сжатая копия легла в badger через кеш
	keys, err := a.Store.Keys("asset:")
	require.NoError(t, err)
	assert.Equal(t, []string{a.Fetcher.CacheKey("tail1")}, keys)
}

func TestNewBusDefaultsToMemory(t *testing.T) {
	bus, err := NewBus(config.Default())
	require.NoError(t, err)
	defer bus.Close()
	assert.Zero(t, bus.Metrics().Published)
}

func TestCompileSampleMonument(t *testing.T) {
	cfg := localConfig(t, assetDir(t))
	a, err := NewAssets(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	s, err := CompileFile(context.Background(), "../../assets/monument.json", a.Loader, viewport.Options{})
	require.NoError(t, err)
	assert.True(t, s.Context.Compiled())
	assert.Equal(t, s.Document.Floorplan.CountNonEmpty(), len(s.Result.Objects))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	report := s.Result.Wait(ctx)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Pending)
	assert.Equal(t, len(s.Result.Futures), report.Loaded)

	// все меши загружены: в сцене по узлу на каждую непустую ячейку плюс два глобальных света
	require.Eventually(t, func() bool {
		return s.Context.Scene.Len() == s.Document.Floorplan.CountNonEmpty()+2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Positive(t, s.Context.Scene.CountByKind()[scene.KindMesh])
}

func TestCompileRejectsMalformedBeforeContext(t *testing.T) {
	_, err := CompileFile(context.Background(), filepath.Join(t.TempDir(), "absent.json"), nil, viewport.Options{})
	assert.Error(t, err)
}

func TestCompileWithClock(t *testing.T) {
	cfg := localConfig(t, assetDir(t))
	a, err := NewAssets(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	doc := sampleDoc(t)
	s, err := Compile(context.Background(), doc, a.Loader, viewport.Options{}, compiler.WithClock(func() time.Time { return time.UnixMilli(0) }))
	require.NoError(t, err)
	assert.Equal(t, floorplan.Dimensions{Layers: 1, Rows: 1, Columns: 1}, s.Context.Dimensions)
}

func sampleDoc(t *testing.T) *monument.Document {
	t.Helper()
	doc, err := monument.Parse([]byte(`{
  "settings": {
    "perspectiveCamera": true, "autoRotate": false, "rotationSpeed": 0, "offsetY": 0,
    "background": "0, 0, 16", "globalLight": "255, 255, 255", "ambientLight": "0, 0, 32",
    "cube": "107, 126, 127", "tale": "81, 91, 95", "stairs": "107, 126, 127",
    "pointLight": "255, 255, 255", "pointLightScale": 2, "pillar": "107, 126, 127"
  },
  "floorplan": [[[4]]]
}`))
	require.NoError(t, err)
	return doc
}
