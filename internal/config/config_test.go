package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/annel0/monument/internal/assets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	t.Setenv("MONUMENT_CONFIG", "")
	t.Setenv("MONUMENT_HTTP_PORT", "")
	t.Setenv("MONUMENT_DATA", "")
	t.Setenv("MONUMENT_ASSET_BASE", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8088, cfg.Server.GetHTTPPort())
	assert.Equal(t, 2112, cfg.Server.GetMetricsPort())
	assert.Equal(t, "assets/monument.json", cfg.Monument.GetDataFile())
	assert.Equal(t, assets.DefaultBaseURL, cfg.Assets.GetBaseURL())
	assert.Equal(t, 60, cfg.Viewport.GetFPS())
	assert.Equal(t, 4, cfg.Assets.GetWorkers())
	assert.Equal(t, "MONUMENT", cfg.EventBus.GetStream())
	assert.Equal(t, 24*time.Hour, cfg.Cache.GetTTL())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monument.yaml")
	yamlText := `
server:
  http_port: 9090
monument:
  data_file: /data/monument.json
viewport:
  width: 1024
  height: 768
  fps: 30
assets:
  dir: ./meshes
  workers: 2
  timeout: 3s
storage:
  data_path: /var/lib/monument
cache:
  redis_url: localhost:6379
  redis_db: 2
  ttl: 1h
eventbus:
  url: nats://localhost:4222
  retention_hours: 6
telemetry:
  enabled: true
  endpoint: localhost:4318
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlText), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.GetHTTPPort())
	assert.Equal(t, "/data/monument.json", cfg.Monument.GetDataFile())
	assert.Equal(t, 1024, cfg.Viewport.Width)
	assert.Equal(t, 30, cfg.Viewport.GetFPS())
	assert.Equal(t, "./meshes", cfg.Assets.Dir)
	assert.Equal(t, 3*time.Second, cfg.Assets.GetTimeout())
	assert.Equal(t, "/var/lib/monument", cfg.Storage.DataPath)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisURL)
	assert.Equal(t, 2, cfg.Cache.RedisDB)
	assert.Equal(t, time.Hour, cfg.Cache.GetTTL())
	assert.Equal(t, 6*time.Hour, cfg.EventBus.GetRetention())
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("MONUMENT_HTTP_PORT", "7000")
	t.Setenv("MONUMENT_METRICS_PORT", "not-a-port")
	t.Setenv("MONUMENT_DATA", "/tmp/m.json")
	t.Setenv("MONUMENT_ASSET_BASE", "http://assets.local")

	var cfg Config
	assert.Equal(t, 7000, cfg.Server.GetHTTPPort())
	assert.Equal(t, 2112, cfg.Server.GetMetricsPort())
	assert.Equal(t, "/tmp/m.json", cfg.Monument.GetDataFile())
	assert.Equal(t, "http://assets.local", cfg.Assets.GetBaseURL())

	// значение из файла важнее окружения
	cfg.Server.HTTPPort = 8000
	assert.Equal(t, 8000, cfg.Server.GetHTTPPort())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  metrics_port: 9100\n"), 0o644))
	t.Setenv("MONUMENT_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.GetMetricsPort())
}
