package config

import (
	"os"
	"strconv"
	"time"

	"github.com/annel0/monument/internal/assets"
	"github.com/annel0/monument/internal/cache"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера просмотра.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Monument  MonumentConfig  `yaml:"monument"`
	Viewport  ViewportConfig  `yaml:"viewport"`
	Assets    AssetsConfig    `yaml:"assets"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	HTTPPort    int `yaml:"http_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// MonumentConfig откуда читать документ монумента
type MonumentConfig struct {
	DataFile string `yaml:"data_file"`
}

type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

type AssetsConfig struct {
	BaseURL string        `yaml:"base_url"`
	Dir     string        `yaml:"dir"` // локальный каталог вместо HTTP
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	DataPath string `yaml:"data_path"` // пусто - badger в памяти
}

// CacheConfig горячий кеш мешей. Без redis_url используется кеш в памяти.
type CacheConfig struct {
	cache.CacheConfig `yaml:",inline"`
	TTL               time.Duration `yaml:"ttl"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто - шина в памяти
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default конфигурация без файла
func Default() *Config {
	return &Config{}
}

// GetHTTPPort возвращает порт просмотрщика с поддержкой fallback значений
func (s *ServerConfig) GetHTTPPort() int {
	return getPortWithEnvFallback(s.HTTPPort, "MONUMENT_HTTP_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "MONUMENT_METRICS_PORT", 2112)
}

// GetDataFile путь к документу монумента: config -> env -> assets/monument.json
func (m *MonumentConfig) GetDataFile() string {
	return getStringWithEnvFallback(m.DataFile, "MONUMENT_DATA", "assets/monument.json")
}

// GetBaseURL адрес хранилища мешей: config -> env -> assets.DefaultBaseURL
func (a *AssetsConfig) GetBaseURL() string {
	return getStringWithEnvFallback(a.BaseURL, "MONUMENT_ASSET_BASE", assets.DefaultBaseURL)
}

// GetWorkers число загрузчиков мешей
func (a *AssetsConfig) GetWorkers() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return 4
}

// GetTimeout таймаут одного HTTP запроса меша
func (a *AssetsConfig) GetTimeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return 15 * time.Second
}

// GetFPS частота кадров цикла отрисовки
func (v *ViewportConfig) GetFPS() int {
	if v.FPS > 0 {
		return v.FPS
	}
	return 60
}

// GetTTL время жизни меша в горячем кеше
func (c *CacheConfig) GetTTL() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return 24 * time.Hour
}

// GetRetention время хранения событий в JetStream
func (e *EventBusConfig) GetRetention() time.Duration {
	if e.Retention > 0 {
		return time.Duration(e.Retention) * time.Hour
	}
	return 24 * time.Hour
}

// GetStream имя потока JetStream
func (e *EventBusConfig) GetStream() string {
	if e.Stream != "" {
		return e.Stream
	}
	return "MONUMENT"
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// getStringWithEnvFallback то же для строк
func getStringWithEnvFallback(configValue, envVar, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultValue
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV MONUMENT_CONFIG или возвращает дефолты.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("MONUMENT_CONFIG")
		if path == "" {
			return Default(), nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
