package cache

import (
	"context"
	"errors"
	"time"
)

// CacheRepo кеш ассетов. Двухуровневая схема: Hot Cache (Redis или память)
// поверх Cold Storage (BadgerDB на диске).
//
// Использование:
//
//	c := NewMemoryCache(cold)
//	data, err := c.Get(ctx, "asset:…")
//	err = c.Set(ctx, "asset:…", data, time.Hour)
type CacheRepo interface {
	// Get получает значение по ключу.
	// Возвращает ErrCacheMiss если ключ не найден ни в одном уровне.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение с указанным TTL (0 означает без истечения).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет ключ из кеша.
	Delete(ctx context.Context, key string) error

	// Exists проверяет существование ключа в кеше.
	Exists(ctx context.Context, key string) (bool, error)

	// Close закрывает соединение с кешем.
	Close() error

	// GetMetrics возвращает метрики кеша.
	GetMetrics() *CacheMetrics
}

// ColdStorage постоянное хранилище, используемое при промахе Hot Cache.
type ColdStorage interface {
	// Load загружает данные. Возвращает ErrCacheMiss если ключа нет.
	Load(ctx context.Context, key string) ([]byte, error)

	// Store сохраняет данные.
	Store(ctx context.Context, key string, value []byte) error

	// Close закрывает хранилище.
	Close() error
}

// CacheMetrics содержит метрики производительности кеша.
type CacheMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	ColdHits      int64   `json:"cold_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	HitRatio      float64 `json:"hit_ratio"`

	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`

	LastUpdate time.Time `json:"last_update"`
}

// CacheConfig содержит конфигурацию Redis кеша.
type CacheConfig struct {
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	DefaultTTL time.Duration `yaml:"default_ttl"`
	MaxTTL     time.Duration `yaml:"max_ttl"`

	MaxConnections int           `yaml:"max_connections"`
	PoolTimeout    time.Duration `yaml:"pool_timeout"`
}

// Ошибки кеша
var (
	ErrCacheMiss  = NewCacheError("cache miss")
	ErrInvalidKey = NewCacheError("invalid key")
)

// CacheError представляет ошибку кеша.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

func NewCacheError(message string) *CacheError {
	return &CacheError{Message: message}
}

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
