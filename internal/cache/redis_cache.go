package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/monument/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisCache реализует CacheRepo используя Redis как Hot Cache.
// Несколько серверов монумента делят один набор загруженных мешей.
//
// Особенности:
// - Read-Through в Cold Storage при промахе
// - Write-Through: Set пишет и в Redis, и в Cold Storage
// - Метрики hit ratio и latency
type RedisCache struct {
	client      *redis.Client
	config      *CacheConfig
	coldStorage ColdStorage
	stats       stats
}

// NewRedisCache создаёт новый Redis кеш с опциональным Cold Storage.
//
// Параметры:
//
//	config - конфигурация Redis
//	coldStorage - опциональное постоянное хранилище (может быть nil)
func NewRedisCache(config *CacheConfig, coldStorage ColdStorage) (*RedisCache, error) {
	applyDefaults(config)

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.RedisURL,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		PoolSize:     config.MaxConnections,
		PoolTimeout:  config.PoolTimeout,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	// Проверяем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("🧊 Redis cache initialized: %s (cold storage: %v)", config.RedisURL, coldStorage != nil)
	return newRedisCache(rdb, config, coldStorage), nil
}

func newRedisCache(rdb *redis.Client, config *CacheConfig, coldStorage ColdStorage) *RedisCache {
	applyDefaults(config)
	return &RedisCache{
		client:      rdb,
		config:      config,
		coldStorage: coldStorage,
	}
}

func applyDefaults(config *CacheConfig) {
	if config.DefaultTTL == 0 {
		config.DefaultTTL = time.Hour
	}
	if config.MaxTTL == 0 {
		config.MaxTTL = 24 * time.Hour
	}
	if config.MaxConnections == 0 {
		config.MaxConnections = 10
	}
	if config.PoolTimeout == 0 {
		config.PoolTimeout = 30 * time.Second
	}
}

// Get получает значение из Redis.
// При промахе пытается загрузить из Cold Storage (Read-Through).
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer r.stats.recordLatency(start)

	if key == "" {
		return nil, ErrInvalidKey
	}

	val, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		r.stats.hit()
		return val, nil
	}

	if !errors.Is(err, redis.Nil) {
		logging.Error("Redis Get error for key %s: %v", key, err)
		// Redis недоступен: продолжаем с Cold Storage
	}

	if r.coldStorage != nil {
		val, err := r.coldStorage.Load(ctx, key)
		if err == nil {
			r.stats.cold()
			// Прогреваем Redis для следующих запросов
			if err := r.client.Set(ctx, key, val, r.config.DefaultTTL).Err(); err != nil {
				logging.Debug("Redis warm-up failed for key %s: %v", key, err)
			}
			return val, nil
		}
		if !IsCacheMiss(err) {
			logging.Warn("Cold storage error for key %s: %v", key, err)
		}
	}

	r.stats.miss()
	return nil, ErrCacheMiss
}

// Set сохраняет значение в Redis и в Cold Storage.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	defer r.stats.recordLatency(start)

	if key == "" {
		return ErrInvalidKey
	}
	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}
	if ttl > r.config.MaxTTL {
		ttl = r.config.MaxTTL
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logging.Error("Redis Set error for key %s: %v", key, err)
		return fmt.Errorf("redis set error: %w", err)
	}

	if r.coldStorage != nil {
		if err := r.coldStorage.Store(ctx, key, value); err != nil {
			return fmt.Errorf("cold storage store: %w", err)
		}
	}
	return nil
}

// Delete удаляет ключ из Redis. Cold Storage не трогаем.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	start := time.Now()
	defer r.stats.recordLatency(start)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		logging.Error("Redis Delete error for key %s: %v", key, err)
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// Exists проверяет существование ключа в Redis.
func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return count > 0, nil
}

// Close закрывает соединение с Redis. Cold Storage закрывает владелец.
func (r *RedisCache) Close() error {
	if err := r.client.Close(); err != nil {
		logging.Error("Error closing Redis connection: %v", err)
		return err
	}
	logging.Info("Redis cache closed")
	return nil
}

// GetMetrics возвращает текущие метрики кеша.
func (r *RedisCache) GetMetrics() *CacheMetrics {
	return r.stats.snapshot()
}
