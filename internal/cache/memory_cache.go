package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache реализует CacheRepo в памяти процесса.
// Используется, когда Redis не настроен, и в тестах.
// Данные теряются при перезапуске; Cold Storage переживает рестарт.
type MemoryCache struct {
	mu          sync.RWMutex
	items       map[string]memoryItem
	coldStorage ColdStorage
	now         func() time.Time
	stats       stats
}

type memoryItem struct {
	value   []byte
	expires time.Time // нулевое значение: без истечения
}

// NewMemoryCache создает кеш в памяти с опциональным Cold Storage.
func NewMemoryCache(coldStorage ColdStorage) *MemoryCache {
	return &MemoryCache{
		items:       make(map[string]memoryItem),
		coldStorage: coldStorage,
		now:         time.Now,
	}
}

// Get возвращает значение из памяти, при промахе из Cold Storage.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer m.stats.recordLatency(start)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if key == "" {
		return nil, ErrInvalidKey
	}

	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if ok && (item.expires.IsZero() || m.now().Before(item.expires)) {
		m.stats.hit()
		return item.value, nil
	}

	if m.coldStorage != nil {
		val, err := m.coldStorage.Load(ctx, key)
		if err == nil {
			m.stats.cold()
			m.put(key, val, 0)
			return val, nil
		}
		if !IsCacheMiss(err) {
			return nil, err
		}
	}

	m.stats.miss()
	return nil, ErrCacheMiss
}

// Set сохраняет значение в памяти и в Cold Storage.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	defer m.stats.recordLatency(start)

	if key == "" {
		return ErrInvalidKey
	}
	m.put(key, value, ttl)

	if m.coldStorage != nil {
		return m.coldStorage.Store(ctx, key, value)
	}
	return nil
}

func (m *MemoryCache) put(key string, value []byte, ttl time.Duration) {
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
}

// Delete удаляет ключ из памяти.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Exists проверяет наличие неистекшего ключа в памяти.
func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	return ok && (item.expires.IsZero() || m.now().Before(item.expires)), nil
}

// Close очищает кеш.
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}

// GetMetrics возвращает текущие метрики кеша.
func (m *MemoryCache) GetMetrics() *CacheMetrics {
	return m.stats.snapshot()
}
