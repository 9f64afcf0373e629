package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/monument/internal/cache"
	"github.com/annel0/monument/internal/logging"
	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

// CachedFetcher читает ассеты через кеш; промах уходит в next.
// В кеше ассеты лежат сжатыми zstd. Сохраняются только ответы,
// которые разбираются как геометрия: битый ответ запрашивается заново.
type CachedFetcher struct {
	next      Fetcher
	cache     cache.CacheRepo
	namespace string
	ttl       time.Duration

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCachedFetcher создает кеширующий загрузчик.
// namespace отделяет ассеты разных источников (обычно базовый URL).
func NewCachedFetcher(next Fetcher, c cache.CacheRepo, namespace string, ttl time.Duration) (*CachedFetcher, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &CachedFetcher{
		next:      next,
		cache:     c,
		namespace: namespace,
		ttl:       ttl,
		enc:       enc,
		dec:       dec,
	}, nil
}

// CacheKey ключ ассета в кеше
func (c *CachedFetcher) CacheKey(source string) string {
	return fmt.Sprintf("asset:%016x", xxhash.Sum64String(c.namespace+"/"+source))
}

func (c *CachedFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	key := c.CacheKey(source)

	compressed, err := c.cache.Get(ctx, key)
	if err == nil {
		data, derr := c.dec.DecodeAll(compressed, nil)
		if derr == nil {
			logging.LogAssetRequest(source, true)
			return data, nil
		}
		logging.Warn("⚠️ Поврежденная запись кеша %s (%s): %v", key, source, derr)
	} else if !cache.IsCacheMiss(err) {
		logging.Warn("⚠️ Ошибка кеша ассетов для %s: %v", source, err)
	}

	logging.LogAssetRequest(source, false)
	data, err := c.next.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	if _, perr := ParseLegacyJSON(data); perr != nil {
		logging.Warn("⚠️ Ассет %s не сохранен в кеш: %v", source, perr)
		return data, nil
	}
	if err := c.cache.Set(ctx, key, c.enc.EncodeAll(data, nil), c.ttl); err != nil {
		logging.Warn("⚠️ Не удалось сохранить ассет %s в кеш: %v", source, err)
	}
	return data, nil
}

// Close освобождает кодеки
func (c *CachedFetcher) Close() {
	c.enc.Close()
	c.dec.Close()
}
