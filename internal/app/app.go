// Package app собирает компоненты просмотрщика монумента из конфигурации.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/monument/internal/assets"
	"github.com/annel0/monument/internal/cache"
	"github.com/annel0/monument/internal/compiler"
	"github.com/annel0/monument/internal/config"
	"github.com/annel0/monument/internal/eventbus"
	"github.com/annel0/monument/internal/logging"
	"github.com/annel0/monument/internal/monument"
	"github.com/annel0/monument/internal/storage"
	"github.com/annel0/monument/internal/viewport"
	"github.com/prometheus/client_golang/prometheus"
)

// Assets цепочка загрузки мешей: источник -> горячий кеш -> badger -> AsyncLoader
type Assets struct {
	Store   *storage.AssetStore
	Cache   cache.CacheRepo
	Fetcher *assets.CachedFetcher
	Loader  *assets.AsyncLoader
}

// NewAssets открывает хранилище, кеш и запускает загрузчик.
// Без redis_url горячий кеш живет в памяти процесса.
func NewAssets(cfg *config.Config, reg prometheus.Registerer) (*Assets, error) {
	store, err := storage.NewAssetStore(cfg.Storage.DataPath)
	if err != nil {
		return nil, err
	}

	var hot cache.CacheRepo
	if cfg.Cache.RedisURL != "" {
		cacheCfg := cfg.Cache.CacheConfig
		hot, err = cache.NewRedisCache(&cacheCfg, store)
		if err != nil {
			store.Close()
			return nil, err
		}
	} else {
		hot = cache.NewMemoryCache(store)
	}

	var (
		source    assets.Fetcher
		namespace string
	)
	if cfg.Assets.Dir != "" {
		source = assets.DirFetcher{Dir: cfg.Assets.Dir}
		namespace = "dir:" + cfg.Assets.Dir
		logging.Info("📂 Меши читаются из каталога %s", cfg.Assets.Dir)
	} else {
		fetcher := assets.NewHTTPFetcher(cfg.Assets.GetBaseURL(), cfg.Assets.GetTimeout())
		source = fetcher
		namespace = cfg.Assets.GetBaseURL()
		logging.Info("🌍 Меши загружаются с %s", namespace)
	}

	cached, err := assets.NewCachedFetcher(source, hot, namespace, cfg.Cache.GetTTL())
	if err != nil {
		hot.Close()
		store.Close()
		return nil, err
	}

	opts := []assets.LoaderOption{assets.WithWorkers(cfg.Assets.GetWorkers())}
	if reg != nil {
		opts = append(opts, assets.WithRegisterer(reg))
	}
	return &Assets{
		Store:   store,
		Cache:   hot,
		Fetcher: cached,
		Loader:  assets.NewAsyncLoader(cached, opts...),
	}, nil
}

// Close останавливает загрузчик и закрывает кеши в обратном порядке
func (a *Assets) Close() error {
	var errs []error
	if err := a.Loader.Close(); err != nil {
		errs = append(errs, err)
	}
	a.Fetcher.Close()
	if err := a.Cache.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NewBus шина событий сцены: JetStream при заданном url, иначе в памяти
func NewBus(cfg *config.Config) (eventbus.EventBus, error) {
	if cfg.EventBus.URL == "" {
		return eventbus.NewMemoryBus(cfg.EventBus.Buffer), nil
	}
	bus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.GetStream(), cfg.EventBus.GetRetention())
	if err != nil {
		return nil, fmt.Errorf("eventbus: %w", err)
	}
	logging.Info("📨 События сцены публикуются в JetStream %s (stream=%s)", cfg.EventBus.URL, cfg.EventBus.GetStream())
	return bus, nil
}

// Scene собранная сцена монумента
type Scene struct {
	Document *monument.Document
	Context  *viewport.RenderContext
	Result   *compiler.Result
}

// CompileFile читает документ и собирает сцену нового RenderContext
func CompileFile(ctx context.Context, path string, loader assets.Loader, opts viewport.Options, copts ...compiler.Option) (*Scene, error) {
	doc, err := monument.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(ctx, doc, loader, opts, copts...)
}

// Compile собирает сцену документа
func Compile(ctx context.Context, doc *monument.Document, loader assets.Loader, opts viewport.Options, copts ...compiler.Option) (*Scene, error) {
	c := compiler.New(loader, copts...)
	// проверка до создания окна: размеры RenderContext берутся из плана
	_, dims, err := c.Plan(doc)
	if err != nil {
		return nil, err
	}

	rc := viewport.NewRenderContext(&doc.Settings, dims, opts)
	result, err := c.Compile(ctx, rc, doc)
	if err != nil {
		return nil, err
	}
	return &Scene{Document: doc, Context: rc, Result: result}, nil
}
