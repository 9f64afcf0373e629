package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/annel0/monument/internal/api"
	"github.com/annel0/monument/internal/app"
	"github.com/annel0/monument/internal/compiler"
	"github.com/annel0/monument/internal/config"
	"github.com/annel0/monument/internal/eventbus"
	"github.com/annel0/monument/internal/logging"
	"github.com/annel0/monument/internal/observability"
	"github.com/annel0/monument/internal/render"
	"github.com/annel0/monument/internal/viewport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $MONUMENT_CONFIG)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// run собирает и запускает просмотрщик; все ресурсы закрываются до возврата
func run(configPath string) error {
	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		return fmt.Errorf("инициализация логирования: %w", err)
	}
	defer logging.CloseDefaultLogger()
	defer func() {
		if err := logging.GetLoggerManager().CloseAll(); err != nil {
			log.Printf("⚠️ %v", err)
		}
	}()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("чтение конфигурации: %w", err)
	}
	if cfg.Logging.Level != "" {
		logging.SetDefaultLevel(logging.ParseLevel(cfg.Logging.Level))
	}

	logging.Info("🏛️ Запуск просмотрщика монумента...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === OBSERVABILITY ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, "monument", cfg.Telemetry.Endpoint)
		if err != nil {
			logging.Warn("⚠️ OpenTelemetry не инициализирован: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("⚠️ Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// === ИНИЦИАЛИЗАЦИЯ КОМПОНЕНТОВ ===
	bus, err := app.NewBus(cfg)
	if err != nil {
		return fmt.Errorf("создание шины событий: %w", err)
	}
	defer bus.Close()

	busLog, err := eventbus.StartLoggingListener(ctx, bus)
	if err != nil {
		logging.Warn("⚠️ Лог событий сцены не запущен: %v", err)
	} else {
		defer busLog.Unsubscribe()
	}
	busMetrics := eventbus.NewMetricsExporter(bus, registry)
	busMetrics.Start()
	defer busMetrics.Stop()

	pipeline, err := app.NewAssets(cfg, registry)
	if err != nil {
		return fmt.Errorf("инициализация загрузки мешей: %w", err)
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logging.Error("❌ Ошибка закрытия хранилища мешей: %v", err)
		}
	}()

	// === КОМПИЛЯЦИЯ МОНУМЕНТА ===
	dataFile := cfg.Monument.GetDataFile()
	logging.Info("📄 Документ монумента: %s", dataFile)
	monumentScene, err := app.CompileFile(ctx, dataFile, pipeline.Loader,
		viewport.Options{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height, Bus: bus},
		compiler.WithRegisterer(registry),
	)
	if err != nil {
		logging.Error("❌ Монумент не собран: %v", err)
		return fmt.Errorf("монумент не собран: %w", err)
	}
	rc := monumentScene.Context

	// Меши догружаются в фоне; итог пишем в отдельный лог компилятора
	compilerLog := logging.GetCompilerLogger()
	if cfg.Logging.Level != "" {
		level := logging.ParseLevel(cfg.Logging.Level)
		_ = logging.GetLoggerManager().SetLogLevel("compiler", level, logging.TRACE)
	}
	go func() {
		report := monumentScene.Result.Wait(ctx)
		compilerLog.Info("📦 Меши: загружено %d, ошибок %d, не дождались %d", report.Loaded, report.Failed, report.Pending)
		for source, msg := range report.Failures {
			compilerLog.Warn("⚠️ Меш %s: %s", source, msg)
		}
	}()

	// === ЦИКЛ ОТРИСОВКИ И HTTP ===
	loop := render.NewLoop(rc.Controls, render.WithFPS(cfg.Viewport.GetFPS()), render.WithRegisterer(registry))
	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("❌ Цикл отрисовки: %v", err)
		}
	}()

	httpPort := cfg.Server.GetHTTPPort()
	server := api.NewRestServer(api.Config{
		Port:     portAddr(httpPort),
		Context:  rc,
		Loop:     loop,
		Bus:      bus,
		Result:   monumentScene.Result,
		Registry: registry,
	})
	go func() {
		if err := server.Start(); err != nil {
			logging.Error("❌ Ошибка HTTP сервера: %v", err)
			stop()
		}
	}()

	var metricsServer *http.Server
	if metricsPort := cfg.Server.GetMetricsPort(); metricsPort != httpPort {
		metricsServer = &http.Server{
			Addr:              portAddr(metricsPort),
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("❌ Ошибка сервера метрик: %v", err)
			}
		}()
	}

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 Просмотр: http://localhost:%d/", httpPort)
	logging.Info("   ❤️  Health check: http://localhost:%d/health", httpPort)
	logging.Info("   📊 Метрики: http://localhost:%d/metrics", cfg.Server.GetMetricsPort())

	<-ctx.Done()
	logging.Info("📡 Получен сигнал завершения, остановка...")

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки HTTP сервера: %v", err)
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	logging.Info("👋 Просмотрщик остановлен")
	return nil
}

func portAddr(port int) string {
	return ":" + strconv.Itoa(port)
}
