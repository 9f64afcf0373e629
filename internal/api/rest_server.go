package api

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/annel0/monument/internal/compiler"
	"github.com/annel0/monument/internal/eventbus"
	"github.com/annel0/monument/internal/logging"
	"github.com/annel0/monument/internal/middleware"
	"github.com/annel0/monument/internal/render"
	"github.com/annel0/monument/internal/viewport"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

//go:embed web/index.html
var indexHTML []byte

// RestServer HTTP сервер просмотра монумента: страница, REST и поток /ws
type RestServer struct {
	router   *gin.Engine
	http     *http.Server
	rc       *viewport.RenderContext
	loop     *render.Loop
	bus      eventbus.EventBus
	result   *compiler.Result
	metrics  *ServerMetrics

	upgrader   websocket.Upgrader
	nextViewer atomic.Uint64
	viewers    atomic.Int64
	dropped    prometheus.Counter

	ctx    context.Context
	cancel context.CancelFunc
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port    string                  // адрес для запуска сервера
	Context *viewport.RenderContext // собранная сцена
	Loop    *render.Loop            // nil - без кадров FRAME
	Bus     eventbus.EventBus       // nil - без NODE_ADDED/ASSET_FAILED
	Result  *compiler.Result        // итог компиляции для /api/stats
	// Registry регистр метрик; nil - дефолтный регистр Prometheus
	Registry *prometheus.Registry
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	otelRouter := otelgin.Middleware("monument_viewer")
	router.Use(otelRouter)

	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer
	)
	if config.Registry != nil {
		reg, gatherer = config.Registry, config.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("monument", reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gatherer)

	ctx, cancel := context.WithCancel(context.Background())
	server := &RestServer{
		router:  router,
		rc:      config.Context,
		loop:    config.Loop,
		bus:     config.Bus,
		metrics: NewServerMetrics(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // просмотр без авторизации
		},
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monument",
			Subsystem: "viewer",
			Name:      "messages_dropped_total",
			Help:      "Сообщения, не доставленные медленным зрителям.",
		}),
		result: config.Result,
		ctx:    ctx,
		cancel: cancel,
	}
	reg.MustRegister(server.dropped)

	server.http = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Настраиваем маршруты
	server.setupRoutes()

	return server
}

// Handler корневой http.Handler (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	rs.router.GET("/", rs.handleIndex)

	api := rs.router.Group("/api")
	{
		api.GET("/scene", rs.handleScene)
		api.GET("/settings", rs.handleSettings)
		api.GET("/stats", rs.handleStats)
	}

	rs.router.GET("/ws", rs.handleWS)

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// handleIndex отдает страницу просмотра
func (rs *RestServer) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// handleScene возвращает снимок сцены
func (rs *RestServer) handleScene(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Снимок сцены",
		Data:    rs.snapshot(),
	})
}

func (rs *RestServer) snapshot() SnapshotMsg {
	return SnapshotMsg{
		Type:            MsgSnapshot,
		ProtocolVersion: ProtocolVersion,
		Dimensions:      rs.rc.Dimensions,
		Settings:        rs.rc.Settings,
		Scene:           rs.rc.Scene.Snapshot(),
		Frame:           rs.rc.Controls.Frame(),
	}
}

// handleSettings возвращает настройки монумента
func (rs *RestServer) handleSettings(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Настройки монумента",
		Data:    rs.rc.Settings,
	})
}

// StatsResponse статистика сцены и процесса
type StatsResponse struct {
	Compiled bool              `json:"compiled"`
	Compile  *compiler.Summary `json:"compile,omitempty"`
	Nodes    int               `json:"nodes"`
	ByKind   map[string]int    `json:"by_kind"`
	Failures int               `json:"asset_failures"`
	Digest   string            `json:"digest"`
	Viewers  int64             `json:"viewers"`
	EventBus *eventbus.Stats   `json:"eventbus,omitempty"`
	Server   ProcessStats      `json:"server"`
}

// handleStats возвращает статистику сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := StatsResponse{
		Compiled: rs.rc.Compiled(),
		Nodes:    rs.rc.Scene.Len(),
		ByKind:   rs.rc.Scene.CountByKind(),
		Failures: len(rs.rc.Scene.Failures()),
		Digest:   formatDigest(rs.rc.Scene.Digest()),
		Viewers:  rs.viewers.Load(),
		Server:   rs.metrics.Snapshot(),
	}
	if rs.result != nil {
		// сводка на момент запроса: меши догружаются после старта
		summary := rs.result.Summary()
		stats.Compile = &summary
	}
	if rs.bus != nil {
		busStats := rs.bus.Metrics()
		stats.EventBus = &busStats
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика сервера",
		Data:    stats,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	status := http.StatusOK
	if !rs.rc.Compiled() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":   http.StatusText(status),
		"compiled": rs.rc.Compiled(),
		"time":     time.Now().Unix(),
	})
}

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	logging.Info("🌐 Просмотрщик монумента слушает %s", rs.http.Addr)
	if err := rs.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop закрывает потоки зрителей и останавливает сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	rs.cancel()
	return rs.http.Shutdown(ctx)
}
