package assets

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/annel0/monument/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrLoaderClosed загрузчик остановлен до завершения загрузки
var ErrLoaderClosed = errors.New("assets: loader closed")

// Loader запускает загрузку ассета и сразу возвращает Future.
// Load никогда не блокируется на сети; ошибки приходят через Future.
type Loader interface {
	Load(ctx context.Context, source string) *Future
}

type job struct {
	source string
	future *Future
	link   trace.Link
}

// AsyncLoader загружает ассеты пулом воркеров.
// Повторный Load той же ссылки возвращает тот же Future: каждый ассет
// загружается и разбирается один раз.
type AsyncLoader struct {
	fetcher Fetcher
	workers int
	jobs    chan *job

	mu      sync.Mutex
	futures map[string]*Future
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics *loaderMetrics
	tracer  trace.Tracer
}

// LoaderOption настройка загрузчика
type LoaderOption func(*AsyncLoader)

// WithWorkers задает число воркеров
func WithWorkers(n int) LoaderOption {
	return func(l *AsyncLoader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithRegisterer регистрирует метрики загрузчика в reg
func WithRegisterer(reg prometheus.Registerer) LoaderOption {
	return func(l *AsyncLoader) {
		l.metrics = newLoaderMetrics(reg)
	}
}

// NewAsyncLoader создает загрузчик и запускает воркеров
func NewAsyncLoader(fetcher Fetcher, opts ...LoaderOption) *AsyncLoader {
	ctx, cancel := context.WithCancel(context.Background())
	l := &AsyncLoader{
		fetcher: fetcher,
		workers: 4,
		futures: make(map[string]*Future),
		ctx:     ctx,
		cancel:  cancel,
		tracer:  otel.Tracer("github.com/annel0/monument/internal/assets"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = newLoaderMetrics(nil)
	}
	l.jobs = make(chan *job, l.workers*16)

	for i := 0; i < l.workers; i++ {
		l.wg.Add(1)
		go l.worker()
	}
	logging.Debug("📦 AsyncLoader: запущено %d воркеров", l.workers)
	return l
}

// Load ставит ассет в очередь загрузки
func (l *AsyncLoader) Load(ctx context.Context, source string) *Future {
	if err := ValidateSource(source); err != nil {
		l.metrics.loads.WithLabelValues(resultError).Inc()
		return Resolved(source, nil, err)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return Resolved(source, nil, ErrLoaderClosed)
	}
	if f, ok := l.futures[source]; ok {
		l.mu.Unlock()
		l.metrics.shared.Inc()
		return f
	}
	f := NewFuture(source)
	l.futures[source] = f
	l.mu.Unlock()

	j := &job{source: source, future: f, link: trace.LinkFromContext(ctx)}
	select {
	case l.jobs <- j:
	default:
		// Очередь полна: ставим в очередь из отдельной горутины, Load не блокируется
		go func() {
			select {
			case l.jobs <- j:
			case <-l.ctx.Done():
				f.Complete(nil, ErrLoaderClosed)
			}
		}()
	}
	return f
}

func (l *AsyncLoader) worker() {
	defer l.wg.Done()
	for {
		select {
		case <-l.ctx.Done():
			return
		case j := <-l.jobs:
			l.process(j)
		}
	}
}

func (l *AsyncLoader) process(j *job) {
	ctx, span := l.tracer.Start(l.ctx, "assets.load",
		trace.WithLinks(j.link),
		trace.WithAttributes(attribute.String("asset.source", j.source)))
	defer span.End()

	start := time.Now()
	data, err := l.fetcher.Fetch(ctx, j.source)
	if err == nil {
		mesh, perr := ParseLegacyJSON(data)
		if perr == nil {
			l.metrics.duration.Observe(time.Since(start).Seconds())
			l.metrics.loads.WithLabelValues(resultOK).Inc()
			span.SetAttributes(attribute.Int("asset.vertices", mesh.VertexCount()))
			logging.Debug("📦 Ассет %s загружен: %d вершин за %v", j.source, mesh.VertexCount(), time.Since(start))
			j.future.Complete(mesh, nil)
			return
		}
		err = perr
	}

	l.metrics.loads.WithLabelValues(resultError).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	j.future.Complete(nil, err)
}

// Pending число незавершенных загрузок
func (l *AsyncLoader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, f := range l.futures {
		select {
		case <-f.Done():
		default:
			n++
		}
	}
	return n
}

// Close останавливает воркеров; незавершенные загрузки получают ErrLoaderClosed
func (l *AsyncLoader) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()

	l.mu.Lock()
	pending := make([]*Future, 0, len(l.futures))
	for _, f := range l.futures {
		pending = append(pending, f)
	}
	l.mu.Unlock()

	for _, f := range pending {
		f.Complete(nil, ErrLoaderClosed)
	}
	return nil
}
