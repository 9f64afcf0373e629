// Package render крутит цикл кадров окна просмотра.
package render

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/monument/internal/logging"
	"github.com/annel0/monument/internal/viewport"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultFPS частота кадров по умолчанию
const DefaultFPS = 60

// Loop каждый тик продвигает управление камерой и рассылает кадр подписчикам.
// Медленный подписчик теряет кадры, цикл не ждет никого.
type Loop struct {
	controls *viewport.Controls
	interval time.Duration

	mu     sync.Mutex
	subs   map[int]chan viewport.Frame
	nextID int

	frames  prometheus.Counter
	dropped prometheus.Counter
}

// Option настройка цикла
type Option func(*Loop)

// WithFPS задает частоту кадров; fps <= 0 оставляет DefaultFPS
func WithFPS(fps int) Option {
	return func(l *Loop) {
		if fps > 0 {
			l.interval = time.Second / time.Duration(fps)
		}
	}
}

// WithRegisterer регистрирует счетчики кадров в reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(l *Loop) {
		reg.MustRegister(l.frames, l.dropped)
	}
}

// NewLoop создает цикл для управления controls
func NewLoop(controls *viewport.Controls, opts ...Option) *Loop {
	l := &Loop{
		controls: controls,
		interval: time.Second / DefaultFPS,
		subs:     make(map[int]chan viewport.Frame),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monument",
			Subsystem: "render",
			Name:      "frames_total",
			Help:      "Кадры, просчитанные циклом отрисовки.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monument",
			Subsystem: "render",
			Name:      "frames_dropped_total",
			Help:      "Кадры, не доставленные медленным подписчикам.",
		}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval период тика
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Subscribe возвращает канал кадров и функцию отписки.
// После отписки канал закрывается.
func (l *Loop) Subscribe(buffer int) (<-chan viewport.Frame, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan viewport.Frame, buffer)

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers число активных подписчиков
func (l *Loop) Subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// Step выполняет один кадр
func (l *Loop) Step() viewport.Frame {
	frame := l.controls.Update()
	l.frames.Inc()

	l.mu.Lock()
	for _, ch := range l.subs {
		select {
		case ch <- frame:
		default:
			l.dropped.Inc()
		}
	}
	l.mu.Unlock()
	return frame
}

// Run тикает до отмены ctx
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	logging.Info("🎬 Цикл отрисовки запущен: %v на кадр", l.interval)
	for {
		select {
		case <-ctx.Done():
			logging.Info("🛑 Цикл отрисовки остановлен")
			return ctx.Err()
		case <-ticker.C:
			l.Step()
		}
	}
}
