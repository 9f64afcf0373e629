package scene

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/monument/internal/eventbus"
	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/logging"
	"github.com/annel0/monument/internal/palette"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// EventSource источник событий сцены в шине
const EventSource = "scene"

// AssetFailure неудачная загрузка ассета для ячейки
type AssetFailure struct {
	Source string           `json:"source"`
	Cell   *floorplan.Index `json:"cell,omitempty"`
	Error  string           `json:"error"`
	At     time.Time        `json:"at"`
}

// Snapshot копия сцены для отдачи наружу
type Snapshot struct {
	Background palette.RGB    `json:"background"`
	Nodes      []*Node        `json:"nodes"`
	Failures   []AssetFailure `json:"failures,omitempty"`
}

// Scene граф сцены. Добавление узлов сериализовано мьютексом:
// компилятор и завершения загрузок ассетов могут вызывать Add из разных горутин.
type Scene struct {
	mu         sync.RWMutex
	background palette.RGB
	nodes      []*Node
	byID       map[string]*Node
	failures   []AssetFailure
	bus        eventbus.EventBus
}

// Option настройка сцены
type Option func(*Scene)

// WithEventBus публикует события добавления узлов и ошибок ассетов в шину
func WithEventBus(bus eventbus.EventBus) Option {
	return func(s *Scene) { s.bus = bus }
}

// New создает пустую сцену
func New(background palette.RGB, opts ...Option) *Scene {
	s := &Scene{
		background: background,
		byID:       make(map[string]*Node),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Background цвет фона
func (s *Scene) Background() palette.RGB {
	return s.background
}

// Add добавляет узел в сцену. Пустой ID заполняется UUID.
func (s *Scene) Add(n *Node) {
	if n == nil {
		return
	}
	assignIDs(n)

	s.mu.Lock()
	s.nodes = append(s.nodes, n)
	s.byID[n.ID] = n
	s.mu.Unlock()

	s.publish(eventbus.EventNodeAdded, 5, n)
}

func assignIDs(n *Node) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	for _, c := range n.Children {
		assignIDs(c)
	}
}

// ReportAssetFailure фиксирует ошибку загрузки ассета; ячейка остается пустой
func (s *Scene) ReportAssetFailure(source string, cell *floorplan.Index, err error) {
	f := AssetFailure{Source: source, Cell: cell, At: time.Now().UTC()}
	if err != nil {
		f.Error = err.Error()
	}

	s.mu.Lock()
	s.failures = append(s.failures, f)
	s.mu.Unlock()

	s.publish(eventbus.EventAssetFailed, 5, f)
}

// Publish отправляет произвольное событие сцены в шину, если она подключена
func (s *Scene) Publish(eventType string, payload interface{}) {
	s.publish(eventType, 5, payload)
}

func (s *Scene) publish(eventType string, priority int, payload interface{}) {
	if s.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(EventSource, eventType, priority, payload)
	if err != nil {
		logging.Warn("⚠️ Сцена: не удалось сериализовать событие %s: %v", eventType, err)
		return
	}
	if err := s.bus.Publish(context.Background(), ev); err != nil {
		logging.Warn("⚠️ Сцена: не удалось опубликовать событие %s: %v", eventType, err)
	}
}

// Len число узлов верхнего уровня
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Nodes возвращает узлы в порядке добавления
func (s *Scene) Nodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Get возвращает узел по ID
func (s *Scene) Get(id string) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	return n, ok
}

// Failures возвращает зафиксированные ошибки ассетов
func (s *Scene) Failures() []AssetFailure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AssetFailure, len(s.failures))
	copy(out, s.failures)
	return out
}

// Snapshot возвращает согласованную копию сцены
func (s *Scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Background: s.background,
		Nodes:      make([]*Node, len(s.nodes)),
		Failures:   make([]AssetFailure, len(s.failures)),
	}
	copy(snap.Nodes, s.nodes)
	copy(snap.Failures, s.failures)
	return snap
}

// CountByKind считает узлы верхнего уровня по виду
func (s *Scene) CountByKind() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, n := range s.nodes {
		counts[n.Kind]++
	}
	return counts
}

// Digest хеш расположения узлов без учета ID и порядка завершения загрузок мешей.
// Свет зависит от часов в момент материализации.
func (s *Scene) Digest() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum uint64
	for _, n := range s.nodes {
		h := xxhash.New()
		writeNode(h, n)
		// сумма не зависит от порядка добавления
		sum += h.Sum64()
	}
	return sum
}

func writeNode(h *xxhash.Digest, n *Node) {
	fmt.Fprintf(h, "%s|%s|%.4f,%.4f,%.4f|%.4f,%.4f,%.4f|%.4f,%.4f,%.4f|%t",
		n.Kind, n.Name,
		n.Position.X, n.Position.Y, n.Position.Z,
		n.Rotation.X, n.Rotation.Y, n.Rotation.Z,
		n.Scale.X, n.Scale.Y, n.Scale.Z, n.CastShadow)
	if n.Material != nil {
		fmt.Fprintf(h, "|m:%s:%s", n.Material.Type, n.Material.Color)
	}
	if n.Light != nil {
		fmt.Fprintf(h, "|l:%s:%s:%.3f:%.3f", n.Light.Type, n.Light.Color, n.Light.Intensity, n.Light.Distance)
	}
	if n.Cell != nil {
		fmt.Fprintf(h, "|c:%s", n.Cell)
	}
	for _, c := range n.Children {
		writeNode(h, c)
	}
}
