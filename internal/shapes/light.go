package shapes

import (
	"context"
	"math"

	"github.com/annel0/monument/internal/scene"
	"github.com/annel0/monument/internal/vec"
)

// Параметры светлячка
const (
	LightIntensity    = 2.2
	LightDistance     = 200.0
	BulbOuterRadius   = 5.0
	BulbSegments      = 32
	jitterAmplitude   = 10.0
	jitterFrequencyMs = 0.0005 * 3
)

// LightProp точечный свет с кольцом-лампой. Кольцо есть только при Size != 0.
type LightProp struct {
	base
	clock Clock
}

func (l *LightProp) Materialize(ctx context.Context, target Target) {
	target.Add(l.node())
}

// Jitter вертикальное смещение для момента времени; вычисляется один раз
func (l *LightProp) Jitter() float64 {
	ms := float64(l.clock().UnixNano()) / 1e6
	return math.Sin(ms*jitterFrequencyMs) * jitterAmplitude
}

func (l *LightProp) node() *scene.Node {
	pos := l.position
	pos.Z += l.Jitter()

	n := &scene.Node{
		Name:       l.spec.Name,
		Kind:       scene.KindLight,
		Position:   pos,
		Scale:      vec.Splat(1),
		Light:      &scene.Light{Type: scene.LightPoint, Color: l.spec.Color, Intensity: LightIntensity, Distance: LightDistance},
		CastShadow: true,
		Cell:       l.cellRef(),
	}

	if l.spec.Size != 0 {
		n.Children = []*scene.Node{{
			Name:  l.spec.Name + "-bulb",
			Kind:  scene.KindBulb,
			Scale: vec.Splat(1),
			Geometry: &scene.Geometry{
				Type:        scene.GeometryRing,
				InnerRadius: l.spec.Size,
				OuterRadius: BulbOuterRadius,
				Segments:    BulbSegments,
			},
			Material: &scene.Material{Type: scene.MaterialBasic, Color: l.spec.Color},
		}}
	}
	return n
}
