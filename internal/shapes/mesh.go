package shapes

import (
	"context"
	"math"
	"sync"

	"github.com/annel0/monument/internal/assets"
	"github.com/annel0/monument/internal/logging"
	"github.com/annel0/monument/internal/scene"
	"github.com/annel0/monument/internal/vec"
)

// MeshPitch поворот ассета: его "верх" (+Y) смотрит вдоль вертикали сетки (+Z)
const MeshPitch = math.Pi / 2

// MeshProp внешний меш (плитка, лестница, колонна)
type MeshProp struct {
	base
	loader assets.Loader

	mu     sync.Mutex
	future *assets.Future
}

// Materialize запускает загрузку и возвращается сразу.
// Узел попадет в сцену из колбэка загрузки; при ошибке ячейка остается пустой.
func (m *MeshProp) Materialize(ctx context.Context, target Target) {
	f := m.loader.Load(ctx, m.spec.Source)

	m.mu.Lock()
	m.future = f
	m.mu.Unlock()

	f.OnComplete(func(mesh *scene.Mesh, err error) {
		if err != nil {
			logging.Warn("⚠️ Ассет %s для ячейки %s не загружен: %v", m.spec.Source, m.cell, err)
			target.ReportAssetFailure(m.spec.Source, m.cellRef(), err)
			return
		}
		target.Add(m.node(mesh))
	})
}

// Future загрузка меша; nil до Materialize
func (m *MeshProp) Future() *assets.Future {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.future
}

func (m *MeshProp) node(mesh *scene.Mesh) *scene.Node {
	return &scene.Node{
		Name:     m.spec.Name,
		Kind:     scene.KindMesh,
		Position: m.position,
		Rotation: scene.Euler{X: MeshPitch, Y: m.spec.Yaw},
		Scale:    vec.Splat(m.spec.Scale),
		Geometry: &scene.Geometry{Type: scene.GeometryMesh, Source: m.spec.Source, Mesh: mesh},
		Material: &scene.Material{Type: scene.MaterialLambert, Color: m.spec.Color},
		Cell:     m.cellRef(),
	}
}
