// Package shapes материализует объекты ячеек в сцену.
package shapes

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/monument/internal/assets"
	"github.com/annel0/monument/internal/cell"
	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/scene"
	"github.com/annel0/monument/internal/vec"
)

// Target сцена, принимающая материализованные объекты
type Target interface {
	Add(n *scene.Node)
	ReportAssetFailure(source string, cell *floorplan.Index, err error)
}

// Clock источник времени для одноразового смещения света
type Clock func() time.Time

// Object объект одной непустой ячейки. Закрытый набор: *Block, *MeshProp, *LightProp.
type Object interface {
	Shape() cell.Shape
	Name() string
	Cell() floorplan.Index
	Position() vec.Vec3Float
	// Materialize добавляет объект в сцену. MeshProp добавляется позже,
	// когда загрузится его меш.
	Materialize(ctx context.Context, target Target)

	sealed()
}

// base общие поля всех объектов
type base struct {
	spec     cell.Spec
	cell     floorplan.Index
	position vec.Vec3Float
}

func (b *base) Shape() cell.Shape       { return b.spec.Shape }
func (b *base) Name() string            { return b.spec.Name }
func (b *base) Cell() floorplan.Index   { return b.cell }
func (b *base) Position() vec.Vec3Float { return b.position }
func (b *base) Spec() cell.Spec         { return b.spec }
func (b *base) sealed()                 {}

func (b *base) cellRef() *floorplan.Index {
	idx := b.cell
	return &idx
}

// New создает объект по описанию классификатора.
// loader нужен только мешам, clock только свету (nil - time.Now).
func New(spec *cell.Spec, idx floorplan.Index, pos vec.Vec3Float, loader assets.Loader, clock Clock) (Object, error) {
	if spec == nil {
		return nil, fmt.Errorf("shapes: nil spec for cell %s", idx)
	}
	b := base{spec: *spec, cell: idx, position: pos}

	switch spec.Shape {
	case cell.ShapeBlock:
		return &Block{base: b}, nil
	case cell.ShapeMeshProp:
		if loader == nil {
			return nil, fmt.Errorf("shapes: mesh %s at %s needs an asset loader", spec.Name, idx)
		}
		return &MeshProp{base: b, loader: loader}, nil
	case cell.ShapeLightProp:
		if clock == nil {
			clock = time.Now
		}
		return &LightProp{base: b, clock: clock}, nil
	default:
		return nil, fmt.Errorf("shapes: unsupported shape %v for cell %s", spec.Shape, idx)
	}
}
