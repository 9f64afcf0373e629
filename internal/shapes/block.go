package shapes

import (
	"context"

	"github.com/annel0/monument/internal/scene"
	"github.com/annel0/monument/internal/vec"
)

// Block куб с ребром Size, повернутый на Yaw вокруг вертикали
type Block struct {
	base
}

func (b *Block) Materialize(ctx context.Context, target Target) {
	target.Add(b.node())
}

func (b *Block) node() *scene.Node {
	size := b.spec.Size
	return &scene.Node{
		Name:     b.spec.Name,
		Kind:     scene.KindBlock,
		Position: b.position,
		Rotation: scene.Euler{Z: b.spec.Yaw},
		Scale:    vec.Splat(1),
		Geometry: &scene.Geometry{Type: scene.GeometryBox, Width: size, Height: size, Depth: size},
		Material: &scene.Material{Type: scene.MaterialLambert, Color: b.spec.Color},
		Cell:     b.cellRef(),
	}
}
