// Package export сохраняет собранную сцену монумента в glTF (GLB).
package export

import (
	"fmt"
	"math"

	"github.com/annel0/monument/internal/logging"
	"github.com/annel0/monument/internal/palette"
	"github.com/annel0/monument/internal/scene"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Generator значение asset.generator в документе
const Generator = "monument -> GLB"

// Stats что попало в документ
type Stats struct {
	Blocks  int // узлы-блоки
	Props   int // узлы загруженных мешей
	Skipped int // свет и узлы без геометрии
	Meshes  int // уникальные glTF меши
}

// Nodes число узлов с геометрией
func (s Stats) Nodes() int {
	return s.Blocks + s.Props
}

// builder накапливает документ. Меши переиспользуются по геометрии и цвету.
type builder struct {
	doc       *gltf.Document
	root      *gltf.Node
	materials map[palette.RGB]uint32
	meshes    map[string]uint32
	stats     Stats
}

// Build строит документ: один узел на блок или загруженный меш.
// Сцена Z-up, glTF Y-up: все узлы висят под корнем, повернутым на -π/2 вокруг X.
func Build(s *scene.Scene) (*gltf.Document, Stats, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = Generator

	root := &gltf.Node{
		Name:     "monument",
		Rotation: [4]float32{-math.Sqrt2 / 2, 0, 0, math.Sqrt2 / 2},
		Scale:    [3]float32{1, 1, 1},
	}
	doc.Nodes = append(doc.Nodes, root)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	b := &builder{
		doc:       doc,
		root:      root,
		materials: make(map[palette.RGB]uint32),
		meshes:    make(map[string]uint32),
	}
	for _, n := range s.Nodes() {
		if err := b.addNode(n); err != nil {
			return nil, b.stats, err
		}
	}
	b.stats.Meshes = len(doc.Meshes)
	return doc, b.stats, nil
}

// WriteGLB строит документ и сохраняет его в path
func WriteGLB(s *scene.Scene, path string) (Stats, error) {
	doc, stats, err := Build(s)
	if err != nil {
		return stats, err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return stats, fmt.Errorf("export: save %s: %w", path, err)
	}
	logging.Info("💾 GLB сохранен: %s (узлов %d, мешей %d, пропущено %d)", path, stats.Nodes(), stats.Meshes, stats.Skipped)
	return stats, nil
}

func (b *builder) addNode(n *scene.Node) error {
	if n.Geometry == nil || n.Material == nil {
		b.stats.Skipped++
		return nil
	}

	var (
		mesh uint32
		err  error
	)
	switch n.Geometry.Type {
	case scene.GeometryBox:
		mesh = b.boxMesh(n.Geometry, n.Material.Color)
		b.stats.Blocks++
	case scene.GeometryMesh:
		mesh, err = b.assetMesh(n.Geometry, n.Material.Color)
		if err != nil {
			return fmt.Errorf("export: node %s: %w", n.Name, err)
		}
		b.stats.Props++
	default:
		// кольца-лампочки живут только в просмотрщике
		b.stats.Skipped++
		return nil
	}

	name := n.Name
	if n.Cell != nil {
		name = fmt.Sprintf("%s%s", n.Name, n.Cell)
	}
	b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{
		Name:        name,
		Mesh:        gltf.Index(mesh),
		Translation: n.Position.Array32(),
		Rotation:    quaternion(n.Rotation),
		Scale:       n.Scale.Array32(),
	})
	b.root.Children = append(b.root.Children, uint32(len(b.doc.Nodes)-1))
	return nil
}

func (b *builder) material(c palette.RGB) uint32 {
	if idx, ok := b.materials[c]; ok {
		return idx
	}
	color := c.Linear()
	pbr := &gltf.PBRMetallicRoughness{BaseColorFactor: &color, MetallicFactor: gltf.Float(0), RoughnessFactor: gltf.Float(1)}
	b.doc.Materials = append(b.doc.Materials, &gltf.Material{
		Name:                 c.String(),
		PBRMetallicRoughness: pbr,
		AlphaMode:            gltf.AlphaOpaque,
	})
	idx := uint32(len(b.doc.Materials) - 1)
	b.materials[c] = idx
	return idx
}

func (b *builder) addMesh(key, name string, positions, normals [][3]float32, indices []uint32, c palette.RGB) uint32 {
	if idx, ok := b.meshes[key]; ok {
		return idx
	}

	posAccessor := modeler.WritePosition(b.doc, positions)
	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: uint32(posAccessor),
		},
		Material: gltf.Index(b.material(c)),
	}
	if len(normals) == len(positions) {
		prim.Attributes[gltf.NORMAL] = uint32(modeler.WriteNormal(b.doc, normals))
	}
	if len(indices) > 0 {
		prim.Indices = gltf.Index(uint32(modeler.WriteIndices(b.doc, indices)))
	}

	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
	idx := uint32(len(b.doc.Meshes) - 1)
	b.meshes[key] = idx
	return idx
}

func (b *builder) boxMesh(g *scene.Geometry, c palette.RGB) uint32 {
	key := fmt.Sprintf("box:%g:%g:%g:%s", g.Width, g.Height, g.Depth, c)
	if idx, ok := b.meshes[key]; ok {
		return idx
	}
	positions, normals, indices := box(float32(g.Width), float32(g.Height), float32(g.Depth))
	return b.addMesh(key, "block", positions, normals, indices, c)
}

func (b *builder) assetMesh(g *scene.Geometry, c palette.RGB) (uint32, error) {
	if g.Mesh == nil || g.Mesh.VertexCount() == 0 {
		return 0, fmt.Errorf("mesh %q has no vertices", g.Source)
	}
	key := fmt.Sprintf("mesh:%s:%s", g.Source, c)
	if idx, ok := b.meshes[key]; ok {
		return idx, nil
	}
	return b.addMesh(key, g.Source, triples(g.Mesh.Positions), triples(g.Mesh.Normals), g.Mesh.Indices, c), nil
}

func triples(flat []float32) [][3]float32 {
	out := make([][3]float32, len(flat)/3)
	for i := range out {
		out[i] = [3]float32{flat[3*i], flat[3*i+1], flat[3*i+2]}
	}
	return out
}

// box геометрия параллелепипеда с центром в нуле, по 4 вершины на грань
func box(w, h, d float32) (positions, normals [][3]float32, indices []uint32) {
	x, y, z := w/2, h/2, d/2
	faces := []struct {
		n       [3]float32
		corners [4][3]float32
	}{
		{[3]float32{1, 0, 0}, [4][3]float32{{x, -y, z}, {x, -y, -z}, {x, y, -z}, {x, y, z}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-x, -y, -z}, {-x, -y, z}, {-x, y, z}, {-x, y, -z}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-x, y, z}, {x, y, z}, {x, y, -z}, {-x, y, -z}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-x, -y, -z}, {x, -y, -z}, {x, -y, z}, {-x, -y, z}}},
		{[3]float32{0, 0, 1}, [4][3]float32{{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{x, -y, -z}, {-x, -y, -z}, {-x, y, -z}, {x, y, -z}}},
	}
	for _, f := range faces {
		base := uint32(len(positions))
		for _, c := range f.corners {
			positions = append(positions, c)
			normals = append(normals, f.n)
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return positions, normals, indices
}

// quaternion Эйлер (порядок XYZ) -> кватернион glTF [x, y, z, w]
func quaternion(e scene.Euler) [4]float32 {
	s1, c1 := math.Sincos(e.X / 2)
	s2, c2 := math.Sincos(e.Y / 2)
	s3, c3 := math.Sincos(e.Z / 2)
	return [4]float32{
		float32(s1*c2*c3 + c1*s2*s3),
		float32(c1*s2*c3 - s1*c2*s3),
		float32(c1*c2*s3 + s1*s2*c3),
		float32(c1*c2*c3 - s1*s2*s3),
	}
}
