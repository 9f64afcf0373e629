// Package scene содержит граф сцены: узлы, геометрию, материалы и свет.
package scene

import (
	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/palette"
	"github.com/annel0/monument/internal/vec"
)

// Виды узлов
const (
	KindBlock = "block"
	KindMesh  = "mesh"
	KindLight = "light"
	KindBulb  = "bulb"
)

// Euler поворот в радианах (порядок XYZ)
type Euler struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GeometryType тип геометрии
type GeometryType string

const (
	GeometryBox  GeometryType = "box"
	GeometryRing GeometryType = "ring"
	GeometryMesh GeometryType = "mesh"
)

// Geometry описание формы узла
type Geometry struct {
	Type GeometryType `json:"type"`

	// box
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Depth  float64 `json:"depth,omitempty"`

	// ring
	InnerRadius float64 `json:"innerRadius,omitempty"`
	OuterRadius float64 `json:"outerRadius,omitempty"`
	Segments    int     `json:"segments,omitempty"`

	// mesh
	Source string `json:"source,omitempty"`
	Mesh   *Mesh  `json:"mesh,omitempty"`
}

// Mesh треугольный меш внешнего ассета
type Mesh struct {
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals,omitempty"`
	Indices   []uint32  `json:"indices"`
}

// VertexCount число вершин меша
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// MaterialType тип материала
type MaterialType string

const (
	MaterialLambert MaterialType = "lambert"
	MaterialBasic   MaterialType = "basic"
)

// Material плоский материал цвета
type Material struct {
	Type  MaterialType `json:"type"`
	Color palette.RGB  `json:"color"`
}

// LightType тип источника света
type LightType string

const (
	LightPoint   LightType = "point"
	LightAmbient LightType = "ambient"
)

// Light источник света
type Light struct {
	Type      LightType   `json:"type"`
	Color     palette.RGB `json:"color"`
	Intensity float64     `json:"intensity"`
	Distance  float64     `json:"distance,omitempty"`
}

// Node узел графа сцены. После добавления в Scene не изменяется.
type Node struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Kind       string           `json:"kind"`
	Position   vec.Vec3Float    `json:"position"`
	Rotation   Euler            `json:"rotation"`
	Scale      vec.Vec3Float    `json:"scale"`
	Geometry   *Geometry        `json:"geometry,omitempty"`
	Material   *Material        `json:"material,omitempty"`
	Light      *Light           `json:"light,omitempty"`
	CastShadow bool             `json:"castShadow,omitempty"`
	Children   []*Node          `json:"children,omitempty"`
	Cell       *floorplan.Index `json:"cell,omitempty"` // ячейка-источник, если есть
}
