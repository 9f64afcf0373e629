package viewport

import (
	"github.com/annel0/monument/internal/vec"
)

// Projection тип проекции камеры
type Projection string

const (
	Perspective  Projection = "perspective"
	Orthographic Projection = "orthographic"
)

// Параметры камер
const (
	PerspectiveFov  = 25.0
	PerspectiveNear = 1.0
	PerspectiveFar  = 10000.0
	OrthoNear       = -1000.0
	OrthoFar        = 5000.0
)

var (
	perspectivePosition = vec.Vec3Float{X: 800, Y: -800, Z: 800}
	orthoPosition       = vec.Vec3Float{X: 20, Y: -20, Z: 20}
	// Up вертикаль мира: слои растут вдоль +Z
	Up = vec.Vec3Float{Z: 1}
)

// Camera состояние камеры. Изменяется только через Controls.
type Camera struct {
	Projection Projection    `json:"projection"`
	Position   vec.Vec3Float `json:"position"`
	Up         vec.Vec3Float `json:"up"`
	Zoom       float64       `json:"zoom"`

	// перспективная
	Fov    float64 `json:"fov,omitempty"`
	Aspect float64 `json:"aspect,omitempty"`

	// ортографическая
	Left   float64 `json:"left,omitempty"`
	Right  float64 `json:"right,omitempty"`
	Top    float64 `json:"top,omitempty"`
	Bottom float64 `json:"bottom,omitempty"`

	Near float64 `json:"near"`
	Far  float64 `json:"far"`
}

// NewCamera создает камеру для окна width x height
func NewCamera(perspective bool, width, height int) *Camera {
	c := &Camera{Up: Up, Zoom: 1}
	if perspective {
		c.Projection = Perspective
		c.Fov = PerspectiveFov
		c.Near = PerspectiveNear
		c.Far = PerspectiveFar
		c.Position = perspectivePosition
	} else {
		c.Projection = Orthographic
		c.Near = OrthoNear
		c.Far = OrthoFar
		c.Position = orthoPosition
	}
	c.resize(width, height)
	return c
}

// resize обновляет aspect или ортографическую пирамиду
func (c *Camera) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	w, h := float64(width), float64(height)
	c.Aspect = w / h
	if c.Projection == Orthographic {
		c.Left, c.Right = -w/2, w/2
		c.Top, c.Bottom = h/2, -h/2
	}
}
