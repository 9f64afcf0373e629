package viewport

import (
	"math"
	"sync"

	"github.com/annel0/monument/internal/vec"
)

// Параметры орбитального управления
const (
	PolarAngle    = math.Pi/2 - 0.5 // наклон камеры фиксирован
	ZoomSpeed     = 0.3
	MinZoom       = 0.5
	MaxZoom       = 2.5
	DampingFactor = 0.15
	// autoRotateStep поворот за кадр при скорости 1 (полный оборот за 60 с при 60 FPS)
	autoRotateStep = 2 * math.Pi / 60 / 60
	// maxAzimuthDelta предел накопленного поворота (один оборот)
	maxAzimuthDelta = 2 * math.Pi
)

// Frame состояние камеры после одного шага управления
type Frame struct {
	Seq    uint64        `json:"seq"`
	Camera Camera        `json:"camera"`
	Target vec.Vec3Float `json:"target"`
}

// Controls орбитальное управление камерой вокруг target (центра монумента).
// Методы безопасны для вызова из разных горутин.
type Controls struct {
	mu     sync.Mutex
	camera *Camera
	target vec.Vec3Float

	azimuth float64
	radius  float64

	azimuthDelta  float64
	autoRotate    bool
	rotationSpeed float64

	seq uint64
}

// NewControls создает управление для камеры
func NewControls(camera *Camera, autoRotate bool, rotationSpeed float64) *Controls {
	offset := camera.Position
	c := &Controls{
		camera:        camera,
		azimuth:       math.Atan2(offset.Y, offset.X),
		radius:        offset.Length(),
		autoRotate:    autoRotate,
		rotationSpeed: rotationSpeed,
	}
	c.applyPosition()
	return c
}

// Update продвигает управление на один кадр и возвращает состояние камеры
func (c *Controls) Update() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.autoRotate {
		c.azimuthDelta -= autoRotateStep * c.rotationSpeed
	}
	c.azimuth += c.azimuthDelta * DampingFactor
	c.azimuthDelta *= 1 - DampingFactor
	c.azimuth = math.Mod(c.azimuth, 2*math.Pi)

	c.applyPosition()
	c.seq++
	return c.frameLocked()
}

// Frame текущее состояние без шага
func (c *Controls) Frame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameLocked()
}

func (c *Controls) frameLocked() Frame {
	return Frame{Seq: c.seq, Camera: *c.camera, Target: c.target}
}

// Rotate поворачивает камеру вокруг вертикали на delta радиан (с затуханием).
// Накопленный поворот не превышает одного оборота; NaN и Inf игнорируются.
func (c *Controls) Rotate(delta float64) {
	if !isFinite(delta) {
		return
	}
	c.mu.Lock()
	c.azimuthDelta = clamp(c.azimuthDelta+clamp(delta, -maxAzimuthDelta, maxAzimuthDelta), -maxAzimuthDelta, maxAzimuthDelta)
	c.mu.Unlock()
}

// Zoom приближает (steps > 0) или отдаляет камеру; зум ограничен [MinZoom, MaxZoom]
func (c *Controls) Zoom(steps float64) float64 {
	scale := math.Pow(0.95, ZoomSpeed)
	c.mu.Lock()
	defer c.mu.Unlock()
	if isFinite(steps) {
		c.camera.Zoom = clamp(c.camera.Zoom/math.Pow(scale, steps), MinZoom, MaxZoom)
	}
	return c.camera.Zoom
}

// Resize пересчитывает проекцию под новый размер окна
func (c *Controls) Resize(width, height int) {
	c.mu.Lock()
	c.camera.resize(width, height)
	c.mu.Unlock()
}

// applyPosition ставит камеру на сферу радиуса radius с фиксированным наклоном
func (c *Controls) applyPosition() {
	sinP, cosP := math.Sincos(PolarAngle)
	sinA, cosA := math.Sincos(c.azimuth)
	dir := vec.Vec3Float{X: sinP * cosA, Y: sinP * sinA, Z: cosP}
	c.camera.Position = c.target.Add(dir.Mul(c.radius))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
