// Package viewport владеет сценой, камерой, светом и управлением одного окна просмотра.
package viewport

import (
	"sync/atomic"

	"github.com/annel0/monument/internal/eventbus"
	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/layout"
	"github.com/annel0/monument/internal/monument"
	"github.com/annel0/monument/internal/scene"
	"github.com/annel0/monument/internal/vec"
)

// Глобальный свет
const (
	KeyLightIntensity = 12.0
	KeyLightDistance  = 1000.0
	AmbientIntensity  = 1.0
)

// Options параметры окна просмотра
type Options struct {
	Width  int
	Height int
	Bus    eventbus.EventBus // nil - без событий
}

// RenderContext явное состояние окна просмотра: сцена, камера и управление.
// Создается точкой входа и передается компилятору и циклу отрисовки.
type RenderContext struct {
	Settings   *monument.Settings
	Dimensions floorplan.Dimensions
	Scene      *scene.Scene
	Camera     *Camera
	Controls   *Controls

	compiled atomic.Bool
}

// NewRenderContext создает сцену с глобальным светом, камеру и управление
func NewRenderContext(settings *monument.Settings, dims floorplan.Dimensions, opts Options) *RenderContext {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}

	var sceneOpts []scene.Option
	if opts.Bus != nil {
		sceneOpts = append(sceneOpts, scene.WithEventBus(opts.Bus))
	}

	cam := NewCamera(settings.PerspectiveCamera, opts.Width, opts.Height)
	rc := &RenderContext{
		Settings:   settings,
		Dimensions: dims,
		Scene:      scene.New(settings.Background, sceneOpts...),
		Camera:     cam,
		Controls:   NewControls(cam, settings.AutoRotate, settings.RotationSpeed),
	}
	rc.addGlobalLights()
	return rc
}

// addGlobalLights ключевой точечный свет над монументом и рассеянный свет
func (rc *RenderContext) addGlobalLights() {
	height := layout.CellSize * float64(rc.Dimensions.Layers)

	rc.Scene.Add(&scene.Node{
		Name:     "global-light",
		Kind:     scene.KindLight,
		Position: vec.Vec3Float{X: 600, Y: -200, Z: 250 + height},
		Scale:    vec.Splat(1),
		Light: &scene.Light{
			Type:      scene.LightPoint,
			Color:     rc.Settings.GlobalLight,
			Intensity: KeyLightIntensity,
			Distance:  KeyLightDistance,
		},
		CastShadow: true,
	})
	rc.Scene.Add(&scene.Node{
		Name:  "ambient-light",
		Kind:  scene.KindLight,
		Scale: vec.Splat(1),
		Light: &scene.Light{Type: scene.LightAmbient, Color: rc.Settings.AmbientLight, Intensity: AmbientIntensity},
	})
}

// MarkCompiled отмечает, что сцена собрана. Возвращает false при повторном вызове.
func (rc *RenderContext) MarkCompiled() bool {
	return rc.compiled.CompareAndSwap(false, true)
}

// Compiled сообщает, собрана ли сцена
func (rc *RenderContext) Compiled() bool {
	return rc.compiled.Load()
}
