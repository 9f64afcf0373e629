package kinds

import (
	"github.com/annel0/monument/internal/cell"
	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/monument"
)

// Ссылки на внешние меши
const (
	TileSource   = "tail1"
	StairsSource = "stairs1"
	PillarSource = "pillar1"
)

// StairsYaw поворот лестницы (около 5π/2)
const StairsYaw = 7.855

// Tile плитка
var Tile = cell.Kind{
	Code:     floorplan.Tile,
	Name:     "tile",
	Shape:    cell.ShapeMeshProp,
	ColorKey: monument.ColorTale,
	Source:   TileSource,
	Scale:    1,
}

// Staircase лестница
var Staircase = cell.Kind{
	Code:     floorplan.Staircase,
	Name:     "staircase",
	Shape:    cell.ShapeMeshProp,
	ColorKey: monument.ColorStairs,
	Source:   StairsSource,
	Scale:    1,
	Yaw:      StairsYaw,
}

// Pillar колонна
var Pillar = cell.Kind{
	Code:     floorplan.Pillar,
	Name:     "pillar",
	Shape:    cell.ShapeMeshProp,
	ColorKey: monument.ColorPillar,
	Source:   PillarSource,
	Scale:    1,
}

// Firefly точечный свет с кольцом-"лампой"; радиус кольца из pointLightScale
var Firefly = cell.Kind{
	Code:     floorplan.Firefly,
	Name:     "firefly",
	Shape:    cell.ShapeLightProp,
	ColorKey: monument.ColorPointLight,
	SizeKey:  "pointLightScale",
	Scale:    1,
}
