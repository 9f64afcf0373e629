package kinds

import (
	"github.com/annel0/monument/internal/cell"
	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/layout"
	"github.com/annel0/monument/internal/monument"
)

// BlockYaw небольшой поворот куба вокруг вертикали
const BlockYaw = 0.04

// Block сплошной куб размером с ячейку
var Block = cell.Kind{
	Code:     floorplan.Block,
	Name:     "block",
	Shape:    cell.ShapeBlock,
	ColorKey: monument.ColorCube,
	Yaw:      BlockYaw,
	Size:     layout.CellSize,
	Scale:    1,
}
