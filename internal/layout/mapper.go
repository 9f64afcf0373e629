// Package layout переводит индексы сетки в мировые координаты.
package layout

import (
	"errors"
	"fmt"

	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/vec"
)

// CellSize размер ячейки в мировых единицах.
// Должен оставаться 20: под этот масштаб экспортированы внешние меши.
const CellSize = 20.0

// ErrOutOfRange индекс вне сетки
var ErrOutOfRange = errors.New("layout: cell index out of range")

// Mapper чистая функция (слой, ряд, колонка) -> мировая позиция.
//
// Z растет со слоем начиная с -squareSize-offset (+S до размещения первого слоя).
// X и Y начинаются с половины размера и уменьшаются на S за шаг обхода;
// индекс хранения i посещается на шаге count-1-i, поэтому X растет с индексом колонки.
type Mapper struct {
	dims          floorplan.Dimensions
	cellSize      float64
	offset        float64
	layersTopDown bool

	// squareSize = S * колонки; для квадратных слоев совпадает с S * ряды
	squareSize float64
	halfX      float64
	halfY      float64
}

// NewMapper создает маппер для сетки dims
func NewMapper(dims floorplan.Dimensions, cellSize, offset float64, layersTopDown bool) (*Mapper, error) {
	if dims.Layers < 1 || dims.Rows < 1 || dims.Columns < 1 {
		return nil, fmt.Errorf("layout: invalid dimensions %+v", dims)
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("layout: cell size must be positive, got %v", cellSize)
	}

	return &Mapper{
		dims:          dims,
		cellSize:      cellSize,
		offset:        offset,
		layersTopDown: layersTopDown,
		squareSize:    cellSize * float64(dims.Columns),
		halfX:         cellSize * float64(dims.Columns) / 2,
		halfY:         cellSize * float64(dims.Rows) / 2,
	}, nil
}

// Dimensions размеры сетки маппера
func (m *Mapper) Dimensions() floorplan.Dimensions {
	return m.dims
}

// CellSize размер ячейки маппера
func (m *Mapper) CellSize() float64 {
	return m.cellSize
}

// Height высота монумента в мировых единицах
func (m *Mapper) Height() float64 {
	return m.cellSize * float64(m.dims.Layers)
}

// Position возвращает мировую позицию ячейки
func (m *Mapper) Position(layer, row, col int) (vec.Vec3Float, error) {
	if !m.dims.Contains(floorplan.Index{Layer: layer, Row: row, Col: col}) {
		return vec.Vec3Float{}, fmt.Errorf("%w: (%d,%d,%d) in %dx%dx%d",
			ErrOutOfRange, layer, row, col, m.dims.Layers, m.dims.Rows, m.dims.Columns)
	}
	return m.position(layer, row, col), nil
}

// MustPosition как Position, но паникует вне сетки
func (m *Mapper) MustPosition(idx floorplan.Index) vec.Vec3Float {
	p, err := m.Position(idx.Layer, idx.Row, idx.Col)
	if err != nil {
		panic(err)
	}
	return p
}

func (m *Mapper) position(layer, row, col int) vec.Vec3Float {
	layerSlot := layer
	if m.layersTopDown {
		layerSlot = m.dims.Layers - 1 - layer
	}
	colSlot := m.dims.Columns - 1 - col
	rowSlot := m.dims.Rows - 1 - row

	return vec.Vec3Float{
		X: m.halfX - float64(colSlot+1)*m.cellSize,
		Y: m.halfY - float64(rowSlot+1)*m.cellSize,
		Z: -m.squareSize - m.offset + float64(layerSlot+1)*m.cellSize,
	}
}
