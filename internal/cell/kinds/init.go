// Package kinds регистрирует виды ячеек монумента.
package kinds

import "github.com/annel0/monument/internal/cell"

// Регистрируем все виды ячеек при импорте пакета
func init() {
	cell.Register(Block)
	cell.Register(Tile)
	cell.Register(Staircase)
	cell.Register(Firefly)
	cell.Register(Pillar)
}
