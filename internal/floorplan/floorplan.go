package floorplan

import (
	"fmt"
)

// CellCode тег содержимого одной ячейки сетки
type CellCode int

// Коды ячеек
const (
	Empty     CellCode = iota // 0 - пустота
	Block                     // 1 - сплошной блок
	Tile                      // 2 - плитка
	Staircase                 // 3 - лестница
	Firefly                   // 4 - светлячок (точечный свет)
	Pillar                    // 5 - колонна
)

// Floorplan трехмерная сетка [слой][ряд][колонка]
type Floorplan [][][]CellCode

// Dimensions размеры сетки
type Dimensions struct {
	Layers  int `json:"layers"`
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// Index адрес ячейки в порядке хранения
type Index struct {
	Layer int `json:"layer"`
	Row   int `json:"row"`
	Col   int `json:"col"`
}

func (i Index) String() string {
	return fmt.Sprintf("(%d,%d,%d)", i.Layer, i.Row, i.Col)
}

// Cells количество ячеек в сетке
func (d Dimensions) Cells() int {
	return d.Layers * d.Rows * d.Columns
}

// Square сообщает, совпадают ли число рядов и колонок
func (d Dimensions) Square() bool {
	return d.Rows == d.Columns
}

// Contains проверяет, что индекс лежит внутри сетки
func (d Dimensions) Contains(i Index) bool {
	return i.Layer >= 0 && i.Layer < d.Layers &&
		i.Row >= 0 && i.Row < d.Rows &&
		i.Col >= 0 && i.Col < d.Columns
}

// Validate проверяет прямоугольность сетки и возвращает ее размеры.
// Первое найденное несоответствие возвращается как *MalformedError.
func (f Floorplan) Validate() (Dimensions, error) {
	if len(f) == 0 {
		return Dimensions{}, &MalformedError{Dimension: DimLayers, Layer: -1, Row: -1, Expected: 1, Got: 0}
	}

	rows := len(f[0])
	if rows == 0 {
		return Dimensions{}, &MalformedError{Dimension: DimRows, Layer: 0, Row: -1, Expected: 1, Got: 0}
	}
	cols := len(f[0][0])
	if cols == 0 {
		return Dimensions{}, &MalformedError{Dimension: DimColumns, Layer: 0, Row: 0, Expected: 1, Got: 0}
	}

	for l, layer := range f {
		if len(layer) != rows {
			return Dimensions{}, &MalformedError{Dimension: DimRows, Layer: l, Row: -1, Expected: rows, Got: len(layer)}
		}
		for r, row := range layer {
			if len(row) != cols {
				return Dimensions{}, &MalformedError{Dimension: DimColumns, Layer: l, Row: r, Expected: cols, Got: len(row)}
			}
		}
	}

	return Dimensions{Layers: len(f), Rows: rows, Columns: cols}, nil
}

// At возвращает код ячейки. Индекс должен лежать внутри сетки.
func (f Floorplan) At(i Index) CellCode {
	return f[i.Layer][i.Row][i.Col]
}

// CountNonEmpty считает ячейки с ненулевым кодом
func (f Floorplan) CountNonEmpty() int {
	n := 0
	for _, layer := range f {
		for _, row := range layer {
			for _, code := range row {
				if code != Empty {
					n++
				}
			}
		}
	}
	return n
}

// Histogram считает количество ячеек каждого кода
func (f Floorplan) Histogram() map[CellCode]int {
	h := make(map[CellCode]int)
	for _, layer := range f {
		for _, row := range layer {
			for _, code := range row {
				h[code]++
			}
		}
	}
	return h
}

// Walk обходит сетку в порядке компиляции: слои, затем ряды, затем колонки,
// все по возрастанию индекса хранения. fn возвращает false, чтобы остановить обход.
func (f Floorplan) Walk(fn func(idx Index, code CellCode) bool) {
	for l, layer := range f {
		for r, row := range layer {
			for c, code := range row {
				if !fn(Index{Layer: l, Row: r, Col: c}, code) {
					return
				}
			}
		}
	}
}
