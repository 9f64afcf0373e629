package floorplan

import "fmt"

// Dimension имя измерения сетки в ошибках
type Dimension string

const (
	DimLayers  Dimension = "layers"
	DimRows    Dimension = "rows"
	DimColumns Dimension = "columns"
)

// MalformedError сетка не прямоугольна или пуста.
// Layer и Row равны -1, когда не относятся к ошибке.
type MalformedError struct {
	Dimension Dimension
	Layer     int
	Row       int
	Expected  int
	Got       int
}

func (e *MalformedError) Error() string {
	switch {
	case e.Layer < 0:
		return fmt.Sprintf("malformed floorplan: %s: expected at least %d, got %d", e.Dimension, e.Expected, e.Got)
	case e.Row < 0:
		return fmt.Sprintf("malformed floorplan: %s mismatch in layer %d: expected %d, got %d", e.Dimension, e.Layer, e.Expected, e.Got)
	default:
		return fmt.Sprintf("malformed floorplan: %s mismatch in layer %d row %d: expected %d, got %d", e.Dimension, e.Layer, e.Row, e.Expected, e.Got)
	}
}
