// Package cell классифицирует коды ячеек: код -> вид объекта и его статические параметры.
package cell

import (
	"fmt"

	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/monument"
	"github.com/annel0/monument/internal/palette"
)

// Shape вид объекта сцены
type Shape int

const (
	ShapeBlock Shape = iota + 1
	ShapeMeshProp
	ShapeLightProp
)

func (s Shape) String() string {
	switch s {
	case ShapeBlock:
		return "block"
	case ShapeMeshProp:
		return "mesh"
	case ShapeLightProp:
		return "light"
	default:
		return "unknown"
	}
}

// Kind статическое описание вида ячейки.
// Цвет и, для света, размер берутся из настроек по ключам.
type Kind struct {
	Code     floorplan.CellCode
	Name     string
	Shape    Shape
	ColorKey string
	Source   string  // ссылка на внешний меш (только ShapeMeshProp)
	Scale    float64 // равномерный масштаб меша
	Yaw      float64 // поворот в радианах
	Size     float64 // фиксированный размер
	SizeKey  string  // ключ настроек для размера, если не пуст
}

// Spec вид ячейки с подставленными значениями из настроек
type Spec struct {
	Code   floorplan.CellCode
	Name   string
	Shape  Shape
	Color  palette.RGB
	Source string
	Scale  float64
	Yaw    float64
	Size   float64
}

// UnknownCodeError код ячейки не зарегистрирован
type UnknownCodeError struct {
	Code floorplan.CellCode
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown cell code %d", e.Code)
}

// Classifier связывает регистр видов с настройками монумента
type Classifier struct {
	settings *monument.Settings
}

// NewClassifier создает классификатор
func NewClassifier(settings *monument.Settings) *Classifier {
	return &Classifier{settings: settings}
}

// Classify возвращает описание объекта для кода.
// Пустая ячейка дает nil, nil; незарегистрированный код - *UnknownCodeError.
func (c *Classifier) Classify(code floorplan.CellCode) (*Spec, error) {
	if code == floorplan.Empty {
		return nil, nil
	}

	kind, ok := Get(code)
	if !ok {
		return nil, &UnknownCodeError{Code: code}
	}

	color, err := c.settings.Color(kind.ColorKey)
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", kind.Name, err)
	}

	size := kind.Size
	if kind.SizeKey != "" {
		size, err = c.settings.Number(kind.SizeKey)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", kind.Name, err)
		}
	}

	return &Spec{
		Code:   kind.Code,
		Name:   kind.Name,
		Shape:  kind.Shape,
		Color:  color,
		Source: kind.Source,
		Scale:  kind.Scale,
		Yaw:    kind.Yaw,
		Size:   size,
	}, nil
}
