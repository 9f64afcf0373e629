package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/annel0/monument/internal/cell"
	"github.com/annel0/monument/internal/floorplan"
)

// ErrAlreadyCompiled сцена этого RenderContext уже собрана
var ErrAlreadyCompiled = errors.New("compiler: render context already compiled")

// maxListedCells сколько ячеек перечислять в тексте ошибки
const maxListedCells = 10

// CellError неизвестный код в конкретной ячейке
type CellError struct {
	Index floorplan.Index
	Code  floorplan.CellCode
}

// ClassificationError все ячейки с неизвестными кодами
type ClassificationError struct {
	Cells []CellError
}

func (e *ClassificationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "compiler: %d cell(s) with unknown codes:", len(e.Cells))
	for i, c := range e.Cells {
		if i == maxListedCells {
			fmt.Fprintf(&b, " … and %d more", len(e.Cells)-maxListedCells)
			break
		}
		fmt.Fprintf(&b, " %s=%d", c.Index, c.Code)
	}
	return b.String()
}

// Unwrap позволяет errors.As находить *cell.UnknownCodeError
func (e *ClassificationError) Unwrap() []error {
	errs := make([]error, len(e.Cells))
	for i, c := range e.Cells {
		errs[i] = &cell.UnknownCodeError{Code: c.Code}
	}
	return errs
}
