package compiler

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/monument/internal/assets"
	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/shapes"
)

// Result итог компиляции
type Result struct {
	Dimensions floorplan.Dimensions
	Objects    []shapes.Object // в порядке обхода
	Counts     map[string]int  // по имени вида ячейки
	Futures    []*assets.Future
	Duration   time.Duration
}

// Summary краткая сводка для событий и API
type Summary struct {
	Dimensions    floorplan.Dimensions `json:"dimensions"`
	Objects       int                  `json:"objects"`
	Counts        map[string]int       `json:"counts"`
	PendingMeshes int                  `json:"pendingMeshes"`
	DurationMs    float64              `json:"durationMs"`
}

// Summary возвращает сводку результата
func (r *Result) Summary() Summary {
	pending := 0
	for _, f := range r.Futures {
		select {
		case <-f.Done():
		default:
			pending++
		}
	}
	return Summary{
		Dimensions:    r.Dimensions,
		Objects:       len(r.Objects),
		Counts:        r.Counts,
		PendingMeshes: pending,
		DurationMs:    float64(r.Duration.Microseconds()) / 1000,
	}
}

// LoadReport итог загрузки мешей
type LoadReport struct {
	Loaded   int
	Failed   int
	Pending  int
	Failures map[string]string // ссылка -> ошибка
}

// Wait ждет загрузки всех мешей или отмены ctx. Сцена при этом не меняется:
// узлы добавляют колбэки объектов.
func (r *Result) Wait(ctx context.Context) LoadReport {
	report := LoadReport{Failures: make(map[string]string)}
	for _, f := range r.Futures {
		_, err := f.Wait(ctx)
		switch {
		case err == nil:
			report.Loaded++
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			report.Pending++
		default:
			report.Failed++
			report.Failures[f.Source()] = err.Error()
		}
	}
	return report
}
