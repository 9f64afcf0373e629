// Package compiler превращает планировку монумента в объекты сцены.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/monument/internal/assets"
	"github.com/annel0/monument/internal/cell"
	_ "github.com/annel0/monument/internal/cell/kinds"
	"github.com/annel0/monument/internal/eventbus"
	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/layout"
	"github.com/annel0/monument/internal/logging"
	"github.com/annel0/monument/internal/monument"
	"github.com/annel0/monument/internal/shapes"
	"github.com/annel0/monument/internal/viewport"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Compiler обходит планировку и материализует объект для каждой непустой ячейки
type Compiler struct {
	loader  assets.Loader
	clock   shapes.Clock
	metrics *compilerMetrics
	tracer  trace.Tracer
}

// Option настройка компилятора
type Option func(*Compiler)

// WithClock часы для смещения света (тесты)
func WithClock(clock shapes.Clock) Option {
	return func(c *Compiler) { c.clock = clock }
}

// WithRegisterer регистрирует метрики компилятора в reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Compiler) { c.metrics = newCompilerMetrics(reg) }
}

// New создает компилятор. loader загружает меши плиток, лестниц и колонн.
func New(loader assets.Loader, opts ...Option) *Compiler {
	c := &Compiler{
		loader: loader,
		clock:  time.Now,
		tracer: otel.Tracer("github.com/annel0/monument/internal/compiler"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = newCompilerMetrics(nil)
	}
	return c
}

// Plan проверяет документ и строит объекты, не трогая сцену.
// Ошибка формы сетки - *floorplan.MalformedError, неизвестные коды - *ClassificationError.
func (c *Compiler) Plan(doc *monument.Document) ([]shapes.Object, floorplan.Dimensions, error) {
	dims, err := doc.Floorplan.Validate()
	if err != nil {
		return nil, dims, err
	}

	mapper, err := layout.NewMapper(dims, layout.CellSize, doc.Settings.OffsetY, doc.Settings.LayersTopDown)
	if err != nil {
		return nil, dims, err
	}
	classifier := cell.NewClassifier(&doc.Settings)

	var (
		objects  []shapes.Object
		unknown  []CellError
		firstErr error
	)
	doc.Floorplan.Walk(func(idx floorplan.Index, code floorplan.CellCode) bool {
		spec, err := classifier.Classify(code)
		if err != nil {
			var uc *cell.UnknownCodeError
			if errors.As(err, &uc) {
				unknown = append(unknown, CellError{Index: idx, Code: code})
				return true
			}
			firstErr = fmt.Errorf("cell %s: %w", idx, err)
			return false
		}
		if spec == nil || len(unknown) > 0 {
			// после первой неизвестной ячейки только собираем остальные
			return true
		}

		obj, err := shapes.New(spec, idx, mapper.MustPosition(idx), c.loader, c.clock)
		if err != nil {
			firstErr = err
			return false
		}
		objects = append(objects, obj)
		return true
	})

	if firstErr != nil {
		return nil, dims, firstErr
	}
	if len(unknown) > 0 {
		return nil, dims, &ClassificationError{Cells: unknown}
	}
	return objects, dims, nil
}

// Compile собирает сцену rc из документа. Вызывается один раз на RenderContext.
//
// Сначала проверяется вся планировка; при любой ошибке сцена не меняется.
// Затем объекты материализуются в порядке обхода. Меши загружаются асинхронно:
// Compile их не ждет, Result.Wait позволяет дождаться при необходимости.
func (c *Compiler) Compile(ctx context.Context, rc *viewport.RenderContext, doc *monument.Document) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "monument.compile")
	defer span.End()

	result, err := c.compile(ctx, rc, doc)
	if err != nil {
		c.metrics.failures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("monument.layers", result.Dimensions.Layers),
		attribute.Int("monument.rows", result.Dimensions.Rows),
		attribute.Int("monument.columns", result.Dimensions.Columns),
		attribute.Int("monument.objects", len(result.Objects)),
	)
	return result, nil
}

func (c *Compiler) compile(ctx context.Context, rc *viewport.RenderContext, doc *monument.Document) (*Result, error) {
	if rc.Compiled() {
		return nil, ErrAlreadyCompiled
	}

	start := time.Now()
	objects, dims, err := c.Plan(doc)
	if err != nil {
		return nil, err
	}
	if dims != rc.Dimensions {
		return nil, fmt.Errorf("compiler: floorplan %dx%dx%d does not match render context %dx%dx%d",
			dims.Layers, dims.Rows, dims.Columns,
			rc.Dimensions.Layers, rc.Dimensions.Rows, rc.Dimensions.Columns)
	}
	if !rc.MarkCompiled() {
		return nil, ErrAlreadyCompiled
	}

	result := &Result{
		Dimensions: dims,
		Objects:    objects,
		Counts:     make(map[string]int),
	}
	for _, obj := range objects {
		obj.Materialize(ctx, rc.Scene)

		idx, pos := obj.Cell(), obj.Position()
		logging.LogCellPlacement(obj.Name(), idx.Layer, idx.Row, idx.Col, pos.X, pos.Y, pos.Z)
		result.Counts[obj.Name()]++
		c.metrics.objects.WithLabelValues(obj.Name()).Inc()

		if mp, ok := obj.(*shapes.MeshProp); ok {
			result.Futures = append(result.Futures, mp.Future())
		}
	}
	result.Duration = time.Since(start)
	c.metrics.duration.Observe(result.Duration.Seconds())

	rc.Scene.Publish(eventbus.EventCompiled, result.Summary())
	logging.Info("🏛️ Монумент собран: %dx%dx%d, объектов %d (мешей в загрузке %d) за %v",
		dims.Layers, dims.Rows, dims.Columns, len(objects), len(result.Futures), result.Duration)
	return result, nil
}
