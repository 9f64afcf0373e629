package compiler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/annel0/monument/internal/assets"
	"github.com/annel0/monument/internal/cell"
	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/monument"
	"github.com/annel0/monument/internal/palette"
	"github.com/annel0/monument/internal/scene"
	"github.com/annel0/monument/internal/shapes"
	"github.com/annel0/monument/internal/vec"
	"github.com/annel0/monument/internal/viewport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const globalNodes = 2 // ключевой и рассеянный свет

var fixedClock = func() time.Time { return time.UnixMilli(0) }

func settings(offset float64) monument.Settings {
	return monument.Settings{
		OffsetY:         offset,
		Background:      palette.RGB{},
		GlobalLight:     palette.RGB{R: 255, G: 255, B: 255},
		AmbientLight:    palette.RGB{B: 32},
		Cube:            palette.RGB{R: 107, G: 126, B: 127},
		Tale:            palette.RGB{R: 81, G: 91, B: 95},
		Stairs:          palette.RGB{R: 107, G: 126, B: 127},
		PointLight:      palette.RGB{R: 255, G: 255, B: 255},
		PointLightScale: 2,
		Pillar:          palette.RGB{R: 107, G: 126, B: 127},
	}
}

// stubLoader отдает меш сразу или ошибку для ссылок из failing
type stubLoader struct {
	mu      sync.Mutex
	failing map[string]bool
	calls   []string
}

func (s *stubLoader) Load(ctx context.Context, source string) *assets.Future {
	s.mu.Lock()
	s.calls = append(s.calls, source)
	fail := s.failing[source]
	s.mu.Unlock()
	if fail {
		return assets.Resolved(source, nil, errors.New("asset unreachable"))
	}
	return assets.Resolved(source, &scene.Mesh{Positions: []float32{0, 0, 0}, Indices: []uint32{0}}, nil)
}

func newContext(t *testing.T, doc *monument.Document) *viewport.RenderContext {
	t.Helper()
	dims, err := doc.Floorplan.Validate()
	if err != nil {
		// для некорректной сетки берем размеры первого слоя
		dims = floorplan.Dimensions{Layers: 1, Rows: 1, Columns: 1}
	}
	return viewport.NewRenderContext(&doc.Settings, dims, viewport.Options{})
}

func compileDoc(t *testing.T, doc *monument.Document, loader assets.Loader) (*viewport.RenderContext, *Result) {
	t.Helper()
	rc := newContext(t, doc)
	res, err := New(loader, WithClock(fixedClock)).Compile(context.Background(), rc, doc)
	require.NoError(t, err)
	return rc, res
}

func cellNodes(rc *viewport.RenderContext) []*scene.Node {
	var out []*scene.Node
	for _, n := range rc.Scene.Nodes() {
		if n.Cell != nil {
			out = append(out, n)
		}
	}
	return out
}

func TestScenarioSingleBlock(t *testing.T) {
	for _, offset := range []float64{0, -30, 12.5} {
		doc := &monument.Document{Settings: settings(offset), Floorplan: floorplan.Floorplan{{{floorplan.Block}}}}
		rc, res := compileDoc(t, doc, &stubLoader{})

		nodes := cellNodes(rc)
		require.Len(t, nodes, 1)
		assert.Equal(t, scene.KindBlock, nodes[0].Kind)
		assert.True(t, nodes[0].Position.ApproxEquals(vec.Vec3Float{X: -10, Y: -10, Z: -offset}, 1e-9),
			"offset %v: %+v", offset, nodes[0].Position)
		assert.Equal(t, map[string]int{"block": 1}, res.Counts)
	}
}

func TestScenarioLightNextToEmpty(t *testing.T) {
	doc := &monument.Document{
		Settings:  settings(0),
		Floorplan: floorplan.Floorplan{{{floorplan.Firefly, floorplan.Empty}}},
	}
	loader := &stubLoader{}
	rc, res := compileDoc(t, doc, loader)

	require.Len(t, res.Objects, 1)
	assert.Equal(t, cell.ShapeLightProp, res.Objects[0].Shape())
	assert.Equal(t, map[string]int{"firefly": 1}, res.Counts)
	assert.Empty(t, loader.calls)

	nodes := cellNodes(rc)
	require.Len(t, nodes, 1)
	assert.Equal(t, scene.KindLight, nodes[0].Kind)
}

func TestScenarioRaggedLayersLeaveSceneUntouched(t *testing.T) {
	doc := &monument.Document{
		Settings: settings(0),
		Floorplan: floorplan.Floorplan{
			{{1, 1}, {1, 1}, {1, 1}},
			{{1, 1}, {1, 1}},
		},
	}
	rc := viewport.NewRenderContext(&doc.Settings, floorplan.Dimensions{Layers: 2, Rows: 3, Columns: 2}, viewport.Options{})
	before := rc.Scene.Len()

	_, err := New(&stubLoader{}).Compile(context.Background(), rc, doc)
	require.Error(t, err)

	var malformed *floorplan.MalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, floorplan.DimRows, malformed.Dimension)
	assert.Equal(t, 1, malformed.Layer)
	assert.Equal(t, 3, malformed.Expected)
	assert.Equal(t, 2, malformed.Got)

	assert.Equal(t, before, rc.Scene.Len())
	assert.False(t, rc.Compiled())
}

func TestUnknownCodesAggregated(t *testing.T) {
	doc := &monument.Document{
		Settings:  settings(0),
		Floorplan: floorplan.Floorplan{{{1, 9}, {7, 2}}, {{0, 1}, {1, -3}}},
	}
	rc := newContext(t, doc)
	loader := &stubLoader{}

	_, err := New(loader).Compile(context.Background(), rc, doc)
	require.Error(t, err)

	var ce *ClassificationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []CellError{
		{Index: floorplan.Index{Layer: 0, Row: 0, Col: 1}, Code: 9},
		{Index: floorplan.Index{Layer: 0, Row: 1, Col: 0}, Code: 7},
		{Index: floorplan.Index{Layer: 1, Row: 1, Col: 1}, Code: -3},
	}, ce.Cells)
	assert.Contains(t, err.Error(), "(0,0,1)=9")

	var uc *cell.UnknownCodeError
	assert.True(t, errors.As(err, &uc))

	assert.Equal(t, globalNodes, rc.Scene.Len())
	assert.Empty(t, loader.calls)
}

func TestCompletenessMatchesNonEmptyCells(t *testing.T) {
	fp := floorplan.Floorplan{
		{{1, 2, 0}, {3, 4, 5}, {0, 0, 1}},
		{{0, 1, 0}, {5, 0, 2}, {4, 0, 0}},
	}
	doc := &monument.Document{Settings: settings(-10), Floorplan: fp}
	rc, res := compileDoc(t, doc, &stubLoader{})

	assert.Len(t, res.Objects, fp.CountNonEmpty())
	assert.Len(t, cellNodes(rc), fp.CountNonEmpty())
	assert.Equal(t, map[string]int{"block": 3, "tile": 2, "staircase": 1, "firefly": 2, "pillar": 2}, res.Counts)
	assert.Len(t, res.Futures, 5)
}

func TestAssetFailureIsIsolated(t *testing.T) {
	fp := floorplan.Floorplan{{{1, 2, 3}, {4, 5, 3}}}
	doc := &monument.Document{Settings: settings(0), Floorplan: fp}
	loader := &stubLoader{failing: map[string]bool{"stairs1": true}}
	rc, res := compileDoc(t, doc, loader)

	// все объекты построены, включая те, чей меш не загрузился
	assert.Len(t, res.Objects, 6)

	kinds := map[string]int{}
	for _, n := range cellNodes(rc) {
		kinds[n.Name]++
	}
	assert.Equal(t, map[string]int{"block": 1, "tile": 1, "firefly": 1, "pillar": 1}, kinds)
	assert.Len(t, rc.Scene.Failures(), 2)

	report := res.Wait(context.Background())
	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 2, report.Failed)
	assert.Contains(t, report.Failures, "stairs1")
}

func TestCompileOncePerContext(t *testing.T) {
	doc := &monument.Document{Settings: settings(0), Floorplan: floorplan.Floorplan{{{1}}}}
	rc := newContext(t, doc)
	c := New(&stubLoader{})

	_, err := c.Compile(context.Background(), rc, doc)
	require.NoError(t, err)
	_, err = c.Compile(context.Background(), rc, doc)
	assert.ErrorIs(t, err, ErrAlreadyCompiled)
	assert.Equal(t, globalNodes+1, rc.Scene.Len())
}

func TestDimensionMismatch(t *testing.T) {
	doc := &monument.Document{Settings: settings(0), Floorplan: floorplan.Floorplan{{{1, 1}}}}
	rc := viewport.NewRenderContext(&doc.Settings, floorplan.Dimensions{Layers: 1, Rows: 1, Columns: 1}, viewport.Options{})
	_, err := New(&stubLoader{}).Compile(context.Background(), rc, doc)
	assert.Error(t, err)
	assert.False(t, rc.Compiled())
}

func TestTraversalOrderAndDeterminism(t *testing.T) {
	fp := floorplan.Floorplan{
		{{4, 1}, {1, 4}},
		{{4, 0}, {0, 4}},
	}
	doc := &monument.Document{Settings: settings(0), Floorplan: fp}

	_, first := compileDoc(t, doc, &stubLoader{})
	_, second := compileDoc(t, doc, &stubLoader{})

	require.Len(t, first.Objects, len(second.Objects))
	var lights []floorplan.Index
	for i := range first.Objects {
		assert.Equal(t, first.Objects[i].Cell(), second.Objects[i].Cell())
		assert.Equal(t, first.Objects[i].Position(), second.Objects[i].Position())
		if first.Objects[i].Shape() == cell.ShapeLightProp {
			lights = append(lights, first.Objects[i].Cell())
		}
	}
	assert.Equal(t, []floorplan.Index{
		{Layer: 0, Row: 0, Col: 0},
		{Layer: 0, Row: 1, Col: 1},
		{Layer: 1, Row: 0, Col: 0},
		{Layer: 1, Row: 1, Col: 1},
	}, lights)

	// нижний слой ниже верхнего ровно на S
	assert.InDelta(t, 20, first.Objects[len(first.Objects)-1].Position().Z-first.Objects[0].Position().Z, 1e-9)
}

func TestSceneDigestStable(t *testing.T) {
	fp := floorplan.Floorplan{{{1, 2}, {4, 5}}, {{3, 1}, {0, 0}}}
	doc := &monument.Document{Settings: settings(-30), Floorplan: fp}

	a, _ := compileDoc(t, doc, &stubLoader{})
	b, _ := compileDoc(t, doc, &stubLoader{})
	assert.Equal(t, a.Scene.Digest(), b.Scene.Digest())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(&stubLoader{}, WithRegisterer(reg), WithClock(fixedClock))

	doc := &monument.Document{Settings: settings(0), Floorplan: floorplan.Floorplan{{{1, 1, 4}}}}
	_, err := c.Compile(context.Background(), newContext(t, doc), doc)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.objects.WithLabelValues("block")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.objects.WithLabelValues("firefly")))

	bad := &monument.Document{Settings: settings(0), Floorplan: floorplan.Floorplan{{{8}}}}
	_, err = c.Compile(context.Background(), newContext(t, bad), bad)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.failures))
}

func TestSampleMonument(t *testing.T) {
	doc, err := monument.LoadFile("../../assets/monument.json")
	require.NoError(t, err)

	rc, res := compileDoc(t, doc, &stubLoader{})
	assert.Len(t, res.Objects, doc.Floorplan.CountNonEmpty())
	assert.Equal(t, doc.Floorplan.CountNonEmpty()+globalNodes, rc.Scene.Len())

	var light shapes.Object
	for _, obj := range res.Objects {
		if obj.Shape() == cell.ShapeLightProp {
			light = obj
			break
		}
	}
	require.NotNil(t, light)
}
