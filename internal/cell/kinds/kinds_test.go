package kinds_test

import (
	"errors"
	"testing"

	"github.com/annel0/monument/internal/cell"
	"github.com/annel0/monument/internal/cell/kinds"
	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/layout"
	"github.com/annel0/monument/internal/monument"
	"github.com/annel0/monument/internal/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() *monument.Settings {
	return &monument.Settings{
		OffsetY:         -30,
		Background:      palette.MustParse("0, 0, 16"),
		GlobalLight:     palette.MustParse("255, 255, 255"),
		AmbientLight:    palette.MustParse("0, 0, 32"),
		Cube:            palette.MustParse("107, 126, 127"),
		Tale:            palette.MustParse("81, 91, 95"),
		Stairs:          palette.MustParse("90, 100, 110"),
		PointLight:      palette.MustParse("255, 240, 200"),
		PointLightScale: 2,
		Pillar:          palette.MustParse("10, 20, 30"),
	}
}

func TestClassifyKnownCodes(t *testing.T) {
	s := testSettings()
	c := cell.NewClassifier(s)

	tests := []struct {
		code floorplan.CellCode
		want cell.Spec
	}{
		{floorplan.Block, cell.Spec{Code: floorplan.Block, Name: "block", Shape: cell.ShapeBlock, Color: s.Cube, Scale: 1, Yaw: kinds.BlockYaw, Size: layout.CellSize}},
		{floorplan.Tile, cell.Spec{Code: floorplan.Tile, Name: "tile", Shape: cell.ShapeMeshProp, Color: s.Tale, Source: "tail1", Scale: 1}},
		{floorplan.Staircase, cell.Spec{Code: floorplan.Staircase, Name: "staircase", Shape: cell.ShapeMeshProp, Color: s.Stairs, Source: "stairs1", Scale: 1, Yaw: 7.855}},
		{floorplan.Firefly, cell.Spec{Code: floorplan.Firefly, Name: "firefly", Shape: cell.ShapeLightProp, Color: s.PointLight, Scale: 1, Size: 2}},
		{floorplan.Pillar, cell.Spec{Code: floorplan.Pillar, Name: "pillar", Shape: cell.ShapeMeshProp, Color: s.Pillar, Source: "pillar1", Scale: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.want.Name, func(t *testing.T) {
			spec, err := c.Classify(tt.code)
			require.NoError(t, err)
			require.NotNil(t, spec)
			assert.Equal(t, tt.want, *spec)
		})
	}
}

func TestClassifyEmpty(t *testing.T) {
	spec, err := cell.NewClassifier(testSettings()).Classify(floorplan.Empty)
	assert.NoError(t, err)
	assert.Nil(t, spec)
}

func TestClassifyUnknownCodes(t *testing.T) {
	c := cell.NewClassifier(testSettings())
	for _, code := range []floorplan.CellCode{6, 7, 42, -1, 1000} {
		spec, err := c.Classify(code)
		require.Error(t, err, "код %d", code)
		assert.Nil(t, spec)

		var unknown *cell.UnknownCodeError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, code, unknown.Code)
	}
}

func TestPointLightScaleZero(t *testing.T) {
	s := testSettings()
	s.PointLightScale = 0
	spec, err := cell.NewClassifier(s).Classify(floorplan.Firefly)
	require.NoError(t, err)
	assert.Zero(t, spec.Size)
}

func TestRegistry(t *testing.T) {
	all := cell.Kinds()
	require.Len(t, all, 5)
	for i, k := range all {
		assert.Equal(t, floorplan.CellCode(i+1), k.Code)
	}

	assert.True(t, cell.IsKnownCode(floorplan.Empty))
	assert.True(t, cell.IsKnownCode(floorplan.Pillar))
	assert.False(t, cell.IsKnownCode(6))
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "block", cell.ShapeBlock.String())
	assert.Equal(t, "mesh", cell.ShapeMeshProp.String())
	assert.Equal(t, "light", cell.ShapeLightProp.String())
	assert.Equal(t, "unknown", cell.Shape(0).String())
}
