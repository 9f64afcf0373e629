package assets

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTriangle(t *testing.T) {
	mesh, err := ParseLegacyJSON([]byte(`{"vertices":[0,0,0, 1,0,0, 0,1,0], "faces":[0, 0,1,2]}`))
	require.NoError(t, err)

	assert.Equal(t, 3, mesh.VertexCount())
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	// вычисленная нормаль смотрит вдоль +Z
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}, mesh.Normals)
}

func TestParseQuadWithMaterialUVAndVertexNormals(t *testing.T) {
	data, err := os.ReadFile("testdata/quad.json")
	require.NoError(t, err)

	// 43 = quad | material | faceVertexUv | faceVertexNormal
	mesh, err := ParseLegacyJSON(data)
	require.NoError(t, err)

	// квадрат -> 2 треугольника (a,b,d) и (b,c,d)
	require.Equal(t, 6, mesh.VertexCount())
	assert.Len(t, mesh.Indices, 6)
	assert.Equal(t, []float32{0, 0, 0}, mesh.Positions[0:3])
	assert.Equal(t, []float32{10, 0, 0}, mesh.Positions[3:6])
	assert.Equal(t, []float32{0, 10, 0}, mesh.Positions[6:9])
	assert.Equal(t, []float32{10, 10, 0}, mesh.Positions[12:15])
}

func TestParseScaleAndFaceNormal(t *testing.T) {
	// 18 = material | faceNormal; scale 2 делит координаты пополам
	mesh, err := ParseLegacyJSON([]byte(`{
		"scale": 2,
		"vertices":[0,0,0, 4,0,0, 0,4,0],
		"normals":[0,0,-1],
		"faces":[18, 0,1,2, 0, 0]}`))
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 0, 0}, mesh.Positions[3:6])
	assert.Equal(t, []float32{0, 0, -1}, mesh.Normals[0:3])
}

func TestParseInvalidGeometry(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"no faces":         `{"vertices":[0,0,0]}`,
		"ragged vertices":  `{"vertices":[0,0], "faces":[0,0,0,0]}`,
		"vertex range":     `{"vertices":[0,0,0, 1,0,0, 0,1,0], "faces":[0, 0,1,9]}`,
		"truncated":        `{"vertices":[0,0,0, 1,0,0, 0,1,0], "faces":[0, 0,1]}`,
		"normal range":     `{"vertices":[0,0,0, 1,0,0, 0,1,0], "normals":[0,0,1], "faces":[16, 0,1,2, 4]}`,
		"format version 4": `{"metadata":{"formatVersion":4}, "vertices":[0,0,0, 1,0,0, 0,1,0], "faces":[0, 0,1,2]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLegacyJSON([]byte(body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidGeometry))
		})
	}
}
