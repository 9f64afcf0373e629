package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/annel0/monument/internal/scene"
)

// ErrInvalidGeometry ассет не является корректной геометрией
var ErrInvalidGeometry = errors.New("assets: invalid legacy geometry")

// Биты типа грани формата three.js JSON 3
const (
	faceQuad = 1 << iota
	faceMaterial
	faceUV // не используется форматом 3
	faceVertexUV
	faceNormal
	faceVertexNormal
	faceColor
	faceVertexColor
)

type legacyGeometry struct {
	Metadata *struct {
		FormatVersion float64 `json:"formatVersion"`
	} `json:"metadata"`
	Scale    float64     `json:"scale"`
	Vertices []float64   `json:"vertices"`
	Normals  []float64   `json:"normals"`
	UVs      [][]float64 `json:"uvs"`
	Faces    []int       `json:"faces"`
}

// ParseLegacyJSON разбирает геометрию three.js JSON (формат 3) в треугольный меш.
//
// Вершины разворачиваются по граням: у каждой вершины треугольника своя нормаль
// (вершинная из файла, иначе нормаль грани из файла, иначе вычисленная).
// Четырехугольник (a,b,c,d) делится на (a,b,d) и (b,c,d).
func ParseLegacyJSON(data []byte) (*scene.Mesh, error) {
	var g legacyGeometry
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if g.Metadata != nil && g.Metadata.FormatVersion != 0 && g.Metadata.FormatVersion != 3 && g.Metadata.FormatVersion != 3.1 {
		return nil, fmt.Errorf("%w: unsupported format version %v", ErrInvalidGeometry, g.Metadata.FormatVersion)
	}
	if len(g.Vertices)%3 != 0 {
		return nil, fmt.Errorf("%w: vertex array length %d", ErrInvalidGeometry, len(g.Vertices))
	}
	if len(g.Faces) == 0 {
		return nil, fmt.Errorf("%w: no faces", ErrInvalidGeometry)
	}

	scale := 1.0
	if g.Scale != 0 {
		scale = 1 / g.Scale
	}

	uvLayers := 0
	for _, layer := range g.UVs {
		if len(layer) > 0 {
			uvLayers++
		}
	}

	p := &legacyParser{g: &g, scale: scale, mesh: &scene.Mesh{}}
	if err := p.parseFaces(uvLayers); err != nil {
		return nil, err
	}
	return p.mesh, nil
}

type legacyParser struct {
	g     *legacyGeometry
	scale float64
	mesh  *scene.Mesh
	pos   int
}

func (p *legacyParser) next() (int, error) {
	if p.pos >= len(p.g.Faces) {
		return 0, fmt.Errorf("%w: truncated face data at %d", ErrInvalidGeometry, p.pos)
	}
	v := p.g.Faces[p.pos]
	p.pos++
	return v, nil
}

func (p *legacyParser) skip(n int) error {
	if p.pos+n > len(p.g.Faces) {
		return fmt.Errorf("%w: truncated face data at %d", ErrInvalidGeometry, p.pos)
	}
	p.pos += n
	return nil
}

func (p *legacyParser) parseFaces(uvLayers int) error {
	vertexCount := len(p.g.Vertices) / 3
	normalCount := len(p.g.Normals) / 3

	for p.pos < len(p.g.Faces) {
		typ, err := p.next()
		if err != nil {
			return err
		}

		n := 3
		if typ&faceQuad != 0 {
			n = 4
		}

		corners := make([]int, n)
		for i := range corners {
			if corners[i], err = p.next(); err != nil {
				return err
			}
			if corners[i] < 0 || corners[i] >= vertexCount {
				return fmt.Errorf("%w: vertex index %d out of range", ErrInvalidGeometry, corners[i])
			}
		}

		if typ&faceMaterial != 0 {
			if err := p.skip(1); err != nil {
				return err
			}
		}
		if typ&faceVertexUV != 0 {
			if err := p.skip(uvLayers * n); err != nil {
				return err
			}
		}

		faceN := -1
		if typ&faceNormal != 0 {
			if faceN, err = p.next(); err != nil {
				return err
			}
			if faceN < 0 || faceN >= normalCount {
				return fmt.Errorf("%w: normal index %d out of range", ErrInvalidGeometry, faceN)
			}
		}

		var vertexN []int
		if typ&faceVertexNormal != 0 {
			vertexN = make([]int, n)
			for i := range vertexN {
				if vertexN[i], err = p.next(); err != nil {
					return err
				}
				if vertexN[i] < 0 || vertexN[i] >= normalCount {
					return fmt.Errorf("%w: normal index %d out of range", ErrInvalidGeometry, vertexN[i])
				}
			}
		}

		if typ&faceColor != 0 {
			if err := p.skip(1); err != nil {
				return err
			}
		}
		if typ&faceVertexColor != 0 {
			if err := p.skip(n); err != nil {
				return err
			}
		}

		tris := [][3]int{{0, 1, 2}}
		if n == 4 {
			tris = [][3]int{{0, 1, 3}, {1, 2, 3}}
		}
		for _, tri := range tris {
			p.emit(corners, tri, faceN, vertexN)
		}
	}
	return nil
}

// emit добавляет треугольник tri (индексы углов грани) в меш
func (p *legacyParser) emit(corners []int, tri [3]int, faceN int, vertexN []int) {
	var pts [3][3]float64
	for i, c := range tri {
		v := corners[c] * 3
		pts[i] = [3]float64{
			p.g.Vertices[v] * p.scale,
			p.g.Vertices[v+1] * p.scale,
			p.g.Vertices[v+2] * p.scale,
		}
	}

	flat := triangleNormal(pts)
	for i, c := range tri {
		normal := flat
		switch {
		case vertexN != nil:
			normal = p.normal(vertexN[c])
		case faceN >= 0:
			normal = p.normal(faceN)
		}

		p.mesh.Indices = append(p.mesh.Indices, uint32(len(p.mesh.Positions)/3))
		p.mesh.Positions = append(p.mesh.Positions, float32(pts[i][0]), float32(pts[i][1]), float32(pts[i][2]))
		p.mesh.Normals = append(p.mesh.Normals, float32(normal[0]), float32(normal[1]), float32(normal[2]))
	}
}

func (p *legacyParser) normal(i int) [3]float64 {
	return normalize([3]float64{p.g.Normals[i*3], p.g.Normals[i*3+1], p.g.Normals[i*3+2]})
}

func triangleNormal(pts [3][3]float64) [3]float64 {
	ux, uy, uz := pts[1][0]-pts[0][0], pts[1][1]-pts[0][1], pts[1][2]-pts[0][2]
	vx, vy, vz := pts[2][0]-pts[0][0], pts[2][1]-pts[0][1], pts[2][2]-pts[0][2]
	return normalize([3]float64{uy*vz - uz*vy, uz*vx - ux*vz, ux*vy - uy*vx})
}

func normalize(n [3]float64) [3]float64 {
	l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return [3]float64{0, 0, 1}
	}
	return [3]float64{n[0] / l, n[1] / l, n[2] / l}
}
