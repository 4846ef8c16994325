package loaders

import (
	"fmt"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

// Mesh is an indexed triangle mesh as read from a model file
type Mesh struct {
	Name      string
	Positions []core.Vec3
	Normals   []core.Vec3 // per-vertex normals, empty when the file has none
	Faces     [][3]int    // vertex indices, counter-clockwise when seen from the front
}

// Validate checks that every face refers to an existing vertex and that
// normals, when present, match the vertex count
func (m *Mesh) Validate() error {
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("mesh %q: %d normals for %d vertices", m.Name, len(m.Normals), len(m.Positions))
	}
	for i, face := range m.Faces {
		for _, index := range face {
			if index < 0 || index >= len(m.Positions) {
				return fmt.Errorf("mesh %q: face %d references vertex %d of %d", m.Name, i, index, len(m.Positions))
			}
		}
	}
	return nil
}

// Bounds returns the box around every vertex
func (m *Mesh) Bounds() core.AABB {
	return core.NewAABBFromPoints(m.Positions...)
}

// Transform scales the mesh about the origin and then moves it by offset
func (m *Mesh) Transform(scale float64, offset core.Vec3) {
	for i, p := range m.Positions {
		m.Positions[i] = p.Multiply(scale).Add(offset)
	}
	if scale < 0 {
		for i, n := range m.Normals {
			m.Normals[i] = n.Negate()
		}
	}
}

// Triangles converts the mesh to primitives sharing one material. Meshes
// with vertex normals produce smooth triangles.
func (m *Mesh) Triangles(mat material.Material) []geometry.Primitive {
	triangles := make([]geometry.Primitive, 0, len(m.Faces))
	smooth := len(m.Normals) == len(m.Positions)

	for _, f := range m.Faces {
		v0, v1, v2 := m.Positions[f[0]], m.Positions[f[1]], m.Positions[f[2]]
		if smooth {
			triangles = append(triangles, geometry.NewSmoothTriangle(v0, v1, v2,
				m.Normals[f[0]], m.Normals[f[1]], m.Normals[f[2]], mat))
		} else {
			triangles = append(triangles, geometry.NewTriangle(v0, v1, v2, mat))
		}
	}
	return triangles
}

// fan splits a polygon into triangles sharing its first vertex
func fan(polygon []int) [][3]int {
	if len(polygon) < 3 {
		return nil
	}
	faces := make([][3]int, 0, len(polygon)-2)
	for i := 1; i+1 < len(polygon); i++ {
		faces = append(faces, [3]int{polygon[0], polygon[i], polygon[i+1]})
	}
	return faces
}
