package geometry

import (
	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

// determinants below this magnitude mean the ray runs in the triangle's plane
const parallelEpsilon = 1e-12

// Triangle represents a single triangle with optional per-vertex normals
type Triangle struct {
	V0, V1, V2 core.Vec3         // The three vertices
	N0, N1, N2 core.Vec3         // Vertex normals, interpolated across the face
	Material   material.Material // Material of the triangle
	bounds     core.AABB         // Cached bounding box
}

// NewTriangle creates a flat shaded triangle; the normal follows the
// counter-clockwise winding of v0, v1, v2
func NewTriangle(v0, v1, v2 core.Vec3, mat material.Material) *Triangle {
	n := v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
	return NewSmoothTriangle(v0, v1, v2, n, n, n, mat)
}

// NewSmoothTriangle creates a triangle with explicit vertex normals
func NewSmoothTriangle(v0, v1, v2, n0, n1, n2 core.Vec3, mat material.Material) *Triangle {
	return &Triangle{
		V0: v0, V1: v1, V2: v2,
		N0: n0.Normalize(), N1: n1.Normalize(), N2: n2.Normalize(),
		Material: mat,
		bounds:   core.NewAABBFromPoints(v0, v1, v2),
	}
}

// Intersect tests the ray against the triangle using the Möller-Trumbore algorithm
func (t *Triangle) Intersect(ray core.Ray, best float64) (Intersection, bool) {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)

	// Covers zero-area triangles as well as rays parallel to the plane
	if det > -parallelEpsilon && det < parallelEpsilon {
		return Intersection{}, false
	}

	f := 1.0 / det
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return Intersection{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return Intersection{}, false
	}

	dist := f * edge2.Dot(q)
	if dist <= 0 || dist >= best {
		return Intersection{}, false
	}

	w := 1 - u - v
	normal := t.N0.Multiply(w).Add(t.N1.Multiply(u)).Add(t.N2.Multiply(v)).Normalize()

	return Intersection{
		Distance: dist,
		Point:    ray.At(dist),
		Normal:   normal,
		Inside:   det < 0,
		Material: t.Material,
	}, true
}

// Bounds returns the axis-aligned bounding box for this triangle
func (t *Triangle) Bounds() core.AABB {
	return t.bounds
}

// Centroid returns the average of the three vertices
func (t *Triangle) Centroid() core.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Multiply(1.0 / 3.0)
}

// IsLight reports whether the triangle's material emits
func (t *Triangle) IsLight() bool {
	_, ok := material.Emission(t.Material)
	return ok
}

// Area returns the triangle's surface area
func (t *Triangle) Area() float64 {
	return 0.5 * t.V1.Subtract(t.V0).Cross(t.V2.Subtract(t.V0)).Length()
}

// SamplePoint returns a uniformly distributed point on the triangle and its area
func (t *Triangle) SamplePoint(sample core.Vec2) (core.Vec3, float64) {
	u, v := core.SampleTriangle(sample)
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)
	return t.V0.Add(edge1.Multiply(u)).Add(edge2.Multiply(v)), t.Area()
}
