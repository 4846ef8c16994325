package geometry

import (
	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

// Intersection describes where a ray met a primitive
type Intersection struct {
	Distance float64   // distance along the ray
	Point    core.Vec3 // hit position
	Normal   core.Vec3 // unit surface normal, not flipped towards the ray
	Inside   bool      // the ray started inside the primitive (or hit its back face)
	Material material.Material
}

// Primitive is a piece of immutable scene geometry
type Primitive interface {
	// Intersect returns the nearest hit strictly closer than best
	Intersect(ray core.Ray, best float64) (Intersection, bool)
	Bounds() core.AABB
	Centroid() core.Vec3
	// IsLight reports whether the primitive's material emits light
	IsLight() bool
	// SamplePoint maps a 2D sample to a uniformly distributed surface point
	// and returns it together with the total surface area
	SamplePoint(sample core.Vec2) (core.Vec3, float64)
}
