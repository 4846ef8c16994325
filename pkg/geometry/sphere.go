package geometry

import (
	"math"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material material.Material
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, mat material.Material) *Sphere {
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: mat,
	}
}

// Intersect solves the ray-sphere quadratic for a unit direction. Spheres
// with a radius that is not positive never intersect.
func (s *Sphere) Intersect(ray core.Ray, best float64) (Intersection, bool) {
	if s.Radius <= 0 {
		return Intersection{}, false
	}

	toCenter := s.Center.Subtract(ray.Origin)
	projected := toCenter.Dot(ray.Direction)
	distSq := toCenter.LengthSquared()
	radiusSq := s.Radius * s.Radius

	// Squared distance from the center to the closest point on the line
	perpSq := distSq - projected*projected
	if perpSq > radiusSq {
		return Intersection{}, false
	}

	halfChord := math.Sqrt(radiusSq - perpSq)
	t := projected - halfChord
	if t <= 0 {
		t = projected + halfChord
	}
	if t <= 0 || t >= best {
		return Intersection{}, false
	}

	point := ray.At(t)
	return Intersection{
		Distance: t,
		Point:    point,
		Normal:   point.Subtract(s.Center).Normalize(),
		Inside:   distSq < radiusSq,
		Material: s.Material,
	}, true
}

// Bounds returns the axis-aligned bounding box for this sphere
func (s *Sphere) Bounds() core.AABB {
	r := core.Splat(math.Abs(s.Radius))
	return core.NewAABB(s.Center.Subtract(r), s.Center.Add(r))
}

// Centroid returns the sphere center
func (s *Sphere) Centroid() core.Vec3 {
	return s.Center
}

// IsLight reports whether the sphere's material emits
func (s *Sphere) IsLight() bool {
	_, ok := material.Emission(s.Material)
	return ok
}

// SamplePoint returns a uniform point on the sphere surface and its area
func (s *Sphere) SamplePoint(sample core.Vec2) (core.Vec3, float64) {
	point := s.Center.Add(core.SampleOnUnitSphere(sample).Multiply(s.Radius))
	return point, 4 * math.Pi * s.Radius * s.Radius
}
