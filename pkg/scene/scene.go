// Package scene assembles primitives, the environment panorama and the
// initial view into an immutable Scene that render workers share.
package scene

import (
	"math"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/envmap"
	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
)

// View is the initial camera placement stored with a scene
type View struct {
	Origin   core.Vec3
	Target   core.Vec3
	LensSize float64 // diameter of the thin lens, 0 for a pinhole
}

// DefaultView returns the placement used by the built-in scene
func DefaultView() View {
	return View{
		Origin:   core.NewVec3(-0.94, -0.037, -3.342),
		Target:   core.NewVec3(-0.418, -0.026, -2.435),
		LensSize: 0.04,
	}
}

// Scene is an immutable set of primitives with their acceleration structure
// and sky. It is safe for concurrent use.
type Scene struct {
	primitives []geometry.Primitive
	lights     []geometry.Primitive
	bvh        *geometry.BVH
	sky        *envmap.Map
	view       View
}

// IntersectClosest returns the nearest primitive hit along the ray
func (s *Scene) IntersectClosest(ray core.Ray) (geometry.Intersection, bool) {
	return s.bvh.IntersectClosest(ray, math.Inf(1))
}

// SampleSkybox returns the environment radiance for a unit direction
func (s *Scene) SampleSkybox(dir core.Vec3) core.Vec3 {
	return s.sky.Lookup(dir)
}

// Lights returns the emissive primitives
func (s *Scene) Lights() []geometry.Primitive {
	return s.lights
}

// Primitives returns every primitive in insertion order
func (s *Scene) Primitives() []geometry.Primitive {
	return s.primitives
}

// BVH returns the acceleration structure
func (s *Scene) BVH() *geometry.BVH {
	return s.bvh
}

// Bounds returns the box around all geometry
func (s *Scene) Bounds() core.AABB {
	return s.bvh.Bounds()
}

// Sky returns the environment panorama
func (s *Scene) Sky() *envmap.Map {
	return s.sky
}

// View returns the initial camera placement
func (s *Scene) View() View {
	return s.view
}
