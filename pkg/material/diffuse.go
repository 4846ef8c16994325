package material

import "github.com/df07/go-bvh-pathtracer/pkg/core"

// Diffuse is an opaque surface attenuating by Albedo. With zero Specular
// paths end there; with any Specular weight they are mirrored onward.
type Diffuse struct {
	Albedo   core.Vec3
	Specular float64 // reflectivity in [0,1]; nonzero makes the surface a mirror
}

// NewDiffuse creates a matte surface with no specular component
func NewDiffuse(albedo core.Vec3) *Diffuse {
	return &Diffuse{Albedo: albedo}
}

// NewGlossy creates a diffuse surface that mirrors the given fraction of paths
func NewGlossy(albedo core.Vec3, specular float64) *Diffuse {
	return &Diffuse{Albedo: albedo, Specular: max(0, min(1, specular))}
}

// Accept dispatches to v.VisitDiffuse
func (m *Diffuse) Accept(v Visitor) { v.VisitDiffuse(m) }
