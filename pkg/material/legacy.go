package material

import "github.com/df07/go-bvh-pathtracer/pkg/core"

// Legacy is the older combined surface record: a reflectivity weight, a
// transmittance that doubles as the refractive index of the surface, an
// emissive flag and a diffuse color. When Pattern is set the surface is
// procedural and the pattern replaces the color.
type Legacy struct {
	Reflectivity  float64
	Transmittance float64
	Emissive      bool
	Color         core.Vec3
	Pattern       Pattern
}

// Accept dispatches to v.VisitLegacy
func (m *Legacy) Accept(v Visitor) { v.VisitLegacy(m) }

// NewProcedural creates a legacy surface whose attenuation comes from p
func NewProcedural(p Pattern) *Legacy {
	return &Legacy{Color: core.Splat(1), Pattern: p}
}
