package material

import (
	"fmt"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
)

// Material is the closed set of surface descriptions a primitive can carry.
// The variants are Diffuse, Dielectric, Emissive and Legacy. Consumers
// branch on a material by implementing Visitor, so a new variant fails to
// compile at every consumer until it is handled there.
type Material interface {
	Accept(v Visitor)
}

// Visitor has one method per material variant
type Visitor interface {
	VisitDiffuse(m *Diffuse)
	VisitDielectric(m *Dielectric)
	VisitEmissive(m *Emissive)
	VisitLegacy(m *Legacy)
}

// Emission returns the radiance emitted by m and whether m is a light at all
func Emission(m Material) (core.Vec3, bool) {
	var e emissionVisitor
	m.Accept(&e)
	return e.color, e.ok
}

type emissionVisitor struct {
	color core.Vec3
	ok    bool
}

func (e *emissionVisitor) VisitDiffuse(*Diffuse)       {}
func (e *emissionVisitor) VisitDielectric(*Dielectric) {}

func (e *emissionVisitor) VisitEmissive(m *Emissive) {
	e.color, e.ok = m.Color, true
}

func (e *emissionVisitor) VisitLegacy(m *Legacy) {
	if m.Emissive {
		e.color, e.ok = m.Color, true
	}
}

// Describe returns a short kind name and a human readable parameter summary
func Describe(m Material) (kind, params string) {
	var d describeVisitor
	m.Accept(&d)
	return d.kind, d.params
}

type describeVisitor struct {
	kind, params string
}

func (d *describeVisitor) VisitDiffuse(m *Diffuse) {
	d.kind = "diffuse"
	d.params = fmt.Sprintf("albedo=%v specular=%.2f", m.Albedo, m.Specular)
}

func (d *describeVisitor) VisitDielectric(m *Dielectric) {
	d.kind = "dielectric"
	d.params = fmt.Sprintf("ior=%.2f/%.2f color=%v", m.IncidentIndex, m.FarIndex, m.Color)
}

func (d *describeVisitor) VisitEmissive(m *Emissive) {
	d.kind = "emissive"
	d.params = fmt.Sprintf("color=%v", m.Color)
}

func (d *describeVisitor) VisitLegacy(m *Legacy) {
	d.kind = "legacy"
	d.params = fmt.Sprintf("refl=%.2f refr=%.2f emissive=%t color=%v procedural=%t",
		m.Reflectivity, m.Transmittance, m.Emissive, m.Color, m.Pattern != nil)
}
