package material

import (
	"math"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
)

// Dielectric is a transparent interface between two media, such as glass
// in air. Color is the per-channel transmission used for Beer-Lambert
// absorption inside the far medium; white means clear.
type Dielectric struct {
	IncidentIndex float64 // refractive index on the outside of the surface
	FarIndex      float64 // refractive index inside the surface
	Color         core.Vec3
}

// NewDielectric creates a clear dielectric with the given index, surrounded by air
func NewDielectric(refractiveIndex float64) *Dielectric {
	return &Dielectric{IncidentIndex: 1.0, FarIndex: refractiveIndex, Color: core.Splat(1)}
}

// NewTintedDielectric creates an absorbing dielectric surrounded by air
func NewTintedDielectric(refractiveIndex float64, color core.Vec3) *Dielectric {
	return &Dielectric{IncidentIndex: 1.0, FarIndex: refractiveIndex, Color: color}
}

// Accept dispatches to v.VisitDielectric
func (m *Dielectric) Accept(v Visitor) { v.VisitDielectric(m) }

// Schlick approximates the Fresnel reflectance of an interface between
// media with indices n1 and n2, where cosTheta is the cosine between the
// incoming direction and the surface normal. Degenerate indices whose sum
// is not positive reflect everything.
func Schlick(cosTheta, n1, n2 float64) float64 {
	sum := n1 + n2
	if sum <= 0 {
		return 1
	}
	r0 := (n1 - n2) / sum
	r0 *= r0
	c := 1 - max(0, min(1, cosTheta))
	return r0 + (1-r0)*c*c*c*c*c
}

// Refract bends the unit direction d through a surface with unit normal n
// facing against d, where eta is the ratio of the index being left to the
// index being entered. ok is false on total internal reflection.
func Refract(d, n core.Vec3, eta float64) (dir core.Vec3, ok bool) {
	cosI := -d.Dot(n)
	sin2T := eta * eta * (1 - cosI*cosI)
	if sin2T > 1 {
		return core.Vec3{}, false
	}
	cosT := math.Sqrt(1 - sin2T)
	return d.Multiply(eta).Add(n.Multiply(eta*cosI - cosT)), true
}

// BeerLambert returns the per-channel transmittance after travelling
// distance through a medium of the given color: exp((color-1)*distance).
// For an unbounded distance, channels below 1 are fully absorbed and the
// rest pass unchanged.
func BeerLambert(color core.Vec3, distance float64) core.Vec3 {
	if math.IsInf(distance, 1) {
		return core.NewVec3(infiniteTransmittance(color.X), infiniteTransmittance(color.Y), infiniteTransmittance(color.Z))
	}
	return core.NewVec3(
		math.Exp((color.X-1)*distance),
		math.Exp((color.Y-1)*distance),
		math.Exp((color.Z-1)*distance),
	)
}

func infiniteTransmittance(c float64) float64 {
	if c < 1 {
		return 0
	}
	return 1
}
