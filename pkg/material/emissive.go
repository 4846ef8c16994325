package material

import (
	"github.com/df07/go-bvh-pathtracer/pkg/core"
)

// Emissive represents a light-emitting material
type Emissive struct {
	Color core.Vec3 // Emitted radiance
}

// NewEmissive creates a new emissive material
func NewEmissive(color core.Vec3) *Emissive {
	return &Emissive{Color: color}
}

// Accept dispatches to v.VisitEmissive
func (m *Emissive) Accept(v Visitor) { v.VisitEmissive(m) }
