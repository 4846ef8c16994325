package material

import (
	"github.com/df07/go-bvh-pathtracer/pkg/core"
)

// Pattern computes a position dependent attenuation
type Pattern interface {
	At(p core.Vec3) core.Vec3
}

// checkerOffset keeps the cell coordinates positive so that truncation
// toward zero does not merge the two cells around each axis
const checkerOffset = 1000

// Checkerboard alternates white and Dark cells on the XZ plane
type Checkerboard struct {
	Scale float64 // cells per world unit
	Dark  core.Vec3
}

// NewCheckerboard returns the classic floor pattern: three cells per unit,
// dark cells at 20%
func NewCheckerboard() *Checkerboard {
	return &Checkerboard{Scale: 3, Dark: core.Splat(0.2)}
}

// At returns white on odd cells and Dark on even ones
func (c *Checkerboard) At(p core.Vec3) core.Vec3 {
	cx := int(p.X*c.Scale + checkerOffset)
	cz := int(p.Z*c.Scale + checkerOffset)
	if (cx+cz)&1 != 1 {
		return c.Dark
	}
	return core.Splat(1)
}
