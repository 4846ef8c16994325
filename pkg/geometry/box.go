package geometry

import (
	"math"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

// boxFaces lists corner indices for each face as corner, u end, v end.
// Every face winds so that u × v points out of the box.
var boxFaces = [6][3]int{
	{4, 5, 7}, // front (+z)
	{1, 0, 2}, // back (-z)
	{5, 1, 6}, // right (+x)
	{0, 4, 3}, // left (-x)
	{3, 7, 2}, // top (+y)
	{4, 0, 5}, // bottom (-y)
}

// NewBox builds a closed box from 12 triangles. halfSize holds the
// half-extents along each axis and rotation the angles in radians around
// X, Y and Z, applied in that order before translating to center.
func NewBox(center, halfSize, rotation core.Vec3, mat material.Material) []Primitive {
	var corners [8]core.Vec3
	for i := range corners {
		local := core.NewVec3(
			float64(2*(i&1)-1)*halfSize.X,
			float64(2*(i>>1&1)-1)*halfSize.Y,
			float64(2*(i>>2&1)-1)*halfSize.Z,
		)
		corners[i] = rotate(local, rotation).Add(center)
	}
	// Reorder from bit order into the face table's numbering:
	// 0-3 is the back ring and 4-7 the front ring, counter-clockwise from
	// the bottom left when seen from +z.
	ring := [8]core.Vec3{
		corners[0], corners[1], corners[3], corners[2],
		corners[4], corners[5], corners[7], corners[6],
	}

	primitives := make([]Primitive, 0, 12)
	for _, f := range boxFaces {
		corner := ring[f[0]]
		primitives = append(primitives, NewQuad(corner, ring[f[1]].Subtract(corner), ring[f[2]].Subtract(corner), mat)...)
	}
	return primitives
}

// NewAxisAlignedBox builds an unrotated box
func NewAxisAlignedBox(center, halfSize core.Vec3, mat material.Material) []Primitive {
	return NewBox(center, halfSize, core.Vec3{}, mat)
}

func rotate(v, angles core.Vec3) core.Vec3 {
	if angles.X != 0 {
		sin, cos := math.Sincos(angles.X)
		v = core.NewVec3(v.X, v.Y*cos-v.Z*sin, v.Y*sin+v.Z*cos)
	}
	if angles.Y != 0 {
		sin, cos := math.Sincos(angles.Y)
		v = core.NewVec3(v.X*cos+v.Z*sin, v.Y, -v.X*sin+v.Z*cos)
	}
	if angles.Z != 0 {
		sin, cos := math.Sincos(angles.Z)
		v = core.NewVec3(v.X*cos-v.Y*sin, v.X*sin+v.Y*cos, v.Z)
	}
	return v
}
