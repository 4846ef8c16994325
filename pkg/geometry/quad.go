package geometry

import (
	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

// NewQuad splits the parallelogram spanned by u and v from corner into two
// triangles. Both face along u × v.
func NewQuad(corner, u, v core.Vec3, mat material.Material) []Primitive {
	far := corner.Add(u).Add(v)
	return []Primitive{
		NewTriangle(corner, corner.Add(u), far, mat),
		NewTriangle(corner, far, corner.Add(v), mat),
	}
}
