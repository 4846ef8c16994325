package integrator

import (
	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor estimates the radiance arriving along ray. The sampler is
	// owned by the caller and must not be shared between goroutines.
	RayColor(ray core.Ray, scene *scene.Scene, sampler core.Sampler) core.Vec3
}

// Config contains path tracing parameters
type Config struct {
	MaxDepth     int     // maximum number of surface interactions per path
	AmbientIndex float64 // refractive index of the medium the camera sits in
	RayEpsilon   float64 // distance new rays are moved along their direction
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		MaxDepth:     10,
		AmbientIndex: 1.0,
		RayEpsilon:   1e-4,
	}
}
