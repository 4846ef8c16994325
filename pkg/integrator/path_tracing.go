package integrator

import (
	"math"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
)

// PathTracingIntegrator follows a single path per sample. Every surface
// either terminates the path with its color or continues it along one
// mirror or refracted direction chosen by a random draw.
type PathTracingIntegrator struct {
	config Config
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(config Config) *PathTracingIntegrator {
	if config.MaxDepth < 1 {
		config.MaxDepth = 1
	}
	if config.AmbientIndex <= 0 {
		config.AmbientIndex = 1
	}
	return &PathTracingIntegrator{config: config}
}

// Config returns the integrator parameters
func (pt *PathTracingIntegrator) Config() Config {
	return pt.config
}

// RayColor traces one path. It ends at the sky, at an emitter, at a
// diffuse surface or after MaxDepth intersections, in which case the
// throughput collected so far is returned.
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler) core.Vec3 {
	path := pathState{
		config:     &pt.config,
		sampler:    sampler,
		ray:        ray,
		throughput: core.Splat(1),
		index:      pt.config.AmbientIndex,
	}

	for depth := 0; depth < pt.config.MaxDepth; depth++ {
		hit, ok := s.IntersectClosest(path.ray)

		if path.absorbing {
			segment := math.Inf(1)
			if ok {
				segment = hit.Distance
			}
			path.throughput = path.throughput.MultiplyVec(material.BeerLambert(path.absorption, segment))
		}

		if !ok {
			return path.throughput.MultiplyVec(s.SampleSkybox(path.ray.Direction))
		}

		path.hit = hit
		path.done = false
		hit.Material.Accept(&path)
		if path.done {
			return path.throughput
		}
	}

	return path.throughput
}

// pathState carries one path between bounces and decides each bounce by
// visiting the material that was hit
type pathState struct {
	config  *Config
	sampler core.Sampler

	ray        core.Ray
	hit        geometry.Intersection
	throughput core.Vec3
	index      float64 // refractive index of the medium the ray travels in

	absorbing  bool      // the ray travels inside an absorbing dielectric
	absorption core.Vec3 // color of that dielectric

	done bool
}

func (p *pathState) VisitEmissive(m *material.Emissive) {
	p.terminate(m.Color)
}

func (p *pathState) VisitDiffuse(m *material.Diffuse) {
	p.glossy(m.Albedo, m.Specular)
}

func (p *pathState) VisitDielectric(m *material.Dielectric) {
	p.dielectric(m.IncidentIndex, m.FarIndex, m.Color)
}

func (p *pathState) VisitLegacy(m *material.Legacy) {
	switch {
	case m.Emissive:
		p.terminate(m.Color)
	case m.Pattern != nil:
		p.terminate(m.Pattern.At(p.hit.Point).MultiplyVec(m.Color))
	case m.Transmittance > 0:
		p.dielectric(p.config.AmbientIndex, m.Transmittance, m.Color)
	default:
		p.glossy(m.Color, m.Reflectivity)
	}
}

func (p *pathState) terminate(color core.Vec3) {
	p.throughput = p.throughput.MultiplyVec(color)
	p.done = true
}

// glossy ends the path on a plain diffuse surface and mirrors it on any
// surface with a specular weight. Both are attenuated by albedo.
func (p *pathState) glossy(albedo core.Vec3, specular float64) {
	p.throughput = p.throughput.MultiplyVec(albedo)
	if specular <= 0 {
		p.done = true
		return
	}
	p.continueAlong(p.ray.Direction.Reflect(p.hit.Normal))
}

// dielectric picks reflection or refraction at an interface between the
// outside index and the far index
func (p *pathState) dielectric(outside, far float64, color core.Vec3) {
	d := p.ray.Direction

	leaving, entering := p.index, far
	if p.hit.Inside {
		leaving, entering = far, outside
	}

	normal := p.hit.Normal
	if d.Dot(normal) > 0 {
		normal = normal.Negate()
	}

	refracted, ok := material.Refract(d, normal, leaving/entering)
	if !ok {
		// Total internal reflection
		p.continueAlong(d.Reflect(normal))
		return
	}

	reflectance := material.Schlick(-d.Dot(normal), leaving, entering)
	if p.sampler.Get1D() >= 1-reflectance {
		p.continueAlong(d.Reflect(normal))
		return
	}

	p.index = entering
	p.absorbing = !p.hit.Inside
	p.absorption = color
	p.continueAlong(refracted)
}

func (p *pathState) continueAlong(dir core.Vec3) {
	p.ray = core.Offset(p.hit.Point, dir.Normalize(), p.config.RayEpsilon)
}
