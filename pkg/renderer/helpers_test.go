package renderer

import (
	"math"
	"testing"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/envmap"
	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
	"github.com/df07/go-bvh-pathtracer/pkg/integrator"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
)

// queueSampler replays fixed 2D draws in order, then repeats the last one
type queueSampler struct {
	draws []core.Vec2
}

func (q *queueSampler) Get1D() float64 { return q.Get2D().X }

func (q *queueSampler) Get2D() core.Vec2 {
	d := q.draws[0]
	if len(q.draws) > 1 {
		q.draws = q.draws[1:]
	}
	return d
}

// constantIntegrator returns the same radiance for every ray
type constantIntegrator struct {
	color core.Vec3
	calls int
}

func (c *constantIntegrator) RayColor(core.Ray, *scene.Scene, core.Sampler) core.Vec3 {
	c.calls++
	return c.color
}

func vecNear(a, b core.Vec3, tolerance float64) bool {
	return math.Abs(a.X-b.X) <= tolerance &&
		math.Abs(a.Y-b.Y) <= tolerance &&
		math.Abs(a.Z-b.Z) <= tolerance
}

// wallScene has a single sphere whose near surface is 4 units down -z
// from the origin
func wallScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.NewBuilder().
		WithSky(envmap.Uniform(core.Splat(0.25))).
		Add(geometry.NewSphere(core.NewVec3(0, 0, -5), 1, material.NewDiffuse(core.Splat(0.5)))).
		Build()
	if err != nil {
		t.Fatalf("Failed to build scene: %v", err)
	}
	return s
}

func newTestCamera(t *testing.T, s *scene.Scene, width, height int, lensSize float64) *Camera {
	t.Helper()
	config := DefaultCameraConfig()
	config.Width, config.Height = width, height
	view := scene.View{Origin: core.NewVec3(0, 0, 0), Target: core.NewVec3(0, 0, -1), LensSize: lensSize}
	return NewCamera(view, config, s)
}

func defaultScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.Default(envmap.Uniform(core.Splat(1)))
	if err != nil {
		t.Fatalf("Failed to build default scene: %v", err)
	}
	return s
}

func testProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:           8,
		InitialSamples:     1,
		MaxSamplesPerPixel: 5,
		MaxPasses:          3,
		NumWorkers:         2,
	}
}

func newTestRaytracer(t *testing.T, s *scene.Scene, config ProgressiveConfig) *ProgressiveRaytracer {
	t.Helper()
	camera := NewCamera(s.View(), CameraConfig{Width: 24, Height: 12, FocalCap: 20, MoveStep: 0.1}, s)
	pr := NewProgressiveRaytracer(s, camera, integrator.NewPathTracingIntegrator(integrator.DefaultConfig()), config)
	t.Cleanup(pr.Close)
	return pr
}
