package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/envmap"
	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
	"github.com/df07/go-bvh-pathtracer/pkg/integrator"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
	"github.com/df07/go-bvh-pathtracer/pkg/renderer"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
	"github.com/urfave/cli"
)

// noSky selects a uniform white sky instead of loading a panorama
const noSky = "none"

// loadScene builds the JSON scene at sceneFile, or the named built-in scene
// lit by the panorama at sky. An empty sceneFile selects the default scene.
func loadScene(ctx context.Context, sceneFile, sky string) (*scene.Scene, error) {
	if sceneFile == "" {
		sceneFile = "default"
	}
	if !scene.IsBuiltin(sceneFile) {
		logger.Noticef("loading scene %s", sceneFile)
		return scene.LoadFile(ctx, sceneFile)
	}

	if sky == noSky {
		return scene.NewBuiltin(sceneFile, envmap.Uniform(core.Splat(1)))
	}
	logger.Noticef("loading built-in scene %s with sky %s", sceneFile, sky)
	return scene.LoadBuiltin(ctx, sceneFile, sky)
}

// sceneName is used to group output files
func sceneName(sceneFile string) string {
	if sceneFile == "" {
		return "default"
	}
	base := filepath.Base(sceneFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// outputPath returns out, or output/<scene>/render_<timestamp>.png
func outputPath(out, name string, now time.Time) string {
	if out != "" {
		return out
	}
	return filepath.Join("output", name, fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

// renderSettings gathers the renderer configuration from command flags
type renderSettings struct {
	camera      renderer.CameraConfig
	progressive renderer.ProgressiveConfig
	integrator  integrator.Config
	lensSize    float64 // negative keeps the scene's lens
}

func settingsFromFlags(ctx *cli.Context) renderSettings {
	settings := renderSettings{
		camera:      renderer.DefaultCameraConfig(),
		progressive: renderer.DefaultProgressiveConfig(),
		integrator:  integrator.DefaultConfig(),
		lensSize:    -1,
	}

	if ctx.Int("width") > 0 {
		settings.camera.Width = ctx.Int("width")
	}
	if ctx.Int("height") > 0 {
		settings.camera.Height = ctx.Int("height")
	}
	if ctx.Int("spp") > 0 {
		settings.progressive.MaxSamplesPerPixel = ctx.Int("spp")
	}
	if ctx.Int("passes") > 0 {
		settings.progressive.MaxPasses = ctx.Int("passes")
	}
	if ctx.Int("tile") > 0 {
		settings.progressive.TileSize = ctx.Int("tile")
	}
	if ctx.Int("depth") > 0 {
		settings.integrator.MaxDepth = ctx.Int("depth")
	}
	if ctx.IsSet("adaptive") {
		settings.progressive.Adaptive.Threshold = ctx.Float64("adaptive")
	}
	if ctx.IsSet("lens") {
		settings.lensSize = ctx.Float64("lens")
	}
	settings.progressive.NumWorkers = ctx.Int("workers")

	return settings
}

// newRaytracer wires a camera, integrator and progressive renderer for s
func newRaytracer(s *scene.Scene, settings renderSettings) *renderer.ProgressiveRaytracer {
	view := s.View()
	if settings.lensSize >= 0 {
		view.LensSize = settings.lensSize
	}

	camera := renderer.NewCamera(view, settings.camera, s)
	integ := integrator.NewPathTracingIntegrator(settings.integrator)
	return renderer.NewProgressiveRaytracer(s, camera, integ, settings.progressive)
}

// List the built-in scenes and the JSON scenes in a directory.
func ListScenes(ctx *cli.Context) error {
	setupLogging(ctx)

	scenes, err := scene.ListScenes(ctx.String("dir"))
	if err != nil {
		return err
	}
	logger.Noticef("available scenes:\n%s", scenesTable(scenes))
	return nil
}

// Display scene and BVH statistics.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	s, err := loadScene(context.Background(), ctx.String("scene"), ctx.String("sky"))
	if err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", sceneTable(s))

	stats := make(map[string]geometry.BVHStats)
	for _, strategy := range []geometry.SplitStrategy{geometry.SplitSAH, geometry.SplitMedian} {
		config := geometry.DefaultBuildConfig()
		config.Strategy = strategy
		if ctx.Int("leaf-size") > 0 {
			config.LeafSize = ctx.Int("leaf-size")
		}
		stats[strategy.String()] = geometry.NewBVH(s.Primitives(), config).Stats()
	}
	logger.Noticef("BVH statistics:\n%s", bvhStatsTable(stats))

	return nil
}

// primitiveMaterial returns the material of the primitive kinds the scene
// package builds
func primitiveMaterial(p geometry.Primitive) (kind string, mat material.Material) {
	switch p := p.(type) {
	case *geometry.Sphere:
		return "sphere", p.Material
	case *geometry.Triangle:
		return "triangle", p.Material
	default:
		return fmt.Sprintf("%T", p), nil
	}
}
