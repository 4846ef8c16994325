package renderer

import (
	"image"
	"math"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/integrator"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
)

// AdaptiveConfig controls when a pixel stops taking samples before the
// pass target
type AdaptiveConfig struct {
	MinSamples float64 // fraction of the target taken before convergence is tested
	Threshold  float64 // relative luminance error below which a pixel is converged; 0 disables
}

// TileRenderer renders pixel ranges with an integrator
type TileRenderer struct {
	scene      *scene.Scene
	camera     *Camera
	integrator integrator.Integrator
	adaptive   AdaptiveConfig
}

// NewTileRenderer creates a tile renderer for one scene and camera
func NewTileRenderer(s *scene.Scene, camera *Camera, integ integrator.Integrator, adaptive AdaptiveConfig) *TileRenderer {
	return &TileRenderer{
		scene:      s,
		camera:     camera,
		integrator: integ,
		adaptive:   adaptive,
	}
}

// RenderTileBounds brings every pixel within bounds up to targetSamples,
// unless it converges first. pixelStats is indexed by global image
// coordinates; only the pixels inside bounds are touched.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler, targetSamples int) RenderStats {
	stats := RenderStats{
		TotalPixels: bounds.Dx() * bounds.Dy(),
		MaxSamples:  targetSamples,
		MinSamples:  targetSamples,
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			used := tr.samplePixel(x, y, &pixelStats[y][x], sampler, targetSamples)
			stats.TotalSamples += used
			stats.MinSamples = min(stats.MinSamples, used)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, used)
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return stats
}

func (tr *TileRenderer) samplePixel(x, y int, ps *PixelStats, sampler core.Sampler, targetSamples int) int {
	initial := ps.SampleCount
	for ps.SampleCount < targetSamples && !tr.shouldStopSampling(ps, targetSamples) {
		ray := tr.camera.GenerateRay(x, y, sampler)
		ps.AddSample(tr.integrator.RayColor(ray, tr.scene, sampler))
	}
	return ps.SampleCount - initial
}

// shouldStopSampling tests the coefficient of variation of the pixel's
// luminance against the adaptive threshold
func (tr *TileRenderer) shouldStopSampling(ps *PixelStats, targetSamples int) bool {
	if tr.adaptive.Threshold <= 0 {
		return false
	}

	minSamples := max(1, int(float64(targetSamples)*tr.adaptive.MinSamples))
	if ps.SampleCount < minSamples {
		return false
	}

	mean := ps.LuminanceAccum / float64(ps.SampleCount)
	meanSq := ps.LuminanceSqAccum / float64(ps.SampleCount)
	variance := math.Max(0, meanSq-mean*mean)

	// Black pixels
	if mean <= 1e-8 {
		return variance < 1e-6
	}

	return math.Sqrt(variance)/mean < tr.adaptive.Threshold
}
