package renderer

import (
	"image"
	"testing"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
)

func newPixelStats(width, height int) [][]PixelStats {
	stats := make([][]PixelStats, height)
	for y := range stats {
		stats[y] = make([]PixelStats, width)
	}
	return stats
}

func TestTileRenderer_AdaptiveSampling(t *testing.T) {
	tests := []struct {
		name            string
		color           core.Vec3
		adaptive        AdaptiveConfig
		expectedSamples int
	}{
		{"disabled", core.Splat(0.5), AdaptiveConfig{MinSamples: 0.1, Threshold: 0}, 100},
		{"constant color converges", core.Splat(0.5), AdaptiveConfig{MinSamples: 0.1, Threshold: 0.01}, 10},
		{"black converges", core.Vec3{}, AdaptiveConfig{MinSamples: 0.1, Threshold: 0.01}, 10},
		{"at least one sample", core.Splat(0.5), AdaptiveConfig{MinSamples: 0, Threshold: 0.01}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := wallScene(t)
			integ := &constantIntegrator{color: tt.color}
			tr := NewTileRenderer(s, newTestCamera(t, s, 4, 4, 0), integ, tt.adaptive)

			pixels := newPixelStats(4, 4)
			stats := tr.RenderTileBounds(image.Rect(1, 1, 3, 3), pixels, core.NewSeededSampler(42), 100)

			if stats.TotalPixels != 4 {
				t.Errorf("Expected 4 pixels, got %d", stats.TotalPixels)
			}
			if stats.MinSamples != tt.expectedSamples || stats.MaxSamplesUsed != tt.expectedSamples {
				t.Errorf("Expected %d samples per pixel, got min %d max %d", tt.expectedSamples, stats.MinSamples, stats.MaxSamplesUsed)
			}
			if integ.calls != 4*tt.expectedSamples {
				t.Errorf("Expected %d integrator calls, got %d", 4*tt.expectedSamples, integ.calls)
			}

			if pixels[0][0].SampleCount != 0 || pixels[3][3].SampleCount != 0 {
				t.Error("Pixels outside the bounds were sampled")
			}
			if got := pixels[1][2].GetColor(); !vecNear(got, tt.color, 1e-12) {
				t.Errorf("Expected pixel color %v, got %v", tt.color, got)
			}
		})
	}
}

func TestTileRenderer_ResumesFromExistingSamples(t *testing.T) {
	s := wallScene(t)
	integ := &constantIntegrator{color: core.Splat(1)}
	tr := NewTileRenderer(s, newTestCamera(t, s, 2, 2, 0), integ, AdaptiveConfig{})

	pixels := newPixelStats(2, 2)
	bounds := image.Rect(0, 0, 2, 2)
	tr.RenderTileBounds(bounds, pixels, core.NewSeededSampler(1), 3)
	stats := tr.RenderTileBounds(bounds, pixels, core.NewSeededSampler(1), 8)

	if stats.TotalSamples != 4*5 {
		t.Errorf("Expected 5 new samples per pixel, got %d total", stats.TotalSamples)
	}
	if pixels[1][1].SampleCount != 8 {
		t.Errorf("Expected 8 accumulated samples, got %d", pixels[1][1].SampleCount)
	}
}
