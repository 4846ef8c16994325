package renderer

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/envmap"
	"github.com/df07/go-bvh-pathtracer/pkg/integrator"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
)

func TestProgressiveSampleCalculation(t *testing.T) {
	config := DefaultProgressiveConfig()
	config.InitialSamples = 1
	config.MaxSamplesPerPixel = 50
	config.MaxPasses = 7

	pr := &ProgressiveRaytracer{config: config}

	// (50-1)/6 = 8 per pass, the last pass takes the remainder
	expectedTotalSamples := []int{1, 9, 17, 25, 33, 41, 50}
	for pass := 1; pass <= 7; pass++ {
		if got := pr.getSamplesForPass(pass); got != expectedTotalSamples[pass-1] {
			t.Errorf("Pass %d: expected %d total samples, got %d", pass, expectedTotalSamples[pass-1], got)
		}
	}

	if got := pr.getSamplesForPass(12); got != 50 {
		t.Errorf("Expected passes beyond the last to keep the maximum, got %d", got)
	}

	pr.config.MaxPasses = 1
	if got := pr.getSamplesForPass(1); got != 50 {
		t.Errorf("Expected a single pass to take all samples, got %d", got)
	}
}

func TestProgressiveConfig(t *testing.T) {
	config := DefaultProgressiveConfig()

	if config.TileSize != 64 {
		t.Errorf("Expected default tile size 64, got %d", config.TileSize)
	}
	if config.InitialSamples != 1 {
		t.Errorf("Expected default initial samples 1, got %d", config.InitialSamples)
	}
	if config.MaxPasses != 7 {
		t.Errorf("Expected default max passes 7, got %d", config.MaxPasses)
	}

	normalized := ProgressiveConfig{MaxSamplesPerPixel: 0}.normalized()
	if normalized.TileSize != 1 || normalized.InitialSamples != 1 || normalized.MaxSamplesPerPixel != 1 || normalized.MaxPasses != 1 {
		t.Errorf("Expected zero config to normalize to ones, got %+v", normalized)
	}
}

func TestNewTileGrid(t *testing.T) {
	width, height, tileSize := 400, 225, 64
	tiles := NewTileGrid(width, height, tileSize)

	// 7 x 4 tiles
	if len(tiles) != 28 {
		t.Errorf("Expected 28 tiles, got %d", len(tiles))
	}

	covered := make([][]bool, height)
	for y := range covered {
		covered[y] = make([]bool, width)
	}

	for i, tile := range tiles {
		if tile.ID != i {
			t.Errorf("Expected tile %d to have ID %d", i, tile.ID)
		}
		for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
			for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
				if x >= width || y >= height {
					t.Fatalf("Tile %d extends beyond image bounds at (%d,%d)", tile.ID, x, y)
				}
				if covered[y][x] {
					t.Errorf("Pixel (%d,%d) is covered by multiple tiles", x, y)
				}
				covered[y][x] = true
			}
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !covered[y][x] {
				t.Errorf("Pixel (%d,%d) is not covered by any tile", x, y)
			}
		}
	}
}

func TestTileDeterministicRandom(t *testing.T) {
	bounds := image.Rect(0, 0, 64, 64)
	tile1 := NewTile(42, bounds)
	tile2 := NewTile(42, bounds)

	val1 := tile1.Sampler().Get1D()
	if val2 := tile2.Sampler().Get1D(); val1 != val2 {
		t.Errorf("Tiles with same ID should produce same random values: %f != %f", val1, val2)
	}

	if val3 := NewTile(43, bounds).Sampler().Get1D(); val1 == val3 {
		t.Error("Tiles with different IDs should produce different random values")
	}

	tile1.PassesCompleted = 3
	tile1.Reset(1)
	if tile1.PassesCompleted != 0 {
		t.Errorf("Expected reset to clear completed passes, got %d", tile1.PassesCompleted)
	}
	if next := tile1.Sampler().Get1D(); next == val1 {
		t.Error("Expected a new generation to reseed the tile")
	}

	tile1.Reset(0)
	if again := tile1.Sampler().Get1D(); again != val1 {
		t.Errorf("Expected generation 0 to replay %f, got %f", val1, again)
	}
}

func TestRenderPass_UniformSky(t *testing.T) {
	s, err := scene.NewBuilder().WithSky(envmap.Uniform(core.Splat(0.25))).Build()
	if err != nil {
		t.Fatal(err)
	}
	pr := newTestRaytracer(t, s, testProgressiveConfig())

	img, stats, err := pr.RenderPass(context.Background(), 1, nil)
	if err != nil {
		t.Fatal(err)
	}

	// sqrt(0.25) * 255 = 127.5
	for y := 0; y < 12; y++ {
		for x := 0; x < 24; x++ {
			if c := img.RGBAAt(x, y); c.R != 127 || c.G != 127 || c.B != 127 || c.A != 255 {
				t.Fatalf("Pixel (%d,%d): expected grey 127, got %v", x, y, c)
			}
		}
	}

	if stats.TotalPixels != 24*12 || stats.TotalSamples != 24*12 {
		t.Errorf("Expected one sample for each of %d pixels, got %+v", 24*12, stats)
	}
}

func TestRenderPass_DeterministicAcrossWorkerCounts(t *testing.T) {
	s := defaultScene(t)

	render := func(workers int) *image.RGBA {
		config := testProgressiveConfig()
		config.NumWorkers = workers
		pr := newTestRaytracer(t, s, config)

		var img *image.RGBA
		for pass := 1; pass <= 2; pass++ {
			var err error
			img, _, err = pr.RenderPass(context.Background(), pass, nil)
			if err != nil {
				t.Fatal(err)
			}
		}
		return img
	}

	a, b := render(1), render(4)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("Images differ at byte %d: %d vs %d", i, a.Pix[i], b.Pix[i])
		}
	}
}

func TestRenderPass_TileCallbacks(t *testing.T) {
	pr := newTestRaytracer(t, defaultScene(t), testProgressiveConfig())

	var results []TileCompletionResult
	_, _, err := pr.RenderPass(context.Background(), 1, func(r TileCompletionResult) {
		results = append(results, r)
	})
	if err != nil {
		t.Fatal(err)
	}

	// 24x12 in 8x8 tiles
	if len(results) != 6 {
		t.Fatalf("Expected 6 tile callbacks, got %d", len(results))
	}
	for _, r := range results {
		if r.TotalTiles != 6 || r.PassNumber != 1 {
			t.Errorf("Unexpected progress info %+v", r)
		}
		size := r.TileImage.Bounds().Size()
		if size.X != 8 || (size.Y != 8 && size.Y != 4) {
			t.Errorf("Unexpected tile image size %v", size)
		}
	}
	for _, tile := range pr.tiles {
		if tile.PassesCompleted != 1 {
			t.Errorf("Tile %d: expected 1 completed pass, got %d", tile.ID, tile.PassesCompleted)
		}
	}
}

func TestRenderPass_Cancelled(t *testing.T) {
	pr := newTestRaytracer(t, defaultScene(t), testProgressiveConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := pr.RenderPass(ctx, 1, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	// Skipped tiles leave no samples and no stale results behind
	_, stats, err := pr.RenderPass(context.Background(), 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSamples != 24*12 {
		t.Errorf("Expected %d samples after retry, got %d", 24*12, stats.TotalSamples)
	}
}

func TestReset_RestartsAccumulation(t *testing.T) {
	pr := newTestRaytracer(t, defaultScene(t), testProgressiveConfig())
	ctx := context.Background()

	for pass := 1; pass <= 3; pass++ {
		if _, _, err := pr.RenderPass(ctx, pass, nil); err != nil {
			t.Fatal(err)
		}
	}

	pr.Reset()
	if pr.Generation() != 1 {
		t.Errorf("Expected generation 1, got %d", pr.Generation())
	}

	_, stats, err := pr.RenderPass(ctx, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.MaxSamplesUsed != 1 || stats.AverageSamples != 1 {
		t.Errorf("Expected exactly one sample per pixel after reset, got %+v", stats)
	}
}

func TestRenderProgressive(t *testing.T) {
	s := defaultScene(t)
	camera := NewCamera(s.View(), CameraConfig{Width: 16, Height: 8, FocalCap: 20, MoveStep: 0.1}, s)
	pr := NewProgressiveRaytracer(s, camera, integrator.NewPathTracingIntegrator(integrator.DefaultConfig()), testProgressiveConfig())

	passChan, tileChan, errChan := pr.RenderProgressive(context.Background(), RenderOptions{TileUpdates: false})

	if _, ok := <-tileChan; ok {
		t.Error("Expected tile channel to be closed when tile updates are disabled")
	}

	var passes []PassResult
	for result := range passChan {
		passes = append(passes, result)
	}
	if err := <-errChan; err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(passes) != 3 {
		t.Fatalf("Expected 3 passes, got %d", len(passes))
	}
	for i, p := range passes {
		if p.PassNumber != i+1 {
			t.Errorf("Expected pass %d, got %d", i+1, p.PassNumber)
		}
		if p.IsLast != (i == 2) {
			t.Errorf("Pass %d: unexpected IsLast %v", p.PassNumber, p.IsLast)
		}
	}
	if got := passes[2].Stats.AverageSamples; got != 5 {
		t.Errorf("Expected 5 samples per pixel after the last pass, got %f", got)
	}

	if _, _, err := pr.RenderPass(context.Background(), 1, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after progressive rendering, got %v", err)
	}
	pr.Close()
}
