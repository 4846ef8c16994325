package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"time"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/integrator"
	"github.com/df07/go-bvh-pathtracer/pkg/log"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
)

var logger = log.New("renderer")

// ErrClosed is returned when rendering on a closed raytracer
var ErrClosed = errors.New("renderer: closed")

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TileSize           int // Size of each tile (64x64 recommended)
	InitialSamples     int // Samples for first pass (1 recommended)
	MaxSamplesPerPixel int // Maximum total samples per pixel
	MaxPasses          int // Maximum number of passes
	NumWorkers         int // Number of parallel workers (0 = use CPU count)
	Adaptive           AdaptiveConfig
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:           64,
		InitialSamples:     1,
		MaxSamplesPerPixel: 64,
		MaxPasses:          7,
		NumWorkers:         0,
		Adaptive: AdaptiveConfig{
			MinSamples: 0.15,
			Threshold:  0.01,
		},
	}
}

func (c ProgressiveConfig) normalized() ProgressiveConfig {
	c.TileSize = max(1, c.TileSize)
	c.InitialSamples = max(1, c.InitialSamples)
	c.MaxSamplesPerPixel = max(c.InitialSamples, c.MaxSamplesPerPixel)
	c.MaxPasses = max(1, c.MaxPasses)
	return c
}

// ProgressiveRaytracer accumulates samples over successive passes. Moving
// the camera must be followed by Reset, and neither may happen while a pass
// is running.
type ProgressiveRaytracer struct {
	scene         *scene.Scene
	camera        *Camera
	width, height int
	config        ProgressiveConfig
	tiles         []*Tile
	pixelStats    [][]PixelStats // global image coordinates
	workerPool    *WorkerPool
	generation    int
	closed        bool
}

// NewProgressiveRaytracer creates a raytracer for the camera's image size
func NewProgressiveRaytracer(s *scene.Scene, camera *Camera, integ integrator.Integrator, config ProgressiveConfig) *ProgressiveRaytracer {
	config = config.normalized()
	width, height := camera.Size()

	tiles := NewTileGrid(width, height, config.TileSize)

	pixelStats := make([][]PixelStats, height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, width)
	}

	tileRenderer := NewTileRenderer(s, camera, integ, config.Adaptive)

	return &ProgressiveRaytracer{
		scene:      s,
		camera:     camera,
		width:      width,
		height:     height,
		config:     config,
		tiles:      tiles,
		pixelStats: pixelStats,
		workerPool: NewWorkerPool(tileRenderer, len(tiles), config.NumWorkers),
	}
}

// Config returns the normalized configuration
func (pr *ProgressiveRaytracer) Config() ProgressiveConfig {
	return pr.config
}

// Camera returns the camera rays are generated from
func (pr *ProgressiveRaytracer) Camera() *Camera {
	return pr.camera
}

// Generation counts accumulation resets
func (pr *ProgressiveRaytracer) Generation() int {
	return pr.generation
}

// Reset discards all accumulated samples and reseeds every tile for the
// next generation
func (pr *ProgressiveRaytracer) Reset() {
	pr.generation++
	for y := range pr.pixelStats {
		clear(pr.pixelStats[y])
	}
	for _, tile := range pr.tiles {
		tile.Reset(pr.generation)
	}
	logger.Debugf("Accumulation reset (generation %d)", pr.generation)
}

// Close stops the workers. The raytracer cannot render afterwards.
func (pr *ProgressiveRaytracer) Close() {
	pr.closed = true
	pr.workerPool.Stop()
}

// getSamplesForPass calculates the target total samples for a given pass
func (pr *ProgressiveRaytracer) getSamplesForPass(passNumber int) int {
	if pr.config.MaxPasses == 1 {
		return pr.config.MaxSamplesPerPixel
	}

	if passNumber <= 1 {
		return pr.config.InitialSamples
	}
	if passNumber >= pr.config.MaxPasses {
		return pr.config.MaxSamplesPerPixel
	}

	// Divide remaining samples evenly across remaining passes
	remainingSamples := pr.config.MaxSamplesPerPixel - pr.config.InitialSamples
	samplesPerPass := remainingSamples / (pr.config.MaxPasses - 1)
	return pr.config.InitialSamples + (passNumber-1)*samplesPerPass
}

// RenderPass brings every tile up to the sample target of passNumber. Tiles
// not yet started when ctx is cancelled are skipped and the context error
// is returned.
func (pr *ProgressiveRaytracer) RenderPass(ctx context.Context, passNumber int, tileCallback func(TileCompletionResult)) (*image.RGBA, RenderStats, error) {
	if pr.closed {
		return nil, RenderStats{}, ErrClosed
	}

	targetSamples := pr.getSamplesForPass(passNumber)
	logger.Infof("Pass %d: target %d samples per pixel (using %d workers)",
		passNumber, targetSamples, pr.workerPool.GetNumWorkers())

	pr.workerPool.Start()

	for _, tile := range pr.tiles {
		pr.workerPool.SubmitTask(TileTask{
			Ctx:           ctx,
			Tile:          tile,
			PassNumber:    passNumber,
			TargetSamples: targetSamples,
			PixelStats:    pr.pixelStats,
		})
	}

	// Every submitted tile reports back, so the queues are empty afterwards
	// even when the pass is cancelled
	var firstErr error
	for i := 0; i < len(pr.tiles); i++ {
		result, ok := pr.workerPool.GetResult()
		if !ok {
			return nil, RenderStats{}, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}

		tile := pr.tiles[result.TileID]
		tile.PassesCompleted++

		if tileCallback != nil {
			tileCallback(TileCompletionResult{
				TileX:       tile.Bounds.Min.X / pr.config.TileSize,
				TileY:       tile.Bounds.Min.Y / pr.config.TileSize,
				TileImage:   pr.extractTileImage(tile),
				PassNumber:  passNumber,
				TileNumber:  i + 1,
				TotalTiles:  len(pr.tiles),
				TotalPasses: pr.config.MaxPasses,
			})
		}
	}
	if firstErr != nil {
		return nil, RenderStats{}, firstErr
	}

	img, stats := pr.assembleCurrentImage(targetSamples)
	return img, stats, nil
}

// extractTileImage copies a tile out of the shared pixel stats
func (pr *ProgressiveRaytracer) extractTileImage(tile *Tile) *image.RGBA {
	bounds := tile.Bounds
	tileImage := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			stats := &pr.pixelStats[y][x]
			if stats.SampleCount > 0 {
				tileImage.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, vec3ToColor(stats.GetColor()))
			}
		}
	}

	return tileImage
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	Elapsed    time.Duration
	IsLast     bool
}

// TileCompletionResult contains information about a completed tile for callbacks
type TileCompletionResult struct {
	TileX      int // Tile coordinates (not pixel coordinates)
	TileY      int
	TileImage  *image.RGBA // Image data for just this tile
	PassNumber int

	TileNumber  int // Current tile number in this pass (1-based)
	TotalTiles  int
	TotalPasses int
}

// RenderOptions configures progressive rendering behavior
type RenderOptions struct {
	TileUpdates bool // Whether to generate tile completion events
}

// RenderProgressive runs every pass in a goroutine and reports through
// channels. The raytracer is closed when the last pass is sent or ctx is
// cancelled. If options.TileUpdates is false the tile channel is closed
// immediately.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context, options RenderOptions) (<-chan PassResult, <-chan TileCompletionResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	tileChan := make(chan TileCompletionResult, 100)
	errChan := make(chan error, 1)

	if !options.TileUpdates {
		close(tileChan)
	}

	go func() {
		defer close(passChan)
		if options.TileUpdates {
			defer close(tileChan)
		}
		defer close(errChan)
		defer pr.Close()

		logger.Infof("Starting progressive rendering with %d passes", pr.config.MaxPasses)

		for pass := 1; pass <= pr.config.MaxPasses; pass++ {
			if err := ctx.Err(); err != nil {
				logger.Infof("Rendering cancelled before pass %d", pass)
				errChan <- err
				return
			}

			var tileCallback func(TileCompletionResult)
			if options.TileUpdates {
				tileCallback = func(result TileCompletionResult) {
					select {
					case tileChan <- result:
					case <-ctx.Done():
					default:
						// Slow consumer; the pass image still carries the tile
					}
				}
			}

			start := time.Now()
			img, stats, err := pr.RenderPass(ctx, pass, tileCallback)
			if err != nil {
				errChan <- err
				return
			}
			elapsed := time.Since(start)

			logger.Infof("Pass %d completed in %v (average %.1f samples/pixel)", pass, elapsed, stats.AverageSamples)

			isLast := pass == pr.config.MaxPasses || stats.MinSamples >= pr.config.MaxSamplesPerPixel
			select {
			case passChan <- PassResult{PassNumber: pass, Image: img, Stats: stats, Elapsed: elapsed, IsLast: isLast}:
			case <-ctx.Done():
				return
			}

			if isLast {
				return
			}
		}
	}()

	return passChan, tileChan, errChan
}

// assembleCurrentImage converts the accumulated samples to an image and
// gathers statistics in one sweep
func (pr *ProgressiveRaytracer) assembleCurrentImage(targetSamples int) (*image.RGBA, RenderStats) {
	img := image.NewRGBA(image.Rect(0, 0, pr.width, pr.height))

	stats := RenderStats{
		TotalPixels: pr.width * pr.height,
		MaxSamples:  targetSamples,
		MinSamples:  pr.config.MaxSamplesPerPixel,
	}

	for y := 0; y < pr.height; y++ {
		for x := 0; x < pr.width; x++ {
			pixel := &pr.pixelStats[y][x]
			img.SetRGBA(x, y, vec3ToColor(pixel.GetColor()))

			stats.TotalSamples += pixel.SampleCount
			stats.MinSamples = min(stats.MinSamples, pixel.SampleCount)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, pixel.SampleCount)
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return img, stats
}

// Tile is a rectangular region of the image rendered by one worker at a time
type Tile struct {
	ID              int
	Bounds          image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	PassesCompleted int
	Random          *rand.Rand // Tile-specific random generator for deterministic results
}

// NewTile creates a tile seeded for generation 0
func NewTile(id int, bounds image.Rectangle) *Tile {
	tile := &Tile{ID: id, Bounds: bounds}
	tile.Reset(0)
	return tile
}

// Reset reseeds the tile for a new accumulation generation
func (t *Tile) Reset(generation int) {
	t.PassesCompleted = 0
	t.Random = rand.New(rand.NewSource(tileSeed(t.ID, generation)))
}

// Sampler returns a sampler drawing from the tile's generator
func (t *Tile) Sampler() core.Sampler {
	return core.NewRandomSampler(t.Random)
}

// tileSeed never returns 0 and differs for every (id, generation) pair of
// realistic size
func tileSeed(id, generation int) int64 {
	return int64(id+42) + int64(generation)*1_000_003
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []*Tile {
	var tiles []*Tile

	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, NewTile(len(tiles), image.Rect(x0, y0, x1, y1)))
		}
	}

	return tiles
}
