package renderer

import (
	"context"
	"runtime"
	"sync"
)

// TileTask is one tile to bring up to a sample target
type TileTask struct {
	Ctx           context.Context
	Tile          *Tile
	PassNumber    int
	TargetSamples int
	PixelStats    [][]PixelStats // shared framebuffer; the task owns the tile's pixels
}

// TileResult reports a finished or skipped tile
type TileResult struct {
	TileID int
	Stats  RenderStats
	Error  error
}

// WorkerPool renders tiles in parallel. Workers are started once and serve
// every pass until Stop.
type WorkerPool struct {
	renderer    *TileRenderer
	taskQueue   chan TileTask
	resultQueue chan TileResult
	numWorkers  int
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
}

// NewWorkerPool creates a pool sized for numTiles tiles. numWorkers <= 0
// uses one worker per CPU.
func NewWorkerPool(renderer *TileRenderer, numTiles, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		renderer:    renderer,
		taskQueue:   make(chan TileTask, numTiles),
		resultQueue: make(chan TileResult, numTiles),
		numWorkers:  numWorkers,
	}
}

// Start launches the workers; later calls do nothing
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		for i := 0; i < wp.numWorkers; i++ {
			wp.wg.Add(1)
			go wp.run()
		}
	})
}

// Stop lets workers finish queued tasks, then closes the result queue
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.taskQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
	})
}

// SubmitTask queues a tile
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// GetResult waits for the next finished tile
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

func (wp *WorkerPool) run() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		// Cancellation is honored between tiles only
		if err := task.Ctx.Err(); err != nil {
			wp.resultQueue <- TileResult{TileID: task.Tile.ID, Error: err}
			continue
		}

		stats := wp.renderer.RenderTileBounds(task.Tile.Bounds, task.PixelStats, task.Tile.Sampler(), task.TargetSamples)
		wp.resultQueue <- TileResult{TileID: task.Tile.ID, Stats: stats}
	}
}
