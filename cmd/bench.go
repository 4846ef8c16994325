package cmd

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/df07/go-bvh-pathtracer/pkg/renderer"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/urfave/cli"
)

type systemInfo struct {
	CPU   string
	Cores int
	GHz   float64
	RAMGB uint64
}

func getSystemInfo() (systemInfo, error) {
	cpuInfo, err := cpu.Info()
	if err != nil {
		return systemInfo{}, err
	}
	if len(cpuInfo) == 0 {
		return systemInfo{}, fmt.Errorf("no CPU information available")
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return systemInfo{}, err
	}

	return systemInfo{
		CPU:   cpuInfo[0].ModelName,
		Cores: runtime.NumCPU(),
		GHz:   cpuInfo[0].Mhz / 1000,
		RAMGB: memInfo.Total / (1024 * 1024 * 1024),
	}, nil
}

type benchRun struct {
	stats   renderer.RenderStats
	elapsed time.Duration
}

// runBenchmark renders every pass runs times, restarting accumulation
// between runs
func runBenchmark(ctx context.Context, raytracer *renderer.ProgressiveRaytracer, runs int) ([]benchRun, error) {
	results := make([]benchRun, 0, runs)
	for i := 0; i < runs; i++ {
		if i > 0 {
			raytracer.Reset()
		}

		start := time.Now()
		var stats renderer.RenderStats
		for pass := 1; pass <= raytracer.Config().MaxPasses; pass++ {
			var err error
			if _, stats, err = raytracer.RenderPass(ctx, pass, nil); err != nil {
				return results, err
			}
		}
		results = append(results, benchRun{stats: stats, elapsed: time.Since(start)})
	}
	return results, nil
}

// Benchmark rendering throughput on this host.
func Benchmark(ctx *cli.Context) error {
	setupLogging(ctx)

	s, err := loadScene(context.Background(), ctx.String("scene"), ctx.String("sky"))
	if err != nil {
		return err
	}

	settings := settingsFromFlags(ctx)
	raytracer := newRaytracer(s, settings)
	defer raytracer.Close()

	workers := settings.progressive.NumWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if info, err := getSystemInfo(); err != nil {
		logger.Warningf("could not read system information: %v", err)
	} else {
		logger.Noticef("host\n%s", systemTable(info, workers))
	}

	runs, err := runBenchmark(context.Background(), raytracer, max(1, ctx.Int("runs")))
	if err != nil {
		return err
	}

	var total renderer.RenderStats
	var elapsed time.Duration
	for _, run := range runs {
		total.Merge(run.stats)
		elapsed += run.elapsed
	}
	logger.Noticef("benchmark results\n%s", benchTable(runs, total, elapsed))
	return nil
}
