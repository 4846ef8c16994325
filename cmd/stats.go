package cmd

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
	"github.com/df07/go-bvh-pathtracer/pkg/renderer"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
	"github.com/olekukonko/tablewriter"
)

func newTable(buf *bytes.Buffer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	return table
}

// renderStatsTable summarizes the final pass of a render
func renderStatsTable(stats renderer.RenderStats, passes int, elapsed time.Duration) string {
	var buf bytes.Buffer
	table := newTable(&buf, "Passes", "Pixels", "Samples", "Avg spp", "Min spp", "Max spp", "Render time")
	table.Append([]string{
		fmt.Sprintf("%d", passes),
		fmt.Sprintf("%d", stats.TotalPixels),
		fmt.Sprintf("%d", stats.TotalSamples),
		fmt.Sprintf("%.1f", stats.AverageSamples),
		fmt.Sprintf("%d", stats.MinSamples),
		fmt.Sprintf("%d", stats.MaxSamplesUsed),
		elapsed.Round(time.Millisecond).String(),
	})
	table.Render()
	return buf.String()
}

// bvhStatsTable lists one row per build strategy
func bvhStatsTable(stats map[string]geometry.BVHStats) string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	table := newTable(&buf, "Strategy", "Primitives", "Nodes", "Leaves", "Max depth", "Avg leaf depth", "Max leaf size")
	for _, name := range names {
		s := stats[name]
		table.Append([]string{
			name,
			fmt.Sprintf("%d", s.Primitives),
			fmt.Sprintf("%d", s.Nodes),
			fmt.Sprintf("%d", s.Leaves),
			fmt.Sprintf("%d", s.MaxDepth),
			fmt.Sprintf("%.2f", s.AvgLeafDepth),
			fmt.Sprintf("%d", s.MaxLeafSize),
		})
	}
	table.Render()
	return buf.String()
}

// sceneTable counts primitives by shape and material kind
func sceneTable(s *scene.Scene) string {
	type key struct{ shape, material string }
	counts := make(map[key]int)
	lights := make(map[key]int)
	for _, p := range s.Primitives() {
		shape, mat := primitiveMaterial(p)
		k := key{shape, "unknown"}
		if mat != nil {
			k.material, _ = material.Describe(mat)
		}
		counts[k]++
		if p.IsLight() {
			lights[k]++
		}
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].shape != keys[j].shape {
			return keys[i].shape < keys[j].shape
		}
		return keys[i].material < keys[j].material
	})

	var buf bytes.Buffer
	table := newTable(&buf, "Shape", "Material", "Count", "Emitters")
	for _, k := range keys {
		table.Append([]string{k.shape, k.material, fmt.Sprintf("%d", counts[k]), fmt.Sprintf("%d", lights[k])})
	}

	bounds := s.Bounds()
	width, height := s.Sky().Size()
	table.SetFooter([]string{
		fmt.Sprintf("sky %dx%d", width, height),
		fmt.Sprintf("bounds %.1f..%.1f", bounds.Min, bounds.Max),
		fmt.Sprintf("%d", len(s.Primitives())),
		fmt.Sprintf("%d", len(s.Lights())),
	})
	table.Render()
	return buf.String()
}

// scenesTable lists discovered scenes with the value to pass to --scene
func scenesTable(scenes []scene.SceneInfo) string {
	var buf bytes.Buffer
	table := newTable(&buf, "Scene", "Name", "Type", "Description")
	for _, info := range scenes {
		arg := info.ID
		if info.Type == "file" {
			arg = info.FilePath
		}
		table.Append([]string{arg, info.Name, info.Type, info.Description})
	}
	table.Render()
	return buf.String()
}

// benchTable lists benchmark runs with a totals footer
func benchTable(runs []benchRun, total renderer.RenderStats, elapsed time.Duration) string {
	var buf bytes.Buffer
	table := newTable(&buf, "Run", "Samples", "Avg spp", "Time", "Samples/s")
	for i, run := range runs {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", run.stats.TotalSamples),
			fmt.Sprintf("%.1f", run.stats.AverageSamples),
			run.elapsed.Round(time.Millisecond).String(),
			fmt.Sprintf("%.0f", samplesPerSecond(run.stats.TotalSamples, run.elapsed)),
		})
	}
	table.SetFooter([]string{
		"TOTAL",
		fmt.Sprintf("%d", total.TotalSamples),
		fmt.Sprintf("%.1f", total.AverageSamples),
		elapsed.Round(time.Millisecond).String(),
		fmt.Sprintf("%.0f", samplesPerSecond(total.TotalSamples, elapsed)),
	})
	table.Render()
	return buf.String()
}

// systemTable describes the benchmark host
func systemTable(info systemInfo, workers int) string {
	var buf bytes.Buffer
	table := newTable(&buf, "CPU", "Logical cores", "Clock", "RAM", "Workers")
	table.Append([]string{
		info.CPU,
		fmt.Sprintf("%d", info.Cores),
		fmt.Sprintf("%.2f GHz", info.GHz),
		fmt.Sprintf("%d GB", info.RAMGB),
		fmt.Sprintf("%d", workers),
	})
	table.Render()
	return buf.String()
}

func samplesPerSecond(samples int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(samples) / elapsed.Seconds()
}
