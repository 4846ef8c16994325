package renderer

import "github.com/df07/go-bvh-pathtracer/pkg/core"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int     // Total number of pixels rendered
	TotalSamples   int     // Total number of samples taken
	AverageSamples float64 // Average samples per pixel
	MaxSamples     int     // Sample target of the pass
	MinSamples     int     // Fewest samples held by any pixel
	MaxSamplesUsed int     // Most samples held by any pixel
}

// Merge folds tile statistics into s
func (s *RenderStats) Merge(other RenderStats) {
	if s.TotalPixels == 0 {
		s.MinSamples = other.MinSamples
	} else {
		s.MinSamples = min(s.MinSamples, other.MinSamples)
	}
	s.TotalPixels += other.TotalPixels
	s.TotalSamples += other.TotalSamples
	s.MaxSamples = max(s.MaxSamples, other.MaxSamples)
	s.MaxSamplesUsed = max(s.MaxSamplesUsed, other.MaxSamplesUsed)
	if s.TotalPixels > 0 {
		s.AverageSamples = float64(s.TotalSamples) / float64(s.TotalPixels)
	}
}

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	ColorAccum       core.Vec3 // RGB accumulator for final result
	LuminanceAccum   float64   // Luminance accumulator for convergence
	LuminanceSqAccum float64   // Luminance squared for variance
	SampleCount      int
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	luminance := color.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}
