package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/envmap"
	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

// DefaultGridSize is the number of spheres along each side of SphereGrid
const DefaultGridSize = 20

// oklchToRGB converts OKLCH color values to linear RGB clamped to [0, 1].
// l is lightness (0-1), c is chroma (0-0.4) and h is hue in degrees.
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS, then cube
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b
	l_, m_, s_ = l_*l_*l_, m_*m_*m_, s_*s_*s_

	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.NewVec3(max(0, min(1, r)), max(0, min(1, g)), max(0, min(1, blue)))
}

// SphereGrid builds a gridSize x gridSize field of glossy spheres resting on
// a grey floor. Hue varies along x and chroma along z, so neighbouring
// spheres are easy to tell apart. The scene is mostly useful for measuring
// BVH quality with many small primitives.
func SphereGrid(sky *envmap.Map, gridSize int) (*Scene, error) {
	if gridSize < 2 {
		return nil, fmt.Errorf("scene: grid size must be at least 2, got %d", gridSize)
	}

	b := NewBuilder().WithSky(sky).WithView(View{
		Origin:   core.NewVec3(4.5, 6, 18),
		Target:   core.NewVec3(4.5, 0.8, 4.5),
		LensSize: 0.02,
	})

	b.Add(geometry.NewSphere(core.NewVec3(20, 25, 20), 8, material.NewEmissive(core.NewVec3(12, 11.5, 10))))
	b.Add(geometry.NewSphere(core.NewVec3(0, -5000, 0), 5000, material.NewDiffuse(core.Splat(0.5))))

	// The grid always covers the same 9x9 area
	const area = 9.0
	spacing := area / float64(gridSize-1)
	radius := max(0.02, min(0.35, spacing*0.35))

	const (
		lightness = 0.65
		minChroma = 0.05
		maxChroma = 0.25
	)

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			center := core.NewVec3(
				float64(i)*spacing-area/2+4.5,
				radius,
				float64(j)*spacing-area/2+4.5,
			)

			hue := float64(i) / float64(gridSize-1) * 360
			chroma := minChroma + float64(j)/float64(gridSize-1)*(maxChroma-minChroma)
			color := oklchToRGB(lightness+0.1*math.Sin(float64(i+j)*0.5), chroma, hue)

			specular := 0.5 + 0.2*float64((i+j)%3)
			b.Add(geometry.NewSphere(center, radius, material.NewGlossy(color, specular)))
		}
	}

	return b.Build()
}
