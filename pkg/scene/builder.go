package scene

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/df07/go-bvh-pathtracer/pkg/envmap"
	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
	"github.com/df07/go-bvh-pathtracer/pkg/loaders"
	"github.com/df07/go-bvh-pathtracer/pkg/log"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

var (
	// ErrNoSky is returned by Build when no environment map was supplied
	ErrNoSky = errors.New("scene: no environment map")
	// ErrNilPrimitive is returned by Build when a nil primitive was added
	ErrNilPrimitive = errors.New("scene: nil primitive")
)

var logger = log.New("scene")

// Builder collects primitives and settings for a Scene. The zero value is
// not usable; call NewBuilder.
type Builder struct {
	primitives []geometry.Primitive
	sky        *envmap.Map
	view       View
	config     geometry.BuildConfig
	err        error
}

// NewBuilder returns a builder with the default view and BVH configuration
func NewBuilder() *Builder {
	return &Builder{
		view:   DefaultView(),
		config: geometry.DefaultBuildConfig(),
	}
}

// Add appends a primitive
func (b *Builder) Add(p geometry.Primitive) *Builder {
	if p == nil {
		b.fail(fmt.Errorf("%w at index %d", ErrNilPrimitive, len(b.primitives)))
		return b
	}
	b.primitives = append(b.primitives, p)
	return b
}

// AddAll appends several primitives, such as the triangles of a box
func (b *Builder) AddAll(primitives []geometry.Primitive) *Builder {
	for _, p := range primitives {
		b.Add(p)
	}
	return b
}

// AddMesh appends every triangle of mesh with the given material
func (b *Builder) AddMesh(mesh *loaders.Mesh, mat material.Material) *Builder {
	b.primitives = append(b.primitives, mesh.Triangles(mat)...)
	return b
}

// WithSky sets the environment map
func (b *Builder) WithSky(sky *envmap.Map) *Builder {
	b.sky = sky
	return b
}

// WithView sets the initial camera placement
func (b *Builder) WithView(view View) *Builder {
	b.view = view
	return b
}

// WithBuildConfig overrides the BVH construction settings
func (b *Builder) WithBuildConfig(config geometry.BuildConfig) *Builder {
	b.config = config
	return b
}

// fail records the first error; Build reports it
func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build constructs the BVH and returns the finished scene. Any error
// recorded while adding content fails the whole build.
func (b *Builder) Build() (*Scene, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.sky == nil {
		return nil, ErrNoSky
	}

	primitives := slices.Clone(b.primitives)

	start := time.Now()
	bvh := geometry.NewBVH(primitives, b.config)
	stats := bvh.Stats()
	logger.Infof("built %s BVH over %d primitives in %v: %d nodes, %d leaves, depth %d",
		b.config.Strategy, stats.Primitives, time.Since(start), stats.Nodes, stats.Leaves, stats.MaxDepth)

	var lights []geometry.Primitive
	for _, p := range primitives {
		if p.IsLight() {
			lights = append(lights, p)
		}
	}

	return &Scene{
		primitives: primitives,
		lights:     lights,
		bvh:        bvh,
		sky:        b.sky,
		view:       b.view,
	}, nil
}
