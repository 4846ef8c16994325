package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-bvh-pathtracer/pkg/asset"
	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/envmap"
	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
	"github.com/df07/go-bvh-pathtracer/pkg/loaders"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

// DefaultSkyPath is where the bundled panorama is looked up
const DefaultSkyPath = "assets/sky_15.raw"

// Default builds the built-in scene: a warm spherical light, a checkered
// floor and a back wall made of huge spheres, a row of three small spheres
// (red glossy, green glass, blue glossy) above three larger white ones.
func Default(sky *envmap.Map) (*Scene, error) {
	white := material.NewDiffuse(core.Splat(1))

	b := NewBuilder().WithSky(sky).WithView(DefaultView())

	b.Add(geometry.NewSphere(core.NewVec3(2.7, 1.7, -0.5), 0.3, material.NewEmissive(core.NewVec3(8.5, 8.5, 7.0))))

	// Floor and back wall
	b.Add(geometry.NewSphere(core.NewVec3(0, -4999, 0), 4998.5, material.NewProcedural(material.NewCheckerboard())))
	b.Add(geometry.NewSphere(core.NewVec3(0, 0, -5000), 4998.5, white))

	b.Add(geometry.NewSphere(core.NewVec3(-0.8, 0, -2), 0.09, material.NewGlossy(core.NewVec3(1, 0.2, 0.2), 0.8)))
	b.Add(geometry.NewSphere(core.NewVec3(0, 0, -2), 0.09, material.NewTintedDielectric(1.5, core.NewVec3(0.9, 1, 0.9))))
	b.Add(geometry.NewSphere(core.NewVec3(0.8, 0, -2), 0.09, material.NewGlossy(core.NewVec3(0.2, 0.2, 1), 0.8)))

	for _, x := range []float64{-0.8, 0, 0.8} {
		b.Add(geometry.NewSphere(core.NewVec3(x, -0.8, -2), 0.25, white))
	}

	return b.Build()
}

// LoadDefault loads the sky at skyLocation and builds the default scene
func LoadDefault(ctx context.Context, skyLocation string) (*Scene, error) {
	return LoadBuiltin(ctx, "default", skyLocation)
}

// LoadSky opens an environment panorama from a path or URL. PNG and JPEG
// files carry their own size; anything else is read as raw big-endian
// floats of the given width and height. relTo, when set, anchors relative
// locations.
func LoadSky(ctx context.Context, location string, width, height int, relTo *asset.Resource) (*envmap.Map, error) {
	res, err := asset.Open(ctx, location, relTo)
	if err != nil {
		return nil, fmt.Errorf("failed to open sky: %w", err)
	}
	defer res.Close()

	var sky *envmap.Map
	switch strings.ToLower(filepath.Ext(res.Name())) {
	case ".png", ".jpg", ".jpeg":
		sky, err = loaders.DecodeSkyImage(res)
	default:
		sky, err = envmap.Decode(res, width, height)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sky %s: %w", res.Path(), err)
	}
	return sky, nil
}
