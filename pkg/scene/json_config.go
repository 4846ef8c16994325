package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/df07/go-bvh-pathtracer/pkg/asset"
	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/envmap"
	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
	"github.com/df07/go-bvh-pathtracer/pkg/loaders"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

var (
	// ErrUnknownMaterial is returned when an object names an undefined material
	ErrUnknownMaterial = errors.New("scene: unknown material")
	// ErrUnknownMaterialType is returned for an unrecognized material "type"
	ErrUnknownMaterialType = errors.New("scene: unknown material type")
	// ErrUnsupportedMesh is returned for mesh files of an unknown format
	ErrUnsupportedMesh = errors.New("scene: unsupported mesh format")
)

// Vec is a JSON [x, y, z] triple
type Vec [3]float64

func (v Vec) toVec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// Config is the JSON description of a scene
type Config struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	Sky       SkyCfg                 `json:"sky"`
	Camera    *CameraCfg             `json:"camera,omitempty"`
	BVH       *BVHCfg                `json:"bvh,omitempty"`
	Materials map[string]MaterialCfg `json:"materials"`
	Spheres   []SphereCfg            `json:"spheres,omitempty"`
	Triangles []TriangleCfg          `json:"triangles,omitempty"`
	Quads     []QuadCfg              `json:"quads,omitempty"`
	Boxes     []BoxCfg               `json:"boxes,omitempty"`
	Meshes    []MeshCfg              `json:"meshes,omitempty"`
}

// SkyCfg selects the environment. Path wins over Color; a raw panorama
// without an explicit size uses the default grid.
type SkyCfg struct {
	Path   string `json:"path,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Color  *Vec   `json:"color,omitempty"`
}

// CameraCfg places the camera; an absent LensSize keeps the default lens
type CameraCfg struct {
	Origin   Vec      `json:"origin"`
	Target   Vec      `json:"target"`
	LensSize *float64 `json:"lensSize,omitempty"`
}

// BVHCfg tunes acceleration structure construction
type BVHCfg struct {
	Strategy string `json:"strategy,omitempty"` // "sah" or "median"
	LeafSize int    `json:"leafSize,omitempty"`
	Bins     int    `json:"bins,omitempty"`
}

// MaterialCfg is a tagged material record. Which fields apply depends on Type:
// diffuse (color, specular), dielectric (ior, outsideIor, color),
// emissive (color), checkerboard (scale, dark) and legacy
// (reflectivity, transmittance, emissive, color).
type MaterialCfg struct {
	Type          string  `json:"type"`
	Color         *Vec    `json:"color,omitempty"`
	Specular      float64 `json:"specular,omitempty"`
	IOR           float64 `json:"ior,omitempty"`
	OutsideIOR    float64 `json:"outsideIor,omitempty"`
	Scale         float64 `json:"scale,omitempty"`
	Dark          float64 `json:"dark,omitempty"`
	Reflectivity  float64 `json:"reflectivity,omitempty"`
	Transmittance float64 `json:"transmittance,omitempty"`
	Emissive      bool    `json:"emissive,omitempty"`
}

// SphereCfg is a sphere referencing a named material
type SphereCfg struct {
	Center   Vec     `json:"center"`
	Radius   float64 `json:"radius"`
	Material string  `json:"material"`
}

// TriangleCfg is a triangle with optional per-vertex normals
type TriangleCfg struct {
	Vertices [3]Vec  `json:"vertices"`
	Normals  *[3]Vec `json:"normals,omitempty"`
	Material string  `json:"material"`
}

// QuadCfg is a parallelogram spanned by U and V from Corner, facing U × V
type QuadCfg struct {
	Corner   Vec    `json:"corner"`
	U        Vec    `json:"u"`
	V        Vec    `json:"v"`
	Material string `json:"material"`
}

// BoxCfg is a box with half-extents Size, rotated by Rotation degrees
// around X, Y and Z in that order
type BoxCfg struct {
	Center   Vec    `json:"center"`
	Size     Vec    `json:"size"`
	Rotation Vec    `json:"rotation,omitempty"`
	Material string `json:"material"`
}

// MeshCfg references a PLY, glTF or GLB file, resolved relative to the
// scene file
type MeshCfg struct {
	Path     string  `json:"path"`
	Material string  `json:"material"`
	Scale    float64 `json:"scale,omitempty"`
	Offset   Vec     `json:"offset,omitempty"`
}

func colorOr(v *Vec, fallback core.Vec3) core.Vec3 {
	if v == nil {
		return fallback
	}
	return v.toVec3()
}

// Build validates the record and creates the material
func (mc MaterialCfg) Build() (material.Material, error) {
	switch strings.ToLower(mc.Type) {
	case "diffuse", "":
		return material.NewGlossy(colorOr(mc.Color, core.Splat(1)), mc.Specular), nil
	case "dielectric":
		if mc.IOR <= 0 {
			return nil, fmt.Errorf("dielectric ior must be > 0, got %g", mc.IOR)
		}
		m := material.NewTintedDielectric(mc.IOR, colorOr(mc.Color, core.Splat(1)))
		if mc.OutsideIOR > 0 {
			m.IncidentIndex = mc.OutsideIOR
		}
		return m, nil
	case "emissive":
		return material.NewEmissive(colorOr(mc.Color, core.Splat(1))), nil
	case "checkerboard":
		checker := material.NewCheckerboard()
		if mc.Scale > 0 {
			checker.Scale = mc.Scale
		}
		if mc.Dark > 0 {
			checker.Dark = core.Splat(mc.Dark)
		}
		return material.NewProcedural(checker), nil
	case "legacy":
		return &material.Legacy{
			Reflectivity:  mc.Reflectivity,
			Transmittance: mc.Transmittance,
			Emissive:      mc.Emissive,
			Color:         colorOr(mc.Color, core.Splat(1)),
		}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownMaterialType, mc.Type)
}

func (bc BVHCfg) Build() (geometry.BuildConfig, error) {
	config := geometry.DefaultBuildConfig()
	switch strings.ToLower(bc.Strategy) {
	case "", "sah":
		config.Strategy = geometry.SplitSAH
	case "median":
		config.Strategy = geometry.SplitMedian
	default:
		return config, fmt.Errorf("unknown BVH strategy %q", bc.Strategy)
	}
	if bc.LeafSize > 0 {
		config.LeafSize = bc.LeafSize
	}
	if bc.Bins > 0 {
		config.Bins = bc.Bins
	}
	return config, nil
}

// ParseConfig decodes a JSON scene description. Unknown fields are errors.
func ParseConfig(r io.Reader) (*Config, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return &cfg, nil
}

// LoadFile reads a JSON scene from a path or URL and builds it
func LoadFile(ctx context.Context, location string) (*Scene, error) {
	res, err := asset.Open(ctx, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene: %w", err)
	}
	defer res.Close()

	cfg, err := ParseConfig(res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Path(), err)
	}
	return cfg.Build(ctx, res)
}

// Build creates the scene. Sky and mesh locations are resolved against
// source when it is not nil. The first failing asset fails the build.
func (c *Config) Build(ctx context.Context, source *asset.Resource) (*Scene, error) {
	b := NewBuilder()

	materials := make(map[string]material.Material, len(c.Materials))
	for name, mc := range c.Materials {
		m, err := mc.Build()
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		materials[name] = m
	}
	lookup := func(name string) (material.Material, error) {
		m, ok := materials[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownMaterial, name)
		}
		return m, nil
	}

	sky, err := c.Sky.build(ctx, source)
	if err != nil {
		return nil, err
	}
	b.WithSky(sky)

	if c.Camera != nil {
		view := DefaultView()
		view.Origin, view.Target = c.Camera.Origin.toVec3(), c.Camera.Target.toVec3()
		if c.Camera.LensSize != nil {
			view.LensSize = *c.Camera.LensSize
		}
		b.WithView(view)
	}

	if c.BVH != nil {
		config, err := c.BVH.Build()
		if err != nil {
			return nil, err
		}
		b.WithBuildConfig(config)
	}

	for i, sc := range c.Spheres {
		m, err := lookup(sc.Material)
		if err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		b.Add(geometry.NewSphere(sc.Center.toVec3(), sc.Radius, m))
	}

	for i, tc := range c.Triangles {
		m, err := lookup(tc.Material)
		if err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i, err)
		}
		v0, v1, v2 := tc.Vertices[0].toVec3(), tc.Vertices[1].toVec3(), tc.Vertices[2].toVec3()
		if tc.Normals != nil {
			n := tc.Normals
			b.Add(geometry.NewSmoothTriangle(v0, v1, v2, n[0].toVec3(), n[1].toVec3(), n[2].toVec3(), m))
		} else {
			b.Add(geometry.NewTriangle(v0, v1, v2, m))
		}
	}

	for i, qc := range c.Quads {
		m, err := lookup(qc.Material)
		if err != nil {
			return nil, fmt.Errorf("quad %d: %w", i, err)
		}
		b.AddAll(geometry.NewQuad(qc.Corner.toVec3(), qc.U.toVec3(), qc.V.toVec3(), m))
	}

	for i, bc := range c.Boxes {
		m, err := lookup(bc.Material)
		if err != nil {
			return nil, fmt.Errorf("box %d: %w", i, err)
		}
		rotation := bc.Rotation.toVec3().Multiply(math.Pi / 180)
		b.AddAll(geometry.NewBox(bc.Center.toVec3(), bc.Size.toVec3(), rotation, m))
	}

	for i, mc := range c.Meshes {
		m, err := lookup(mc.Material)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		mesh, err := mc.load(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		logger.Infof("loaded mesh %s: %d vertices, %d triangles", mesh.Name, len(mesh.Positions), len(mesh.Faces))
		b.AddMesh(mesh, m)
	}

	return b.Build()
}

func (sc SkyCfg) build(ctx context.Context, source *asset.Resource) (*envmap.Map, error) {
	if sc.Path == "" {
		return envmap.Uniform(colorOr(sc.Color, core.Vec3{})), nil
	}
	width, height := sc.Width, sc.Height
	if width == 0 && height == 0 {
		width, height = envmap.DefaultWidth, envmap.DefaultHeight
	}
	return LoadSky(ctx, sc.Path, width, height, source)
}

func (mc MeshCfg) load(ctx context.Context, source *asset.Resource) (*loaders.Mesh, error) {
	res, err := asset.Open(ctx, mc.Path, source)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var mesh *loaders.Mesh
	switch ext := strings.ToLower(filepath.Ext(res.Name())); ext {
	case ".ply":
		mesh, err = loaders.ReadPLY(res)
	case ".glb":
		mesh, err = loaders.ReadGLB(res)
	case ".gltf":
		// External buffers need a file system to resolve against
		if res.IsRemote() {
			return nil, fmt.Errorf("%w: remote .gltf %s", ErrUnsupportedMesh, res.Path())
		}
		mesh, err = loaders.LoadGLTF(res.Path())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMesh, ext)
	}
	if err != nil {
		return nil, err
	}
	mesh.Name = res.Name()

	scale := mc.Scale
	if scale == 0 {
		scale = 1
	}
	mesh.Transform(scale, mc.Offset.toVec3())
	return mesh, nil
}
