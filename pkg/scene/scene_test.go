package scene

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/envmap"
	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

var grey = material.NewDiffuse(core.Splat(0.5))

func TestBuilder_Errors(t *testing.T) {
	if _, err := NewBuilder().Add(geometry.NewSphere(core.Vec3{}, 1, grey)).Build(); !errors.Is(err, ErrNoSky) {
		t.Errorf("Expected ErrNoSky, got %v", err)
	}

	_, err := NewBuilder().WithSky(envmap.Uniform(core.Vec3{})).Add(nil).Build()
	if !errors.Is(err, ErrNilPrimitive) {
		t.Errorf("Expected ErrNilPrimitive, got %v", err)
	}
}

func TestBuilder_SceneIsUnaffectedByLaterAdds(t *testing.T) {
	b := NewBuilder().WithSky(envmap.Uniform(core.Vec3{}))
	b.Add(geometry.NewSphere(core.NewVec3(0, 0, -5), 1, grey))

	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	b.Add(geometry.NewSphere(core.NewVec3(0, 0, -2), 1, grey))

	if len(s.Primitives()) != 1 {
		t.Fatalf("Expected 1 primitive, got %d", len(s.Primitives()))
	}
	hit, ok := s.IntersectClosest(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)))
	if !ok || math.Abs(hit.Distance-4) > 1e-9 {
		t.Errorf("Expected hit at 4 on the original sphere, got %v (ok=%v)", hit.Distance, ok)
	}
}

func TestEmptySceneMisses(t *testing.T) {
	s, err := NewBuilder().WithSky(envmap.Uniform(core.NewVec3(0.1, 0.2, 0.3))).Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.IntersectClosest(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1))); ok {
		t.Error("Expected no hit in an empty scene")
	}
	if sky := s.SampleSkybox(core.NewVec3(0, 1, 0)); !vecClose(sky, core.NewVec3(0.1, 0.2, 0.3), 1e-6) {
		t.Errorf("Expected uniform sky color, got %v", sky)
	}
}

func TestDefaultScene(t *testing.T) {
	s, err := Default(envmap.Uniform(core.Splat(1)))
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	if len(s.Primitives()) != 9 {
		t.Errorf("Expected 9 primitives, got %d", len(s.Primitives()))
	}
	if len(s.Lights()) != 1 {
		t.Fatalf("Expected 1 light, got %d", len(s.Lights()))
	}
	if c := s.Lights()[0].Centroid(); !vecClose(c, core.NewVec3(2.7, 1.7, -0.5), 1e-12) {
		t.Errorf("Expected light at (2.7,1.7,-0.5), got %v", c)
	}
	if s.View() != DefaultView() {
		t.Errorf("Expected default view, got %+v", s.View())
	}

	// Straight down from above the middle row lands on the glass sphere
	hit, ok := s.IntersectClosest(core.NewRay(core.NewVec3(0, 1, -2), core.NewVec3(0, -1, 0)))
	if !ok {
		t.Fatal("Expected a hit on the glass sphere")
	}
	if _, isGlass := hit.Material.(*material.Dielectric); !isGlass {
		t.Errorf("Expected dielectric material, got %T", hit.Material)
	}
	if math.Abs(hit.Distance-0.91) > 1e-9 {
		t.Errorf("Expected distance 0.91, got %f", hit.Distance)
	}
}

func TestDefaultScene_BVHMatchesLinearScan(t *testing.T) {
	s, err := Default(envmap.Uniform(core.Splat(1)))
	if err != nil {
		t.Fatal(err)
	}

	random := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		origin := core.NewVec3(random.Float64()*4-2, random.Float64()*2-1, random.Float64()*2-3)
		dir := core.SampleOnUnitSphere(core.NewVec2(random.Float64(), random.Float64()))
		ray := core.NewRay(origin, dir)

		best := math.Inf(1)
		var expected geometry.Intersection
		found := false
		for _, p := range s.Primitives() {
			if hit, ok := p.Intersect(ray, best); ok {
				expected, best, found = hit, hit.Distance, true
			}
		}

		got, ok := s.IntersectClosest(ray)
		if ok != found {
			t.Fatalf("Ray %d: BVH hit=%v, linear scan hit=%v", i, ok, found)
		}
		if ok && got.Distance != expected.Distance {
			t.Fatalf("Ray %d: BVH distance %f, linear scan %f", i, got.Distance, expected.Distance)
		}
	}
}

func TestSampleSkybox_Poles(t *testing.T) {
	// 2x2 grid: top row red, bottom row blue
	sky, err := envmap.New(2, 2, []float32{1, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewBuilder().WithSky(sky).Build()
	if err != nil {
		t.Fatal(err)
	}

	if up := s.SampleSkybox(core.NewVec3(0, 1, 0)); up != core.NewVec3(1, 0, 0) {
		t.Errorf("Expected top row for +Y, got %v", up)
	}
	if down := s.SampleSkybox(core.NewVec3(0, -1, 0)); down != core.NewVec3(0, 0, 1) {
		t.Errorf("Expected bottom row for -Y, got %v", down)
	}
}

func TestLoadSky(t *testing.T) {
	dir := t.TempDir()
	sky, _ := envmap.New(2, 1, []float32{0.5, 0.25, 1, 2, 3, 4})

	var buf bytes.Buffer
	if err := envmap.Encode(&buf, sky); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "sky.raw")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadSky(context.Background(), path, 2, 1, nil)
	if err != nil {
		t.Fatalf("LoadSky failed: %v", err)
	}
	if got := loaded.Texel(1, 0); got != core.NewVec3(2, 3, 4) {
		t.Errorf("Expected (2,3,4), got %v", got)
	}

	if _, err := LoadSky(context.Background(), path, 4, 4, nil); !errors.Is(err, envmap.ErrShortData) {
		t.Errorf("Expected ErrShortData for a larger grid, got %v", err)
	}
}

func TestLoadDefault_MissingSkyFails(t *testing.T) {
	_, err := LoadDefault(context.Background(), filepath.Join(t.TempDir(), "missing.raw"))
	if err == nil {
		t.Fatal("Expected error for a missing sky")
	}
}

func vecClose(a, b core.Vec3, tolerance float64) bool {
	return math.Abs(a.X-b.X) <= tolerance && math.Abs(a.Y-b.Y) <= tolerance && math.Abs(a.Z-b.Z) <= tolerance
}
