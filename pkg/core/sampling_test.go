package core

import (
	"math"
	"testing"
)

func TestSamplePointInUnitDisk(t *testing.T) {
	sampler := NewSeededSampler(42)

	for i := 0; i < 1000; i++ {
		p := SamplePointInUnitDisk(sampler.Get2D())
		if p.X*p.X+p.Y*p.Y > 1+1e-12 {
			t.Fatalf("Point %v outside unit disk", p)
		}
	}

	if center := SamplePointInUnitDisk(NewVec2(0.5, 0.5)); center != (Vec2{}) {
		t.Errorf("Expected center sample to map to origin, got %v", center)
	}
}

func TestSampleOnUnitSphere(t *testing.T) {
	sampler := NewSeededSampler(7)

	for i := 0; i < 1000; i++ {
		d := SampleOnUnitSphere(sampler.Get2D())
		if math.Abs(d.Length()-1) > 1e-9 {
			t.Fatalf("Direction %v is not unit length", d)
		}
	}
}

func TestSampleTriangle(t *testing.T) {
	tests := []struct {
		name   string
		sample Vec2
		u, v   float64
	}{
		{"inside stays", NewVec2(0.2, 0.3), 0.2, 0.3},
		{"outside folds", NewVec2(0.8, 0.6), 0.2, 0.4},
		{"on diagonal stays", NewVec2(0.5, 0.5), 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, v := SampleTriangle(tt.sample)
			if math.Abs(u-tt.u) > 1e-12 || math.Abs(v-tt.v) > 1e-12 {
				t.Errorf("Expected (%f,%f), got (%f,%f)", tt.u, tt.v, u, v)
			}
			if u+v > 1 {
				t.Errorf("Barycentrics (%f,%f) outside triangle", u, v)
			}
		})
	}
}

func TestSeededSamplerIsDeterministic(t *testing.T) {
	a, b := NewSeededSampler(99), NewSeededSampler(99)
	for i := 0; i < 10; i++ {
		if a.Get1D() != b.Get1D() {
			t.Fatal("Expected identical sequences for identical seeds")
		}
	}
}
