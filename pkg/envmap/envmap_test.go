package envmap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
)

// gradientMap encodes the column in red and the row in green
func gradientMap(t *testing.T, width, height int) *Map {
	t.Helper()
	texels := make([]float32, 0, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			texels = append(texels, float32(x), float32(y), 0.5)
		}
	}
	m, err := New(width, height, texels)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

func TestLookup_Poles(t *testing.T) {
	m := gradientMap(t, 16, 8)

	tests := []struct {
		name        string
		dir         core.Vec3
		expectedRow int
	}{
		{"straight up", core.NewVec3(0, 1, 0), 0},
		{"straight down", core.NewVec3(0, -1, 0), 7},
		{"up past one", core.NewVec3(0, 1.0000001, 0), 0},
		{"down past minus one", core.NewVec3(0, -1.0000001, 0), 7},
		{"horizon", core.NewVec3(0, 0, -1), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := m.Lookup(tt.dir)
			if int(c.Y) != tt.expectedRow {
				t.Errorf("Expected row %d, got %v", tt.expectedRow, c.Y)
			}
		})
	}
}

func TestLookup_PolesIgnoreHorizontalComponent(t *testing.T) {
	m := gradientMap(t, 16, 8)

	for _, dir := range []core.Vec3{
		core.NewVec3(1e-9, 1, 0),
		core.NewVec3(-1e-9, 1, 1e-9),
		core.NewVec3(0, 1, -1e-9),
	} {
		if _, y := m.Coords(dir.Normalize()); y != 0 {
			t.Errorf("Direction %v: expected top row, got %d", dir, y)
		}
		if _, y := m.Coords(core.NewVec3(dir.X, -dir.Y, dir.Z).Normalize()); y != 7 {
			t.Errorf("Direction %v: expected bottom row, got %d", dir, y)
		}
	}
}

func TestLookup_Longitude(t *testing.T) {
	m := gradientMap(t, 16, 8)

	tests := []struct {
		name        string
		dir         core.Vec3
		expectedCol int
	}{
		{"forward (-z) is the center column", core.NewVec3(0, 0, -1), 8},
		{"+x is three quarters across", core.NewVec3(1, 0, 0), 12},
		{"-x is one quarter across", core.NewVec3(-1, 0, 0), 4},
		{"+z wraps to the first column", core.NewVec3(0, 0, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if x, _ := m.Coords(tt.dir); x != tt.expectedCol {
				t.Errorf("Expected column %d, got %d", tt.expectedCol, x)
			}
		})
	}
}

func TestDecode_RoundTripsBigEndian(t *testing.T) {
	m := gradientMap(t, 4, 2)

	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if buf.Len() != 4*2*3*4 {
		t.Fatalf("Expected %d bytes, got %d", 4*2*3*4, buf.Len())
	}

	// Texel (1,0) starts at byte 12 with its column, 1.0 = 0x3F800000
	raw := buf.Bytes()
	if !bytes.Equal(raw[12:16], []byte{0x3F, 0x80, 0x00, 0x00}) {
		t.Errorf("Expected big-endian 1.0, got % x", raw[12:16])
	}

	decoded, err := Decode(bytes.NewReader(raw), 4, 2)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if decoded.Texel(x, y) != m.Texel(x, y) {
				t.Errorf("Texel (%d,%d): expected %v, got %v", x, y, m.Texel(x, y), decoded.Texel(x, y))
			}
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode(bytes.NewReader(make([]byte, 10)), 4, 2); !errors.Is(err, ErrShortData) {
		t.Errorf("Expected ErrShortData, got %v", err)
	}
	if _, err := Decode(bytes.NewReader(nil), 0, 2); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Expected ErrInvalidSize, got %v", err)
	}
	if _, err := New(2, 2, make([]float32, 5)); err == nil {
		t.Error("Expected error for mismatched texel count")
	}
}

func TestUniform(t *testing.T) {
	sky := Uniform(core.NewVec3(0.25, 0.5, 1))
	for _, dir := range []core.Vec3{core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0), core.NewVec3(1, 0, 0)} {
		if got := sky.Lookup(dir); got != core.NewVec3(0.25, 0.5, 1) {
			t.Errorf("Direction %v: expected uniform color, got %v", dir, got)
		}
	}
}
