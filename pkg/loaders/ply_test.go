package loaders

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
)

// binaryQuadPLY builds a unit square as two triangles in binary form
func binaryQuadPLY(order binary.ByteOrder, format string, includeNormals bool) []byte {
	var buf bytes.Buffer

	buf.WriteString("ply\n")
	buf.WriteString("format " + format + " 1.0\n")
	buf.WriteString("comment unit square\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")
	if includeNormals {
		buf.WriteString("property float nx\n")
		buf.WriteString("property float ny\n")
		buf.WriteString("property float nz\n")
	}
	buf.WriteString("property uchar red\n")
	buf.WriteString("element face 2\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")

	vertices := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for _, v := range vertices {
		binary.Write(&buf, order, v)
		if includeNormals {
			binary.Write(&buf, order, [3]float32{0, 0, 1})
		}
		binary.Write(&buf, order, uint8(200))
	}

	for _, f := range [][3]int32{{0, 1, 2}, {0, 2, 3}} {
		binary.Write(&buf, order, uint8(3))
		binary.Write(&buf, order, f)
	}

	return buf.Bytes()
}

func TestReadPLY_Binary(t *testing.T) {
	tests := []struct {
		name           string
		order          binary.ByteOrder
		format         string
		includeNormals bool
	}{
		{"little endian", binary.LittleEndian, "binary_little_endian", false},
		{"little endian with normals", binary.LittleEndian, "binary_little_endian", true},
		{"big endian", binary.BigEndian, "binary_big_endian", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := ReadPLY(bytes.NewReader(binaryQuadPLY(tt.order, tt.format, tt.includeNormals)))
			if err != nil {
				t.Fatalf("ReadPLY failed: %v", err)
			}

			if len(mesh.Positions) != 4 {
				t.Errorf("Expected 4 vertices, got %d", len(mesh.Positions))
			}
			if len(mesh.Faces) != 2 {
				t.Errorf("Expected 2 faces, got %d", len(mesh.Faces))
			}
			if mesh.Positions[2] != core.NewVec3(1, 1, 0) {
				t.Errorf("Expected vertex 2 at (1,1,0), got %v", mesh.Positions[2])
			}
			if mesh.Faces[1] != [3]int{0, 2, 3} {
				t.Errorf("Expected second face {0,2,3}, got %v", mesh.Faces[1])
			}

			expectedNormals := 0
			if tt.includeNormals {
				expectedNormals = 4
			}
			if len(mesh.Normals) != expectedNormals {
				t.Errorf("Expected %d normals, got %d", expectedNormals, len(mesh.Normals))
			}
		})
	}
}

func TestReadPLY_ASCIIFanTriangulation(t *testing.T) {
	data := `ply
format ascii 1.0
element vertex 5
property double x
property double y
property double z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1.5 1 0
0.5 1.5 0
-0.5 1 0
5 0 1 2 3 4
`
	mesh, err := ReadPLY(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadPLY failed: %v", err)
	}

	expected := [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}}
	if len(mesh.Faces) != len(expected) {
		t.Fatalf("Expected %d fan triangles, got %d", len(expected), len(mesh.Faces))
	}
	for i, f := range expected {
		if mesh.Faces[i] != f {
			t.Errorf("Face %d: expected %v, got %v", i, f, mesh.Faces[i])
		}
	}
}

func TestReadPLY_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing magic", "plx\nformat ascii 1.0\nend_header\n"},
		{"no end_header", "ply\nformat ascii 1.0\nelement vertex 1\n"},
		{"unknown format", "ply\nformat binary_middle_endian 1.0\nend_header\n"},
		{"truncated body", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n"},
		{"index out of range", "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1 7\n"},
		{"missing coordinates", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nend_header\n0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadPLY(strings.NewReader(tt.data)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}

	_, err := ReadPLY(strings.NewReader("ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nend_header\n0\n"))
	if !errors.Is(err, ErrUnsupportedPLY) {
		t.Errorf("Expected ErrUnsupportedPLY, got %v", err)
	}
}

func TestLoadPLY_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.ply")
	if err := os.WriteFile(path, binaryQuadPLY(binary.LittleEndian, "binary_little_endian", true), 0644); err != nil {
		t.Fatal(err)
	}

	mesh, err := LoadPLY(path)
	if err != nil {
		t.Fatalf("LoadPLY failed: %v", err)
	}
	if mesh.Name != "quad.ply" {
		t.Errorf("Expected mesh name quad.ply, got %q", mesh.Name)
	}

	triangles := mesh.Triangles(material.NewDiffuse(core.Splat(0.5)))
	if len(triangles) != 2 {
		t.Fatalf("Expected 2 triangles, got %d", len(triangles))
	}

	// The square faces +Z, so a ray coming down -Z hits its front
	ray := core.NewRay(core.NewVec3(0.25, 0.75, 1), core.NewVec3(0, 0, -1))
	var hits int
	for _, tri := range triangles {
		if hit, ok := tri.Intersect(ray, math.Inf(1)); ok {
			hits++
			if hit.Inside {
				t.Error("Expected front face hit")
			}
		}
	}
	if hits != 1 {
		t.Errorf("Expected exactly one triangle hit, got %d", hits)
	}
}

func TestMeshTransform(t *testing.T) {
	mesh := &Mesh{
		Positions: []core.Vec3{core.NewVec3(1, 0, 0), core.NewVec3(0, 2, 0)},
	}
	mesh.Transform(2, core.NewVec3(0, 0, -3))

	if mesh.Positions[0] != core.NewVec3(2, 0, -3) || mesh.Positions[1] != core.NewVec3(0, 4, -3) {
		t.Errorf("Unexpected transformed positions %v", mesh.Positions)
	}

	bounds := mesh.Bounds()
	if bounds.Min != core.NewVec3(0, 0, -3) || bounds.Max != core.NewVec3(2, 4, -3) {
		t.Errorf("Unexpected bounds %v", bounds)
	}
}
