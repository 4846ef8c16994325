package loaders

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/qmuntal/gltf"
)

// triangleDocument builds a glTF document holding one indexed triangle
func triangleDocument(withNormals bool) *gltf.Document {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, [9]float32{0, 0, 0, 1, 0, 0, 0, 1, 0})
	binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 2})
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // pad to 4 bytes
	normalsOffset := buf.Len()
	binary.Write(&buf, binary.LittleEndian, [9]float32{0, 0, 1, 0, 0, 1, 0, 0, 1})
	data := buf.Bytes()

	doc := &gltf.Document{
		Buffers: []*gltf.Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 36},
			{Buffer: 0, ByteOffset: 36, ByteLength: 6},
			{Buffer: 0, ByteOffset: normalsOffset, ByteLength: 36},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: gltf.Index(0), Count: 3, Type: gltf.AccessorVec3, ComponentType: gltf.ComponentFloat},
			{BufferView: gltf.Index(1), Count: 3, Type: gltf.AccessorScalar, ComponentType: gltf.ComponentUshort},
			{BufferView: gltf.Index(2), Count: 3, Type: gltf.AccessorVec3, ComponentType: gltf.ComponentFloat},
		},
	}

	attributes := map[string]int{gltf.POSITION: 0}
	if withNormals {
		attributes[gltf.NORMAL] = 2
	}
	doc.Meshes = []*gltf.Mesh{{
		Name:       "tri",
		Primitives: []*gltf.Primitive{{Attributes: attributes, Indices: gltf.Index(1)}},
	}}
	return doc
}

func TestMeshFromDocument(t *testing.T) {
	tests := []struct {
		name            string
		withNormals     bool
		expectedNormals int
	}{
		{"positions only", false, 0},
		{"with normals", true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := meshFromDocument(triangleDocument(tt.withNormals))
			if err != nil {
				t.Fatalf("meshFromDocument failed: %v", err)
			}
			if len(mesh.Positions) != 3 || len(mesh.Faces) != 1 {
				t.Fatalf("Expected 3 vertices and 1 face, got %d and %d", len(mesh.Positions), len(mesh.Faces))
			}
			if mesh.Positions[1] != core.NewVec3(1, 0, 0) {
				t.Errorf("Expected vertex 1 at (1,0,0), got %v", mesh.Positions[1])
			}
			if mesh.Faces[0] != [3]int{0, 1, 2} {
				t.Errorf("Expected face {0,1,2}, got %v", mesh.Faces[0])
			}
			if len(mesh.Normals) != tt.expectedNormals {
				t.Errorf("Expected %d normals, got %d", tt.expectedNormals, len(mesh.Normals))
			}
		})
	}
}

func TestMeshFromDocument_PrimitiveModes(t *testing.T) {
	tests := []struct {
		name          string
		mode          gltf.PrimitiveMode
		expectedFaces int
	}{
		{"triangles", gltf.PrimitiveTriangles, 1},
		{"points", gltf.PrimitivePoints, 0},
		{"lines", gltf.PrimitiveLines, 0},
		{"triangle strip", gltf.PrimitiveTriangleStrip, 0},
		{"triangle fan", gltf.PrimitiveTriangleFan, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := triangleDocument(false)
			doc.Meshes[0].Primitives[0].Mode = tt.mode

			mesh, err := meshFromDocument(doc)
			if err != nil {
				t.Fatalf("meshFromDocument failed: %v", err)
			}
			if len(mesh.Faces) != tt.expectedFaces {
				t.Errorf("Expected %d faces, got %d", tt.expectedFaces, len(mesh.Faces))
			}
		})
	}
}

func TestMeshFromDocument_BadAccessor(t *testing.T) {
	doc := triangleDocument(false)
	doc.Accessors[0].Count = 100

	if _, err := meshFromDocument(doc); err == nil {
		t.Error("Expected error for accessor past the end of its buffer")
	}
}

func TestLoadGLTF_Binary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.glb")
	if err := gltf.SaveBinary(triangleDocument(true), path); err != nil {
		t.Fatalf("SaveBinary failed: %v", err)
	}

	mesh, err := LoadGLTF(path)
	if err != nil {
		t.Fatalf("LoadGLTF failed: %v", err)
	}
	if mesh.Name != "tri.glb" || len(mesh.Faces) != 1 {
		t.Errorf("Unexpected mesh %q with %d faces", mesh.Name, len(mesh.Faces))
	}
}
