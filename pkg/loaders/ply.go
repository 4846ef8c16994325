package loaders

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
)

// ErrUnsupportedPLY is returned for PLY features the reader does not handle
var ErrUnsupportedPLY = errors.New("unsupported PLY content")

// plyHeader is the parsed header of a PLY file
type plyHeader struct {
	format   string // "ascii", "binary_little_endian" or "binary_big_endian"
	elements []plyElement
}

// plyElement is one element block declared in the header
type plyElement struct {
	name       string
	count      int
	properties []plyProperty
}

// plyProperty is a scalar or list property definition
type plyProperty struct {
	name      string
	dataType  string
	isList    bool
	countType string // list length type, list properties only
}

// LoadPLY reads a PLY model from disk
func LoadPLY(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	mesh, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	mesh.Name = filepath.Base(filename)
	return mesh, nil
}

// ReadPLY parses an ascii or binary PLY stream into a mesh. Vertex x, y, z
// and optional nx, ny, nz properties are read; polygons are split into
// triangle fans. Other elements and properties are skipped.
func ReadPLY(r io.Reader) (*Mesh, error) {
	reader := bufio.NewReaderSize(r, 1<<20)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var source plyValueReader
	switch header.format {
	case "ascii":
		source = &plyASCIIReader{reader: reader}
	case "binary_little_endian":
		source = &plyBinaryReader{reader: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		source = &plyBinaryReader{reader: reader, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("%w: format %q", ErrUnsupportedPLY, header.format)
	}

	mesh := &Mesh{}
	for _, element := range header.elements {
		switch element.name {
		case "vertex":
			err = readPLYVertices(source, element, mesh)
		case "face":
			err = readPLYFaces(source, element, mesh)
		default:
			err = skipPLYElement(source, element)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read PLY %s data: %w", element.name, err)
		}
	}

	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

func parsePLYHeader(reader *bufio.Reader) (*plyHeader, error) {
	header := &plyHeader{}

	magic, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("missing ply magic")
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header ended before end_header: %w", err)
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			if header.format == "" {
				return nil, fmt.Errorf("missing format line")
			}
			return header, nil
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line: %q", strings.TrimSpace(line))
			}
			header.format = parts[1]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.elements = append(header.elements, plyElement{name: parts[1], count: count})
		case "property":
			if len(header.elements) == 0 {
				return nil, fmt.Errorf("property before any element")
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			current := &header.elements[len(header.elements)-1]
			current.properties = append(current.properties, prop)
		default:
			return nil, fmt.Errorf("unknown header keyword %q", parts[0])
		}
	}
}

func parsePLYProperty(parts []string) (plyProperty, error) {
	if len(parts) >= 4 && parts[0] == "list" {
		return plyProperty{isList: true, countType: parts[1], dataType: parts[2], name: parts[3]}, nil
	}
	if len(parts) >= 2 && parts[0] != "list" {
		return plyProperty{dataType: parts[0], name: parts[1]}, nil
	}
	return plyProperty{}, fmt.Errorf("invalid property definition: %v", parts)
}

func readPLYVertices(source plyValueReader, element plyElement, mesh *Mesh) error {
	xi, yi, zi := -1, -1, -1
	nxi, nyi, nzi := -1, -1, -1
	for i, prop := range element.properties {
		switch prop.name {
		case "x":
			xi = i
		case "y":
			yi = i
		case "z":
			zi = i
		case "nx":
			nxi = i
		case "ny":
			nyi = i
		case "nz":
			nzi = i
		}
	}
	if xi < 0 || yi < 0 || zi < 0 {
		return fmt.Errorf("%w: vertex element without x, y, z", ErrUnsupportedPLY)
	}
	hasNormals := nxi >= 0 && nyi >= 0 && nzi >= 0

	mesh.Positions = make([]core.Vec3, 0, element.count)
	if hasNormals {
		mesh.Normals = make([]core.Vec3, 0, element.count)
	}

	values := make([]float64, len(element.properties))
	for v := 0; v < element.count; v++ {
		for i, prop := range element.properties {
			if prop.isList {
				if err := skipPLYList(source, prop); err != nil {
					return err
				}
				continue
			}
			value, err := source.scalar(prop.dataType)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", v, err)
			}
			values[i] = value
		}

		mesh.Positions = append(mesh.Positions, core.NewVec3(values[xi], values[yi], values[zi]))
		if hasNormals {
			mesh.Normals = append(mesh.Normals, core.NewVec3(values[nxi], values[nyi], values[nzi]))
		}
	}
	return nil
}

func readPLYFaces(source plyValueReader, element plyElement, mesh *Mesh) error {
	mesh.Faces = make([][3]int, 0, element.count)

	var polygon []int
	for f := 0; f < element.count; f++ {
		for _, prop := range element.properties {
			if !prop.isList || (prop.name != "vertex_indices" && prop.name != "vertex_index") {
				if err := skipPLYProperty(source, prop); err != nil {
					return err
				}
				continue
			}

			count, err := source.scalar(prop.countType)
			if err != nil {
				return fmt.Errorf("face %d: %w", f, err)
			}
			polygon = polygon[:0]
			for i := 0; i < int(count); i++ {
				index, err := source.scalar(prop.dataType)
				if err != nil {
					return fmt.Errorf("face %d: %w", f, err)
				}
				polygon = append(polygon, int(index))
			}
			mesh.Faces = append(mesh.Faces, fan(polygon)...)
		}
	}
	return nil
}

func skipPLYElement(source plyValueReader, element plyElement) error {
	for i := 0; i < element.count; i++ {
		for _, prop := range element.properties {
			if err := skipPLYProperty(source, prop); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipPLYProperty(source plyValueReader, prop plyProperty) error {
	if prop.isList {
		return skipPLYList(source, prop)
	}
	_, err := source.scalar(prop.dataType)
	return err
}

func skipPLYList(source plyValueReader, prop plyProperty) error {
	count, err := source.scalar(prop.countType)
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := source.scalar(prop.dataType); err != nil {
			return err
		}
	}
	return nil
}

// plyValueReader yields the next scalar of the body as float64
type plyValueReader interface {
	scalar(dataType string) (float64, error)
}

type plyBinaryReader struct {
	reader *bufio.Reader
	order  binary.ByteOrder
	buf    [8]byte
}

func (b *plyBinaryReader) scalar(dataType string) (float64, error) {
	size := plyTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("%w: property type %q", ErrUnsupportedPLY, dataType)
	}
	data := b.buf[:size]
	if _, err := io.ReadFull(b.reader, data); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(data[0])), nil
	case "uchar", "uint8":
		return float64(data[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	default: // double, float64
		return math.Float64frombits(b.order.Uint64(data)), nil
	}
}

func plyTypeSize(dataType string) int {
	switch dataType {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	}
	return 0
}

type plyASCIIReader struct {
	reader *bufio.Reader
	fields []string
}

func (a *plyASCIIReader) scalar(dataType string) (float64, error) {
	if plyTypeSize(dataType) == 0 {
		return 0, fmt.Errorf("%w: property type %q", ErrUnsupportedPLY, dataType)
	}
	for len(a.fields) == 0 {
		line, err := a.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		a.fields = strings.Fields(line)
	}

	field := a.fields[0]
	a.fields = a.fields[1:]
	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", field)
	}
	return value, nil
}
