// Package envmap holds the equirectangular environment panorama that lights
// every ray escaping the scene.
//
// The on-disk format is a headerless sequence of float32 RGB triples in
// row-major order, top row first, each float stored big-endian. Width and
// height are not stored in the file and must be supplied by the caller.
package envmap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
)

// Default grid of the bundled sky panorama
const (
	DefaultWidth  = 2500
	DefaultHeight = 1250
)

var (
	// ErrShortData is returned when the input ends before width*height texels
	ErrShortData = errors.New("envmap: truncated data")
	// ErrInvalidSize is returned for non-positive dimensions
	ErrInvalidSize = errors.New("envmap: invalid size")
)

// Map is an immutable equirectangular panorama
type Map struct {
	width, height int
	texels        []float32 // RGB triples, row-major
}

// New wraps texels (3 floats per texel) of a width x height grid
func New(width, height int, texels []float32) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if len(texels) != width*height*3 {
		return nil, fmt.Errorf("envmap: expected %d floats for %dx%d, got %d",
			width*height*3, width, height, len(texels))
	}
	return &Map{width: width, height: height, texels: texels}, nil
}

// Uniform returns a single-texel map that yields color in every direction
func Uniform(color core.Vec3) *Map {
	return &Map{width: 1, height: 1, texels: []float32{float32(color.X), float32(color.Y), float32(color.Z)}}
}

// Decode reads width*height big-endian float32 RGB triples from r. Input
// shorter than that is an error and no map is returned.
func Decode(r io.Reader, width, height int) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	texels := make([]float32, width*height*3)
	br := bufio.NewReaderSize(r, 1<<16)
	var word [4]byte
	for i := range texels {
		if _, err := io.ReadFull(br, word[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: got %d of %d floats", ErrShortData, i, len(texels))
			}
			return nil, fmt.Errorf("envmap: read failed: %w", err)
		}
		texels[i] = math.Float32frombits(binary.BigEndian.Uint32(word[:]))
	}

	return &Map{width: width, height: height, texels: texels}, nil
}

// Encode writes m to w in the format read by Decode
func Encode(w io.Writer, m *Map) error {
	bw := bufio.NewWriter(w)
	var word [4]byte
	for _, f := range m.texels {
		binary.BigEndian.PutUint32(word[:], math.Float32bits(f))
		if _, err := bw.Write(word[:]); err != nil {
			return fmt.Errorf("envmap: write failed: %w", err)
		}
	}
	return bw.Flush()
}

// Size returns the grid dimensions
func (m *Map) Size() (width, height int) {
	return m.width, m.height
}

// Texel returns the color stored at column x, row y
func (m *Map) Texel(x, y int) core.Vec3 {
	i := (y*m.width + x) * 3
	return core.NewVec3(float64(m.texels[i]), float64(m.texels[i+1]), float64(m.texels[i+2]))
}

// Lookup returns the radiance arriving from the unit direction dir.
// Longitude u = 0.5*(1 + atan2(x, -z)/π) wraps around horizontally and
// latitude v = acos(y)/π runs from the top row (+Y) to the bottom row (-Y).
func (m *Map) Lookup(dir core.Vec3) core.Vec3 {
	x, y := m.Coords(dir)
	return m.Texel(x, y)
}

// Coords maps a unit direction to its texel column and row
func (m *Map) Coords(dir core.Vec3) (x, y int) {
	// acos is undefined outside [-1,1]; rounding can push y slightly past it
	cosTheta := max(-1, min(1, dir.Y))

	u := 0.5 * (1 + math.Atan2(dir.X, -dir.Z)/math.Pi)
	v := math.Acos(cosTheta) / math.Pi

	x = int(u*float64(m.width)) % m.width
	if x < 0 {
		x += m.width
	}
	y = min(int(v*float64(m.height)), m.height-1)
	return x, y
}
