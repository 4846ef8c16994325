package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"

	"github.com/df07/go-bvh-pathtracer/pkg/envmap"
)

// DecodeSkyImage reads a PNG or JPEG equirectangular panorama into an
// environment map. 8-bit texels are treated as gamma 2 encoded, matching the
// encoding of rendered output, and are squared back to linear radiance.
func DecodeSkyImage(r io.Reader) (*envmap.Map, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	texels := make([]float32, 0, width*height*3)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535]
			texels = append(texels, toLinear(r), toLinear(g), toLinear(b))
		}
	}

	return envmap.New(width, height, texels)
}

func toLinear(c uint32) float32 {
	v := float32(c) / 65535.0
	return v * v
}
