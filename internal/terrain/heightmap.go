package terrain

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png" // register PNG decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
)

// ErrHeightmapTooSmall is returned for images with fewer than 2×2 samples.
var ErrHeightmapTooSmall = errors.New("heightmap needs at least 2x2 samples")

// LoadHeightmap decodes a PNG, BMP or TIFF file into a heightmap.
func LoadHeightmap(path string) (*Heightmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open heightmap: %w", err)
	}
	defer f.Close()

	hm, err := DecodeHeightmap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hm, nil
}

// DecodeHeightmap decodes any registered image format into a heightmap.
func DecodeHeightmap(r io.Reader) (*Heightmap, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	hm, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%s image: %w", format, err)
	}
	return hm, nil
}

// FromImage converts an image to a heightmap. Colour images are reduced to
// luminance; samples are scaled to [0, 1] at 16-bit precision.
func FromImage(img image.Image) (*Heightmap, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrHeightmapTooSmall, w, h)
	}

	hm := &Heightmap{
		Width:   w,
		Height:  h,
		Samples: make([]float32, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			hm.Samples[y*w+x] = float32(g.Y) / 0xffff
		}
	}
	return hm, nil
}
