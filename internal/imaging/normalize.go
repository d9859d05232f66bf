// Package imaging converts uploaded photos to upright, bounded JPEGs.
package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	jpegQuality = 85
	// MaxPixels bounds width*height before the full decode allocates.
	MaxPixels = 40_000_000
)

var (
	ErrUnsupported = errors.New("unsupported image format (jpeg/png/webp)")
	ErrTooLarge    = errors.New("image dimensions too large")
)

// NormalizeToJPEG decodes jpeg, png or webp input, applies the EXIF
// orientation, scales it down so neither side exceeds maxDim (0 keeps the
// size) and re-encodes as JPEG.
func NormalizeToJPEG(input []byte, maxDim int) ([]byte, error) {
	if len(input) == 0 {
		return nil, errors.New("empty image")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return nil, ErrUnsupported
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, ErrTooLarge
	}

	img, err := decode(input)
	if err != nil {
		return nil, err
	}
	img = applyOrientation(img, readOrientation(input))
	if maxDim > 0 {
		img = fit(img, maxDim)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decode(input []byte) (image.Image, error) {
	if img, err := jpeg.Decode(bytes.NewReader(input)); err == nil {
		return img, nil
	}
	if img, err := png.Decode(bytes.NewReader(input)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(input)); err == nil {
		return img, nil
	}
	return nil, ErrUnsupported
}

func readOrientation(input []byte) int {
	x, err := exif.Decode(bytes.NewReader(input))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	ori, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return ori
}

// fit scales src down, keeping the aspect ratio, so that its longer side is
// at most maxDim.
func fit(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || (w <= maxDim && h <= maxDim) {
		return src
	}
	scale := math.Min(float64(maxDim)/float64(w), float64(maxDim)/float64(h))
	newW := max(1, int(math.Round(float64(w)*scale)))
	newH := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
