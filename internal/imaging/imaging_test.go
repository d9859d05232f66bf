package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeToJPEGScalesDown(t *testing.T) {
	out, err := NormalizeToJPEG(pngBytes(t, 400, 200), 100)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("expected jpeg output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestNormalizeToJPEGKeepsSmallImages(t *testing.T) {
	out, err := NormalizeToJPEG(pngBytes(t, 30, 20), 1600)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	img, _ := jpeg.Decode(bytes.NewReader(out))
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Fatalf("expected 30x20, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := NormalizeToJPEG([]byte("definitely not an image"), 0); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := NormalizeToJPEG(nil, 0); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestApplyOrientationRotates(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	marker := color.RGBA{R: 255, A: 255}
	src.Set(0, 0, marker)

	rotated := applyOrientation(src, 6)
	if b := rotated.Bounds(); b.Dx() != 2 || b.Dy() != 4 {
		t.Fatalf("expected 2x4 after 90 degree rotation, got %dx%d", b.Dx(), b.Dy())
	}
	if got := color.RGBAModel.Convert(rotated.At(1, 0)).(color.RGBA); got != marker {
		t.Fatalf("expected top-left pixel to move to top-right, got %v", got)
	}

	if applyOrientation(src, 1) != image.Image(src) {
		t.Fatalf("orientation 1 should return the source")
	}
}

// pngHeader returns a PNG that declares w x h grayscale pixels but carries
// only the IHDR chunk, so it is tiny on disk.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:4], w)
	binary.BigEndian.PutUint32(data[4:8], h)
	data[8] = 8 // bit depth, color type 0 (gray), default compression/filter/interlace
	chunk := append([]byte("IHDR"), data...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestNormalizeRejectsOversizedDimensions(t *testing.T) {
	input := pngHeader(12000, 12000)
	if len(input) > 64 {
		t.Fatalf("expected a tiny input, got %d bytes", len(input))
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(input))
	if err != nil || cfg.Width != 12000 {
		t.Fatalf("header not readable: %v %+v", err, cfg)
	}
	if _, err := NormalizeToJPEG(input, 1600); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}
