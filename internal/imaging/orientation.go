package imaging

import "image"

// EXIF orientation values 2..8 map to a flip and/or rotation. 1 and unknown
// values leave the image untouched.
func applyOrientation(src image.Image, ori int) image.Image {
	switch ori {
	case 2:
		return remap(src, false, func(x, y, w, h int) (int, int) { return w - 1 - x, y })
	case 3:
		return remap(src, false, func(x, y, w, h int) (int, int) { return w - 1 - x, h - 1 - y })
	case 4:
		return remap(src, false, func(x, y, w, h int) (int, int) { return x, h - 1 - y })
	case 5:
		return remap(src, true, func(x, y, w, h int) (int, int) { return y, x })
	case 6:
		return remap(src, true, func(x, y, w, h int) (int, int) { return h - 1 - y, x })
	case 7:
		return remap(src, true, func(x, y, w, h int) (int, int) { return h - 1 - y, w - 1 - x })
	case 8:
		return remap(src, true, func(x, y, w, h int) (int, int) { return y, w - 1 - x })
	default:
		return src
	}
}

// remap copies every source pixel (x, y) to dst(to(x, y)). swap transposes
// the output dimensions for the 90 degree cases.
func remap(src image.Image, swap bool, to func(x, y, w, h int) (int, int)) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if swap {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := to(x, y, w, h)
			dst.Set(dx, dy, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
