package terrain

import (
	"image"
	"math"
)

// GaussianBlur returns a copy of src blurred with standard deviation sigma
// pixels. Edges are extended by clamping.
func GaussianBlur(src *image.RGBA, sigma float64) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	if sigma <= 0 || b.Empty() {
		copy(dst.Pix, src.Pix)
		return dst
	}

	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2
	w, h := b.Dx(), b.Dy()
	tmp := make([]float64, w*h*4)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float64
			for k, weight := range kernel {
				sx := clampInt(x+k-radius, 0, w-1)
				i := src.PixOffset(b.Min.X+sx, b.Min.Y+y)
				for c := 0; c < 4; c++ {
					acc[c] += float64(src.Pix[i+c]) * weight
				}
			}
			copy(tmp[(y*w+x)*4:], acc[:])
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float64
			for k, weight := range kernel {
				sy := clampInt(y+k-radius, 0, h-1)
				j := (sy*w + x) * 4
				for c := 0; c < 4; c++ {
					acc[c] += tmp[j+c] * weight
				}
			}
			i := dst.PixOffset(b.Min.X+x, b.Min.Y+y)
			for c := 0; c < 4; c++ {
				dst.Pix[i+c] = uint8(math.Round(math.Max(0, math.Min(255, acc[c]))))
			}
		}
	}
	return dst
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(sigma * 3))
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
