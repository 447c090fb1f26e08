package imaging

import (
	"github.com/anthonynsimon/bild/parallel"
)

// Sharpen applies a 5-point Laplacian sharpen blended by strength percent.
//
// Kernel (center 5, 4-neighbours -1):
//
//	 0 -1  0
//	-1  5 -1
//	 0 -1  0
//
// Neighbours outside the image contribute nothing; edge pixels are neither
// wrapped nor replicated. Each output channel is
//
//	original*(1-s) + convolved*s,  s = strength/100
//
// All taps read from a snapshot taken before the pass, so updated pixels
// never feed into their neighbours. A strength of 0 leaves b untouched.
func Sharpen(b *PixelBuffer, strength int) {
	strength = clamp(strength, 0, 100)
	if strength == 0 {
		return
	}
	s := float64(strength) / 100.0

	src := make([]uint8, len(b.Pix))
	copy(src, b.Pix)

	w, h := b.Width, b.Height
	stride := w * 4

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				for ch := 0; ch < 3; ch++ {
					center := float64(src[i+ch])
					conv := center * 5
					if y > 0 {
						conv -= float64(src[i-stride+ch])
					}
					if y < h-1 {
						conv -= float64(src[i+stride+ch])
					}
					if x > 0 {
						conv -= float64(src[i-4+ch])
					}
					if x < w-1 {
						conv -= float64(src[i+4+ch])
					}
					b.Pix[i+ch] = clamp8(center*(1-s) + conv*s)
				}
			}
		}
	})
}
