package imaging

import (
	"github.com/anthonynsimon/bild/parallel"
)

// Contrast limits accepted by the adjuster. The contrast formula has a pole
// at 259, so anything outside this range is clamped first.
const (
	MinContrast = -100
	MaxContrast = 100
)

// ContrastFactor returns the multiplier c used by ApplyContrast:
//
//	c = 259*(contrast+255) / (255*(259-contrast))
//
// A contrast of 0 yields exactly 1.
func ContrastFactor(contrast int) float64 {
	contrast = clamp(contrast, MinContrast, MaxContrast)
	return (259.0 * float64(contrast+255)) / (255.0 * float64(259-contrast))
}

// ApplyExposure multiplies R, G and B of every pixel by exposure. Results
// saturate when written back into 8-bit storage; alpha is untouched.
func ApplyExposure(b *PixelBuffer, exposure float64) {
	if exposure == 1 {
		return
	}
	mapChannels(b, func(v float64) float64 { return v * exposure })
}

// ApplyContrast remaps R, G and B around the midpoint 128.
func ApplyContrast(b *PixelBuffer, contrast int) {
	if contrast == 0 {
		return
	}
	c := ContrastFactor(contrast)
	mapChannels(b, func(v float64) float64 { return c*(v-128) + 128 })
}

// Adjust applies exposure, then contrast, in place.
func Adjust(b *PixelBuffer, exposure float64, contrast int) {
	ApplyExposure(b, exposure)
	ApplyContrast(b, contrast)
}

// mapChannels applies fn to every colour channel, row-parallel.
func mapChannels(b *PixelBuffer, fn func(float64) float64) {
	rowBytes := b.Width * 4
	parallel.Line(b.Height, func(start, end int) {
		for i := start * rowBytes; i < end*rowBytes; i += 4 {
			b.Pix[i] = clamp8(fn(float64(b.Pix[i])))
			b.Pix[i+1] = clamp8(fn(float64(b.Pix[i+1])))
			b.Pix[i+2] = clamp8(fn(float64(b.Pix[i+2])))
		}
	})
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
