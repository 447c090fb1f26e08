package pipeline

import (
	"image"
	"math"

	"github.com/ironsheep/retropixel-mcp/internal/imaging"
)

// TargetSize computes the output dimensions for a source of srcW x srcH at
// the given dot resolution.
//
// With correctAspect the shorter side becomes dot pixels; otherwise the
// longer side does. The other side keeps the source aspect ratio. Both are
// rounded and at least 1.
func TargetSize(srcW, srcH, dot int, correctAspect bool) (int, int) {
	if srcW <= 0 || srcH <= 0 || dot <= 0 {
		return 1, 1
	}
	base := float64(dot)
	var w, h float64
	widthIsBase := srcW > srcH
	if correctAspect {
		widthIsBase = srcW < srcH
	}
	if widthIsBase {
		w = base
		h = base * float64(srcH) / float64(srcW)
	} else {
		h = base
		w = base * float64(srcW) / float64(srcH)
	}
	return max(1, int(math.Floor(w+0.5))), max(1, int(math.Floor(h+0.5)))
}

// Prepare downsamples a source image to the request's target size with
// nearest-neighbour sampling, yielding the buffer the pipeline consumes.
func Prepare(img image.Image, p Params) *imaging.PixelBuffer {
	return imaging.Pixelate(img, p.TargetWidth, p.TargetHeight)
}
