package quantize

import (
	"github.com/ironsheep/retropixel-mcp/internal/imaging"
	"github.com/ironsheep/retropixel-mcp/internal/palette"
)

// floydSteinberg lists the forward neighbours that receive quantization
// error, with their weights.
var floydSteinberg = [...]struct {
	dx, dy int
	weight float64
}{
	{1, 0, 7.0 / 16},
	{-1, 1, 3.0 / 16},
	{0, 1, 5.0 / 16},
	{1, 1, 1.0 / 16},
}

// Dither quantizes b with Floyd–Steinberg error diffusion.
//
// Pixels are visited in raster order. Each pixel's color is read from a
// working copy that has accumulated error from already visited neighbours,
// blended toward the nearest palette color as in Quantize, and written to b.
// The residual (working minus blended) is scaled by diffusion, spread over
// the four forward neighbours in the working copy and saturated to [0,255].
// Alpha is copied through from b. diffusion 0 degenerates to Quantize.
func Dither(b *imaging.PixelBuffer, p palette.Palette, diffusion, blendRatio float64) {
	DitherWithProgress(b, p, diffusion, blendRatio, nil)
}

// DitherWithProgress is Dither with row progress reporting. The scan is
// strictly sequential.
func DitherWithProgress(b *imaging.PixelBuffer, p palette.Palette, diffusion, blendRatio float64, report Progress) {
	if len(p) == 0 {
		return
	}
	ratio := clampRatio(blendRatio)
	factor := clampRatio(diffusion)
	w, h := b.Width, b.Height

	work := make([]uint8, len(b.Pix))
	copy(work, b.Pix)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			old := palette.Color{R: work[i], G: work[i+1], B: work[i+2]}
			t := p[NearestIndex(old, p)]

			r := blend(old.R, t.R, ratio)
			g := blend(old.G, t.G, ratio)
			bl := blend(old.B, t.B, ratio)
			b.Pix[i] = imaging.Clamp8(r)
			b.Pix[i+1] = imaging.Clamp8(g)
			b.Pix[i+2] = imaging.Clamp8(bl)

			if factor == 0 {
				continue
			}
			errR := float64(old.R) - r
			errG := float64(old.G) - g
			errB := float64(old.B) - bl
			for _, n := range floydSteinberg {
				nx, ny := x+n.dx, y+n.dy
				if nx < 0 || nx >= w || ny >= h {
					continue
				}
				j := (ny*w + nx) * 4
				f := n.weight * factor
				work[j] = imaging.Clamp8(float64(work[j]) + errR*f)
				work[j+1] = imaging.Clamp8(float64(work[j+1]) + errG*f)
				work[j+2] = imaging.Clamp8(float64(work[j+2]) + errB*f)
			}
		}
		if report != nil && y%ProgressInterval == 0 {
			report(y, h)
		}
	}
}
