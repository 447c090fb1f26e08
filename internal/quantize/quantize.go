package quantize

import (
	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/retropixel-mcp/internal/imaging"
	"github.com/ironsheep/retropixel-mcp/internal/palette"
)

// ProgressInterval is the number of rows between progress callbacks.
const ProgressInterval = 10

// Progress is called with the index of a completed row and the image height.
// Rows are reported in increasing order, every ProgressInterval rows.
type Progress func(row, height int)

// NearestIndex returns the index of the palette entry with the smallest
// squared RGB distance to c. Ties go to the lowest index. It returns -1 for
// an empty palette.
func NearestIndex(c palette.Color, p palette.Palette) int {
	best, bestDist := -1, int(^uint(0)>>1)
	for i, pc := range p {
		if d := c.DistanceSq(pc); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// blend mixes a channel toward its palette value by ratio.
func blend(v, target uint8, ratio float64) float64 {
	return float64(v)*(1-ratio) + float64(target)*ratio
}

// clampRatio constrains a blend or diffusion factor to [0,1].
func clampRatio(r float64) float64 {
	if r != r || r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// Quantize maps every pixel of b toward its nearest palette color:
//
//	channel' = channel*(1-blendRatio) + paletteChannel*blendRatio
//
// Parameters:
//   - b: The buffer to quantize in place. Alpha is preserved.
//   - p: The target palette. An empty palette leaves b unchanged.
//   - blendRatio: 1 is pure quantization, 0 leaves b unchanged. Values
//     outside [0,1] are clamped.
//
// Ties between equally near palette colors go to the earliest one; the
// blended value is rounded half to even and saturated to [0,255].
func Quantize(b *imaging.PixelBuffer, p palette.Palette, blendRatio float64) {
	QuantizeWithProgress(b, p, blendRatio, nil)
}

// QuantizeWithProgress is Quantize with row progress reporting. Rows are
// processed in bands of ProgressInterval; the rows within a band run in
// parallel.
func QuantizeWithProgress(b *imaging.PixelBuffer, p palette.Palette, blendRatio float64, report Progress) {
	if len(p) == 0 {
		return
	}
	ratio := clampRatio(blendRatio)
	w, h := b.Width, b.Height

	for band := 0; band < h; band += ProgressInterval {
		rows := min(ProgressInterval, h-band)
		parallel.Line(rows, func(start, end int) {
			for y := band + start; y < band+end; y++ {
				for x := 0; x < w; x++ {
					i := (y*w + x) * 4
					c := palette.Color{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2]}
					t := p[NearestIndex(c, p)]
					b.Pix[i] = imaging.Clamp8(blend(c.R, t.R, ratio))
					b.Pix[i+1] = imaging.Clamp8(blend(c.G, t.G, ratio))
					b.Pix[i+2] = imaging.Clamp8(blend(c.B, t.B, ratio))
				}
			}
		})
		if report != nil {
			report(band, h)
		}
	}
}
