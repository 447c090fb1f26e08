package palette

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/retropixel-mcp/internal/imaging"
)

// MaxSamplePixels bounds the number of pixels an extractor looks at.
const MaxSamplePixels = 100 * 100

// Extraction color-count limits.
const (
	MinExtractColors = 1
	MaxExtractColors = 256
)

// ClampCount limits a requested color count to
// [MinExtractColors, MaxExtractColors].
func ClampCount(count int) int {
	return max(MinExtractColors, min(MaxExtractColors, count))
}

// opaqueAlpha is the lowest alpha value an extractor counts.
const opaqueAlpha = 128

// binSize is the channel step used by frequency binning.
const binSize = 16

// ErrEmptyExtraction is returned when an image yields no usable colors,
// typically because every sampled pixel is transparent.
var ErrEmptyExtraction = errors.New("no colors could be extracted from image")

// Method selects an extraction algorithm.
type Method string

const (
	// MethodFrequency returns the most common colors after 16-level binning.
	MethodFrequency Method = "frequency"

	// MethodMedianCut recursively splits the color cloud along its widest
	// channel and averages each bucket.
	MethodMedianCut Method = "median_cut"
)

// ParseMethod accepts "frequency" or "median_cut" (also "mediancut" and
// "medianCut"). The empty string selects MethodFrequency.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "", "frequency":
		return MethodFrequency, nil
	case "median_cut", "mediancut", "medianCut":
		return MethodMedianCut, nil
	default:
		return "", fmt.Errorf("unknown extraction method: %s", s)
	}
}

// Sample downsizes img so it holds at most MaxSamplePixels pixels, keeping
// the aspect ratio. Smaller images are copied unchanged.
func Sample(img image.Image) *imaging.PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w*h > MaxSamplePixels {
		ratio := math.Sqrt(float64(MaxSamplePixels) / float64(w*h))
		w = max(1, int(math.Floor(float64(w)*ratio)))
		h = max(1, int(math.Floor(float64(h)*ratio)))
	}
	return imaging.Downsample(img, w, h)
}

// Extract samples img and derives a palette of at most count colors.
//
// The image is first reduced to at most MaxSamplePixels pixels with Sample.
// Pixels with alpha below 128 are ignored.
//
// Parameters:
//   - img: The source image.
//   - count: Requested number of colors, clamped with ClampCount.
//   - method: MethodFrequency or MethodMedianCut. The empty method selects
//     MethodFrequency.
//
// Returns:
//   - Palette: The extracted colors. Frequency binning orders them most common
//     first; median cut returns one color per bucket.
//   - error: Non-nil if no palette could be produced.
//
// # Errors
//
//   - Returns ErrEmptyExtraction if the image is empty or has no opaque pixels
//   - Returns error if method is not a known extraction method
func Extract(img image.Image, count int, method Method) (Palette, error) {
	if img.Bounds().Empty() {
		return nil, ErrEmptyExtraction
	}
	count = ClampCount(count)
	sample := Sample(img)

	var p Palette
	switch method {
	case MethodMedianCut:
		p = MedianCut(sample, count)
	case MethodFrequency, "":
		p = FrequencyBinning(sample, count)
	default:
		return nil, fmt.Errorf("unknown extraction method: %s", method)
	}
	if len(p) == 0 {
		return nil, ErrEmptyExtraction
	}
	return p, nil
}

// FrequencyBinning rounds each opaque pixel's channels to the nearest
// multiple of 16, counts the resulting colors and returns the count most
// frequent, most frequent first. Equal counts keep first-seen order.
func FrequencyBinning(b *imaging.PixelBuffer, count int) Palette {
	counts := make(map[Color]int)
	var order []Color
	for i := 0; i < len(b.Pix); i += 4 {
		if b.Pix[i+3] < opaqueAlpha {
			continue
		}
		c := Color{R: bin(b.Pix[i]), G: bin(b.Pix[i+1]), B: bin(b.Pix[i+2])}
		if _, seen := counts[c]; !seen {
			order = append(order, c)
		}
		counts[c]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > count {
		order = order[:count]
	}
	return Palette(order)
}

// bin rounds v to the nearest multiple of binSize. The top bin (256) does
// not fit in 8 bits and saturates to 255.
func bin(v uint8) uint8 {
	q := math.Floor(float64(v)/binSize+0.5) * binSize
	if q > 255 {
		return 255
	}
	return uint8(q)
}

// MedianCut builds a palette of at most count colors from the opaque pixels
// of b.
//
// Starting from one bucket holding every pixel, each round splits every
// bucket in two: the bucket is sorted on the channel with the widest value
// range (ties prefer R, then G, then B) and cut at ceil(n/2). Rounds stop
// after ceil(log2(count)) iterations or once there are at least count
// buckets. Each non-empty bucket contributes its rounded mean color.
func MedianCut(b *imaging.PixelBuffer, count int) Palette {
	var pixels []Color
	for i := 0; i < len(b.Pix); i += 4 {
		if b.Pix[i+3] < opaqueAlpha {
			continue
		}
		pixels = append(pixels, Color{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2]})
	}
	if len(pixels) == 0 || count < 1 {
		return nil
	}

	buckets := [][]Color{pixels}
	for round := 0; round < splitRounds(count); round++ {
		if len(buckets) >= count {
			break
		}
		next := make([][]Color, 0, len(buckets)*2)
		for _, bucket := range buckets {
			if len(bucket) == 0 {
				continue
			}
			ch := widestChannel(bucket)
			sort.SliceStable(bucket, func(i, j int) bool {
				return channel(bucket[i], ch) < channel(bucket[j], ch)
			})
			mid := (len(bucket) + 1) / 2
			next = append(next, bucket[:mid], bucket[mid:])
		}
		buckets = next
	}

	p := make(Palette, 0, len(buckets))
	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		p = append(p, meanColor(bucket))
	}
	if len(p) > count {
		p = p[:count]
	}
	return p
}

// splitRounds returns ceil(log2(count)).
func splitRounds(count int) int {
	rounds := 0
	for 1<<rounds < count {
		rounds++
	}
	return rounds
}

// widestChannel returns 0, 1 or 2 for the R, G or B channel with the largest
// value range. Ties go to the earlier channel.
func widestChannel(colors []Color) int {
	lo := [3]uint8{255, 255, 255}
	hi := [3]uint8{}
	for _, c := range colors {
		for ch := 0; ch < 3; ch++ {
			v := channel(c, ch)
			lo[ch] = min(lo[ch], v)
			hi[ch] = max(hi[ch], v)
		}
	}
	best, bestRange := 0, int(hi[0])-int(lo[0])
	for ch := 1; ch < 3; ch++ {
		if r := int(hi[ch]) - int(lo[ch]); r > bestRange {
			best, bestRange = ch, r
		}
	}
	return best
}

func channel(c Color, ch int) uint8 {
	switch ch {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

func meanColor(colors []Color) Color {
	var r, g, b int
	for _, c := range colors {
		r += int(c.R)
		g += int(c.G)
		b += int(c.B)
	}
	n := float64(len(colors))
	round := func(sum int) uint8 {
		return uint8(math.Floor(float64(sum)/n + 0.5))
	}
	return Color{R: round(r), G: round(g), B: round(b)}
}
