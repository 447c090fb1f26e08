package imaging

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultBrightness is reported when an image has no measurable pixels.
const DefaultBrightness = 128.0

// opaqueAlpha is the lowest alpha value counted as an opaque pixel.
const opaqueAlpha = 128

// BrightnessOptions tunes AverageBrightnessWith.
//
// The thresholds are empirical; they are exposed rather than derived.
type BrightnessOptions struct {
	// MaxDimension caps the longer side of the analysed sample.
	MaxDimension int

	// TrimFraction is discarded from each tail of the histogram when no
	// dominant background is found.
	TrimFraction float64

	// DominantFraction is the share of pixels a near-black or near-white
	// range must exceed to count as a dominant background.
	DominantFraction float64

	// NearBlack is the highest luminance treated as near-black (inclusive).
	NearBlack int

	// NearWhite is the lowest luminance treated as near-white (inclusive).
	NearWhite int
}

// DefaultBrightnessOptions returns the tuning used by AverageBrightness.
func DefaultBrightnessOptions() BrightnessOptions {
	return BrightnessOptions{
		MaxDimension:     200,
		TrimFraction:     0.05,
		DominantFraction: 0.20,
		NearBlack:        30,
		NearWhite:        225,
	}
}

// Histogram is a 256-bin luminance histogram.
type Histogram [256]float64

// Luminance returns round(0.299R + 0.587G + 0.114B).
func Luminance(r, g, b uint8) int {
	return int(math.Floor(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b) + 0.5))
}

// LuminanceHistogram counts the luminance of every opaque pixel (alpha >= 128).
func LuminanceHistogram(b *PixelBuffer) (hist Histogram, total int) {
	for i := 0; i < len(b.Pix); i += 4 {
		if b.Pix[i+3] < opaqueAlpha {
			continue
		}
		hist[Luminance(b.Pix[i], b.Pix[i+1], b.Pix[i+2])]++
		total++
	}
	return hist, total
}

// AverageBrightness estimates the perceived brightness of img in [0,255]
// using DefaultBrightnessOptions.
func AverageBrightness(img image.Image) float64 {
	return AverageBrightnessWith(img, DefaultBrightnessOptions())
}

// AverageBrightnessWith estimates the brightness of img.
//
// The image is downscaled so its longer side is at most opts.MaxDimension.
// If near-black or near-white tones dominate (each checked independently),
// those ranges are removed and the mean of what remains is returned.
// Otherwise a trimmed mean drops opts.TrimFraction of the mass from each
// tail. Images without opaque pixels report DefaultBrightness.
func AverageBrightnessWith(img image.Image, opts BrightnessOptions) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return DefaultBrightness
	}
	w, h := fitLongerSide(bounds.Dx(), bounds.Dy(), opts.MaxDimension)
	sample := Downsample(img, w, h)
	hist, total := LuminanceHistogram(sample)
	return HistogramBrightness(hist, total, opts)
}

// HistogramBrightness applies the dominant-background and trimmed-mean rules
// to an already built histogram.
func HistogramBrightness(hist Histogram, total int, opts BrightnessOptions) float64 {
	if total == 0 {
		return DefaultBrightness
	}

	work := hist
	remaining := float64(total)
	dominant := false

	nearBlack := binSum(hist, 0, opts.NearBlack)
	if nearBlack/float64(total) > opts.DominantFraction {
		dominant = true
		remaining -= nearBlack
		zeroBins(&work, 0, opts.NearBlack)
	}
	nearWhite := binSum(hist, opts.NearWhite, 255)
	if nearWhite/float64(total) > opts.DominantFraction {
		dominant = true
		remaining -= nearWhite
		zeroBins(&work, opts.NearWhite, 255)
	}
	if remaining <= 0 {
		return DefaultBrightness
	}

	if dominant {
		return histogramMean(work, 0, 255)
	}

	trim := remaining * opts.TrimFraction
	lo, hi := 0, 255
	acc := 0.0
	for i := 0; i < 256; i++ {
		acc += work[i]
		if acc >= trim {
			lo = i
			break
		}
	}
	acc = 0
	for i := 255; i >= 0; i-- {
		acc += work[i]
		if acc >= trim {
			hi = i
			break
		}
	}
	return histogramMean(work, lo, hi)
}

// histogramMean is the count-weighted mean luminance of bins [lo, hi].
func histogramMean(hist Histogram, lo, hi int) float64 {
	if lo > hi {
		return DefaultBrightness
	}
	values := make([]float64, 0, hi-lo+1)
	weights := make([]float64, 0, hi-lo+1)
	mass := 0.0
	for i := lo; i <= hi; i++ {
		values = append(values, float64(i))
		weights = append(weights, hist[i])
		mass += hist[i]
	}
	if mass == 0 {
		return DefaultBrightness
	}
	return stat.Mean(values, weights)
}

func binSum(hist Histogram, lo, hi int) float64 {
	lo, hi = clamp(lo, 0, 255), clamp(hi, 0, 255)
	sum := 0.0
	for i := lo; i <= hi; i++ {
		sum += hist[i]
	}
	return sum
}

func zeroBins(hist *Histogram, lo, hi int) {
	lo, hi = clamp(lo, 0, 255), clamp(hi, 0, 255)
	for i := lo; i <= hi; i++ {
		hist[i] = 0
	}
}

// fitLongerSide shrinks (w, h) proportionally so neither side exceeds max.
// Sizes already within the limit are returned unchanged.
func fitLongerSide(w, h, max int) (int, int) {
	if max <= 0 {
		return w, h
	}
	if w > h {
		if w > max {
			h = int(math.Floor(float64(h)*float64(max)/float64(w) + 0.5))
			w = max
		}
	} else if h > max {
		w = int(math.Floor(float64(w)*float64(max)/float64(h) + 0.5))
		h = max
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
