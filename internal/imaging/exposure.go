package imaging

import (
	"fmt"
	"math"
)

// Auto-exposure tuning. Brightness inside [exposureLowerBound,
// exposureUpperBound] is left alone; anything else is pulled toward
// exposureTarget with a bounded factor.
const (
	exposureTarget     = 120.0
	exposureLowerBound = 80.0
	exposureUpperBound = 170.0
	minExposureFactor  = 0.7
	maxExposureFactor  = 1.5

	// deltaEpsilon is the smallest change worth reporting.
	deltaEpsilon = 0.01
)

// ExposureBounds is the closed range an exposure value may take.
type ExposureBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultExposureBounds matches the exposure range of ProcessingParams.
var DefaultExposureBounds = ExposureBounds{Min: 0.1, Max: 3.0}

// Clamp constrains v to the bounds.
func (b ExposureBounds) Clamp(v float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, v))
}

// ExposureCorrection is the outcome of CorrectExposure.
type ExposureCorrection struct {
	// Brightness is the estimate the correction was derived from.
	Brightness float64 `json:"brightness"`

	// Exposure is the exposure to use from now on.
	Exposure float64 `json:"exposure"`

	// Delta is Exposure minus the input exposure, rounded to 2 decimals.
	Delta float64 `json:"delta"`

	// Corrected reports whether the change exceeds 0.01.
	Corrected bool `json:"corrected"`

	// Message is the signed delta as shown to users, e.g. "+0.25".
	// Empty when no correction was made.
	Message string `json:"message,omitempty"`
}

// CorrectExposure maps a brightness estimate to a new exposure value.
//
// Estimates within [80,170], or at or below zero, leave the exposure as is.
// Otherwise the exposure is scaled by clamp(120/avg, 0.7, 1.5) and then
// clamped to bounds. Once the brightness lands in range, feeding the result
// back in produces no further change.
//
// Parameters:
//   - avgBrightness: Estimate from AverageBrightness, in [0,255].
//   - currentExposure: The exposure in effect before correction.
//   - bounds: The accepted exposure range.
//
// Returns:
//   - ExposureCorrection: The exposure to use from now on plus the signed
//     delta that led to it (Message holds the display form, e.g. "+0.25").
func CorrectExposure(avgBrightness, currentExposure float64, bounds ExposureBounds) ExposureCorrection {
	result := ExposureCorrection{
		Brightness: avgBrightness,
		Exposure:   currentExposure,
	}
	if avgBrightness <= 0 || (avgBrightness >= exposureLowerBound && avgBrightness <= exposureUpperBound) {
		return result
	}

	factor := math.Max(minExposureFactor, math.Min(maxExposureFactor, exposureTarget/avgBrightness))
	result.Exposure = bounds.Clamp(currentExposure * factor)

	delta := result.Exposure - currentExposure
	if math.Abs(delta) > deltaEpsilon {
		result.Corrected = true
		result.Delta = math.Round(delta*100) / 100
		result.Message = fmt.Sprintf("%+.2f", delta)
	}
	return result
}
