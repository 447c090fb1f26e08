package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/retropixel-mcp/internal/imaging"
	"github.com/ironsheep/retropixel-mcp/internal/palette"
)

// ErrInvalidParameter marks a numeric field that was out of range. It is
// always recovered by clamping; see ValidationError.
var ErrInvalidParameter = errors.New("invalid parameter")

// ValidationError describes one field that was clamped during Normalize.
type ValidationError struct {
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return ErrInvalidParameter
}

// Params is the immutable parameter set of one pipeline request.
type Params struct {
	TargetWidth    int             `json:"target_width"`
	TargetHeight   int             `json:"target_height"`
	Exposure       float64         `json:"exposure"`
	Contrast       int             `json:"contrast"`
	Sharpen        int             `json:"sharpen"`
	UseDither      bool            `json:"use_dither"`
	DitherStrength int             `json:"dither_strength"`
	Palette        palette.Palette `json:"-"`
	PaletteRatio   float64         `json:"palette_ratio"`
}

// Limits holds the accepted range of every numeric parameter.
type Limits struct {
	MinDimension int
	MaxDimension int
	MinDot       int
	MaxDot       int
	Exposure     imaging.ExposureBounds
	MinContrast  int
	MaxContrast  int
	MaxSharpen   int
	MaxDither    int
	MinScale     int
	MaxScale     int
}

// DefaultLimits are the ranges used throughout the server.
var DefaultLimits = Limits{
	MinDimension: 1,
	MaxDimension: 4096,
	MinDot:       8,
	MaxDot:       1024,
	Exposure:     imaging.DefaultExposureBounds,
	MinContrast:  imaging.MinContrast,
	MaxContrast:  imaging.MaxContrast,
	MaxSharpen:   100,
	MaxDither:    100,
	MinScale:     1,
	MaxScale:     16,
}

// DefaultParams returns the parameters of the default palette's preset with
// dithering enabled. Target dimensions are left zero for TargetSize to fill.
func DefaultParams() Params {
	preset, _ := palette.BuiltinPreset(palette.DefaultID)
	p := Params{UseDither: true}
	return p.WithPreset(preset)
}

// WithPreset returns a copy of p with the tonal and quantization fields of
// preset applied. Dimensions, palette and UseDither are kept.
func (p Params) WithPreset(preset palette.Preset) Params {
	p.Exposure = preset.Exposure
	p.Contrast = preset.Contrast
	p.Sharpen = preset.Sharpen
	p.DitherStrength = preset.Dither
	p.PaletteRatio = preset.PaletteRatio
	return p
}

// Preset captures the current parameters as a preset with the given dot
// resolution, e.g. to store alongside a newly created palette.
func (p Params) Preset(dot int) palette.Preset {
	return palette.Preset{
		Dot:          dot,
		Exposure:     p.Exposure,
		Contrast:     p.Contrast,
		Sharpen:      p.Sharpen,
		Dither:       p.DitherStrength,
		PaletteRatio: p.PaletteRatio,
	}
}

// Normalize clamps every field into l and reports each field it changed.
// It never fails: the returned Params is always safe to run. An empty
// palette is replaced by the default catalog palette.
func (p Params) Normalize(l Limits) (Params, []ValidationError) {
	var errs []ValidationError

	p.TargetWidth, p.TargetHeight = fitDimensions(p.TargetWidth, p.TargetHeight, l.MaxDimension, &errs)
	p.TargetWidth = clampInt("target_width", p.TargetWidth, l.MinDimension, l.MaxDimension, &errs)
	p.TargetHeight = clampInt("target_height", p.TargetHeight, l.MinDimension, l.MaxDimension, &errs)
	p.Exposure = clampFloat("exposure", p.Exposure, l.Exposure.Min, l.Exposure.Max, &errs)
	p.Contrast = clampInt("contrast", p.Contrast, l.MinContrast, l.MaxContrast, &errs)
	p.Sharpen = clampInt("sharpen", p.Sharpen, 0, l.MaxSharpen, &errs)
	p.DitherStrength = clampInt("dither_strength", p.DitherStrength, 0, l.MaxDither, &errs)
	p.PaletteRatio = clampFloat("palette_ratio", p.PaletteRatio, 0, 1, &errs)

	if len(p.Palette) == 0 {
		p.Palette, _ = palette.BuiltinColors(palette.DefaultID)
		errs = append(errs, ValidationError{
			Field:   "palette",
			Message: fmt.Sprintf("palette is empty, using %s", palette.DefaultID),
		})
	} else {
		p.Palette = p.Palette.Clone()
	}
	return p, errs
}

// ClampDot limits a dot resolution to [MinDot, MaxDot].
func (l Limits) ClampDot(dot int) (int, []ValidationError) {
	var errs []ValidationError
	return clampInt("dot", dot, l.MinDot, l.MaxDot, &errs), errs
}

// ClampScale limits an output upscale factor to [MinScale, MaxScale].
func (l Limits) ClampScale(scale int) (int, []ValidationError) {
	var errs []ValidationError
	return clampInt("scale", scale, l.MinScale, l.MaxScale, &errs), errs
}

// fitDimensions shrinks w x h uniformly so the longer side is at most limit.
// The aspect ratio is kept; a side may round down to zero and is left for
// the per-field minimum clamp.
func fitDimensions(w, h, limit int, errs *[]ValidationError) (int, int) {
	longer := max(w, h)
	if limit <= 0 || longer <= limit {
		return w, h
	}
	f := float64(limit) / float64(longer)
	fw := int(math.Floor(float64(w)*f + 0.5))
	fh := int(math.Floor(float64(h)*f + 0.5))
	*errs = append(*errs, ValidationError{
		Field:   "target_size",
		Value:   float64(longer),
		Message: fmt.Sprintf("%dx%d exceeds %d, scaled to %dx%d", w, h, limit, fw, fh),
	})
	return fw, fh
}

func clampInt(field string, v, lo, hi int, errs *[]ValidationError) int {
	switch {
	case v < lo:
		*errs = append(*errs, ValidationError{Field: field, Value: float64(v), Message: fmt.Sprintf("must be at least %d", lo)})
		return lo
	case v > hi:
		*errs = append(*errs, ValidationError{Field: field, Value: float64(v), Message: fmt.Sprintf("must be at most %d", hi)})
		return hi
	}
	return v
}

func clampFloat(field string, v, lo, hi float64, errs *[]ValidationError) float64 {
	switch {
	case math.IsNaN(v):
		*errs = append(*errs, ValidationError{Field: field, Message: "must be a number"})
		return lo
	case v < lo:
		*errs = append(*errs, ValidationError{Field: field, Value: v, Message: fmt.Sprintf("must be at least %g", lo)})
		return lo
	case v > hi:
		*errs = append(*errs, ValidationError{Field: field, Value: v, Message: fmt.Sprintf("must be at most %g", hi)})
		return hi
	}
	return v
}

// Brightness stepping increments.
const (
	exposureStep = 0.1
	contrastStep = 10
)

// StepBrightness nudges exposure and contrast together. step 0 resets both
// to preset; any other step moves exposure by 0.1*step and contrast by
// 10*step, clamped to l.
func StepBrightness(p Params, preset palette.Preset, step int, l Limits) Params {
	if step == 0 {
		p.Exposure = preset.Exposure
		p.Contrast = preset.Contrast
		return p
	}
	p.Exposure = l.Exposure.Clamp(p.Exposure + float64(step)*exposureStep)
	p.Contrast = max(l.MinContrast, min(l.MaxContrast, p.Contrast+step*contrastStep))
	return p
}
