package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/retropixel-mcp/internal/imaging"
	"github.com/ironsheep/retropixel-mcp/internal/quantize"
)

// ErrProcessingFailure wraps any unexpected fault inside a pipeline run. No
// partial buffer accompanies it.
var ErrProcessingFailure = errors.New("processing failed")

// Progress checkpoints, in percent.
const (
	ProgressStart    = 0
	ProgressExposure = 5
	ProgressContrast = 10
	ProgressSharpen  = 30
	ProgressDone     = 100
)

// ProgressFunc receives progress percentages. Within one run the values
// never decrease.
type ProgressFunc func(percent int)

// progressReporter drops callbacks that would move progress backwards.
type progressReporter struct {
	fn   ProgressFunc
	last int
}

func (r *progressReporter) report(percent int) {
	if r.fn == nil || percent < r.last {
		return
	}
	r.last = percent
	r.fn(percent)
}

// rows maps quantization progress onto the 30..100 range.
func (r *progressReporter) rows(row, height int) {
	r.report(ProgressSharpen + int(math.Floor(70*float64(row)/float64(height))))
}

// Run executes the stages in order on buf, which it takes ownership of:
// exposure, contrast, sharpen, then dither or plain quantization.
//
// Parameters:
//   - buf: The prepared source pixels. Its dimensions must equal
//     p.TargetWidth x p.TargetHeight.
//   - p: Processing parameters. They are normalized before use, so
//     out-of-range values are clamped rather than rejected.
//   - progress: Receives 0, 5, 10, 30, row updates and finally 100. Values
//     never decrease. May be nil.
//
// Returns:
//   - *imaging.PixelBuffer: buf, mutated in place, with every pixel drawn
//     from (or blended toward) the palette.
//   - error: Non-nil if any stage fails. No buffer is returned alongside it.
//
// # Errors
//
//   - Returns ErrProcessingFailure if buf is invalid or its size differs from the target
//   - Returns ErrProcessingFailure wrapping the panic value if a stage panics
func Run(buf *imaging.PixelBuffer, p Params, progress ProgressFunc) (out *imaging.PixelBuffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrProcessingFailure, r)
		}
	}()

	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessingFailure, err)
	}
	p, _ = p.Normalize(DefaultLimits)
	if buf.Width != p.TargetWidth || buf.Height != p.TargetHeight {
		return nil, fmt.Errorf("%w: buffer is %dx%d but target is %dx%d",
			ErrProcessingFailure, buf.Width, buf.Height, p.TargetWidth, p.TargetHeight)
	}

	r := &progressReporter{fn: progress}
	r.report(ProgressStart)

	imaging.ApplyExposure(buf, p.Exposure)
	r.report(ProgressExposure)

	imaging.ApplyContrast(buf, p.Contrast)
	r.report(ProgressContrast)

	imaging.Sharpen(buf, p.Sharpen)
	r.report(ProgressSharpen)

	if p.UseDither {
		quantize.DitherWithProgress(buf, p.Palette, float64(p.DitherStrength)/100, p.PaletteRatio, r.rows)
	} else {
		quantize.QuantizeWithProgress(buf, p.Palette, p.PaletteRatio, r.rows)
	}
	r.report(ProgressDone)

	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessingFailure, err)
	}
	return buf, nil
}
