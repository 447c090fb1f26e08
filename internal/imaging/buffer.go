package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ErrBufferSize is returned when a PixelBuffer's backing slice does not hold
// exactly Width*Height RGBA pixels.
var ErrBufferSize = errors.New("pixel buffer size mismatch")

// PixelBuffer is raw, non-premultiplied RGBA pixel storage.
//
// Pixels are stored row-major, 4 bytes per pixel (R, G, B, A), with no
// padding between rows. A PixelBuffer is owned by exactly one stage at a
// time: passing it to a processing function hands over ownership, and the
// caller must not read or write Pix until it is handed back.
type PixelBuffer struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Pix    []uint8 `json:"-"`
}

// NewPixelBuffer allocates a zeroed (transparent black) buffer.
func NewPixelBuffer(width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid buffer dimensions %dx%d", width, height)
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}, nil
}

// Validate checks the length invariant that must hold at every stage boundary.
func (b *PixelBuffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrBufferSize)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrBufferSize, b.Width, b.Height)
	}
	if want := b.Width * b.Height * 4; len(b.Pix) != want {
		return fmt.Errorf("%w: have %d bytes, want %d for %dx%d",
			ErrBufferSize, len(b.Pix), want, b.Width, b.Height)
	}
	return nil
}

// Clone returns a deep copy whose Pix shares no memory with b.
func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Offset returns the index of the red byte of pixel (x, y).
func (b *PixelBuffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// Image wraps the buffer as an *image.NRGBA without copying.
//
// The returned image aliases Pix, so it inherits the buffer's ownership.
func (b *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// FromImage copies any image into a new PixelBuffer.
//
// The conversion goes through imaging.Clone, which yields tightly packed,
// non-premultiplied NRGBA data anchored at (0,0).
func FromImage(img image.Image) *PixelBuffer {
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	return &PixelBuffer{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pix:    nrgba.Pix,
	}
}

// Resample scales img to width x height with the given filter and returns the
// result as a new PixelBuffer.
//
// Use imaging.NearestNeighbor for hard-edged pixel-art downsampling and
// imaging.Linear when the pixels are only being measured.
func Resample(img image.Image, width, height int, filter imaging.ResampleFilter) *PixelBuffer {
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return FromImage(img)
	}
	return FromImage(imaging.Resize(img, width, height, filter))
}

// clamp8 converts a channel value to 8-bit storage: rounded to nearest
// (ties to even) and saturated to [0,255]. NaN stores as 0.
func clamp8(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}

// Clamp8 is the exported form of the 8-bit storage conversion, shared with
// the quantization stages so every stage saturates identically.
func Clamp8(v float64) uint8 {
	return clamp8(v)
}

// Pixelate downsamples img to width x height with nearest-neighbour sampling,
// keeping hard pixel edges.
func Pixelate(img image.Image, width, height int) *PixelBuffer {
	return Resample(img, width, height, imaging.NearestNeighbor)
}

// Downsample shrinks img to width x height with linear filtering. It is meant
// for analysis samples where averaging neighbouring pixels is desirable.
func Downsample(img image.Image, width, height int) *PixelBuffer {
	return Resample(img, width, height, imaging.Linear)
}
