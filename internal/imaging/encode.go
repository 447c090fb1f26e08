package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

// EncodedImage is a PNG rendering of a PixelBuffer, ready for transport.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Upscale enlarges b by an integer factor using nearest-neighbour sampling,
// so each source pixel becomes a crisp scale x scale block. Factors below 2
// return b itself.
func Upscale(b *PixelBuffer, scale int) *PixelBuffer {
	if scale < 2 {
		return b
	}
	return FromImage(imaging.Resize(b.Image(), b.Width*scale, b.Height*scale, imaging.NearestNeighbor))
}

// EncodePNG upscales b by scale and encodes it as base64 PNG.
func EncodePNG(b *PixelBuffer, scale int) (*EncodedImage, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	out := Upscale(b, scale)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out.Image(), imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       out.Width,
		Height:      out.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SavePNG upscales b by scale and writes it to path.
func SavePNG(b *PixelBuffer, path string, scale int) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := imaging.Save(Upscale(b, scale).Image(), path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
