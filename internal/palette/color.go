package palette

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an opaque 8-bit RGB color. Palettes carry no alpha.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Palette is an ordered set of target colors. Order matters for display and
// for quantization tie-breaks only.
type Palette []Color

// hexPattern is the only accepted textual color form: '#' plus 6 hex digits.
var hexPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ParseHex parses "#RRGGBB" (case-insensitive).
func ParseHex(s string) (Color, error) {
	if !hexPattern.MatchString(s) {
		return Color{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// MustParseHex is ParseHex for compile-time constants; it panics on bad input.
func MustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats c as upper-case "#RRGGBB".
func (c Color) Hex() string {
	return strings.ToUpper(c.toColorful().Hex())
}

// DistanceSq is the squared Euclidean distance in RGB space.
func (c Color) DistanceSq(o Color) int {
	dr := int(c.R) - int(o.R)
	dg := int(c.G) - int(o.G)
	db := int(c.B) - int(o.B)
	return dr*dr + dg*dg + db*db
}

// Lightness is the CIE L* of c in [0,1].
func (c Color) Lightness() float64 {
	l, _, _ := c.toColorful().Lab()
	return l
}

func (c Color) toColorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// FromHex builds a palette from hex strings, failing on the first bad entry.
func FromHex(hexes []string) (Palette, error) {
	p := make(Palette, 0, len(hexes))
	for i, h := range hexes {
		c, err := ParseHex(h)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		p = append(p, c)
	}
	return p, nil
}

// mustFromHex is FromHex for the built-in catalog.
func mustFromHex(hexes ...string) Palette {
	p, err := FromHex(hexes)
	if err != nil {
		panic(err)
	}
	return p
}

// Hex returns the palette as "#RRGGBB" strings in palette order.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.Hex()
	}
	return out
}

// Clone returns a copy that shares no memory with p.
func (p Palette) Clone() Palette {
	if p == nil {
		return nil
	}
	out := make(Palette, len(p))
	copy(out, p)
	return out
}

// Swatches returns the colors ordered dark to light, for display. The palette
// itself is not reordered.
func (p Palette) Swatches() Palette {
	out := p.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Lightness() < out[j].Lightness()
	})
	return out
}
