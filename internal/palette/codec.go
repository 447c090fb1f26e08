package palette

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedImport is returned when palette data is not a JSON array of
// "#RRGGBB" strings. The import is rejected as a whole.
var ErrMalformedImport = errors.New("malformed palette import")

// Import decodes the palette file format: a JSON array of hex color strings,
// e.g. ["#FF00FF","#102030"].
//
// Every entry must match ^#[0-9a-fA-F]{6}$. Any deviation, including a
// non-array top-level value, a non-string entry or an empty array, fails the
// whole import.
func Import(data []byte) (Palette, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: expected an array of hex color strings: %v", ErrMalformedImport, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: palette is empty", ErrMalformedImport)
	}

	p := make(Palette, 0, len(raw))
	for i, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			return nil, fmt.Errorf("%w: entry %d is not a string", ErrMalformedImport, i)
		}
		c, err := ParseHex(s)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedImport, i, err)
		}
		p = append(p, c)
	}
	return p, nil
}

// Export encodes p in the palette file format, pretty-printed with two-space
// indentation.
func Export(p Palette) ([]byte, error) {
	if len(p) == 0 {
		return nil, errors.New("cannot export an empty palette")
	}
	b, err := json.MarshalIndent(p.Hex(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode palette: %w", err)
	}
	return b, nil
}
