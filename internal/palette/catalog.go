package palette

// DefaultID is the palette selected when nothing else is.
const DefaultID = "nes_standard"

// Preset is the parameter set a palette is tuned for.
type Preset struct {
	// Dot is the dot resolution: the length in output pixels of the side
	// chosen by the aspect rule (see pipeline.TargetSize).
	Dot          int     `json:"dot"`
	Exposure     float64 `json:"exposure"`
	Contrast     int     `json:"contrast"`
	Sharpen      int     `json:"sharpen"`
	Dither       int     `json:"dither"`
	PaletteRatio float64 `json:"palette_ratio"`
}

// Entry is a palette together with its identity and preset.
type Entry struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Group   string  `json:"group,omitempty"`
	Colors  Palette `json:"-"`
	Preset  Preset  `json:"preset"`
	Builtin bool    `json:"builtin"`
}

// Group is a display grouping of built-in palettes.
type Group struct {
	Name string   `json:"name"`
	IDs  []string `json:"ids"`
}

var groups = []Group{
	{Name: "Nintendo Consoles", IDs: []string{"snes_classic_64", "nes_standard", "nes_vibrant", "famicom"}},
	{Name: "Game Boy", IDs: []string{"gb_classic", "gb_pocket", "gb_sepia"}},
	{Name: "Other Consoles & PCs", IDs: []string{"sega_ms", "atari2600", "cga"}},
}

var names = map[string]string{
	"snes_classic_64": "SNES Classic (64)",
	"nes_standard":    "NES Standard (56)",
	"nes_vibrant":     "NES Vibrant (48)",
	"famicom":         "Famicom (28)",
	"gb_classic":      "GB Classic",
	"gb_pocket":       "GB Pocket",
	"gb_sepia":        "GB Sepia",
	"sega_ms":         "Sega Master System",
	"atari2600":       "Atari 2600",
	"cga":             "IBM CGA",
}

var presets = map[string]Preset{
	"snes_classic_64": {Dot: 256, Exposure: 1.0, Contrast: 5, Sharpen: 20, Dither: 40, PaletteRatio: 1.0},
	"famicom":         {Dot: 256, Exposure: 1.0, Contrast: 0, Sharpen: 10, Dither: 30, PaletteRatio: 1.0},
	"nes_standard":    {Dot: 256, Exposure: 1.2, Contrast: 15, Sharpen: 15, Dither: 25, PaletteRatio: 1.0},
	"nes_vibrant":     {Dot: 256, Exposure: 1.1, Contrast: 20, Sharpen: 15, Dither: 30, PaletteRatio: 1.0},
	"gb_classic":      {Dot: 160, Exposure: 0.8, Contrast: -20, Sharpen: 25, Dither: 15, PaletteRatio: 1.0},
	"gb_pocket":       {Dot: 160, Exposure: 1.0, Contrast: -10, Sharpen: 20, Dither: 15, PaletteRatio: 1.0},
	"gb_sepia":        {Dot: 160, Exposure: 1.1, Contrast: 0, Sharpen: 20, Dither: 15, PaletteRatio: 1.0},
	"cga":             {Dot: 320, Exposure: 1.0, Contrast: 0, Sharpen: 0, Dither: 15, PaletteRatio: 1.0},
	"sega_ms":         {Dot: 256, Exposure: 1.0, Contrast: 10, Sharpen: 10, Dither: 30, PaletteRatio: 1.0},
	"atari2600":       {Dot: 160, Exposure: 1.3, Contrast: 25, Sharpen: 30, Dither: 30, PaletteRatio: 1.0},
}

var colors = map[string]Palette{
	"snes_classic_64": mustFromHex(
		"#000000", "#101010", "#212121", "#313131", "#424242", "#525252", "#636363", "#737373",
		"#848484", "#949494", "#A5A5A5", "#B5B5B5", "#C6C6C6", "#D6D6D6", "#E7E7E7", "#FFFFFF",
		"#3A1B0C", "#522810", "#753A17", "#994E1F", "#C26428", "#EE7C33", "#FF9A3E", "#FFBB4D",
		"#FFD963", "#FFF98A", "#E3F876", "#C0EC64", "#96DE54", "#68CE45", "#36BC36", "#00A825",
		"#009118", "#00780A", "#005F00", "#004400", "#002C00", "#001600", "#003D4D", "#00556B",
		"#00708D", "#008FB3", "#00ACE0", "#00CCFF", "#4DD9FF", "#8DE9FF", "#C3F6FF", "#DEFDFD",
		"#9B85C2", "#7E68A6", "#604D89", "#42336B", "#261B4F", "#0E0033", "#21004A", "#380063",
		"#53007E", "#70009B", "#9000BC", "#B300E0", "#D800FF", "#FF00FF", "#FF56FF", "#FF98FF",
		"#FFCCFF", "#E9B4B4", "#D49490", "#BD726B", "#A44F48", "#8A2924", "#6E0000",
	),
	"famicom": mustFromHex(
		"#7C7C7C", "#0000FC", "#0000BC", "#4428BC", "#940084", "#A80020", "#A81000", "#743800",
		"#007800", "#006800", "#005800", "#004058", "#000000", "#B80000", "#008888", "#00A800",
		"#F8F8F8", "#3CBCFC", "#6888FC", "#9878F8", "#F878F8", "#F85898", "#F87858", "#FCA044",
		"#F8B800", "#B8F818", "#58D854", "#58F898",
	),
	"nes_standard": mustFromHex(
		"#7C7C7C", "#0000FC", "#0000BC", "#4428BC", "#940084", "#A80020", "#A81000", "#881400",
		"#503000", "#007800", "#006800", "#005800", "#004058", "#000000", "#000000", "#000000",
		"#BCBCBC", "#0078F8", "#0058F8", "#6844FC", "#D800CC", "#E40058", "#F83800", "#E45C10",
		"#AC7C00", "#00B800", "#00A800", "#00A844", "#008888", "#000000", "#000000", "#000000",
		"#F8F8F8", "#3CBCFC", "#6888FC", "#9878F8", "#F878F8", "#F85898", "#F87858", "#FCA044",
		"#F8B800", "#B8F818", "#58D854", "#58F898", "#00E8D8", "#787878", "#000000", "#000000",
		"#FFFFFF", "#A4E4FC", "#B8B8F8", "#D8B8F8", "#F8B8F8", "#F8A4C0", "#F0D0B0", "#FCE0A8",
		"#F8D878", "#D8F878", "#B8F8B8", "#B8F8D8", "#00FCFC", "#F8D8F8", "#000000", "#000000",
	),
	"nes_vibrant": mustFromHex(
		"#6B6B6B", "#001B94", "#10007A", "#300078", "#50005A", "#5A0019", "#4E0800", "#341E00",
		"#0E2E00", "#003400", "#00360A", "#003239", "#000000", "#000000", "#000000", "#B9B9B9",
		"#1859E1", "#353EE3", "#6328E0", "#9A18C8", "#A81079", "#A02324", "#7F3E00", "#585600",
		"#2C6900", "#007100", "#007218", "#006C54", "#000000", "#000000", "#000000", "#FFFFFF",
		"#6CAAFE", "#8D8BFF", "#B779FF", "#F86BFF", "#FF69C7", "#FF7870", "#E0973F", "#BBAA0B",
		"#7ECE0C", "#40DA33", "#38DE71", "#3FFFF1", "#000000", "#000000", "#000000",
	),
	"gb_classic": mustFromHex("#0F380F", "#306230", "#8BAC0F", "#9BBC0F"),
	"gb_pocket":  mustFromHex("#E0F8D0", "#88C070", "#346856", "#081820"),
	"gb_sepia":   mustFromHex("#EADFC5", "#B3A261", "#7B673A", "#41341F"),
	"cga": mustFromHex(
		"#000000", "#0000AA", "#00AA00", "#00AAAA", "#AA0000", "#AA00AA", "#AA5500", "#AAAAAA",
		"#555555", "#5555FF", "#55FF55", "#55FFFF", "#FF5555", "#FF55FF", "#FFFF55", "#FFFFFF",
	),
	"sega_ms": mustFromHex(
		"#000000", "#0000AA", "#00AA00", "#00AAAA", "#AA0000", "#AA00AA", "#AA5500", "#AAAAAA",
		"#555555", "#5555FF", "#55FF55", "#55FFFF", "#FF5555", "#FF55FF", "#FFFF55", "#FFFFFF",
	),
	"atari2600": mustFromHex(
		"#000000", "#FFFFFF", "#880000", "#AAFFEE", "#CC44CC", "#00CC55", "#0000AA", "#EEEE77",
		"#DD8855", "#664400", "#FF7777", "#333333", "#777777", "#AAFF66", "#0088FF", "#BBBBBB",
	),
}

// Groups returns the display groups of the built-in catalog.
func Groups() []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = Group{Name: g.Name, IDs: append([]string(nil), g.IDs...)}
	}
	return out
}

// Builtins returns fresh copies of every built-in palette in group order.
// The catalog itself is read-only; callers may modify what they receive.
func Builtins() []Entry {
	var out []Entry
	for _, g := range groups {
		for _, id := range g.IDs {
			out = append(out, Entry{
				ID:      id,
				Name:    names[id],
				Group:   g.Name,
				Colors:  colors[id].Clone(),
				Preset:  presets[id],
				Builtin: true,
			})
		}
	}
	return out
}

// BuiltinPreset returns the preset of a built-in palette.
func BuiltinPreset(id string) (Preset, bool) {
	p, ok := presets[id]
	return p, ok
}

// BuiltinColors returns a copy of a built-in palette's colors.
func BuiltinColors(id string) (Palette, bool) {
	p, ok := colors[id]
	return p.Clone(), ok
}
