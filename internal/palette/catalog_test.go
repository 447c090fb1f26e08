package palette

import (
	"testing"
)

func TestBuiltins(t *testing.T) {
	entries := Builtins()
	if len(entries) != 10 {
		t.Fatalf("got %d built-in palettes, want 10", len(entries))
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		t.Run(e.ID, func(t *testing.T) {
			if seen[e.ID] {
				t.Error("duplicate id")
			}
			seen[e.ID] = true

			if !e.Builtin {
				t.Error("Builtin should be set")
			}
			if e.Name == "" || e.Group == "" {
				t.Errorf("missing name or group: %+v", e)
			}
			if len(e.Colors) == 0 {
				t.Error("no colors")
			}
			if e.Preset.Dot <= 0 || e.Preset.Exposure <= 0 {
				t.Errorf("implausible preset: %+v", e.Preset)
			}
			if e.Preset.PaletteRatio < 0 || e.Preset.PaletteRatio > 1 {
				t.Errorf("palette ratio out of range: %v", e.Preset.PaletteRatio)
			}
		})
	}

	if !seen[DefaultID] {
		t.Errorf("default palette %s missing from catalog", DefaultID)
	}
}

func TestBuiltins_KnownPalettes(t *testing.T) {
	tests := []struct {
		id    string
		count int
		first string
		dot   int
	}{
		{"gb_classic", 4, "#0F380F", 160},
		{"gb_pocket", 4, "#E0F8D0", 160},
		{"cga", 16, "#000000", 320},
		{"nes_standard", 64, "#7C7C7C", 256},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			colors, ok := BuiltinColors(tt.id)
			if !ok {
				t.Fatal("not found")
			}
			if len(colors) != tt.count {
				t.Errorf("count: got %d, want %d", len(colors), tt.count)
			}
			if colors[0].Hex() != tt.first {
				t.Errorf("first color: got %s, want %s", colors[0].Hex(), tt.first)
			}
			preset, ok := BuiltinPreset(tt.id)
			if !ok || preset.Dot != tt.dot {
				t.Errorf("preset dot: got %d, want %d", preset.Dot, tt.dot)
			}
		})
	}

	if _, ok := BuiltinColors("custom_1"); ok {
		t.Error("BuiltinColors should not know custom palettes")
	}
}

func TestBuiltins_ReturnCopies(t *testing.T) {
	a, _ := BuiltinColors("gb_classic")
	a[0] = Color{}
	b, _ := BuiltinColors("gb_classic")
	if b[0] == (Color{}) {
		t.Error("BuiltinColors exposed the catalog")
	}

	g := Groups()
	g[0].IDs[0] = "changed"
	if Groups()[0].IDs[0] == "changed" {
		t.Error("Groups exposed the catalog")
	}
}

func TestGroups_CoverCatalog(t *testing.T) {
	total := 0
	for _, g := range Groups() {
		for _, id := range g.IDs {
			if _, ok := BuiltinPreset(id); !ok {
				t.Errorf("group %s lists unknown palette %s", g.Name, id)
			}
			total++
		}
	}
	if total != len(Builtins()) {
		t.Errorf("groups list %d palettes, catalog has %d", total, len(Builtins()))
	}
}
