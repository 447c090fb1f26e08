// Package palette defines retro color palettes and the ways to obtain them.
//
// A Palette is an ordered list of opaque RGB colors. Palettes come from three
// places:
//   - the built-in catalog of console and PC palettes, each paired with a
//     Preset of processing parameters tuned for it
//   - extraction from a photograph (FrequencyBinning or MedianCut)
//   - import of a palette file
//
// # Palette File Format
//
// A palette file is a JSON array of "#RRGGBB" strings (hex digits in either
// case):
//
//	[
//	  "#0F380F",
//	  "#306230"
//	]
//
// Export always writes upper-case digits, pretty-printed. Import rejects the
// whole file if any entry does not match.
//
// # Extraction
//
// Both extractors work on a sample of at most 10,000 pixels and ignore pixels
// with alpha below 128. They return ErrEmptyExtraction rather than an empty
// palette.
//
// # Store
//
// Store replaces ambient selection state with an explicit object: it holds
// the catalog plus custom palettes and tracks the current selection. Custom
// palette IDs start with "custom_".
package palette
