// Package quantize maps pixels onto a palette, with or without
// Floyd–Steinberg error diffusion.
//
// Distance is plain squared Euclidean distance in RGB space, and the first
// palette entry wins ties, so results depend on palette order only when two
// entries are equally close.
//
// Quantize is embarrassingly parallel and runs rows concurrently in bands.
// Dither must visit pixels in raster order because each pixel's error feeds
// its unvisited neighbours; it never runs in parallel.
package quantize
