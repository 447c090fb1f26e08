// Package imaging provides the per-pixel stages of the retro conversion and the
// image analysis that drives automatic exposure.
//
// This package owns the PixelBuffer data model and implements the tonal and
// spatial stages that run before palette quantization: exposure, contrast and
// sharpening. It also measures source photographs (brightness histogram,
// dominant background detection) and turns that measurement into an exposure
// correction.
//
// # Pixel Storage
//
// A PixelBuffer stores non-premultiplied RGBA, 4 bytes per pixel, row-major,
// with len(Pix) == Width*Height*4. Every stage writes results back into 8-bit
// storage by rounding to nearest and saturating to [0,255], so overflow from
// one stage (e.g. exposure > 1) is absorbed at the moment it is stored.
// Alpha is never modified by any stage.
//
// # Ownership
//
// Stages mutate the buffer they are given. Callers hand a buffer to a stage and
// get it back when the stage returns; no two goroutines ever hold the same
// buffer. Source images held by ImageCache are never mutated.
//
// # Parallelism
//
// Exposure, contrast and sharpening are independent per pixel and run
// row-parallel via bild's parallel package. Sharpening reads from a private
// snapshot so rows may be processed in any order.
//
// # Brightness Analysis
//
// AverageBrightness works on a copy downscaled to at most 200px on the longer
// side. It counts only pixels with alpha >= 128 and uses ITU-R BT.601 luma
// weights (0.299, 0.587, 0.114).
package imaging
