// Package pipeline sequences the retro conversion stages and runs them off
// the caller's goroutine.
//
// A request is a PixelBuffer already downsampled to the target size (see
// TargetSize and Prepare) plus an immutable Params value. Run applies, in
// order: exposure, contrast, sharpening, then either Floyd–Steinberg
// dithering or plain quantization.
//
// # Progress
//
// Progress is reported at fixed checkpoints: 0 at start, 5 after exposure,
// 10 after contrast, 30 after sharpening, then linearly from 30 to 100 while
// quantizing (every 10 rows), and 100 at the end. Values never decrease.
//
// # Orchestrator
//
// Orchestrator is the channel-based worker: Submit posts a request, Events
// delivers ProgressEvent, ResultEvent and FailureEvent values. Every Submit
// takes a new, higher RequestID. There is no abort signal; a superseded
// request runs to completion and its events are silently dropped.
//
// # Validation
//
// Params.Normalize clamps every numeric field into Limits and returns one
// ValidationError per clamped field. Validation errors are informational;
// they never stop a request. Contrast can therefore never reach the
// singularity of the contrast formula.
package pipeline
