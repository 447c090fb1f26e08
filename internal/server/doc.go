// Package server implements the MCP (Model Context Protocol) server for
// retro pixel-art conversion.
//
// The server speaks JSON-RPC 2.0 over stdio:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Source Images:
//   - image_load: Load image and get metadata
//   - image_brightness: Estimate brightness and suggest an exposure
//
// Conversion:
//   - pixelate: Downsample, adjust and quantize an image to the current palette
//
// Palettes:
//   - palette_list: List built-in and custom palettes
//   - palette_select: Make a palette current
//   - palette_extract: Build a custom palette from an image
//   - palette_import: Load a palette from JSON
//   - palette_export: Write a palette as JSON
//   - palette_delete: Remove a custom palette
//
// # Progress
//
// When a pixelate call carries _meta.progressToken, the server emits
// notifications/progress with progress in 0..100 before the response.
// Progress for one call never decreases.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// Out-of-range numeric arguments are not errors: they are clamped and
// listed in the result's validation field.
//
// # Usage
//
//	srv := server.New()
//	defer srv.Close()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
