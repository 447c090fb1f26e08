package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/retropixel-mcp/internal/imaging"
	"github.com/ironsheep/retropixel-mcp/internal/palette"
	"github.com/ironsheep/retropixel-mcp/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "pixelate", "palette_extract").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`

	// Meta carries the optional progress token.
	Meta *struct {
		ProgressToken interface{} `json:"progressToken,omitempty"`
	} `json:"_meta,omitempty"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	var token interface{}
	if params.Meta != nil {
		token = params.Meta.ProgressToken
	}

	result, err := s.executeTool(params.Name, params.Arguments, token)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage, progressToken interface{}) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Source Images
	case "image_load":
		return s.handleImageLoad(args)
	case "image_brightness":
		return s.handleImageBrightness(args)

	// Conversion
	case "pixelate":
		return s.handlePixelate(args, progressToken)

	// Palettes
	case "palette_list":
		return s.handlePaletteList(args)
	case "palette_select":
		return s.handlePaletteSelect(args)
	case "palette_extract":
		return s.handlePaletteExtract(args)
	case "palette_import":
		return s.handlePaletteImport(args)
	case "palette_export":
		return s.handlePaletteExport(args)
	case "palette_delete":
		return s.handlePaletteDelete(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Source Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageBrightnessArgs struct {
	Path     string  `json:"path"`
	Exposure float64 `json:"exposure"`
}

func (s *Server) handleImageBrightness(args json.RawMessage) (interface{}, error) {
	var a imageBrightnessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Exposure == 0 {
		a.Exposure = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	correction := imaging.CorrectExposure(imaging.AverageBrightness(img), a.Exposure, pipeline.DefaultLimits.Exposure)
	return &correction, nil
}

// === Conversion Handlers ===

type pixelateArgs struct {
	Path           string   `json:"path"`
	PaletteID      string   `json:"palette_id"`
	Dot            *int     `json:"dot"`
	CorrectAspect  bool     `json:"correct_aspect"`
	Exposure       *float64 `json:"exposure"`
	Contrast       *int     `json:"contrast"`
	Sharpen        *int     `json:"sharpen"`
	Dither         *bool    `json:"dither"`
	DitherStrength *int     `json:"dither_strength"`
	PaletteRatio   *float64 `json:"palette_ratio"`
	BrightnessStep *int     `json:"brightness_step"`
	AutoPreset     *bool    `json:"auto_preset"`
	AutoExposure   *bool    `json:"auto_exposure"`
	Scale          *int     `json:"scale"`
	OutputPath     string   `json:"output_path"`
}

// PixelateResult is the pixelate tool result.
type PixelateResult struct {
	imaging.EncodedImage
	PaletteID      string                      `json:"palette_id"`
	TargetWidth    int                         `json:"target_width"`
	TargetHeight   int                         `json:"target_height"`
	Params         pipeline.Params             `json:"params"`
	Validation     []pipeline.ValidationError  `json:"validation,omitempty"`
	AutoCorrection *imaging.ExposureCorrection `json:"auto_correction,omitempty"`
	SavedTo        string                      `json:"saved_to,omitempty"`
}

func (s *Server) handlePixelate(args json.RawMessage, progressToken interface{}) (interface{}, error) {
	var a pixelateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.PaletteID != "" {
		if _, err := s.palettes.Select(a.PaletteID); err != nil {
			return nil, err
		}
	}
	entry := s.palettes.Current()

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	params := pipeline.DefaultParams()
	dot := entry.Preset.Dot
	if a.AutoPreset == nil || *a.AutoPreset {
		params = params.WithPreset(entry.Preset)
	} else if preset, ok := palette.BuiltinPreset(palette.DefaultID); ok {
		dot = preset.Dot
	}
	params.Palette = entry.Colors

	if a.Dot != nil {
		dot = *a.Dot
	}
	if a.Contrast != nil {
		params.Contrast = *a.Contrast
	}
	if a.Sharpen != nil {
		params.Sharpen = *a.Sharpen
	}
	if a.Dither != nil {
		params.UseDither = *a.Dither
	}
	if a.DitherStrength != nil {
		params.DitherStrength = *a.DitherStrength
	}
	if a.PaletteRatio != nil {
		params.PaletteRatio = *a.PaletteRatio
	}

	limits := pipeline.DefaultLimits
	var correction *imaging.ExposureCorrection
	if a.Exposure != nil {
		params.Exposure = *a.Exposure
	} else if a.AutoExposure == nil || *a.AutoExposure {
		c := imaging.CorrectExposure(imaging.AverageBrightness(img), params.Exposure, limits.Exposure)
		params.Exposure = c.Exposure
		correction = &c
	}
	if a.BrightnessStep != nil {
		params = pipeline.StepBrightness(params, entry.Preset, *a.BrightnessStep, limits)
	}

	dot, validation := limits.ClampDot(dot)
	scale := limits.MinScale
	if a.Scale != nil {
		var clamped []pipeline.ValidationError
		scale, clamped = limits.ClampScale(*a.Scale)
		validation = append(validation, clamped...)
	}

	bounds := img.Bounds()
	params.TargetWidth, params.TargetHeight = pipeline.TargetSize(bounds.Dx(), bounds.Dy(), dot, a.CorrectAspect)
	params, clamped := params.Normalize(limits)
	validation = append(validation, clamped...)

	buf := pipeline.Prepare(img, params)
	out, err := s.pipeline.Process(context.Background(), buf, params, func(percent int) {
		if progressToken == nil {
			return
		}
		s.notify("notifications/progress", map[string]interface{}{
			"progressToken": progressToken,
			"progress":      percent,
			"total":         100,
		})
	})
	if err != nil {
		return nil, err
	}

	encoded, err := imaging.EncodePNG(out, scale)
	if err != nil {
		return nil, err
	}

	result := &PixelateResult{
		EncodedImage:   *encoded,
		PaletteID:      entry.ID,
		TargetWidth:    out.Width,
		TargetHeight:   out.Height,
		Params:         params,
		Validation:     validation,
		AutoCorrection: correction,
	}
	if a.OutputPath != "" {
		if err := imaging.SavePNG(out, a.OutputPath, scale); err != nil {
			return nil, err
		}
		result.SavedTo = a.OutputPath
	}
	return result, nil
}

// === Palette Handlers ===

// PaletteSummary describes one palette in tool results.
type PaletteSummary struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Group    string         `json:"group,omitempty"`
	Colors   []string       `json:"colors"`
	Count    int            `json:"count"`
	Preset   palette.Preset `json:"preset"`
	Builtin  bool           `json:"builtin"`
	Selected bool           `json:"selected,omitempty"`
}

func summarize(e palette.Entry, current string) PaletteSummary {
	return PaletteSummary{
		ID:       e.ID,
		Name:     e.Name,
		Group:    e.Group,
		Colors:   e.Colors.Swatches().Hex(),
		Count:    len(e.Colors),
		Preset:   e.Preset,
		Builtin:  e.Builtin,
		Selected: e.ID == current,
	}
}

// PaletteListResult contains every palette known to the server.
type PaletteListResult struct {
	Current  string           `json:"current"`
	Palettes []PaletteSummary `json:"palettes"`
	Groups   []palette.Group  `json:"groups"`
}

func (s *Server) handlePaletteList(args json.RawMessage) (interface{}, error) {
	current := s.palettes.CurrentID()
	entries := s.palettes.List()
	summaries := make([]PaletteSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, summarize(e, current))
	}
	return &PaletteListResult{
		Current:  current,
		Palettes: summaries,
		Groups:   palette.Groups(),
	}, nil
}

type paletteIDArgs struct {
	ID string `json:"id"`
}

func (s *Server) handlePaletteSelect(args json.RawMessage) (interface{}, error) {
	var a paletteIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	changed, err := s.palettes.Select(a.ID)
	if err != nil {
		return nil, err
	}
	e := s.palettes.Current()
	return map[string]interface{}{
		"id":      e.ID,
		"changed": changed,
		"preset":  e.Preset,
	}, nil
}

type paletteExtractArgs struct {
	Path   string `json:"path"`
	Count  int    `json:"count"`
	Method string `json:"method"`
	Name   string `json:"name"`
}

func (s *Server) handlePaletteExtract(args json.RawMessage) (interface{}, error) {
	var a paletteExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 16
	}
	a.Count = palette.ClampCount(a.Count)
	method, err := palette.ParseMethod(a.Method)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	colors, err := palette.Extract(img, a.Count, method)
	if err != nil {
		return nil, err
	}
	if a.Name == "" {
		a.Name = fmt.Sprintf("Extracted (%s, %d colors)", method, a.Count)
	}
	return s.addCustom(a.Name, colors)
}

type paletteImportArgs struct {
	Data string `json:"data"`
	Path string `json:"path"`
	Name string `json:"name"`
}

func (s *Server) handlePaletteImport(args json.RawMessage) (interface{}, error) {
	var a paletteImportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	data := []byte(a.Data)
	if a.Data == "" {
		if a.Path == "" {
			return nil, fmt.Errorf("either data or path is required")
		}
		b, err := os.ReadFile(a.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read palette file: %w", err)
		}
		data = b
		if a.Name == "" {
			a.Name = strings.TrimSuffix(filepath.Base(a.Path), filepath.Ext(a.Path))
		}
	}
	if a.Name == "" {
		a.Name = "Imported"
	}

	id, err := s.palettes.Import(a.Name, data, s.palettes.Current().Preset)
	if err != nil {
		return nil, err
	}
	return s.selectCustom(id)
}

// addCustom stores colors as a custom palette carrying the current
// palette's preset, then selects it.
func (s *Server) addCustom(name string, colors palette.Palette) (interface{}, error) {
	id, err := s.palettes.Create(name, colors, s.palettes.Current().Preset)
	if err != nil {
		return nil, err
	}
	return s.selectCustom(id)
}

func (s *Server) selectCustom(id string) (interface{}, error) {
	if _, err := s.palettes.Select(id); err != nil {
		return nil, err
	}
	e, err := s.palettes.Get(id)
	if err != nil {
		return nil, err
	}
	summary := summarize(e, id)
	summary.Colors = e.Colors.Hex()
	return &summary, nil
}

type paletteExportArgs struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

func (s *Server) handlePaletteExport(args json.RawMessage) (interface{}, error) {
	var a paletteExportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		a.ID = s.palettes.CurrentID()
	}
	data, err := s.palettes.Export(a.ID)
	if err != nil {
		return nil, err
	}
	result := map[string]interface{}{
		"id":   a.ID,
		"json": string(data),
	}
	if a.Path != "" {
		if err := os.WriteFile(a.Path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write palette file: %w", err)
		}
		result["saved_to"] = a.Path
	}
	return result, nil
}

func (s *Server) handlePaletteDelete(args json.RawMessage) (interface{}, error) {
	var a paletteIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	reselected, err := s.palettes.Delete(a.ID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"deleted":    a.ID,
		"reselected": reselected,
		"current":    s.palettes.CurrentID(),
	}, nil
}
