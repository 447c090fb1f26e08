package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the source image file",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Source Images
		{
			Name:        "image_load",
			Description: "Load a source photograph and return its dimensions, format and whether it has transparent pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_brightness",
			Description: "Estimate the average brightness of a photograph (0-255, ignoring dominant black or white backgrounds) and the exposure correction that would bring it into range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"exposure": map[string]interface{}{
						"type":        "number",
						"description": "Current exposure to correct from (default 1.0)",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Conversion
		{
			Name:        "pixelate",
			Description: "Convert a photograph into palette-limited retro pixel art and return it as base64-encoded PNG. Parameters default to the selected palette's preset. Sends notifications/progress when the request carries a progressToken.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"palette_id": map[string]interface{}{
						"type":        "string",
						"description": "Palette to use; becomes the selected palette. Defaults to the current selection.",
					},
					"dot": map[string]interface{}{
						"type":        "integer",
						"description": "Dot resolution: output pixels along the longer side (or the shorter side with correct_aspect)",
					},
					"correct_aspect": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply dot to the shorter side instead of the longer side",
						"default":     false,
					},
					"exposure": map[string]interface{}{
						"type":        "number",
						"description": "Exposure multiplier (0.1-3.0). Disables auto exposure when set.",
					},
					"contrast": map[string]interface{}{
						"type":        "integer",
						"description": "Contrast (-100 to 100)",
					},
					"sharpen": map[string]interface{}{
						"type":        "integer",
						"description": "Sharpen strength percent (0-100)",
					},
					"dither": map[string]interface{}{
						"type":        "boolean",
						"description": "Use Floyd-Steinberg dithering (default true)",
						"default":     true,
					},
					"dither_strength": map[string]interface{}{
						"type":        "integer",
						"description": "Error diffusion strength percent (0-100)",
					},
					"palette_ratio": map[string]interface{}{
						"type":        "number",
						"description": "Blend between original (0) and palette (1) colors",
					},
					"brightness_step": map[string]interface{}{
						"type":        "integer",
						"description": "Brightness step: 0 resets exposure and contrast to the preset, each step adds 0.1 exposure and 10 contrast",
					},
					"auto_preset": map[string]interface{}{
						"type":        "boolean",
						"description": "Start from the palette's preset parameters (default true)",
						"default":     true,
					},
					"auto_exposure": map[string]interface{}{
						"type":        "boolean",
						"description": "Correct exposure from the photograph's brightness (default true)",
						"default":     true,
					},
					"scale": map[string]interface{}{
						"type":        "integer",
						"description": "Integer upscale factor for the returned image (1-16, default 1)",
						"default":     1,
						"minimum":     1,
						"maximum":     16,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to also write the PNG to",
					},
				},
				"required": []string{"path"},
			},
		},

		// Palettes
		{
			Name:        "palette_list",
			Description: "List built-in and custom palettes with their presets and the current selection.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "palette_select",
			Description: "Select the current palette by ID and return its preset.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Palette ID, e.g. nes_standard or custom_1",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "palette_extract",
			Description: "Extract a palette from a photograph, store it as a custom palette and select it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to extract (default 16)",
						"default":     16,
					},
					"method": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"frequency", "median_cut"},
						"description": "Extraction algorithm (default frequency)",
						"default":     "frequency",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Optional display name",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "palette_import",
			Description: "Import a palette file (JSON array of \"#RRGGBB\" strings) from inline data or a file path, store it as a custom palette and select it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"data": map[string]interface{}{
						"type":        "string",
						"description": "Palette JSON text",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to a palette JSON file (used when data is empty)",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Optional display name (defaults to the file name)",
					},
				},
			},
		},
		{
			Name:        "palette_export",
			Description: "Export a palette as pretty-printed JSON array of hex colors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Palette ID (default: current selection)",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the JSON file to",
					},
				},
			},
		},
		{
			Name:        "palette_delete",
			Description: "Delete a custom palette. Deleting the selected palette selects the default palette.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Custom palette ID",
					},
				},
				"required": []string{"id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
