package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writeTestImage(t, img)
}

// createQuadrantImageFile creates an image with red, green, blue and white
// quadrants.
func createQuadrantImageFile(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return writeTestImage(t, img)
}

func writeTestImage(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and decodes the text content into out.
// It returns the JSON-RPC error, if any.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPError {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return resp.Error
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %#v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	if out != nil {
		text, _ := content[0]["text"].(string)
		if err := json.Unmarshal([]byte(text), out); err != nil {
			t.Fatalf("failed to decode tool result: %v\n%s", err, text)
		}
	}
	return nil
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info struct {
		Width           int    `json:"width"`
		Height          int    `json:"height"`
		Format          string `json:"format"`
		HasTransparency bool   `json:"has_transparency"`
	}
	if err := callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}, &info); err != nil {
		t.Fatalf("Unexpected error: %v", err.Data)
	}

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.HasTransparency {
		t.Error("opaque image reported as transparent")
	}
}

func TestHandleToolsCall_ImageLoad_NonExistent(t *testing.T) {
	s := newTestServer(t)

	err := callTool(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"}, nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if err.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", err.Code)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)

	err := callTool(t, s, "image_crop", map[string]interface{}{}, nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !strings.Contains(fmt.Sprint(err.Data), "unknown tool") {
		t.Errorf("Error data: got %v", err.Data)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_ImageBrightness(t *testing.T) {
	tests := []struct {
		name          string
		gray          uint8
		wantBright    float64
		wantCorrected bool
		wantExposure  float64
		wantMessage   string
	}{
		{"in range", 100, 100, false, 1.0, ""},
		{"dark", 40, 40, true, 1.5, "+0.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			imgPath := createTestImageFile(t, 64, 64, color.RGBA{tt.gray, tt.gray, tt.gray, 255})

			var got struct {
				Brightness float64 `json:"brightness"`
				Exposure   float64 `json:"exposure"`
				Corrected  bool    `json:"corrected"`
				Message    string  `json:"message"`
			}
			if err := callTool(t, s, "image_brightness", map[string]interface{}{"path": imgPath}, &got); err != nil {
				t.Fatalf("Unexpected error: %v", err.Data)
			}

			if got.Brightness != tt.wantBright {
				t.Errorf("Brightness: got %v, want %v", got.Brightness, tt.wantBright)
			}
			if got.Corrected != tt.wantCorrected {
				t.Errorf("Corrected: got %v, want %v", got.Corrected, tt.wantCorrected)
			}
			if got.Exposure != tt.wantExposure {
				t.Errorf("Exposure: got %v, want %v", got.Exposure, tt.wantExposure)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message: got %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

type pixelateResult struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	ImageBase64  string `json:"image_base64"`
	MimeType     string `json:"mime_type"`
	PaletteID    string `json:"palette_id"`
	TargetWidth  int    `json:"target_width"`
	TargetHeight int    `json:"target_height"`
	Validation   []struct {
		Field string `json:"field"`
	} `json:"validation"`
	SavedTo string `json:"saved_to"`
}

func TestHandleToolsCall_Pixelate(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]interface{}
		wantW     int
		wantH     int
		wantField string
	}{
		{
			name:  "longer side",
			args:  map[string]interface{}{"dot": 16},
			wantW: 16, wantH: 8,
		},
		{
			name:  "correct aspect",
			args:  map[string]interface{}{"dot": 16, "correct_aspect": true},
			wantW: 32, wantH: 16,
		},
		{
			name:  "scaled output",
			args:  map[string]interface{}{"dot": 16, "scale": 3},
			wantW: 48, wantH: 24,
		},
		{
			name:      "dot clamped",
			args:      map[string]interface{}{"dot": 2},
			wantW:     8,
			wantH:     4,
			wantField: "dot",
		},
		{
			name:      "scale oversized",
			args:      map[string]interface{}{"dot": 16, "scale": 200},
			wantW:     256,
			wantH:     128,
			wantField: "scale",
		},
		{
			name:      "scale negative",
			args:      map[string]interface{}{"dot": 16, "scale": -2},
			wantW:     16,
			wantH:     8,
			wantField: "scale",
		},
		{
			name:      "contrast clamped",
			args:      map[string]interface{}{"dot": 16, "contrast": 500, "dither": false},
			wantW:     16,
			wantH:     8,
			wantField: "contrast",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			tt.args["path"] = createQuadrantImageFile(t, 40, 20)

			var got pixelateResult
			if err := callTool(t, s, "pixelate", tt.args, &got); err != nil {
				t.Fatalf("Unexpected error: %v", err.Data)
			}

			if got.Width != tt.wantW || got.Height != tt.wantH {
				t.Errorf("output: got %dx%d, want %dx%d", got.Width, got.Height, tt.wantW, tt.wantH)
			}
			if got.MimeType != "image/png" {
				t.Errorf("MimeType: got %s", got.MimeType)
			}
			if got.PaletteID != "nes_standard" {
				t.Errorf("PaletteID: got %s, want nes_standard", got.PaletteID)
			}
			if got.ImageBase64 == "" {
				t.Error("ImageBase64 is empty")
			}

			found := tt.wantField == ""
			for _, v := range got.Validation {
				if v.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("validation should mention %s, got %+v", tt.wantField, got.Validation)
			}
		})
	}
}

func TestHandleToolsCall_Pixelate_BrightnessStep(t *testing.T) {
	// nes_standard preset: exposure 1.2, contrast 15
	tests := []struct {
		name         string
		args         map[string]interface{}
		wantExposure float64
		wantContrast int
	}{
		{"step up", map[string]interface{}{"brightness_step": 2}, 1.4, 35},
		{"step down", map[string]interface{}{"brightness_step": -1}, 1.1, 5},
		{"reset", map[string]interface{}{"brightness_step": 0, "exposure": 2.5, "contrast": 60}, 1.2, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			tt.args["path"] = createQuadrantImageFile(t, 40, 20)
			tt.args["dot"] = 16
			tt.args["auto_exposure"] = false

			var got struct {
				Params struct {
					Exposure float64 `json:"exposure"`
					Contrast int     `json:"contrast"`
				} `json:"params"`
			}
			if err := callTool(t, s, "pixelate", tt.args, &got); err != nil {
				t.Fatalf("Unexpected error: %v", err.Data)
			}
			if math.Abs(got.Params.Exposure-tt.wantExposure) > 1e-9 {
				t.Errorf("exposure: got %v, want %v", got.Params.Exposure, tt.wantExposure)
			}
			if got.Params.Contrast != tt.wantContrast {
				t.Errorf("contrast: got %d, want %d", got.Params.Contrast, tt.wantContrast)
			}
		})
	}
}

func TestHandleToolsCall_Pixelate_PaletteAndSave(t *testing.T) {
	s := newTestServer(t)
	imgPath := createQuadrantImageFile(t, 20, 20)
	outPath := filepath.Join(t.TempDir(), "out.png")

	var got pixelateResult
	err := callTool(t, s, "pixelate", map[string]interface{}{
		"path":        imgPath,
		"palette_id":  "gb_classic",
		"dot":         10,
		"output_path": outPath,
	}, &got)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err.Data)
	}

	if got.PaletteID != "gb_classic" {
		t.Errorf("PaletteID: got %s, want gb_classic", got.PaletteID)
	}
	if s.palettes.CurrentID() != "gb_classic" {
		t.Errorf("palette_id should select the palette, current is %s", s.palettes.CurrentID())
	}
	if got.SavedTo != outPath {
		t.Errorf("SavedTo: got %s, want %s", got.SavedTo, outPath)
	}

	f, ferr := os.Open(outPath)
	if ferr != nil {
		t.Fatalf("output not written: %v", ferr)
	}
	defer f.Close()
	img, derr := png.Decode(f)
	if derr != nil {
		t.Fatalf("output is not a PNG: %v", derr)
	}

	allowed := map[[3]uint32]bool{}
	for _, hex := range []string{"0F380F", "306230", "8BAC0F", "9BBC0F"} {
		var r, g, b uint32
		fmt.Sscanf(hex, "%02X%02X%02X", &r, &g, &b)
		allowed[[3]uint32{r, g, b}] = true
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if !allowed[[3]uint32{r >> 8, g >> 8, b >> 8}] {
				t.Fatalf("pixel (%d,%d) = %d,%d,%d is not a palette color", x, y, r>>8, g>>8, b>>8)
			}
		}
	}
}

func TestHandleToolsCall_Pixelate_UnknownPalette(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 10, 10, color.RGBA{0, 0, 0, 255})

	err := callTool(t, s, "pixelate", map[string]interface{}{"path": imgPath, "palette_id": "nope"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown palette")
	}
	if s.palettes.CurrentID() != "nes_standard" {
		t.Errorf("selection changed to %s", s.palettes.CurrentID())
	}
}

func TestServe_PixelateProgress(t *testing.T) {
	s := newTestServer(t)
	imgPath := createQuadrantImageFile(t, 64, 64)

	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      7,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      "pixelate",
			"arguments": map[string]interface{}{"path": imgPath, "dot": 32},
			"_meta":     map[string]interface{}{"progressToken": "tok"},
		},
	}
	line, _ := json.Marshal(req)

	var out bytes.Buffer
	if err := s.Serve(bytes.NewReader(append(line, '\n')), &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	var progress []float64
	var gotResponse bool
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg struct {
			ID     interface{} `json:"id"`
			Method string      `json:"method"`
			Params struct {
				ProgressToken string  `json:"progressToken"`
				Progress      float64 `json:"progress"`
				Total         float64 `json:"total"`
			} `json:"params"`
			Error *MCPError `json:"error"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			t.Fatalf("bad output line: %v", err)
		}
		if msg.Method == "notifications/progress" {
			if gotResponse {
				t.Error("progress notification after response")
			}
			if msg.Params.ProgressToken != "tok" || msg.Params.Total != 100 {
				t.Errorf("unexpected progress params: %+v", msg.Params)
			}
			progress = append(progress, msg.Params.Progress)
			continue
		}
		if msg.Error != nil {
			t.Fatalf("Unexpected error: %v", msg.Error.Data)
		}
		gotResponse = true
	}

	if !gotResponse {
		t.Fatal("no response written")
	}
	if len(progress) < 2 {
		t.Fatalf("expected progress notifications, got %v", progress)
	}
	if progress[0] != 0 || progress[len(progress)-1] != 100 {
		t.Errorf("progress should run 0..100, got %v", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress decreased: %v", progress)
			break
		}
	}
}

func TestHandleToolsCall_PaletteList(t *testing.T) {
	s := newTestServer(t)

	var got struct {
		Current  string `json:"current"`
		Palettes []struct {
			ID       string   `json:"id"`
			Colors   []string `json:"colors"`
			Count    int      `json:"count"`
			Builtin  bool     `json:"builtin"`
			Selected bool     `json:"selected"`
		} `json:"palettes"`
		Groups []struct {
			Name string   `json:"name"`
			IDs  []string `json:"ids"`
		} `json:"groups"`
	}
	if err := callTool(t, s, "palette_list", nil, &got); err != nil {
		t.Fatalf("Unexpected error: %v", err.Data)
	}

	if got.Current != "nes_standard" {
		t.Errorf("Current: got %s, want nes_standard", got.Current)
	}
	if len(got.Palettes) != 10 {
		t.Errorf("Palettes: got %d, want 10", len(got.Palettes))
	}
	if len(got.Groups) != 3 {
		t.Errorf("Groups: got %d, want 3", len(got.Groups))
	}
	selected := 0
	for _, p := range got.Palettes {
		if !p.Builtin {
			t.Errorf("%s should be built-in", p.ID)
		}
		if len(p.Colors) != p.Count {
			t.Errorf("%s: %d colors but count %d", p.ID, len(p.Colors), p.Count)
		}
		if p.Selected {
			selected++
		}
	}
	if selected != 1 {
		t.Errorf("expected exactly one selected palette, got %d", selected)
	}
}

func TestHandleToolsCall_PaletteSelect(t *testing.T) {
	s := newTestServer(t)

	var got struct {
		ID      string `json:"id"`
		Changed bool   `json:"changed"`
		Preset  struct {
			Dot int `json:"dot"`
		} `json:"preset"`
	}
	if err := callTool(t, s, "palette_select", map[string]interface{}{"id": "cga"}, &got); err != nil {
		t.Fatalf("Unexpected error: %v", err.Data)
	}
	if !got.Changed || got.ID != "cga" {
		t.Errorf("got %+v, want changed selection of cga", got)
	}
	if got.Preset.Dot != 320 {
		t.Errorf("Preset.Dot: got %d, want 320", got.Preset.Dot)
	}

	if err := callTool(t, s, "palette_select", map[string]interface{}{"id": "cga"}, &got); err != nil {
		t.Fatalf("Unexpected error: %v", err.Data)
	}
	if got.Changed {
		t.Error("reselecting the current palette should not report a change")
	}

	if err := callTool(t, s, "palette_select", map[string]interface{}{"id": "missing"}, nil); err == nil {
		t.Error("expected error for unknown palette")
	}
}

func TestHandleToolsCall_PaletteExtract(t *testing.T) {
	tests := []struct {
		method   string
		count    int
		want     int
		wantName string
	}{
		{"frequency", 16, 4, "Extracted (frequency, 16 colors)"},
		{"median_cut", 4, 4, "Extracted (median_cut, 4 colors)"},
		{"median_cut", 1, 1, "Extracted (median_cut, 1 colors)"},
		{"median_cut", -5, 1, "Extracted (median_cut, 1 colors)"},
		{"frequency", 1000, 4, "Extracted (frequency, 256 colors)"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.method, tt.count), func(t *testing.T) {
			s := newTestServer(t)
			imgPath := createQuadrantImageFile(t, 40, 40)

			var got struct {
				ID       string   `json:"id"`
				Name     string   `json:"name"`
				Colors   []string `json:"colors"`
				Selected bool     `json:"selected"`
			}
			err := callTool(t, s, "palette_extract", map[string]interface{}{
				"path":   imgPath,
				"count":  tt.count,
				"method": tt.method,
			}, &got)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err.Data)
			}

			if got.ID != "custom_1" {
				t.Errorf("ID: got %s, want custom_1", got.ID)
			}
			if len(got.Colors) != tt.want {
				t.Errorf("colors: got %v, want %d", got.Colors, tt.want)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name: got %q, want %q", got.Name, tt.wantName)
			}
			if !got.Selected || s.palettes.CurrentID() != got.ID {
				t.Error("extracted palette should be selected")
			}
		})
	}
}

func TestHandleToolsCall_PaletteExtract_BadMethod(t *testing.T) {
	s := newTestServer(t)
	imgPath := createQuadrantImageFile(t, 8, 8)

	err := callTool(t, s, "palette_extract", map[string]interface{}{"path": imgPath, "method": "octree"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestHandleToolsCall_PaletteLifecycle(t *testing.T) {
	s := newTestServer(t)

	// Import inline
	var imported struct {
		ID     string   `json:"id"`
		Name   string   `json:"name"`
		Colors []string `json:"colors"`
	}
	err := callTool(t, s, "palette_import", map[string]interface{}{
		"data": `["#ff0000", "#00FF00", "#0000ff"]`,
		"name": "RGB",
	}, &imported)
	if err != nil {
		t.Fatalf("import failed: %v", err.Data)
	}
	if imported.ID != "custom_1" || imported.Name != "RGB" {
		t.Errorf("imported: got %+v", imported)
	}
	want := []string{"#FF0000", "#00FF00", "#0000FF"}
	if strings.Join(imported.Colors, ",") != strings.Join(want, ",") {
		t.Errorf("Colors: got %v, want %v", imported.Colors, want)
	}

	// Export to file and re-import from it
	exportPath := filepath.Join(t.TempDir(), "rgb.json")
	var exported struct {
		JSON    string `json:"json"`
		SavedTo string `json:"saved_to"`
	}
	if err := callTool(t, s, "palette_export", map[string]interface{}{"path": exportPath}, &exported); err != nil {
		t.Fatalf("export failed: %v", err.Data)
	}
	if exported.SavedTo != exportPath {
		t.Errorf("SavedTo: got %s", exported.SavedTo)
	}
	if !strings.Contains(exported.JSON, `"#FF0000"`) {
		t.Errorf("export JSON: %s", exported.JSON)
	}

	var reimported struct {
		ID     string   `json:"id"`
		Name   string   `json:"name"`
		Colors []string `json:"colors"`
	}
	if err := callTool(t, s, "palette_import", map[string]interface{}{"path": exportPath}, &reimported); err != nil {
		t.Fatalf("re-import failed: %v", err.Data)
	}
	if reimported.ID != "custom_2" || reimported.Name != "rgb" {
		t.Errorf("re-imported: got %+v", reimported)
	}
	if strings.Join(reimported.Colors, ",") != strings.Join(want, ",") {
		t.Errorf("round trip changed colors: %v", reimported.Colors)
	}

	// Delete the selected palette
	var deleted struct {
		Reselected bool   `json:"reselected"`
		Current    string `json:"current"`
	}
	if err := callTool(t, s, "palette_delete", map[string]interface{}{"id": "custom_2"}, &deleted); err != nil {
		t.Fatalf("delete failed: %v", err.Data)
	}
	if !deleted.Reselected || deleted.Current != "nes_standard" {
		t.Errorf("delete: got %+v", deleted)
	}

	// Built-ins are protected
	if err := callTool(t, s, "palette_delete", map[string]interface{}{"id": "nes_standard"}, nil); err == nil {
		t.Error("deleting a built-in palette should fail")
	}
}

func TestHandleToolsCall_PaletteImport_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "hello"},
		{"object", `{"colors": ["#000000"]}`},
		{"empty", `[]`},
		{"short hex", `["#FFF"]`},
		{"number", `[123]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			if err := callTool(t, s, "palette_import", map[string]interface{}{"data": tt.data}, nil); err == nil {
				t.Fatal("expected import error")
			}
			if n := len(s.palettes.List()); n != 10 {
				t.Errorf("store changed: %d palettes", n)
			}
			if s.palettes.CurrentID() != "nes_standard" {
				t.Errorf("selection changed to %s", s.palettes.CurrentID())
			}
		})
	}
}
