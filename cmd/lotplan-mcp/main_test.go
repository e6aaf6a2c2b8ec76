package main

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePlan(t *testing.T, dir string) (imagePath, configPath string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.White)
		}
	}
	for _, p := range []image.Point{{20, 20}, {120, 20}, {220, 20}} {
		for y := p.Y; y < p.Y+20; y++ {
			for x := p.X; x < p.X+30; x++ {
				img.Set(x, y, color.Black)
			}
		}
	}

	imagePath = filepath.Join(dir, "plan.png")
	f, err := os.Create(imagePath)
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	configPath = filepath.Join(dir, "plan.json")
	doc := `{"zones": [{"name": "K", "when": ["y < 100"], "order": {"strategy": "right-to-left-top-down"}}]}`
	if err := os.WriteFile(configPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return imagePath, configPath
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	imagePath, configPath := writePlan(t, dir)

	progressPath := filepath.Join(dir, "progress.csv")
	if err := os.WriteFile(progressPath, []byte("zone,number,progress\nK,1,100\nK,2,20\n"), 0o644); err != nil {
		t.Fatalf("failed to write progress: %v", err)
	}

	out := map[string]string{
		"geojson":     filepath.Join(dir, "lots.geojson"),
		"overlay":     filepath.Join(dir, "overlay.png"),
		"assignments": filepath.Join(dir, "assignments.json"),
	}

	var stdout strings.Builder
	err := runCommand([]string{
		"-config", configPath,
		"-progress", progressPath,
		"-geojson", out["geojson"],
		"-overlay", out["overlay"],
		"-assignments", out["assignments"],
		imagePath,
	}, &stdout)
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}

	if !strings.Contains(stdout.String(), "3 lots in 300x200 image, 3 numbered") {
		t.Errorf("summary: %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "global progress: 60%") {
		t.Errorf("summary lacks global progress: %q", stdout.String())
	}

	raw, err := os.ReadFile(out["assignments"])
	if err != nil {
		t.Fatalf("assignments not written: %v", err)
	}
	var records []lotRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("bad assignments JSON: %v", err)
	}
	labels := make(map[string]float64)
	for _, r := range records {
		labels[r.Label] = r.Centroid.X
	}
	// Right to left: the rightmost lot is K1.
	if labels["K1"] != 234.5 || labels["K3"] != 34.5 {
		t.Errorf("labels: %v", labels)
	}

	f, err := os.Open(out["overlay"])
	if err != nil {
		t.Fatalf("overlay not written: %v", err)
	}
	defer f.Close()
	if cfg, err := png.DecodeConfig(f); err != nil || cfg.Width != 300 || cfg.Height != 200 {
		t.Errorf("overlay PNG: %+v, %v", cfg, err)
	}

	raw, err = os.ReadFile(out["geojson"])
	if err != nil {
		t.Fatalf("geojson not written: %v", err)
	}
	if !strings.Contains(string(raw), `"FeatureCollection"`) {
		t.Errorf("geojson output is not a FeatureCollection")
	}
}

func TestRunCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	imagePath, configPath := writePlan(t, dir)
	t.Setenv("LOTPLAN_CONFIG", "")

	tests := []struct {
		name string
		args []string
	}{
		{"no image", []string{"-config", configPath}},
		{"two images", []string{"-config", configPath, imagePath, imagePath}},
		{"no config", []string{imagePath}},
		{"missing config", []string{"-config", filepath.Join(dir, "nope.json"), imagePath}},
		{"missing progress", []string{"-config", configPath, "-progress", filepath.Join(dir, "nope.csv"), imagePath}},
		{"unknown flag", []string{"-frobnicate", imagePath}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout strings.Builder
			if err := runCommand(tt.args, &stdout); err == nil {
				t.Error("expected error")
			}
		})
	}
}
