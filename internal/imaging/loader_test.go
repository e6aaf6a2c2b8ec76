package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writePlan encodes img as PNG under dir and returns the path.
func writePlan(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", name, err)
	}
	return path
}

// grayPlan is a white plan with one dark lot, the way scanned plans arrive.
func grayPlan(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := height / 4; y < height/2; y++ {
		for x := width / 4; x < width/2; x++ {
			img.SetGray(x, y, color.Gray{Y: 20})
		}
	}
	return img
}

func TestImageCache_Load(t *testing.T) {
	path := writePlan(t, t.TempDir(), "plan.png", grayPlan(120, 80))
	cache := NewImageCache()

	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := first.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("bounds: got %v, want 120x80", b)
	}

	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first != second {
		t.Error("second Load should return the cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestImageCache_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "plan.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.png")},
		{"undecodable", garbage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewImageCache()
			if _, err := cache.Load(tt.path); err == nil {
				t.Error("Load should fail")
			}
			if cache.Len() != 0 {
				t.Errorf("failed loads must not be cached, Len = %d", cache.Len())
			}
		})
	}
}

func TestImageCache_EvictAndClear(t *testing.T) {
	dir := t.TempDir()
	a := writePlan(t, dir, "a.png", grayPlan(40, 40))
	b := writePlan(t, dir, "b.png", grayPlan(40, 40))

	cache := NewImageCache()
	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load %s failed: %v", p, err)
		}
	}

	cache.Evict(a)
	cache.Evict(filepath.Join(dir, "never-loaded.png"))
	if cache.Len() != 1 {
		t.Errorf("after Evict: Len = %d, want 1", cache.Len())
	}

	// An evicted plan is re-read from disk, picking up edits.
	if err := os.Remove(a); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if _, err := cache.Load(a); err == nil {
		t.Error("evicted image should be re-read from disk")
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("after Clear: Len = %d, want 0", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	path := writePlan(t, t.TempDir(), "plan.png", grayPlan(60, 60))
	cache := NewImageCache()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestLoadImageInfo(t *testing.T) {
	dir := t.TempDir()

	rgba := image.NewNRGBA(image.Rect(0, 0, 30, 20))
	gray16 := image.NewGray16(image.Rect(0, 0, 30, 20))

	tests := []struct {
		name      string
		file      string
		img       image.Image
		format    string
		depth     string
		wantAlpha bool
	}{
		{"gray scan", "plan.png", grayPlan(30, 20), "png", "8-bit", false},
		{"upper-case extension", "PLAN.PNG", grayPlan(30, 20), "png", "8-bit", false},
		{"unknown extension", "plan.raster", grayPlan(30, 20), "unknown", "8-bit", false},
		{"with alpha", "alpha.png", rgba, "png", "8-bit", true},
		{"16-bit", "deep.png", gray16, "png", "16-bit", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePlan(t, dir, tt.file, tt.img)

			info, err := LoadImageInfo(NewImageCache(), path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Width != 30 || info.Height != 20 {
				t.Errorf("dimensions: got %dx%d, want 30x20", info.Width, info.Height)
			}
			if info.Format != tt.format {
				t.Errorf("Format: got %q, want %q", info.Format, tt.format)
			}
			if info.ColorDepth != tt.depth {
				t.Errorf("ColorDepth: got %q, want %q", info.ColorDepth, tt.depth)
			}
			if info.HasAlpha != tt.wantAlpha {
				t.Errorf("HasAlpha: got %v, want %v", info.HasAlpha, tt.wantAlpha)
			}
			if info.FileSizeBytes <= 0 {
				t.Errorf("FileSizeBytes: got %d", info.FileSizeBytes)
			}
		})
	}
}

func TestLoadImageInfo_NonExistent(t *testing.T) {
	if _, err := LoadImageInfo(NewImageCache(), filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
