package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createPatternImage creates an image with four colored quadrants:
// red top-left, green top-right, blue bottom-left, white bottom-right.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch {
			case x < width/2 && y < height/2:
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			case x >= width/2 && y < height/2:
				img.Set(x, y, color.RGBA{0, 255, 0, 255})
			case x < width/2:
				img.Set(x, y, color.RGBA{0, 0, 255, 255})
			default:
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			}
		}
	}
	return img
}

func TestCrop(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := Crop(img, image.Rect(0, 0, 50, 50), 0, 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}
	if result.Region != image.Rect(0, 0, 50, 50) {
		t.Errorf("Region: got %v", result.Region)
	}

	out := decodeResult(t, result.EncodedImage)
	if r, g, b := rgbAt(out, 25, 25); r != 255 || g != 0 || b != 0 {
		t.Errorf("top-left crop should be red, got (%d,%d,%d)", r, g, b)
	}
}

func TestCrop_PaddingIsClamped(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := Crop(img, image.Rect(5, 60, 40, 95), 10, 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	want := image.Rect(0, 50, 50, 100)
	if result.Region != want {
		t.Errorf("Region: got %v, want %v", result.Region, want)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}

	out := decodeResult(t, result.EncodedImage)
	if r, g, b := rgbAt(out, 25, 25); r != 0 || g != 0 || b != 255 {
		t.Errorf("bottom-left crop should be blue, got (%d,%d,%d)", r, g, b)
	}
}

func TestCrop_PartialOverlap(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)

	result, err := Crop(img, image.Rect(80, 80, 150, 150), 0, 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if result.Width != 20 || result.Height != 20 {
		t.Errorf("dimensions: got %dx%d, want 20x20", result.Width, result.Height)
	}
}

func TestCrop_Scale(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name  string
		rect  image.Rectangle
		scale float64
		want  int
	}{
		{"up", image.Rect(0, 0, 50, 50), 2.0, 100},
		{"down", image.Rect(0, 0, 100, 100), 0.5, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Crop(img, tt.rect, 0, tt.scale)
			if err != nil {
				t.Fatalf("Crop failed: %v", err)
			}
			if result.Width != tt.want || result.Height != tt.want {
				t.Errorf("dimensions: got %dx%d, want %dx%d", result.Width, result.Height, tt.want, tt.want)
			}
		})
	}
}

func TestCrop_Invalid(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)

	tests := []struct {
		name  string
		rect  image.Rectangle
		scale float64
	}{
		{"empty", image.Rect(10, 10, 10, 20), 1},
		{"outside", image.Rect(200, 200, 250, 250), 1},
		{"zero scale", image.Rect(0, 0, 10, 10), 0},
		{"huge scale", image.Rect(0, 0, 10, 10), 50},
		{"collapsing scale", image.Rect(0, 0, 2, 2), 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.rect, 0, tt.scale); err == nil {
				t.Error("Crop should fail")
			}
		})
	}
}
