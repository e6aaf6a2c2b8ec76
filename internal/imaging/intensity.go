package imaging

import (
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// IntensitySample is the reading at one pixel.
type IntensitySample struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`

	// Hex is the original colour as "#rrggbb", empty for a fully
	// transparent pixel.
	Hex string `json:"hex,omitempty"`

	// Gray is the intensity the lot extractor thresholds, 0-255.
	Gray uint8 `json:"gray"`

	// Foreground reports whether Gray falls below the threshold.
	Foreground bool `json:"foreground"`
}

// SamplePoint is a pixel coordinate with an optional label.
type SamplePoint struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// SampleIntensity reads the grayscale intensity at each point, using the same
// conversion as lot extraction, and reports which side of threshold it falls
// on. It is meant for calibrating the extraction threshold against a plan.
//
// On error no partial results are returned.
func SampleIntensity(img image.Image, points []SamplePoint, threshold uint8) ([]IntensitySample, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points to sample")
	}

	bounds := img.Bounds()
	for _, p := range points {
		if !(image.Point{X: p.X, Y: p.Y}).In(bounds) {
			return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", p.X, p.Y)
		}
	}

	gray := Grayscale(img)
	out := make([]IntensitySample, len(points))
	for i, p := range points {
		v := gray.GrayAt(p.X, p.Y).Y
		out[i] = IntensitySample{
			X:          p.X,
			Y:          p.Y,
			Label:      p.Label,
			Gray:       v,
			Foreground: v < threshold,
		}
		if c, ok := colorful.MakeColor(img.At(p.X, p.Y)); ok {
			out[i].Hex = c.Hex()
		}
	}
	return out, nil
}
