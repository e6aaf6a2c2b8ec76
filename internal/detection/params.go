package detection

import "fmt"

// Params tunes the lot extraction filters.
//
// The defaults match the pixel footprint of a residential lot on the source
// site-plan raster; other rasters usually need MinArea/MaxArea rescaled.
type Params struct {
	// Threshold is the intensity cut-off. Pixels strictly below it are foreground.
	Threshold uint8 `json:"threshold"`

	// KernelSize is the side of the square structuring element used for the
	// morphological opening. Must be odd; 1 disables the opening.
	KernelSize int `json:"kernel_size"`

	// MinArea and MaxArea bound the contour area (exclusive), in square pixels.
	MinArea float64 `json:"min_area"`
	MaxArea float64 `json:"max_area"`

	// MinCircularity is the exclusive lower bound on 4πA/P².
	MinCircularity float64 `json:"min_circularity"`

	// EpsilonRatio scales the perimeter into the Douglas-Peucker tolerance.
	EpsilonRatio float64 `json:"epsilon_ratio"`

	// MinVertices and MaxVertices bound the simplified polygon (inclusive).
	MinVertices int `json:"min_vertices"`
	MaxVertices int `json:"max_vertices"`
}

// DefaultParams returns the extraction parameters tuned for the source raster.
func DefaultParams() Params {
	return Params{
		Threshold:      60,
		KernelSize:     3,
		MinArea:        200,
		MaxArea:        4000,
		MinCircularity: 0.4,
		EpsilonRatio:   0.03,
		MinVertices:    4,
		MaxVertices:    10,
	}
}

// Validate reports the first nonsensical setting.
func (p Params) Validate() error {
	switch {
	case p.KernelSize < 1 || p.KernelSize%2 == 0:
		return fmt.Errorf("kernel_size must be a positive odd number, got %d", p.KernelSize)
	case p.MinArea < 0 || p.MaxArea <= p.MinArea:
		return fmt.Errorf("area bounds must satisfy 0 <= min_area < max_area, got %g..%g", p.MinArea, p.MaxArea)
	case p.MinCircularity < 0 || p.MinCircularity >= 1:
		return fmt.Errorf("min_circularity must be in [0, 1), got %g", p.MinCircularity)
	case p.EpsilonRatio <= 0:
		return fmt.Errorf("epsilon_ratio must be positive, got %g", p.EpsilonRatio)
	case p.MinVertices < 3 || p.MaxVertices < p.MinVertices:
		return fmt.Errorf("vertex bounds must satisfy 3 <= min_vertices <= max_vertices, got %d..%d", p.MinVertices, p.MaxVertices)
	}
	return nil
}
