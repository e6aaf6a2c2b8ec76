package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/ironsheep/lotplan-mcp/internal/geo"
	"github.com/ironsheep/lotplan-mcp/internal/imaging"
	"github.com/ironsheep/lotplan-mcp/internal/lots"
)

// contour is a closed chain of boundary pixels with collinear runs removed.
// The closing edge from the last point back to the first is implicit.
type contour []image.Point

// Stats counts how many contours each filter rejected during one extraction.
type Stats struct {
	// Contours is the number of external contours found in the mask.
	Contours int `json:"contours"`

	// ZeroPerimeter counts single-pixel blobs.
	ZeroPerimeter int `json:"zero_perimeter"`

	// AreaRejected counts contours outside (MinArea, MaxArea).
	AreaRejected int `json:"area_rejected"`

	// CircularityRejected counts contours at or below MinCircularity.
	CircularityRejected int `json:"circularity_rejected"`

	// VertexRejected counts simplified polygons outside the vertex bounds.
	VertexRejected int `json:"vertex_rejected"`
}

// LotsResult contains all lots extracted from a site-plan image.
type LotsResult struct {
	// Lots are in contour discovery order; Lots[i].Index == i.
	Lots []lots.Lot `json:"lots"`

	// Count is the number of lots extracted.
	Count int `json:"count"`

	// Width and Height are the raster dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Stats summarises the rejected contours.
	Stats Stats `json:"stats"`
}

// ExtractLots finds lot-shaped blobs in a site-plan raster.
//
// Lots are drawn on the plan as dark filled blobs on a lighter background.
// Every accepted blob becomes a lots.Lot with a pixel-space centroid and a
// closed rendering-space polygon.
//
// Parameters:
//   - img: Source raster, any color model.
//   - p: Extraction filters; see DefaultParams.
//   - m: Mapper used for the rendering polygon. Nil selects geo.FlipY for the
//     image height.
//
// Returns:
//   - *LotsResult: Accepted lots in discovery order, plus rejection counters.
//   - error: Non-nil if p is invalid or the contour backend fails.
//
// # Algorithm
//
//  1. Grayscale conversion with BT.601 weights (imaging.Grayscale)
//  2. Binarization: intensity < Threshold is foreground
//  3. Morphological opening with a KernelSize square element to drop speckles
//  4. External contour tracing (holes and blobs inside holes are not reported)
//  5. Area/perimeter filter: MinArea < A < MaxArea and 4πA/P² > MinCircularity.
//     Zero-area contours fail the area bound, so every accepted lot has a
//     centroid.
//  6. Closed Douglas-Peucker simplification with tolerance EpsilonRatio × P,
//     keeping polygons with MinVertices..MaxVertices vertices
//  7. First-moment centroid of the original (unsimplified) contour
//
// # Coordinate Systems
//
// Centroids and outlines are in pixel space, relative to the image origin.
// Only Lot.Polygon is in rendering space.
func ExtractLots(img image.Image, p Params, m geo.Mapper) (*LotsResult, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction params: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if m == nil {
		m = geo.FlipY{Height: height}
	}

	gray := imaging.Grayscale(img)

	contours, err := findContours(gray, p)
	if err != nil {
		return nil, fmt.Errorf("contour extraction failed: %w", err)
	}

	result := &LotsResult{
		Lots:   make([]lots.Lot, 0),
		Width:  width,
		Height: height,
	}
	result.Stats.Contours = len(contours)

	for _, c := range contours {
		ring := closedRing(c)
		perimeter := planar.Length(ring)
		if perimeter == 0 {
			result.Stats.ZeroPerimeter++
			continue
		}

		centroid, area := planar.CentroidArea(ring)
		area = math.Abs(area)

		if area <= p.MinArea || area >= p.MaxArea {
			result.Stats.AreaRejected++
			continue
		}

		circularity := (4 * math.Pi * area) / (perimeter * perimeter)
		if circularity <= p.MinCircularity {
			result.Stats.CircularityRejected++
			continue
		}

		approx := simplifyClosed(c, p.EpsilonRatio*perimeter)
		if len(approx) < p.MinVertices || len(approx) > p.MaxVertices {
			result.Stats.VertexRejected++
			continue
		}

		outline := make([]geo.Pixel, len(approx))
		for i, pt := range approx {
			outline[i] = geo.Pixel{X: pt[0], Y: pt[1]}
		}

		result.Lots = append(result.Lots, lots.Lot{
			Index:       len(result.Lots),
			Centroid:    &geo.Pixel{X: centroid[0], Y: centroid[1]},
			Outline:     outline,
			Polygon:     geo.Ring(m, outline),
			Area:        area,
			Perimeter:   perimeter,
			Circularity: circularity,
		})
	}

	result.Count = len(result.Lots)
	return result, nil
}

// closedRing converts a contour into an orb.Ring with the first point repeated.
func closedRing(c contour) orb.Ring {
	ring := make(orb.Ring, 0, len(c)+1)
	for _, p := range c {
		ring = append(ring, orb.Point{float64(p.X), float64(p.Y)})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// simplifyClosed approximates a closed contour with fewer vertices.
//
// Douglas-Peucker works on open chains, so the contour is split at its first
// point and at the point farthest from it. Both halves are simplified with
// the same tolerance and rejoined. The result is open (no repeated vertex).
func simplifyClosed(c contour, epsilon float64) []orb.Point {
	n := len(c)
	pts := make([]orb.Point, n)
	for i, p := range c {
		pts[i] = orb.Point{float64(p.X), float64(p.Y)}
	}
	if n < 3 {
		return pts
	}

	far := 0
	best := -1.0
	for i, p := range pts {
		if d := planar.DistanceSquared(pts[0], p); d > best {
			best = d
			far = i
		}
	}

	first := make(orb.LineString, 0, far+1)
	first = append(first, pts[:far+1]...)

	second := make(orb.LineString, 0, n-far+1)
	second = append(second, pts[far:]...)
	second = append(second, pts[0])

	dp := simplify.DouglasPeucker(epsilon)
	a, ok := dp.Simplify(first).(orb.LineString)
	if !ok {
		a = first
	}
	b, ok := dp.Simplify(second).(orb.LineString)
	if !ok {
		b = second
	}

	out := make([]orb.Point, 0, len(a)+len(b))
	out = append(out, a...)
	if len(b) > 2 {
		out = append(out, b[1:len(b)-1]...)
	}
	return out
}

// compressChain drops points that continue in the same direction as the
// previous step, keeping only the corners of a closed pixel chain.
func compressChain(chain []image.Point) contour {
	n := len(chain)
	if n < 3 {
		return contour(chain)
	}
	out := make(contour, 0, n)
	for i, p := range chain {
		prev := chain[(i+n-1)%n]
		next := chain[(i+1)%n]
		if p.Sub(prev) == next.Sub(p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		// Every step identical can only happen on degenerate chains.
		return contour(chain[:1])
	}
	return out
}
