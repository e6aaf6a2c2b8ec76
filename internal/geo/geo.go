// Package geo converts between pixel space and the map space used by renderers.
//
// # Coordinate Systems
//
// Pixel space follows the standard image convention:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Map space is what the rendering engine consumes. It uses a simple planar CRS
// where the vertical axis is flipped so that north is up:
//   - lng = px_x
//   - lat = H - px_y
//
// Zone classification and lot sequencing always work in pixel space. Map space
// is only produced when polygon vertices are handed to a renderer; mixing the
// two silently yields wrong zones and numbers, so the types are kept distinct.
package geo

import "github.com/paulmach/orb"

// Pixel is a point in pixel space (top-left origin, Y down).
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mapper converts pixel coordinates to rendering coordinates.
type Mapper interface {
	ToMap(p Pixel) orb.Point
}

// FlipY is the default Mapper: it keeps X and mirrors Y around the image height.
type FlipY struct {
	Height int
}

// ToMap returns (lng, lat) = (px_x, H - px_y).
func (f FlipY) ToMap(p Pixel) orb.Point {
	return orb.Point{p.X, float64(f.Height) - p.Y}
}

// ToPixel is the inverse of ToMap.
func (f FlipY) ToPixel(pt orb.Point) Pixel {
	return Pixel{X: pt[0], Y: float64(f.Height) - pt[1]}
}

// ToMap is a convenience wrapper around FlipY for one-off conversions.
func ToMap(x, y float64, height int) orb.Point {
	return FlipY{Height: height}.ToMap(Pixel{X: x, Y: y})
}

// Ring maps a pixel-space outline into a closed map-space ring.
// The first vertex is repeated at the end. An empty outline yields nil.
func Ring(m Mapper, outline []Pixel) orb.Ring {
	if len(outline) == 0 {
		return nil
	}
	ring := make(orb.Ring, 0, len(outline)+1)
	for _, p := range outline {
		ring = append(ring, m.ToMap(p))
	}
	return append(ring, ring[0])
}
