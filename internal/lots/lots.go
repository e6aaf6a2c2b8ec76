// Package lots holds the data model shared by the detection, zoning and
// sequencing stages.
package lots

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/ironsheep/lotplan-mcp/internal/geo"
)

// Sentinel is the zone for lots that match no configured zone predicate.
// Its members are never sequenced.
const Sentinel = "UNASSIGNED"

// Lot is one parcel inferred from the site-plan raster.
//
// A Lot is created once per accepted contour and never mutated afterwards.
type Lot struct {
	// Index is the stable identity, assigned in contour discovery order.
	// It carries no spatial meaning.
	Index int `json:"index"`

	// Centroid is the first-moment centroid of the original contour in pixel
	// space. Nil when the contour has a zero zeroth moment.
	Centroid *geo.Pixel `json:"centroid,omitempty"`

	// Outline is the simplified polygon in pixel space (open, 4..10 vertices).
	Outline []geo.Pixel `json:"outline"`

	// Polygon is the simplified polygon in rendering space, closed by
	// repeating the first vertex.
	Polygon orb.Ring `json:"polygon"`

	// Area is the contour area in square pixels.
	Area float64 `json:"area"`

	// Perimeter is the closed contour length in pixels.
	Perimeter float64 `json:"perimeter"`

	// Circularity is 4πA/P², 1.0 for a perfect disc.
	Circularity float64 `json:"circularity"`
}

// HasCentroid reports whether the lot can take part in classification.
func (l Lot) HasCentroid() bool {
	return l.Centroid != nil
}

// Key identifies a numbered lot for joins against external tables.
type Key struct {
	Zone   string `json:"zone"`
	Number int    `json:"number"`
}

// String renders the key the way lot labels are written on the plan, e.g. "D11".
func (k Key) String() string {
	return fmt.Sprintf("%s%d", k.Zone, k.Number)
}

// Assignment is the sequencer's verdict for a single lot.
//
// Lots in the Sentinel zone carry Number == 0.
type Assignment struct {
	Index  int    `json:"index"`
	Zone   string `json:"zone"`
	Number int    `json:"number,omitempty"`
}

// Key returns the join key for this assignment.
func (a Assignment) Key() Key {
	return Key{Zone: a.Zone, Number: a.Number}
}

// Numbered reports whether the lot received a sequence number.
func (a Assignment) Numbered() bool {
	return a.Zone != Sentinel && a.Number > 0
}
