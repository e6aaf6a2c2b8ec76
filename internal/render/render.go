// Package render turns a numbered lot set into artifacts for map viewers:
// a GeoJSON FeatureCollection in rendering space and a PNG overlay in pixel
// space, both coloured by construction progress.
package render

import (
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ironsheep/lotplan-mcp/internal/lots"
	"github.com/ironsheep/lotplan-mcp/internal/pipeline"
	"github.com/ironsheep/lotplan-mcp/internal/progress"
)

// Status colours.
var (
	ColorFlagged    = mustHex("#f2ca27")
	ColorDone       = mustHex("#36d278")
	ColorInProgress = mustHex("#409ad5")
	ColorBehind     = mustHex("#d65548")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// StatusColor picks the fill for a lot. Flagged lots are always yellow;
// otherwise above 80% is green, 30-80% blue and below 30% red.
func StatusColor(pct float64, flagged bool) colorful.Color {
	switch {
	case flagged:
		return ColorFlagged
	case pct > 80:
		return ColorDone
	case pct >= 30:
		return ColorInProgress
	default:
		return ColorBehind
	}
}

// LotTyper resolves the type label of a numbered lot.
type LotTyper interface {
	LotType(k lots.Key) string
}

// ProgressLabel formats a percentage the way popups show it, e.g. "42.5%".
func ProgressLabel(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}

// GlobalProgress is the table mean rounded to one decimal.
func GlobalProgress(table *progress.Table) float64 {
	return math.Round(table.Mean()*10) / 10
}

// FeatureCollection builds one polygon feature per lot.
//
// Lots without a table entry are reported at 0%. Unassigned lots are
// included with number 0 so they stay visible. table and types may be nil.
func FeatureCollection(res *pipeline.Result, table *progress.Table, types LotTyper) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, lot := range res.Lots {
		if len(lot.Polygon) == 0 {
			continue
		}
		a, _ := res.Assignment(lot.Index)
		if a.Zone == "" {
			a = lots.Assignment{Index: lot.Index, Zone: lots.Sentinel}
		}
		key := a.Key()
		entry, _ := table.Lookup(key)

		f := geojson.NewFeature(orb.Polygon{lot.Polygon})
		f.ID = lot.Index
		f.Properties["zone"] = a.Zone
		f.Properties["number"] = a.Number
		f.Properties["progress"] = entry.Percent
		f.Properties["progress_label"] = ProgressLabel(entry.Percent)
		f.Properties["flagged"] = entry.Flagged
		f.Properties["fill"] = StatusColor(entry.Percent, entry.Flagged).Hex()
		if types != nil && a.Numbered() {
			f.Properties["lot_type"] = types.LotType(key)
		}
		if lot.Centroid != nil {
			f.Properties["centroid_px"] = []float64{lot.Centroid.X, lot.Centroid.Y}
		}
		fc.Append(f)
	}

	fc.ExtraMembers = geojson.Properties{
		"global_progress": GlobalProgress(table),
		"image_bounds":    [][]int{{0, 0}, {res.Height, res.Width}},
	}
	return fc
}
