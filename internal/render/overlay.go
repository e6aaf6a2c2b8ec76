package render

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/ironsheep/lotplan-mcp/internal/geo"
	"github.com/ironsheep/lotplan-mcp/internal/imaging"
	"github.com/ironsheep/lotplan-mcp/internal/lots"
	"github.com/ironsheep/lotplan-mcp/internal/pipeline"
	"github.com/ironsheep/lotplan-mcp/internal/progress"
)

// FillOpacity is the blend factor of the status colour over the plan.
const FillOpacity = 0.5

// Overlay draws the plan with every lot filled in its status colour and
// labelled with its key at the centroid. Unassigned lots are labelled "?".
//
// Lot coordinates are relative to the top-left corner of img, whatever its
// bounds origin.
func Overlay(img image.Image, res *pipeline.Result, table *progress.Table) (*imaging.EncodedImage, error) {
	canvas := imaging.Canvas(img)

	for _, lot := range res.Lots {
		a, ok := res.Assignment(lot.Index)
		if !ok {
			a = lots.Assignment{Index: lot.Index, Zone: lots.Sentinel}
		}
		entry, _ := table.Lookup(a.Key())
		fillLot(canvas, lot.Outline, StatusColor(entry.Percent, entry.Flagged))
	}

	// Labels go on after every fill so neighbouring lots never cover them.
	for _, lot := range res.Lots {
		if lot.Centroid == nil {
			continue
		}
		a, _ := res.Assignment(lot.Index)
		text := "?"
		if a.Numbered() {
			text = a.Key().String()
		}
		w, h := imaging.LabelSize(text)
		x := int(math.Round(lot.Centroid.X)) - w/2
		y := int(math.Round(lot.Centroid.Y)) - h/2
		imaging.DrawLabel(canvas, x, y, text, color.Black, color.White)
	}

	return imaging.EncodePNG(canvas)
}

// fillLot blends c over every pixel whose centre lies inside outline.
func fillLot(canvas *image.NRGBA, outline []geo.Pixel, c colorful.Color) {
	if len(outline) < 3 {
		return
	}
	ring := make(orb.Ring, 0, len(outline)+1)
	for _, p := range outline {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	ring = append(ring, ring[0])

	box := ring.Bound().Pad(0.5)
	area := image.Rect(
		int(math.Floor(box.Min[0])), int(math.Floor(box.Min[1])),
		int(math.Ceil(box.Max[0]))+1, int(math.Ceil(box.Max[1]))+1,
	).Intersect(canvas.Bounds())

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if !planar.RingContains(ring, orb.Point{float64(x) + 0.5, float64(y) + 0.5}) {
				continue
			}
			base, _ := colorful.MakeColor(canvas.NRGBAAt(x, y))
			r, g, b := base.BlendRgb(c, FillOpacity).Clamped().RGB255()
			canvas.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
}
