package render

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/lotplan-mcp/internal/geo"
	"github.com/ironsheep/lotplan-mcp/internal/lots"
	"github.com/ironsheep/lotplan-mcp/internal/pipeline"
	"github.com/ironsheep/lotplan-mcp/internal/progress"
)

// rectLot builds a lot covering [x0,x1]x[y0,y1] in a plan of the given height.
func rectLot(index int, x0, y0, x1, y1 float64, height int) lots.Lot {
	outline := []geo.Pixel{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}}
	return lots.Lot{
		Index:    index,
		Centroid: &geo.Pixel{X: (x0 + x1) / 2, Y: (y0 + y1) / 2},
		Outline:  outline,
		Polygon:  geo.Ring(geo.FlipY{Height: height}, outline),
		Area:     (x1 - x0) * (y1 - y0),
	}
}

// sampleResult has two numbered lots in zone D and one unassigned lot.
func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Width:  100,
		Height: 60,
		Lots: []lots.Lot{
			rectLot(0, 10, 10, 40, 40, 60),
			rectLot(1, 50, 10, 80, 40, 60),
			rectLot(2, 85, 45, 95, 55, 60),
		},
		Assignments: []lots.Assignment{
			{Index: 0, Zone: "D", Number: 1},
			{Index: 1, Zone: "D", Number: 2},
			{Index: 2, Zone: lots.Sentinel},
		},
	}
}

type fixedTypes map[lots.Key]string

func (f fixedTypes) LotType(k lots.Key) string { return f[k] }

func TestStatusColor(t *testing.T) {
	tests := []struct {
		name    string
		pct     float64
		flagged bool
		want    string
	}{
		{"flagged wins", 95, true, "#f2ca27"},
		{"done", 80.5, false, "#36d278"},
		{"upper bound in progress", 80, false, "#409ad5"},
		{"lower bound in progress", 30, false, "#409ad5"},
		{"behind", 29.9, false, "#d65548"},
		{"zero", 0, false, "#d65548"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusColor(tt.pct, tt.flagged).Hex(); got != tt.want {
				t.Errorf("StatusColor(%v, %v) = %s, want %s", tt.pct, tt.flagged, got, tt.want)
			}
		})
	}
}

func TestProgressLabel(t *testing.T) {
	for pct, want := range map[float64]string{42: "42%", 12.5: "12.5%", 0: "0%"} {
		if got := ProgressLabel(pct); got != want {
			t.Errorf("ProgressLabel(%v) = %q, want %q", pct, got, want)
		}
	}
}

func TestGlobalProgress(t *testing.T) {
	table := progress.NewTable(map[lots.Key]progress.Entry{
		{Zone: "D", Number: 1}: {Percent: 10},
		{Zone: "D", Number: 2}: {Percent: 20},
		{Zone: "D", Number: 3}: {Percent: 21},
	})
	if got := GlobalProgress(table); got != 17 {
		t.Errorf("GlobalProgress = %v, want 17", got)
	}
	if got := GlobalProgress(nil); got != 0 {
		t.Errorf("GlobalProgress(nil) = %v, want 0", got)
	}
}

func TestFeatureCollection(t *testing.T) {
	res := sampleResult()
	table := progress.NewTable(map[lots.Key]progress.Entry{
		{Zone: "D", Number: 1}: {Percent: 90},
		{Zone: "D", Number: 2}: {Percent: 40, Flagged: true},
	})
	types := fixedTypes{{Zone: "D", Number: 1}: "Tipo B", {Zone: "D", Number: 2}: "Tipo A1"}

	fc := FeatureCollection(res, table, types)
	if len(fc.Features) != 3 {
		t.Fatalf("got %d features, want 3", len(fc.Features))
	}

	type props struct {
		Zone    string
		Number  int
		Type    string
		Label   string
		Fill    string
		Flagged bool
	}
	var got []props
	for _, f := range fc.Features {
		got = append(got, props{
			Zone:    f.Properties.MustString("zone"),
			Number:  f.Properties.MustInt("number"),
			Type:    f.Properties.MustString("lot_type", ""),
			Label:   f.Properties.MustString("progress_label"),
			Fill:    f.Properties.MustString("fill"),
			Flagged: f.Properties.MustBool("flagged"),
		})
	}
	want := []props{
		{Zone: "D", Number: 1, Type: "Tipo B", Label: "90%", Fill: "#36d278"},
		{Zone: "D", Number: 2, Type: "Tipo A1", Label: "40%", Fill: "#f2ca27", Flagged: true},
		{Zone: lots.Sentinel, Number: 0, Label: "0%", Fill: "#d65548"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}

	if g := fc.ExtraMembers["global_progress"]; g != 65.0 {
		t.Errorf("global_progress = %v, want 65", g)
	}
}

func TestFeatureCollection_MapSpace(t *testing.T) {
	fc := FeatureCollection(sampleResult(), nil, nil)

	raw, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string         `json:"type"`
				Coordinates [][][2]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if doc.Type != "FeatureCollection" {
		t.Errorf("type = %q", doc.Type)
	}

	ring := doc.Features[0].Geometry.Coordinates[0]
	if doc.Features[0].Geometry.Type != "Polygon" {
		t.Errorf("geometry type = %q, want Polygon", doc.Features[0].Geometry.Type)
	}
	// (10,10) in pixel space is (10,50) in map space for a 60px plan.
	if ring[0] != [2]float64{10, 50} {
		t.Errorf("first vertex = %v, want [10 50]", ring[0])
	}
	if ring[0] != ring[len(ring)-1] {
		t.Errorf("ring not closed: %v", ring)
	}
}

func TestOverlay(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.White)
		}
	}
	table := progress.NewTable(map[lots.Key]progress.Entry{
		{Zone: "D", Number: 1}: {Percent: 90},
	})

	enc, err := Overlay(img, sampleResult(), table)
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	if enc.Width != 100 || enc.Height != 60 || enc.MimeType != "image/png" {
		t.Fatalf("unexpected encoding: %dx%d %s", enc.Width, enc.Height, enc.MimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("base64 decode failed: %v", err)
	}
	out, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png decode failed: %v", err)
	}

	// Half-blend of white with #36d278 is roughly (154,232,187).
	r, g, b, _ := out.At(14, 14).RGBA()
	if r>>8 < 140 || r>>8 > 170 || g>>8 < 220 || b>>8 < 175 || b>>8 > 200 {
		t.Errorf("lot 0 fill = (%d,%d,%d), want light green", r>>8, g>>8, b>>8)
	}

	// Lot 1 has no entry so it is drawn as behind (red-ish).
	r, g, b, _ = out.At(54, 14).RGBA()
	if r>>8 <= g>>8 || r>>8 <= b>>8 {
		t.Errorf("lot 1 fill = (%d,%d,%d), want red dominant", r>>8, g>>8, b>>8)
	}

	// Outside every lot the plan is untouched.
	if r, g, b, _ := out.At(45, 5).RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("background = (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}

	// The label covers the centroid, so the pixel there is ink or paper, never fill.
	r, g, b, _ = out.At(25, 25).RGBA()
	white := r>>8 == 255 && g>>8 == 255 && b>>8 == 255
	black := r>>8 == 0 && g>>8 == 0 && b>>8 == 0
	if !white && !black {
		t.Errorf("centroid pixel = (%d,%d,%d), want label ink or background", r>>8, g>>8, b>>8)
	}
}

func TestOverlay_OffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(100, 100, 200, 160))
	for y := 100; y < 160; y++ {
		for x := 100; x < 200; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	res := &pipeline.Result{
		Width: 100, Height: 60,
		Lots:        []lots.Lot{rectLot(0, 10, 10, 40, 40, 60)},
		Assignments: []lots.Assignment{{Index: 0, Zone: "A", Number: 1}},
	}

	enc, err := Overlay(img, res, nil)
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(enc.ImageBase64)
	out, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png decode failed: %v", err)
	}
	if r, g, _, _ := out.At(13, 13).RGBA(); r>>8 <= g>>8 {
		t.Errorf("shifted lot not filled at (13,13): r=%d g=%d", r>>8, g>>8)
	}
}
