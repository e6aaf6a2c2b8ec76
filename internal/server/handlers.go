package server

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/lotplan-mcp/internal/config"
	"github.com/ironsheep/lotplan-mcp/internal/detection"
	"github.com/ironsheep/lotplan-mcp/internal/geo"
	"github.com/ironsheep/lotplan-mcp/internal/imaging"
	"github.com/ironsheep/lotplan-mcp/internal/pipeline"
	"github.com/ironsheep/lotplan-mcp/internal/progress"
	"github.com/ironsheep/lotplan-mcp/internal/render"
	"github.com/ironsheep/lotplan-mcp/internal/zoning"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plan_load", "plan_number_lots").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	runID := uuid.NewString()
	start := time.Now()
	if s.debug {
		log.Printf("[%s] %s started", runID, params.Name)
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if s.debug {
			log.Printf("[%s] %s failed after %s: %v", runID, params.Name, time.Since(start), err)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	if s.debug {
		log.Printf("[%s] %s finished in %s", runID, params.Name, time.Since(start))
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Information
	case "plan_load":
		return s.handlePlanLoad(args)

	// Pipeline
	case "plan_detect_lots":
		return s.handleDetectLots(args)
	case "plan_number_lots":
		return s.handleNumberLots(args)
	case "plan_lookup_lot":
		return s.handleLookupLot(args)

	// Rendering
	case "plan_geojson":
		return s.handleGeoJSON(args)
	case "plan_overlay":
		return s.handleOverlay(args)

	// Calibration
	case "plan_grid":
		return s.handleGrid(args)
	case "plan_crop_zone":
		return s.handleCropZone(args)
	case "plan_sample_intensity":
		return s.handleSampleIntensity(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Shared argument handling ===

// planArgs are accepted by every pipeline tool.
type planArgs struct {
	Path     string `json:"path"`
	Config   string `json:"config"`
	Progress string `json:"progress"`
}

// loadPlan reads the configuration named by the call, falling back to the
// server default.
func (s *Server) loadPlan(path string) (*config.Plan, error) {
	if path == "" {
		path = s.configPath
	}
	if path == "" {
		return nil, fmt.Errorf("no configuration: pass \"config\" or set %s", config.EnvPath)
	}
	return config.Load(path)
}

func loadProgress(path string) (*progress.Table, error) {
	if path == "" {
		return nil, nil
	}
	return progress.LoadFile(path)
}

// run loads the image and configuration and numbers the lots.
func (s *Server) run(a planArgs) (image.Image, *config.Plan, *pipeline.Result, error) {
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	plan, err := s.loadPlan(a.Config)
	if err != nil {
		return nil, nil, nil, err
	}
	res, err := pipeline.Run(img, plan, pipeline.Options{Verbose: s.debug})
	if err != nil {
		return nil, nil, nil, err
	}
	return img, plan, res, nil
}

// === Image Information Handlers ===

type planLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handlePlanLoad(args json.RawMessage) (interface{}, error) {
	var a planLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Pipeline Handlers ===

type detectLotsArgs struct {
	planArgs
	Extraction json.RawMessage `json:"extraction,omitempty"`
}

func (s *Server) handleDetectLots(args json.RawMessage) (interface{}, error) {
	var a detectLotsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	params := detection.DefaultParams()
	if a.Config != "" || s.configPath != "" {
		plan, err := s.loadPlan(a.Config)
		if err != nil {
			return nil, err
		}
		params = plan.Extraction
	}
	if len(a.Extraction) > 0 {
		if err := json.Unmarshal(a.Extraction, &params); err != nil {
			return nil, fmt.Errorf("invalid extraction overrides: %w", err)
		}
		if err := params.Validate(); err != nil {
			return nil, err
		}
	}

	return detection.ExtractLots(img, params, nil)
}

// numberedLot is the per-lot view returned by plan_number_lots.
type numberedLot struct {
	Index    int        `json:"index"`
	Label    string     `json:"label,omitempty"`
	Zone     string     `json:"zone"`
	Number   int        `json:"number,omitempty"`
	Centroid *geo.Pixel `json:"centroid,omitempty"`
	Area     float64    `json:"area"`
}

type numberLotsResult struct {
	Width    int                    `json:"width"`
	Height   int                    `json:"height"`
	Count    int                    `json:"count"`
	Numbered int                    `json:"numbered"`
	Zones    []pipeline.ZoneSummary `json:"zones"`
	Lots     []numberedLot          `json:"lots"`
	Stats    detection.Stats        `json:"stats"`
	Warnings []string               `json:"warnings,omitempty"`
}

func (s *Server) handleNumberLots(args json.RawMessage) (interface{}, error) {
	var a planArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	_, _, res, err := s.run(a)
	if err != nil {
		return nil, err
	}

	out := &numberLotsResult{
		Width:    res.Width,
		Height:   res.Height,
		Count:    len(res.Lots),
		Zones:    res.Zones,
		Lots:     make([]numberedLot, 0, len(res.Lots)),
		Stats:    res.Stats,
		Warnings: res.Warnings,
	}
	for _, lot := range res.Lots {
		asg, _ := res.Assignment(lot.Index)
		nl := numberedLot{
			Index:    lot.Index,
			Zone:     asg.Zone,
			Number:   asg.Number,
			Centroid: lot.Centroid,
			Area:     lot.Area,
		}
		if asg.Numbered() {
			nl.Label = asg.Key().String()
			out.Numbered++
		}
		out.Lots = append(out.Lots, nl)
	}
	return out, nil
}

type lookupLotArgs struct {
	planArgs
	Lot string `json:"lot"`
}

type lookupLotResult struct {
	Label         string      `json:"label"`
	Index         int         `json:"index"`
	Zone          string      `json:"zone"`
	Number        int         `json:"number"`
	LotType       string      `json:"lot_type"`
	Centroid      *geo.Pixel  `json:"centroid,omitempty"`
	Area          float64     `json:"area"`
	Outline       []geo.Pixel `json:"outline"`
	Progress      *float64    `json:"progress,omitempty"`
	ProgressLabel string      `json:"progress_label,omitempty"`
	Flagged       bool        `json:"flagged,omitempty"`
	Fill          string      `json:"fill,omitempty"`
}

func (s *Server) handleLookupLot(args json.RawMessage) (interface{}, error) {
	var a lookupLotArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	key, err := config.ParseKey(a.Lot)
	if err != nil {
		return nil, err
	}
	table, err := loadProgress(a.Progress)
	if err != nil {
		return nil, err
	}
	_, plan, res, err := s.run(a.planArgs)
	if err != nil {
		return nil, err
	}

	lot, ok := res.Lookup(key.Zone, key.Number)
	if !ok {
		return nil, fmt.Errorf("lot %s not found", key)
	}
	out := &lookupLotResult{
		Label:    key.String(),
		Index:    lot.Index,
		Zone:     key.Zone,
		Number:   key.Number,
		LotType:  plan.LotType(key),
		Centroid: lot.Centroid,
		Area:     lot.Area,
		Outline:  lot.Outline,
	}
	if entry, ok := table.Lookup(key); ok {
		pct := entry.Percent
		out.Progress = &pct
		out.ProgressLabel = render.ProgressLabel(pct)
		out.Flagged = entry.Flagged
		out.Fill = render.StatusColor(pct, entry.Flagged).Hex()
	}
	return out, nil
}

// === Rendering Handlers ===

func (s *Server) handleGeoJSON(args json.RawMessage) (interface{}, error) {
	var a planArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	table, err := loadProgress(a.Progress)
	if err != nil {
		return nil, err
	}
	_, plan, res, err := s.run(a)
	if err != nil {
		return nil, err
	}
	return render.FeatureCollection(res, table, plan), nil
}

func (s *Server) handleOverlay(args json.RawMessage) (interface{}, error) {
	var a planArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	table, err := loadProgress(a.Progress)
	if err != nil {
		return nil, err
	}
	img, _, res, err := s.run(a)
	if err != nil {
		return nil, err
	}
	return render.Overlay(img, res, table)
}

// === Calibration Handlers ===

type gridArgs struct {
	planArgs
	GridSpacing     *int   `json:"grid_spacing"`
	ShowCoordinates *bool  `json:"show_coordinates"`
	GridColor       string `json:"grid_color"`
	GuideColor      string `json:"guide_color"`
}

func (s *Server) handleGrid(args json.RawMessage) (interface{}, error) {
	var a gridArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	opts := imaging.GridOptions{
		Spacing:         100,
		ShowCoordinates: true,
		GridColor:       a.GridColor,
		GuideColor:      a.GuideColor,
	}
	if a.GridSpacing != nil {
		opts.Spacing = *a.GridSpacing
	}
	if a.ShowCoordinates != nil {
		opts.ShowCoordinates = *a.ShowCoordinates
	}

	if a.Config != "" || s.configPath != "" {
		plan, err := s.loadPlan(a.Config)
		if err != nil {
			return nil, err
		}
		classifier, _, err := plan.Build()
		if err != nil {
			return nil, err
		}
		opts.Guides = zoneGuides(classifier.Zones())
	}

	return imaging.GridOverlay(img, opts)
}

// zoneGuides turns every zone boundary into a guide line. Boundaries shared by
// several zones are drawn once, labelled with all of them.
func zoneGuides(zones []zoning.Zone) []imaging.Guide {
	type line struct {
		vertical bool
		value    int
	}
	var order []line
	names := make(map[line][]string)
	for _, z := range zones {
		for _, c := range z.When {
			l := line{vertical: c.Axis == zoning.AxisX, value: int(math.Round(c.Value))}
			if _, seen := names[l]; !seen {
				order = append(order, l)
			}
			if n := names[l]; len(n) == 0 || n[len(n)-1] != z.Name {
				names[l] = append(n, z.Name)
			}
		}
	}

	guides := make([]imaging.Guide, 0, len(order))
	for _, l := range order {
		axis := "Y"
		if l.vertical {
			axis = "X"
		}
		guides = append(guides, imaging.Guide{
			Vertical: l.vertical,
			Value:    l.value,
			Label:    axis + "=" + strconv.Itoa(l.value) + " " + strings.Join(names[l], ","),
		})
	}
	return guides
}

type cropZoneArgs struct {
	planArgs
	Zone    string  `json:"zone"`
	Padding *int    `json:"padding"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleCropZone(args json.RawMessage) (interface{}, error) {
	var a cropZoneArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	pad := 10
	if a.Padding != nil {
		pad = *a.Padding
	}
	if pad < 0 {
		return nil, fmt.Errorf("padding must not be negative, got %d", pad)
	}

	img, _, res, err := s.run(a.planArgs)
	if err != nil {
		return nil, err
	}
	known := false
	for _, z := range res.Zones {
		if z.Name == a.Zone {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown zone %q", a.Zone)
	}

	region, ok := zoneBounds(res, a.Zone)
	if !ok {
		return nil, fmt.Errorf("zone %q has no lots", a.Zone)
	}
	return imaging.Crop(img, region, pad, a.Scale)
}

// zoneBounds is the pixel bounding box of every outline in zone.
func zoneBounds(res *pipeline.Result, zone string) (image.Rectangle, bool) {
	var (
		box   image.Rectangle
		found bool
	)
	for _, lot := range res.Lots {
		asg, _ := res.Assignment(lot.Index)
		if asg.Zone != zone {
			continue
		}
		for _, p := range lot.Outline {
			r := image.Rect(
				int(math.Floor(p.X)), int(math.Floor(p.Y)),
				int(math.Floor(p.X))+1, int(math.Floor(p.Y))+1,
			)
			if !found {
				box, found = r, true
				continue
			}
			box = box.Union(r)
		}
	}
	return box, found
}

type sampleIntensityArgs struct {
	planArgs
	Points    []imaging.SamplePoint `json:"points"`
	Threshold *int                  `json:"threshold"`
}

func (s *Server) handleSampleIntensity(args json.RawMessage) (interface{}, error) {
	var a sampleIntensityArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	threshold := int(detection.DefaultParams().Threshold)
	switch {
	case a.Threshold != nil:
		threshold = *a.Threshold
	case a.Config != "" || s.configPath != "":
		plan, err := s.loadPlan(a.Config)
		if err != nil {
			return nil, err
		}
		threshold = int(plan.Extraction.Threshold)
	}
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("threshold must be in [0,255], got %d", threshold)
	}

	return imaging.SampleIntensity(img, a.Points, uint8(threshold))
}
