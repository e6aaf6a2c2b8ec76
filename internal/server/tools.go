package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Properties shared by most tools.
var (
	pathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the site-plan image",
	}
	configProperty = map[string]interface{}{
		"type":        "string",
		"description": "Path to the plan configuration JSON. Defaults to $LOTPLAN_CONFIG",
	}
	progressProperty = map[string]interface{}{
		"type":        "string",
		"description": "Optional path to a progress CSV (zone,number,progress[,flagged])",
	}
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "plan_load",
			Description: "Load a site-plan image and return its dimensions and format. The image stays cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Pipeline
		{
			Name:        "plan_detect_lots",
			Description: "Extract lot polygons from the plan without numbering them. Returns every lot with its centroid, pixel outline and area, plus counts of rejected contours. Use this to tune extraction parameters.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"config": configProperty,
					"extraction": map[string]interface{}{
						"type":        "object",
						"description": "Overrides for the configured extraction parameters (threshold, kernel_size, min_area, max_area, min_circularity, epsilon_ratio, min_vertices, max_vertices)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plan_number_lots",
			Description: "Run the full pipeline: extract lots, classify them into zones and number them within each zone. Returns the (zone, number) of every lot and a per-zone summary.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"config": configProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plan_lookup_lot",
			Description: "Find a numbered lot (e.g. \"D11\") and return its geometry, type and progress.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty,
					"config":   configProperty,
					"progress": progressProperty,
					"lot": map[string]interface{}{
						"type":        "string",
						"description": "Lot label: zone name followed by number, e.g. D11",
					},
				},
				"required": []string{"path", "lot"},
			},
		},

		// Rendering
		{
			Name:        "plan_geojson",
			Description: "Return the numbered lots as a GeoJSON FeatureCollection in map space (lat = image height - y), coloured by construction progress.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty,
					"config":   configProperty,
					"progress": progressProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plan_overlay",
			Description: "Render the plan with every lot filled by progress status and labelled with its number. Returns a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty,
					"config":   configProperty,
					"progress": progressProperty,
				},
				"required": []string{"path"},
			},
		},

		// Calibration
		{
			Name:        "plan_grid",
			Description: "Overlay a pixel-coordinate grid and draw every zone rule boundary from the configuration as a labelled guide line. Use this to check zone rules against the plan.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"config": configProperty,
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels between grid lines. Default 100, 0 draws guides only",
						"default":     100,
					},
					"show_coordinates": map[string]interface{}{
						"type":        "boolean",
						"description": "Label grid intersections with coordinates. Default true",
						"default":     true,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line color as hex. Default #FF0000",
					},
					"guide_color": map[string]interface{}{
						"type":        "string",
						"description": "Zone guide color as hex. Default #0000FF",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plan_crop_zone",
			Description: "Crop the bounding box of one zone's lots, optionally padded and scaled. Returns a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"config": configProperty,
					"zone": map[string]interface{}{
						"type":        "string",
						"description": "Zone name, or UNASSIGNED",
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added on every side. Default 10",
						"default":     10,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "zone"},
			},
		},
		{
			Name:        "plan_sample_intensity",
			Description: "Read the grayscale intensity at pixel coordinates and report whether each falls below the extraction threshold.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"config": configProperty,
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Points to sample",
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Intensity threshold. Defaults to the configured one, or 60 without a configuration",
					},
				},
				"required": []string{"path", "points"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
