// Package server implements the MCP (Model Context Protocol) server that
// exposes the site-plan pipeline as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Information:
//   - plan_load: Load a plan image and get its metadata
//
// Pipeline:
//   - plan_detect_lots: Extract lot polygons without numbering
//   - plan_number_lots: Extract, classify and number every lot
//   - plan_lookup_lot: Find one lot by label, e.g. "D11"
//
// Rendering:
//   - plan_geojson: Numbered lots as a GeoJSON FeatureCollection
//   - plan_overlay: Plan with status-filled, labelled lots as PNG
//
// Calibration:
//   - plan_grid: Coordinate grid with zone boundaries drawn as guides
//   - plan_crop_zone: Crop the bounding box of one zone
//   - plan_sample_intensity: Check pixels against the extraction threshold
//
// # Configuration
//
// Pipeline tools take a "config" argument naming the plan configuration. When
// omitted, the path given to New (normally $LOTPLAN_CONFIG) is used. The
// configuration is re-read on every call so edits take effect without a
// restart; decoded images stay cached for the life of the process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// With Options.Debug set, every tool call is logged to stderr under a random
// run ID together with its duration.
package server
