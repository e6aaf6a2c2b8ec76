// Package imaging loads site-plan rasters and produces the inspection images
// the MCP tools return.
//
// It covers decoding and caching (ImageCache), PNG/base64 encoding, a small
// bitmap font for lot labels, a coordinate grid with zone-rule guide lines,
// cropping, and intensity sampling for threshold calibration.
//
// # Coordinate System
//
// All coordinates are pixel coordinates with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. This is the space zone
// rules are written in. Regions use image.Rectangle semantics: Min is
// inclusive, Max is exclusive.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions are
// stateless and never modify their input image.
package imaging
