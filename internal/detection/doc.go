// Package detection extracts candidate lot shapes from a site-plan raster.
//
// Site plans render each residential lot as a dark filled blob against a
// lighter background, separated by streets and the plan border. This package
// turns such a raster into a list of lots.Lot values, each with a pixel-space
// centroid and a simplified polygon ready for rendering.
//
// # Algorithm Overview
//
// ExtractLots follows a fixed pipeline:
//
//  1. Binarization: grayscale, then a fixed intensity threshold
//  2. Cleanup: morphological opening with a small square element
//  3. Contours: outer borders of external blobs only
//  4. Filtering: area window, circularity floor, vertex-count window
//  5. Result Formatting: centroid, pixel outline, rendering ring
//
// # Backends
//
// The default build traces contours in pure Go (Moore-neighbour tracing on a
// bild-processed mask). Building with -tags gocv swaps in OpenCV for the
// threshold, opening and contour retrieval; the filters and geometry stay
// shared so both backends emit comparable lots.
//
// # Coordinate System
//
// Centroids and outlines use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Lot.Polygon is the only field in rendering space (see package geo).
//
// # Limitations
//
//   - Lots touching each other merge into one blob and are usually rejected by
//     the area or vertex filters
//   - The default area window is tuned to one raster resolution
//   - Lot labels printed on the plan are not read
package detection
