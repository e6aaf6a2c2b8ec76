//go:build gocv

// OpenCV-backed contour extraction. Build with -tags gocv to cross-check the
// native tracer against the OpenCV pipeline the plans were first tuned on.
// Requires OpenCV 4.x development headers.

package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// findContours runs threshold, opening and external contour retrieval in
// OpenCV and converts the result back to contours.
func findContours(gray *image.Gray, p Params) ([]contour, error) {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		row := gray.PixOffset(bounds.Min.X, y+bounds.Min.Y)
		copy(pix[y*width:(y+1)*width], gray.Pix[row:row+width])
	}

	src, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap raster: %w", err)
	}
	defer src.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	// THRESH_BINARY_INV keeps values <= thresh, so step one below the level.
	gocv.Threshold(src, &binary, float32(p.Threshold)-1, 255, gocv.ThresholdBinaryInv)

	if p.KernelSize > 1 {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: p.KernelSize, Y: p.KernelSize})
		defer kernel.Close()
		gocv.MorphologyEx(binary, &binary, gocv.MorphOpen, kernel)
	}

	found := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	contours := make([]contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		contours = append(contours, contour(found.At(i).ToPoints()))
	}
	return contours, nil
}
