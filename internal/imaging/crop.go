package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropResult contains the cropped image and the pixel region it covers.
type CropResult struct {
	EncodedImage

	// Region is the source rectangle after padding and clamping.
	Region image.Rectangle `json:"region"`
}

// Crop extracts region from img, grown by pad pixels on each side and
// clamped to the image, then scaled by scale.
//
// Used to inspect one zone or lot of a large plan at a readable size.
func Crop(img image.Image, region image.Rectangle, pad int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()
	if region.Empty() {
		return nil, fmt.Errorf("invalid crop region %v: empty", region)
	}
	if !region.Overlaps(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", region, bounds)
	}
	if scale <= 0 || scale > 8 {
		return nil, fmt.Errorf("scale must be in (0, 8], got %g", scale)
	}

	if pad > 0 {
		region = region.Inset(-pad)
	}
	region = region.Intersect(bounds)

	cropped := imaging.Crop(img, region)
	if scale != 1.0 {
		w := int(float64(cropped.Bounds().Dx()) * scale)
		h := int(float64(cropped.Bounds().Dy()) * scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %g collapses the %v region", scale, region)
		}
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}

	enc, err := EncodePNG(cropped)
	if err != nil {
		return nil, err
	}
	return &CropResult{EncodedImage: *enc, Region: region}, nil
}
