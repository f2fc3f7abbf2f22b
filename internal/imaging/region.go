// Package imaging provides region extraction and the deterministic
// preprocessing variants applied before text recognition.
package imaging

import (
	"gocv.io/x/gocv"

	"yemen-lpr/pkg/geometry"
)

// Crop returns a copy of the region of img described by box, clamped to the
// image bounds. ok is false when the clamped region has zero area.
func Crop(img gocv.Mat, box geometry.Box) (gocv.Mat, bool) {
	if img.Empty() {
		return gocv.Mat{}, false
	}
	clamped := box.Clamp(img.Cols(), img.Rows())
	if clamped.Empty() {
		return gocv.Mat{}, false
	}
	region := img.Region(clamped.Rect())
	defer region.Close()
	return region.Clone(), true
}

// CropMasked zeroes everything outside mask before cropping. When the mask is
// unusable (absent, empty, or mismatched size) it falls back to a plain crop.
func CropMasked(img gocv.Mat, box geometry.Box, mask gocv.Mat) (gocv.Mat, bool) {
	if mask.Ptr() == nil || mask.Empty() ||
		mask.Rows() != img.Rows() || mask.Cols() != img.Cols() {
		return Crop(img, box)
	}
	masked := gocv.NewMat()
	defer masked.Close()
	gocv.BitwiseAndWithMask(img, img, &masked, mask)
	return Crop(masked, box)
}

// RemapLocalToGlobal converts a box expressed in vehicle-crop coordinates to
// frame coordinates. Plate detection runs on the vehicle crop, so its boxes
// are offset by the vehicle's top-left corner.
func RemapLocalToGlobal(vehicleBox, localBox geometry.Box) geometry.Box {
	return localBox.Offset(vehicleBox[0], vehicleBox[1])
}

// BottomRegion returns the lower portion of crop, dropping the top topRatio
// of its height. Pure index slicing, no interpolation. ok is false when the
// remainder is degenerate.
func BottomRegion(crop gocv.Mat, topRatio float64) (gocv.Mat, bool) {
	if crop.Empty() {
		return gocv.Mat{}, false
	}
	start := int(float64(crop.Rows()) * topRatio)
	return Crop(crop, geometry.NewBox(0, start, crop.Cols(), crop.Rows()))
}

// LeftRegion returns the left widthRatio strip of crop at full height. Used
// for the governorate code printed in the plate's left margin.
func LeftRegion(crop gocv.Mat, widthRatio float64) (gocv.Mat, bool) {
	if crop.Empty() {
		return gocv.Mat{}, false
	}
	width := int(float64(crop.Cols()) * widthRatio)
	return Crop(crop, geometry.NewBox(0, 0, width, crop.Rows()))
}
