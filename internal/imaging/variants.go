package imaging

import (
	"image"

	"gocv.io/x/gocv"
)

// Variant names one deterministic preprocessing transform applied to a
// region before text recognition.
type Variant string

const (
	VariantStandard      Variant = "standard"
	VariantCLAHE         Variant = "clahe"
	VariantOtsu          Variant = "otsu"
	VariantAdaptive      Variant = "adaptive"
	VariantBilateralOtsu Variant = "bilateral_otsu"
	VariantInvert        Variant = "invert"
)

// Target height for plate-number crops before recognition.
const plateTargetHeight = 100

// Fixed dimensions for governorate left-strip crops.
const (
	govTargetWidth  = 60
	govTargetHeight = 80
)

// PlateVariants is the pass order for the main plate-number path.
func PlateVariants() []Variant {
	return []Variant{VariantStandard, VariantCLAHE, VariantOtsu, VariantAdaptive}
}

// GovernorateVariants is the pass order for the governorate left-strip path.
func GovernorateVariants() []Variant {
	return []Variant{VariantCLAHE, VariantAdaptive, VariantBilateralOtsu, VariantInvert}
}

// toGray returns a grayscale copy of img. ok is false on degenerate input
// (empty image or unsupported channel count).
func toGray(img gocv.Mat) (gocv.Mat, bool) {
	if img.Empty() || img.Rows() == 0 || img.Cols() == 0 {
		return gocv.Mat{}, false
	}
	switch img.Channels() {
	case 1:
		return img.Clone(), true
	case 3:
		gray := gocv.NewMat()
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
		return gray, true
	default:
		return gocv.Mat{}, false
	}
}

// PreparePlate applies one plate-path variant: grayscale, resize to the
// reference height preserving aspect ratio, then the variant's enhancement.
// Every transform is pure; ok is false when the input is degenerate.
func PreparePlate(img gocv.Mat, v Variant) (gocv.Mat, bool) {
	gray, ok := toGray(img)
	if !ok {
		return gocv.Mat{}, false
	}
	defer gray.Close()

	scale := float64(plateTargetHeight) / float64(gray.Rows())
	width := int(float64(gray.Cols()) * scale)
	if width <= 0 {
		return gocv.Mat{}, false
	}
	resized := gocv.NewMat()
	gocv.Resize(gray, &resized, image.Pt(width, plateTargetHeight), 0, 0, gocv.InterpolationCubic)

	switch v {
	case VariantCLAHE:
		defer resized.Close()
		return applyCLAHE(resized, 2.0, image.Pt(8, 8)), true
	case VariantOtsu:
		defer resized.Close()
		binary := gocv.NewMat()
		gocv.Threshold(resized, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
		return binary, true
	case VariantAdaptive:
		defer resized.Close()
		binary := gocv.NewMat()
		gocv.AdaptiveThreshold(resized, &binary, 255, gocv.AdaptiveThresholdGaussian,
			gocv.ThresholdBinary, 11, 2)
		return binary, true
	default:
		return resized, true
	}
}

// PrepareGovernorate applies one governorate-path variant: grayscale, resize
// to fixed strip dimensions, then the variant's enhancement.
func PrepareGovernorate(img gocv.Mat, v Variant) (gocv.Mat, bool) {
	gray, ok := toGray(img)
	if !ok {
		return gocv.Mat{}, false
	}
	defer gray.Close()

	resized := gocv.NewMat()
	gocv.Resize(gray, &resized, image.Pt(govTargetWidth, govTargetHeight), 0, 0, gocv.InterpolationCubic)
	defer resized.Close()

	switch v {
	case VariantAdaptive:
		enhanced := applyCLAHE(resized, 2.0, image.Pt(4, 4))
		defer enhanced.Close()
		binary := gocv.NewMat()
		gocv.AdaptiveThreshold(enhanced, &binary, 255, gocv.AdaptiveThresholdGaussian,
			gocv.ThresholdBinary, 11, 2)
		return binary, true
	case VariantBilateralOtsu:
		smoothed := gocv.NewMat()
		gocv.BilateralFilter(resized, &smoothed, 9, 75, 75)
		defer smoothed.Close()
		binary := gocv.NewMat()
		gocv.Threshold(smoothed, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
		return binary, true
	case VariantInvert:
		// Photometric inversion for light-on-dark plates.
		inverted := gocv.NewMat()
		gocv.BitwiseNot(resized, &inverted)
		defer inverted.Close()
		return applyCLAHE(inverted, 2.0, image.Pt(4, 4)), true
	default:
		return applyCLAHE(resized, 3.0, image.Pt(4, 4)), true
	}
}

func applyCLAHE(gray gocv.Mat, clipLimit float64, tileGrid image.Point) gocv.Mat {
	clahe := gocv.NewCLAHEWithParams(clipLimit, tileGrid)
	defer clahe.Close()
	enhanced := gocv.NewMat()
	clahe.Apply(gray, &enhanced)
	return enhanced
}
