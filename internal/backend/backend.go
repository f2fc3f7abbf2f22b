// Package backend defines the ports to the detection and text-recognition
// models and provides the bundled YOLO (gocv DNN) and Tesseract adapters.
//
// Adapters are lazily initialized, process-wide reusable, and never raise
// from inference: a model that cannot be loaded is remembered and every
// subsequent call reports ErrNotConfigured, so callers can distinguish "no
// backend" from "backend found nothing".
package backend

import (
	"errors"

	"gocv.io/x/gocv"

	"yemen-lpr/pkg/geometry"
)

// ErrNotConfigured is returned by an adapter whose underlying model is not
// available. Callers degrade to an empty result and continue.
var ErrNotConfigured = errors.New("backend not configured")

// Detection is one object reported by a Detector.
type Detection struct {
	Box        geometry.Box
	Confidence float64
	ClassID    int
	ClassName  string

	// Mask is an optional full-frame binary mask (CV_8U, nonzero inside the
	// object). Zero-value Mat means no mask. The caller owns and closes it.
	Mask gocv.Mat
}

// HasMask reports whether the detection carries a segmentation mask.
func (d Detection) HasMask() bool {
	return d.Mask.Ptr() != nil && !d.Mask.Empty()
}

// Close releases the detection's mask, if any.
func (d *Detection) Close() {
	if d.Mask.Ptr() != nil {
		d.Mask.Close()
	}
}

// TextSpan is one piece of text reported by a TextReader.
type TextSpan struct {
	Box        geometry.Box
	Text       string
	Confidence float64
}

// Detector locates objects (vehicles or plates) in an image.
type Detector interface {
	// Detect returns all detections with confidence >= minConf, in model
	// emission order. It returns ErrNotConfigured when the model is
	// unavailable and never fails on valid input otherwise.
	Detect(img gocv.Mat, minConf float64) ([]Detection, error)
}

// TextReader recognizes text in an image.
type TextReader interface {
	// ReadText returns all recognized spans in reading order. It returns
	// ErrNotConfigured when the engine is unavailable.
	ReadText(img gocv.Mat) ([]TextSpan, error)
}
