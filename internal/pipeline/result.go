// Package pipeline sequences vehicle segmentation, plate detection, plate
// number recognition, and governorate decoding into per-image and per-video
// results.
package pipeline

import (
	"gonum.org/v1/gonum/floats"

	"yemen-lpr/internal/ocr"
	"yemen-lpr/pkg/geometry"
)

// SegmentationMetrics describes how well a segmentation mask covers its
// bounding box, as a proxy for segmentation quality.
type SegmentationMetrics struct {
	MaskArea      int     `json:"mask_area"`
	BoxArea       int     `json:"bbox_area"`
	CoverageRatio float64 `json:"coverage_ratio"`
	Quality       string  `json:"quality"`
}

// VehicleResult is one detected vehicle.
type VehicleResult struct {
	Box          geometry.Box         `json:"bbox"`
	Type         string               `json:"type"`
	Confidence   float64              `json:"confidence"`
	Segmentation *SegmentationMetrics `json:"segmentation,omitempty"`
}

// PlateResult is one detected plate with its recognition outcome. A plate
// with no legible digits still appears here with an empty PlateNumber and
// zero OCRConfidence; omission would hide a successful detection.
type PlateResult struct {
	PlateNumber         string               `json:"plate_number"`
	DetectionConfidence float64              `json:"detection_confidence"`
	OCRConfidence       float64              `json:"ocr_confidence"`
	GovernorateCode     string               `json:"governorate_code,omitempty"`
	GovernorateName     string               `json:"governorate_name,omitempty"`
	VehicleType         string               `json:"vehicle_type"`
	VehicleConfidence   float64              `json:"vehicle_confidence"`
	Box                 geometry.Box         `json:"bbox"`
	CropPath            string               `json:"crop_path,omitempty"`
	Segmentation        *SegmentationMetrics `json:"segmentation,omitempty"`
	RawReads            []ocr.Candidate      `json:"raw_reads,omitempty"`
}

// ConfidenceSummary aggregates the maximum confidence per stage across all
// results of one image; zero when a stage produced nothing.
type ConfidenceSummary struct {
	Vehicle float64 `json:"vehicle"`
	Plate   float64 `json:"plate"`
	OCR     float64 `json:"ocr"`
}

// ImageResult is the complete outcome for one image or frame.
type ImageResult struct {
	Vehicles   []VehicleResult   `json:"vehicles"`
	Plates     []PlateResult     `json:"plates"`
	Text       string            `json:"text"`
	Confidence ConfidenceSummary `json:"confidence"`
	Timestamp  string            `json:"timestamp"`
}

// maxOrZero returns the maximum of values, or zero for an empty slice.
func maxOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return floats.Max(values)
}

func (r *ImageResult) summarize() {
	var vehicle, plate, ocrConf []float64
	for _, v := range r.Vehicles {
		vehicle = append(vehicle, v.Confidence)
	}
	for _, p := range r.Plates {
		plate = append(plate, p.DetectionConfidence)
		ocrConf = append(ocrConf, p.OCRConfidence)
	}
	r.Confidence = ConfidenceSummary{
		Vehicle: maxOrZero(vehicle),
		Plate:   maxOrZero(plate),
		OCR:     maxOrZero(ocrConf),
	}
}
