package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"yemen-lpr/internal/backend"
	"yemen-lpr/internal/governorate"
	"yemen-lpr/internal/imaging"
	"yemen-lpr/internal/ocr"
	"yemen-lpr/pkg/geometry"
)

// bottomTopRatio drops the top portion of a plate crop before number
// recognition; the digits sit in the bottom band of Yemeni plates.
const bottomTopRatio = 0.35

const defaultMinConfidence = 0.4

const defaultVehicleType = "vehicle"

// vehicleTypeKeywords maps detector class-name substrings to vehicle types,
// checked in order.
var vehicleTypeKeywords = []struct {
	keyword string
	typ     string
}{
	{"pick-up", "pickup"},
	{"pickup", "pickup"},
	{"truck", "truck"},
	{"sedan", "car"},
	{"car", "car"},
}

// Orchestrator runs the full per-image pipeline: vehicle segmentation,
// per-vehicle plate detection, plate number consensus, and governorate
// decoding. All backends are injected; a missing backend degrades that stage
// to an empty result.
type Orchestrator struct {
	vehicles backend.Detector
	plates   backend.Detector
	numbers  *ocr.Engine
	gov      *governorate.Decoder
	log      zerolog.Logger

	// MinConfidence is the detection threshold for both detectors.
	MinConfidence float64
	// CropsDir, when set, receives a PNG of every plate crop.
	CropsDir string
	// Recorder, when set, persists every recognition attempt. It never
	// influences results.
	Recorder *ArtifactRecorder
}

// New creates an orchestrator over the injected backends.
func New(vehicles, plates backend.Detector, numbers *ocr.Engine, gov *governorate.Decoder, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		vehicles:      vehicles,
		plates:        plates,
		numbers:       numbers,
		gov:           gov,
		log:           log,
		MinConfidence: defaultMinConfidence,
	}
}

// ProcessImageFile reads and processes a single image. An unreadable file is
// a caller contract violation and the error propagates.
func (o *Orchestrator) ProcessImageFile(path string) (*ImageResult, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return nil, fmt.Errorf("cannot read image: %s", path)
	}
	defer img.Close()
	return o.ProcessImage(img), nil
}

// ProcessImage runs the pipeline on one frame. It never fails: every
// per-region and per-variant problem is swallowed locally and the result
// reflects whatever evidence survived.
//
// Vehicles are processed in detector emission order, plates within a vehicle
// likewise, so output ordering is deterministic for deterministic backends.
func (o *Orchestrator) ProcessImage(img gocv.Mat) *ImageResult {
	result := &ImageResult{
		Vehicles:  []VehicleResult{},
		Plates:    []PlateResult{},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	vehicles := o.detect(o.vehicles, img, "vehicle")
	for i := range vehicles {
		v := &vehicles[i]
		vr := VehicleResult{
			Box:        v.Box,
			Type:       classifyVehicleType(v.ClassName),
			Confidence: v.Confidence,
		}
		if v.HasMask() {
			vr.Segmentation = segmentationMetrics(v.Mask, v.Box)
		}
		result.Vehicles = append(result.Vehicles, vr)

		crop, ok := imaging.CropMasked(img, v.Box, v.Mask)
		if !ok {
			o.log.Debug().Ints("bbox", v.Box[:]).Msg("degenerate vehicle region skipped")
			v.Close()
			continue
		}
		plateDets := o.detect(o.plates, crop, "plate")
		for _, p := range plateDets {
			global := imaging.RemapLocalToGlobal(v.Box, p.Box)
			result.Plates = append(result.Plates, o.recognizePlate(crop, p, global, vr))
		}
		closeDetections(plateDets)
		crop.Close()
		v.Close()
	}

	// Fallback: vehicle segmentation found nothing, but the plate may still
	// be detectable on the full frame.
	if len(vehicles) == 0 && len(result.Plates) == 0 {
		o.log.Debug().Msg("no vehicles found, running full-frame plate detection")
		fallbackVehicle := VehicleResult{Type: defaultVehicleType}
		plateDets := o.detect(o.plates, img, "plate")
		for _, p := range plateDets {
			result.Plates = append(result.Plates, o.recognizePlate(img, p, p.Box, fallbackVehicle))
		}
		closeDetections(plateDets)
	}

	var numbers []string
	for _, p := range result.Plates {
		if p.PlateNumber != "" {
			numbers = append(numbers, p.PlateNumber)
		}
	}
	result.Text = strings.Join(numbers, " ")
	result.summarize()

	o.log.Info().
		Int("vehicles", len(result.Vehicles)).
		Int("plates", len(result.Plates)).
		Str("text", result.Text).
		Msg("image processed")
	return result
}

// recognizePlate extracts the plate crop from source (frame or vehicle crop),
// runs number recognition on its bottom band and governorate decoding on the
// whole crop, and assembles the result. globalBox is in frame coordinates.
func (o *Orchestrator) recognizePlate(source gocv.Mat, det backend.Detection, globalBox geometry.Box, vehicle VehicleResult) PlateResult {
	pr := PlateResult{
		Box:                 globalBox,
		DetectionConfidence: det.Confidence,
		VehicleType:         vehicle.Type,
		VehicleConfidence:   vehicle.Confidence,
		Segmentation:        vehicle.Segmentation,
	}

	crop, ok := imaging.Crop(source, det.Box)
	if !ok {
		// Detection success is still reported, with no read.
		return pr
	}
	defer crop.Close()

	if o.CropsDir != "" {
		pr.CropPath = o.saveCrop(crop)
	}

	var session *Session
	var sink governorate.DebugSink
	if o.Recorder != nil {
		session = o.Recorder.NewSession()
		sink = session
	}

	var consensus ocr.Consensus
	if bottom, ok := imaging.BottomRegion(crop, bottomTopRatio); ok {
		consensus = o.numbers.Recognize(bottom, "bottom_region")
		bottom.Close()
	} else {
		consensus = o.numbers.Recognize(crop, "full_plate")
	}
	pr.PlateNumber = consensus.Digits
	pr.OCRConfidence = consensus.Confidence

	gov := o.gov.DecodeDebug(crop, sink)
	pr.GovernorateCode = gov.Code
	pr.GovernorateName = gov.Name

	pr.RawReads = make([]ocr.Candidate, 0, len(gov.Reads)+len(consensus.Reads))
	pr.RawReads = append(pr.RawReads, gov.Reads...)
	pr.RawReads = append(pr.RawReads, consensus.Reads...)

	if session != nil {
		session.RecordDecode("plate_number", consensus.Reads, consensus.Digits, consensus.Confidence, 0)
		session.RecordDecode("governorate", gov.Reads, gov.Code, gov.Confidence, gov.Score)
	}
	return pr
}

// detect runs one detector, degrading to an empty list when the backend is
// missing or failing.
func (o *Orchestrator) detect(det backend.Detector, img gocv.Mat, kind string) []backend.Detection {
	if det == nil {
		return nil
	}
	found, err := det.Detect(img, o.MinConfidence)
	if err != nil {
		if errors.Is(err, backend.ErrNotConfigured) {
			o.log.Warn().Str("detector", kind).Msg("detection skipped: backend not configured")
		} else {
			o.log.Error().Err(err).Str("detector", kind).Msg("detection failed")
		}
		return nil
	}
	return found
}

func (o *Orchestrator) saveCrop(crop gocv.Mat) string {
	if err := os.MkdirAll(o.CropsDir, 0o755); err != nil {
		o.log.Warn().Err(err).Str("dir", o.CropsDir).Msg("cannot create crops directory")
		return ""
	}
	path := filepath.Join(o.CropsDir, fmt.Sprintf("plate_%s.png", uuid.NewString()[:8]))
	if !gocv.IMWrite(path, crop) {
		o.log.Warn().Str("path", path).Msg("failed to save plate crop")
		return ""
	}
	return path
}

func closeDetections(dets []backend.Detection) {
	for i := range dets {
		dets[i].Close()
	}
}

// classifyVehicleType derives a vehicle type from the detector class label by
// substring match; unmatched classes default to "vehicle".
func classifyVehicleType(className string) string {
	name := strings.ToLower(className)
	for _, kw := range vehicleTypeKeywords {
		if strings.Contains(name, kw.keyword) {
			return kw.typ
		}
	}
	return defaultVehicleType
}

// segmentationMetrics computes mask coverage of the bounding box and the
// derived quality class.
func segmentationMetrics(mask gocv.Mat, box geometry.Box) *SegmentationMetrics {
	clamped := box.Clamp(mask.Cols(), mask.Rows())
	boxArea := clamped.Area()
	maskArea := 0
	if boxArea > 0 {
		roi := mask.Region(clamped.Rect())
		maskArea = gocv.CountNonZero(roi)
		roi.Close()
	}

	coverage := 0.0
	if boxArea > 0 {
		coverage = float64(maskArea) / float64(boxArea)
	}
	quality := "low"
	switch {
	case coverage >= 0.85:
		quality = "high"
	case coverage >= 0.65:
		quality = "medium"
	}
	return &SegmentationMetrics{
		MaskArea:      maskArea,
		BoxArea:       boxArea,
		CoverageRatio: coverage,
		Quality:       quality,
	}
}
