package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"yemen-lpr/pkg/geometry"
)

// PlateTrack is the running record for one distinct recognized plate string
// across a video.
type PlateTrack struct {
	PlateNumber    string  `json:"plate_number"`
	Occurrences    int     `json:"occurrences"`
	MaxConfidence  float64 `json:"max_confidence"`
	FirstSeenFrame int     `json:"first_seen_frame"`
}

// FrameDetection is one plate sighting in one processed frame.
type FrameDetection struct {
	Frame               int          `json:"frame"`
	PlateNumber         string       `json:"plate_number"`
	DetectionConfidence float64      `json:"detection_confidence"`
	OCRConfidence       float64      `json:"ocr_confidence"`
	Box                 geometry.Box `json:"bbox"`
	GovernorateCode     string       `json:"governorate_code,omitempty"`
	GovernorateName     string       `json:"governorate_name,omitempty"`
}

// VideoInfo describes the processed video stream.
type VideoInfo struct {
	TotalFrames     int     `json:"total_frames"`
	ProcessedFrames int     `json:"processed_frames"`
	FPS             float64 `json:"fps"`
	Resolution      string  `json:"resolution"`
}

// VideoResult is the outcome of one video run.
type VideoResult struct {
	VideoInfo       VideoInfo        `json:"video_info"`
	Detections      []FrameDetection `json:"detections,omitempty"`
	DetectionsCount int              `json:"detections_count"`
	UniquePlates    int              `json:"unique_plates"`
	PlatesSummary   []PlateTrack     `json:"plates_summary"`
	OutputVideo     string           `json:"output_video,omitempty"`
	Timestamp       string           `json:"timestamp"`
}

// VideoTracker drives the orchestrator over sampled video frames and
// deduplicates repeated plate sightings into per-plate tracks.
type VideoTracker struct {
	orch *Orchestrator
	log  zerolog.Logger

	// SkipFrames is the sampling stride: every (SkipFrames+1)-th frame is
	// processed, the rest are passed through unmodified.
	SkipFrames int

	tracks     map[string]*PlateTrack
	detections []FrameDetection
}

// NewVideoTracker creates a tracker around an orchestrator.
func NewVideoTracker(orch *Orchestrator, log zerolog.Logger) *VideoTracker {
	return &VideoTracker{
		orch:       orch,
		log:        log,
		SkipFrames: 2,
		tracks:     make(map[string]*PlateTrack),
	}
}

// observe folds one plate sighting into the track map. Only non-empty plate
// strings are tracked; the first-seen frame is set once and never
// overwritten.
func (t *VideoTracker) observe(plate string, detectionConf float64, frame int) {
	if plate == "" {
		return
	}
	track, ok := t.tracks[plate]
	if !ok {
		track = &PlateTrack{PlateNumber: plate, FirstSeenFrame: frame}
		t.tracks[plate] = track
	}
	track.Occurrences++
	if detectionConf > track.MaxConfidence {
		track.MaxConfidence = detectionConf
	}
}

// summary returns the tracks sorted by occurrence count descending, earliest
// first sighting breaking ties.
func (t *VideoTracker) summary() []PlateTrack {
	out := make([]PlateTrack, 0, len(t.tracks))
	for _, track := range t.tracks {
		out = append(out, *track)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].FirstSeenFrame < out[j].FirstSeenFrame
	})
	return out
}

// ProcessVideo iterates the video at path, processing every
// (SkipFrames+1)-th frame through the orchestrator. When outputDir is
// non-empty, all frames (including skipped ones, unmodified) are written to
// an output video there. An unopenable video is a fatal input error.
func (t *VideoTracker) ProcessVideo(path, outputDir string) (*VideoResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("video not found: %w", err)
	}
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open video %s: %w", path, err)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 30
	}
	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	totalFrames := int(capture.Get(gocv.VideoCaptureFrameCount))

	var writer *gocv.VideoWriter
	outPath := ""
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
		outPath = filepath.Join(outputDir, fmt.Sprintf("processed_%s.mp4", uuid.NewString()[:8]))
		writer, err = gocv.VideoWriterFile(outPath, "mp4v", fps, width, height, true)
		if err != nil {
			return nil, fmt.Errorf("create output video: %w", err)
		}
		defer writer.Close()
	}

	t.tracks = make(map[string]*PlateTrack)
	t.detections = nil

	frame := gocv.NewMat()
	defer frame.Close()

	frameIdx := 0
	processed := 0
	for capture.Read(&frame) {
		if frame.Empty() {
			continue
		}
		frameIdx++
		if frameIdx%(t.SkipFrames+1) != 0 {
			if writer != nil {
				_ = writer.Write(frame)
			}
			continue
		}
		processed++

		result := t.orch.ProcessImage(frame)
		for _, p := range result.Plates {
			t.observe(p.PlateNumber, p.DetectionConfidence, frameIdx)
			t.detections = append(t.detections, FrameDetection{
				Frame:               frameIdx,
				PlateNumber:         p.PlateNumber,
				DetectionConfidence: p.DetectionConfidence,
				OCRConfidence:       p.OCRConfidence,
				Box:                 p.Box,
				GovernorateCode:     p.GovernorateCode,
				GovernorateName:     p.GovernorateName,
			})
		}
		if writer != nil {
			_ = writer.Write(frame)
		}
	}

	t.log.Info().
		Int("total_frames", frameIdx).
		Int("processed_frames", processed).
		Int("unique_plates", len(t.tracks)).
		Msg("video processed")

	return &VideoResult{
		VideoInfo: VideoInfo{
			TotalFrames:     totalFrames,
			ProcessedFrames: processed,
			FPS:             fps,
			Resolution:      fmt.Sprintf("%dx%d", width, height),
		},
		Detections:      t.detections,
		DetectionsCount: len(t.detections),
		UniquePlates:    len(t.tracks),
		PlatesSummary:   t.summary(),
		OutputVideo:     outPath,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}
