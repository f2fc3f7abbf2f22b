package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"yemen-lpr/internal/ocr"
)

// ArtifactRecorder is a pure side-channel that persists every recognition
// attempt (raw text, normalized digits, confidence, tags) plus the chosen
// winner, keyed by a session identifier, for offline debugging. It never
// influences selection; enabling or disabling it must not change results,
// so every failure here is logged and swallowed.
type ArtifactRecorder struct {
	dir string
	log zerolog.Logger

	// SaveImages also persists the intermediate variant rasters.
	SaveImages bool
}

// NewArtifactRecorder creates a recorder writing under dir.
func NewArtifactRecorder(dir string, log zerolog.Logger) (*ArtifactRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts directory: %w", err)
	}
	return &ArtifactRecorder{dir: dir, log: log, SaveImages: true}, nil
}

// Session groups the artifacts of one plate's recognition attempt.
type Session struct {
	rec    *ArtifactRecorder
	id     string
	images []string
}

// NewSession starts a new recording session.
func (r *ArtifactRecorder) NewSession() *Session {
	return &Session{rec: r, id: uuid.NewString()[:8]}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SaveVariant persists one preprocessed raster. Implements
// governorate.DebugSink.
func (s *Session) SaveVariant(tag string, img gocv.Mat) {
	if !s.rec.SaveImages || img.Empty() {
		return
	}
	path := filepath.Join(s.rec.dir, fmt.Sprintf("%s_%s.png", s.id, tag))
	if !gocv.IMWrite(path, img) {
		s.rec.log.Warn().Str("path", path).Msg("failed to save debug raster")
		return
	}
	s.images = append(s.images, path)
}

// DecodeRecord is the JSON artifact for one recognition decision.
type DecodeRecord struct {
	Session    string          `json:"session"`
	Kind       string          `json:"kind"`
	Timestamp  string          `json:"timestamp"`
	Reads      []ocr.Candidate `json:"reads"`
	Winner     string          `json:"winner"`
	Confidence float64         `json:"confidence"`
	Score      float64         `json:"score,omitempty"`
	Images     []string        `json:"images,omitempty"`
}

// RecordDecode writes one decision record. kind distinguishes the plate
// number path from the governorate path.
func (s *Session) RecordDecode(kind string, reads []ocr.Candidate, winner string, confidence, score float64) {
	record := DecodeRecord{
		Session:    s.id,
		Kind:       kind,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Reads:      reads,
		Winner:     winner,
		Confidence: confidence,
		Score:      score,
		Images:     s.images,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		s.rec.log.Warn().Err(err).Msg("failed to marshal decode record")
		return
	}
	path := filepath.Join(s.rec.dir, fmt.Sprintf("%s_%s.json", s.id, kind))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.rec.log.Warn().Err(err).Str("path", path).Msg("failed to write decode record")
	}
}
