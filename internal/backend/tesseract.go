package backend

import (
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"yemen-lpr/pkg/geometry"
)

// TesseractReader is the general text reader used for the main plate-number
// path. It reports word-level spans with per-word confidences.
type TesseractReader struct {
	languages []string
	log       zerolog.Logger

	once    sync.Once
	client  *gosseract.Client
	loadErr error
}

// NewTesseractReader creates a reader for the given languages
// (e.g. "ara", "eng"). The Tesseract client is created on first use.
func NewTesseractReader(languages []string, log zerolog.Logger) *TesseractReader {
	if len(languages) == 0 {
		languages = []string{"ara", "eng"}
	}
	return &TesseractReader{languages: languages, log: log}
}

func (r *TesseractReader) ensureClient() error {
	r.once.Do(func() {
		client := gosseract.NewClient()
		if err := client.SetLanguage(r.languages...); err != nil {
			client.Close()
			r.loadErr = fmt.Errorf("%w: %v", ErrNotConfigured, err)
			r.log.Error().Err(err).Strs("languages", r.languages).Msg("failed to initialize OCR engine")
			return
		}
		// Plate numbers are not dictionary words; keep the language model out
		// of the way.
		_ = client.SetVariable("load_system_dawg", "false")
		_ = client.SetVariable("load_freq_dawg", "false")
		r.client = client
		r.log.Info().Strs("languages", r.languages).Msg("OCR engine initialized")
	})
	return r.loadErr
}

// ReadText implements TextReader. Confidences are normalized to [0,1].
func (r *TesseractReader) ReadText(img gocv.Mat) ([]TextSpan, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	if img.Empty() {
		return nil, nil
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode image for OCR: %w", err)
	}
	defer buf.Close()

	if err := r.client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("set OCR image: %w", err)
	}

	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	var spans []TextSpan
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		spans = append(spans, TextSpan{
			Box:        geometry.FromRect(box.Box),
			Text:       text,
			Confidence: box.Confidence / 100.0,
		})
	}
	return spans, nil
}

// Close releases the Tesseract client.
func (r *TesseractReader) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// tesseractDigitConfidence is reported for every digit-reader span: the
// digit reader's API yields no per-word confidence, so a fixed mid-high
// value keeps its candidates competitive without dominating.
const tesseractDigitConfidence = 0.7

// DigitReader is the secondary recognition source for governorate decoding:
// a digit-whitelisted, single-line Tesseract configuration.
type DigitReader struct {
	log zerolog.Logger

	once    sync.Once
	client  *gosseract.Client
	loadErr error
}

// NewDigitReader creates the digit-only reader.
func NewDigitReader(log zerolog.Logger) *DigitReader {
	return &DigitReader{log: log}
}

func (r *DigitReader) ensureClient() error {
	r.once.Do(func() {
		client := gosseract.NewClient()
		if err := client.SetLanguage("eng"); err != nil {
			client.Close()
			r.loadErr = fmt.Errorf("%w: %v", ErrNotConfigured, err)
			r.log.Error().Err(err).Msg("failed to initialize digit OCR engine")
			return
		}
		r.client = client
	})
	return r.loadErr
}

// ReadText implements TextReader. It returns at most one span covering the
// whole input, with a fixed confidence.
func (r *DigitReader) ReadText(img gocv.Mat) ([]TextSpan, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	if img.Empty() {
		return nil, nil
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode image for OCR: %w", err)
	}
	defer buf.Close()

	if err := r.client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := r.client.SetWhitelist("0123456789"); err != nil {
		return nil, fmt.Errorf("set whitelist: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("set OCR image: %w", err)
	}

	text, err := r.client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return []TextSpan{{
		Box:        geometry.NewBox(0, 0, img.Cols(), img.Rows()),
		Text:       text,
		Confidence: tesseractDigitConfidence,
	}}, nil
}

// Close releases the Tesseract client.
func (r *DigitReader) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
