package governorate

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"yemen-lpr/internal/backend"
	"yemen-lpr/internal/imaging"
	"yemen-lpr/internal/ocr"
)

// Left-strip width ratios tried against the plate crop. The wider ratios
// hedge against layout variance in the plate margin.
var stripRatios = []float64{0.22, 0.28, 0.36}

// acceptedBaseScore is added to every accepted single-digit hit so that an
// accepted governorate candidate always outranks anything from the general
// recognition path; ranking among accepted candidates is then purely by
// confidence.
const acceptedBaseScore = 10.0

// SourceLocalMapping marks a result decoded through the static code table.
const SourceLocalMapping = "local_mapping"

// Result is the outcome of one governorate decode. Code and Name are empty
// when no candidate was accepted; the decoder never guesses.
type Result struct {
	Code       string          `json:"governorate_code,omitempty"`
	Name       string          `json:"governorate_name,omitempty"`
	Source     string          `json:"governorate_source,omitempty"`
	Confidence float64         `json:"-"`
	Score      float64         `json:"-"`
	Reads      []ocr.Candidate `json:"-"`
}

// Found reports whether a code was accepted.
func (r Result) Found() bool {
	return r.Code != ""
}

// DebugSink receives intermediate variant rasters for offline inspection.
// Recording never influences decoding.
type DebugSink interface {
	SaveVariant(tag string, img gocv.Mat)
}

// Decoder extracts the governorate code from the left margin of a plate
// crop using a primary reader and an optional fallback reader.
type Decoder struct {
	primary  backend.TextReader
	fallback backend.TextReader
	table    map[string]string
	log      zerolog.Logger

	// Debug, when set, receives every preprocessed strip raster.
	Debug DebugSink
}

// NewDecoder creates a decoder. fallback and a nil table are optional; a nil
// table selects the built-in one.
func NewDecoder(primary, fallback backend.TextReader, table map[string]string, log zerolog.Logger) *Decoder {
	if table == nil {
		table = DefaultTable()
	}
	return &Decoder{primary: primary, fallback: fallback, table: table, log: log}
}

// Decode runs every (strip ratio, variant, backend) combination over the
// plate crop and selects the accepted candidate with the highest score.
//
// A candidate is accepted only if its normalized digit string (leading zeros
// stripped) has length exactly one and is a key in the code table.
// Evaluation order is fixed: ratio ascending, then variant order, then
// primary before fallback, then span order; ties are broken by discovery
// order, first wins.
func (d *Decoder) Decode(plate gocv.Mat) Result {
	return d.DecodeDebug(plate, d.Debug)
}

// DecodeDebug is Decode with an explicit per-invocation debug sink, which
// takes precedence over the Debug field. A nil sink disables recording.
func (d *Decoder) DecodeDebug(plate gocv.Mat, sink DebugSink) Result {
	var out Result
	if plate.Empty() {
		return out
	}

	var best *ocr.Candidate
	for _, ratio := range stripRatios {
		strip, ok := imaging.LeftRegion(plate, ratio)
		if !ok {
			continue
		}
		for _, variant := range imaging.GovernorateVariants() {
			prepared, ok := imaging.PrepareGovernorate(strip, variant)
			if !ok {
				continue
			}
			if sink != nil {
				sink.SaveVariant(fmt.Sprintf("left_ratio_%.2f_%s", ratio, variant), prepared)
			}

			regionTag := fmt.Sprintf("left_%.2f", ratio)
			d.collect(prepared, regionTag, variant, d.primary, ocr.SourcePrimary, &out, &best)
			if d.fallback != nil {
				d.collect(prepared, regionTag, variant, d.fallback, ocr.SourceFallback, &out, &best)
			}
			prepared.Close()
		}
		strip.Close()
	}

	if best != nil {
		out.Code = best.Digits
		out.Name = d.table[best.Digits]
		out.Source = SourceLocalMapping
		out.Confidence = best.Confidence
		out.Score = best.Score
	}
	return out
}

// collect reads one prepared strip with one backend, records every read, and
// advances the running best accepted candidate.
func (d *Decoder) collect(prepared gocv.Mat, regionTag string, variant imaging.Variant,
	reader backend.TextReader, source string, out *Result, best **ocr.Candidate) {

	spans, err := reader.ReadText(prepared)
	if err != nil {
		if !errors.Is(err, backend.ErrNotConfigured) {
			d.log.Debug().Err(err).Str("region", regionTag).Str("variant", string(variant)).
				Str("source", source).Msg("governorate read failed")
		}
		return
	}
	for _, span := range spans {
		if span.Text == "" {
			continue
		}
		digits := ocr.StripLeadingZeros(ocr.NormalizeDigits(span.Text))
		candidate := ocr.Candidate{
			RawText:    span.Text,
			Digits:     digits,
			Confidence: span.Confidence,
			Source:     source,
			Region:     regionTag,
			Variant:    variant,
		}
		if _, known := d.table[digits]; known && len(digits) == 1 {
			candidate.Score = acceptedBaseScore + span.Confidence
			if *best == nil || candidate.Score > (*best).Score {
				accepted := candidate
				*best = &accepted
			}
		}
		out.Reads = append(out.Reads, candidate)
	}
}
