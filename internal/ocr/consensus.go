package ocr

import (
	"errors"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"yemen-lpr/internal/backend"
	"yemen-lpr/internal/imaging"
)

// Candidate admission and scoring constants. Yemeni plates most commonly
// carry 5 or 6 digits; candidates in that range get a score bonus but other
// lengths are not rejected outright.
const (
	minCandidateDigits = 2
	preferredMinDigits = 5
	preferredMaxDigits = 6
	lengthBonus        = 2.0
)

// SourcePrimary and SourceFallback tag which recognition backend produced a
// candidate.
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
)

// Candidate is one digit-string hypothesis from one
// (region, variant, backend) combination.
type Candidate struct {
	RawText    string          `json:"raw_text"`
	Digits     string          `json:"digits"`
	Confidence float64         `json:"confidence"`
	Source     string          `json:"source"`
	Region     string          `json:"region"`
	Variant    imaging.Variant `json:"variant"`
	Score      float64         `json:"score"`
}

// Consensus is the selected plate-number read plus every raw read that went
// into the decision.
type Consensus struct {
	Digits     string
	Confidence float64
	Reads      []Candidate
}

// Engine fans a region out over the preprocessing variants, collects digit
// candidates from the text reader, and picks the best-scoring one.
type Engine struct {
	reader backend.TextReader
	log    zerolog.Logger
}

// NewEngine creates a consensus engine on top of a text reader.
func NewEngine(reader backend.TextReader, log zerolog.Logger) *Engine {
	return &Engine{reader: reader, log: log}
}

// scoreDigits computes length x confidence, doubled for the common 5-6 digit
// plate format.
func scoreDigits(digits string, confidence float64) float64 {
	score := float64(len(digits)) * confidence
	if len(digits) >= preferredMinDigits && len(digits) <= preferredMaxDigits {
		score *= lengthBonus
	}
	return score
}

// Recognize runs every plate variant of region through the reader and selects
// the winning digit string. Variant failures are swallowed: a failing variant
// contributes zero candidates and processing continues. When nothing
// qualifies the result is an empty string with zero confidence.
//
// Evaluation order is fixed (variant order, then span order within a
// variant) and ties are broken by discovery order, first wins.
func (e *Engine) Recognize(region gocv.Mat, regionTag string) Consensus {
	var out Consensus

	for _, variant := range imaging.PlateVariants() {
		prepared, ok := imaging.PreparePlate(region, variant)
		if !ok {
			continue
		}
		spans, err := e.reader.ReadText(prepared)
		prepared.Close()
		if err != nil {
			if errors.Is(err, backend.ErrNotConfigured) {
				e.log.Warn().Str("region", regionTag).Msg("text reader not configured, skipping recognition")
				return out
			}
			e.log.Debug().Err(err).Str("region", regionTag).Str("variant", string(variant)).
				Msg("variant recognition failed")
			continue
		}
		for _, span := range spans {
			if span.Text == "" {
				continue
			}
			digits := NormalizeDigits(span.Text)
			candidate := Candidate{
				RawText:    span.Text,
				Digits:     digits,
				Confidence: span.Confidence,
				Source:     SourcePrimary,
				Region:     regionTag,
				Variant:    variant,
			}
			if len(digits) >= minCandidateDigits {
				candidate.Score = scoreDigits(digits, span.Confidence)
			}
			out.Reads = append(out.Reads, candidate)
		}
	}

	out.Digits, out.Confidence = selectWinner(out.Reads)
	return out
}

// selectWinner picks the best candidate among the admitted reads. The
// preferred-length subset is used when non-empty; within the chosen pool the
// maximum score wins and earlier discovery beats equal scores.
func selectWinner(reads []Candidate) (string, float64) {
	var pool []Candidate
	for _, c := range reads {
		if len(c.Digits) >= minCandidateDigits {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return "", 0.0
	}

	var preferred []Candidate
	for _, c := range pool {
		if len(c.Digits) >= preferredMinDigits && len(c.Digits) <= preferredMaxDigits {
			preferred = append(preferred, c)
		}
	}
	if len(preferred) > 0 {
		pool = preferred
	}

	best := pool[0]
	for _, c := range pool[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best.Digits, best.Confidence
}
