package ocr

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"yemen-lpr/internal/backend"
)

// fakeReader returns its scripted spans on the first call and nothing on
// later calls, so each span is discovered exactly once across the variant
// fan-out.
type fakeReader struct {
	spans []backend.TextSpan
	err   error
	calls int
}

func (f *fakeReader) ReadText(img gocv.Mat) ([]backend.TextSpan, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.calls > 1 {
		return nil, nil
	}
	return f.spans, nil
}

func testRegion(t *testing.T) gocv.Mat {
	t.Helper()
	region := gocv.NewMatWithSize(50, 200, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { region.Close() })
	return region
}

func TestRecognizePrefersHigherScore(t *testing.T) {
	reader := &fakeReader{spans: []backend.TextSpan{
		{Text: "163303", Confidence: 0.60}, // 6 digits, score 6*0.60*2.0 = 7.20
		{Text: "16330", Confidence: 0.90},  // 5 digits, score 5*0.90*2.0 = 9.00
	}}
	engine := NewEngine(reader, zerolog.Nop())

	got := engine.Recognize(testRegion(t), "bottom_region")
	if got.Digits != "16330" {
		t.Errorf("winner = %q, want 16330", got.Digits)
	}
	if got.Confidence != 0.90 {
		t.Errorf("confidence = %v, want 0.90", got.Confidence)
	}
	if len(got.Reads) != 2 {
		t.Errorf("reads = %d, want 2", len(got.Reads))
	}
	if reader.calls != 4 {
		t.Errorf("reader called %d times, want once per variant (4)", reader.calls)
	}
}

func TestRecognizePrefersCommonPlateLength(t *testing.T) {
	// The 7-digit read scores 6.93, the 5-digit read only 5.00, but the
	// preferred-length subset is non-empty so the 5-digit read wins.
	reader := &fakeReader{spans: []backend.TextSpan{
		{Text: "1234567", Confidence: 0.99},
		{Text: "12345", Confidence: 0.50},
	}}
	engine := NewEngine(reader, zerolog.Nop())

	got := engine.Recognize(testRegion(t), "bottom_region")
	if got.Digits != "12345" {
		t.Errorf("winner = %q, want 12345", got.Digits)
	}
}

func TestRecognizeAdmissionAndEmptyResult(t *testing.T) {
	reader := &fakeReader{spans: []backend.TextSpan{
		{Text: "7", Confidence: 0.99}, // one digit: recorded but not admitted
		{Text: "xy", Confidence: 0.90},
	}}
	engine := NewEngine(reader, zerolog.Nop())

	got := engine.Recognize(testRegion(t), "bottom_region")
	if got.Digits != "" || got.Confidence != 0.0 {
		t.Errorf("got (%q, %v), want empty result", got.Digits, got.Confidence)
	}
	if len(got.Reads) != 2 {
		t.Errorf("reads = %d, want 2 (all reads recorded)", len(got.Reads))
	}
}

func TestRecognizeReaderNotConfigured(t *testing.T) {
	reader := &fakeReader{err: backend.ErrNotConfigured}
	engine := NewEngine(reader, zerolog.Nop())

	got := engine.Recognize(testRegion(t), "bottom_region")
	if got.Digits != "" || len(got.Reads) != 0 {
		t.Errorf("got (%q, %d reads), want empty result", got.Digits, len(got.Reads))
	}
}

func TestRecognizeSwallowsReaderErrors(t *testing.T) {
	reader := &fakeReader{err: errors.New("engine hiccup")}
	engine := NewEngine(reader, zerolog.Nop())

	got := engine.Recognize(testRegion(t), "bottom_region")
	if got.Digits != "" {
		t.Errorf("winner = %q, want empty", got.Digits)
	}
	if reader.calls != 4 {
		t.Errorf("reader called %d times, want all 4 variants attempted", reader.calls)
	}
}

func TestScoreDigits(t *testing.T) {
	// Strictly increasing in confidence at fixed length.
	if !(scoreDigits("12345", 0.8) > scoreDigits("12345", 0.5)) {
		t.Error("score not increasing in confidence")
	}
	// Bonus lengths never score below the unbonused score.
	for _, digits := range []string{"12345", "123456"} {
		plain := float64(len(digits)) * 0.7
		if scoreDigits(digits, 0.7) < plain {
			t.Errorf("bonus score for %q below unbonused score", digits)
		}
	}
	if math.Abs(scoreDigits("163303", 0.60)-7.20) > 1e-9 {
		t.Errorf("scoreDigits(163303, .60) = %v, want 7.20", scoreDigits("163303", 0.60))
	}
	if math.Abs(scoreDigits("1234567", 0.5)-3.5) > 1e-9 {
		t.Errorf("scoreDigits(1234567, .5) = %v, want 3.5 (no bonus)", scoreDigits("1234567", 0.5))
	}
}

func TestSelectWinnerTieBreaksByDiscoveryOrder(t *testing.T) {
	reads := []Candidate{
		{Digits: "11111", Confidence: 0.5, Score: 5.0},
		{Digits: "22222", Confidence: 0.5, Score: 5.0},
	}
	digits, _ := selectWinner(reads)
	if digits != "11111" {
		t.Errorf("tie winner = %q, want first discovered 11111", digits)
	}
}
