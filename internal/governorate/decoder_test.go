package governorate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"yemen-lpr/internal/backend"
	"yemen-lpr/internal/ocr"
)

// fakeReader returns its scripted spans on the first call and nothing on
// later calls, so each span is discovered exactly once across the ratio and
// variant fan-out.
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

func testPlate(t *testing.T) gocv.Mat {
	t.Helper()
	plate := gocv.NewMatWithSize(60, 240, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { plate.Close() })
	return plate
}

func TestDecodeAcceptsArabicSingleDigit(t *testing.T) {
	primary := &fakeReader{spans: []backend.TextSpan{{Text: "٣", Confidence: 0.82}}}
	dec := NewDecoder(primary, nil, nil, zerolog.Nop())

	got := dec.Decode(testPlate(t))
	if got.Code != "3" {
		t.Fatalf("code = %q, want 3", got.Code)
	}
	if got.Name != defaultTable["3"] {
		t.Errorf("name = %q, want %q", got.Name, defaultTable["3"])
	}
	if got.Source != SourceLocalMapping {
		t.Errorf("source = %q, want %q", got.Source, SourceLocalMapping)
	}
	if got.Confidence != 0.82 {
		t.Errorf("confidence = %v, want 0.82", got.Confidence)
	}
	if got.Score != 10.82 {
		t.Errorf("score = %v, want 10.82", got.Score)
	}
}

func TestDecodeRejectsMultiDigit(t *testing.T) {
	primary := &fakeReader{spans: []backend.TextSpan{{Text: "34", Confidence: 0.95}}}
	dec := NewDecoder(primary, nil, nil, zerolog.Nop())

	got := dec.Decode(testPlate(t))
	if got.Found() {
		t.Errorf("accepted %q from multi-digit read", got.Code)
	}
	if len(got.Reads) == 0 {
		t.Error("rejected read not recorded")
	}
}

func TestDecodeRejectsUnknownCode(t *testing.T) {
	// "0" is not a governorate code; the decoder never guesses.
	primary := &fakeReader{spans: []backend.TextSpan{{Text: "0", Confidence: 0.99}}}
	dec := NewDecoder(primary, nil, nil, zerolog.Nop())

	if got := dec.Decode(testPlate(t)); got.Found() {
		t.Errorf("accepted unknown code %q", got.Code)
	}
}

func TestDecodeStripsLeadingZeros(t *testing.T) {
	primary := &fakeReader{spans: []backend.TextSpan{{Text: "07", Confidence: 0.75}}}
	dec := NewDecoder(primary, nil, nil, zerolog.Nop())

	got := dec.Decode(testPlate(t))
	if got.Code != "7" {
		t.Errorf("code = %q, want 7", got.Code)
	}
}

func TestDecodeFallbackOnly(t *testing.T) {
	primary := &fakeReader{}
	fallback := &fakeReader{spans: []backend.TextSpan{{Text: "5", Confidence: 0.7}}}
	dec := NewDecoder(primary, fallback, nil, zerolog.Nop())

	got := dec.Decode(testPlate(t))
	if got.Code != "5" {
		t.Fatalf("code = %q, want 5", got.Code)
	}
	if got.Score != 10.7 {
		t.Errorf("score = %v, want 10.7", got.Score)
	}
}

func TestDecodeHigherConfidenceWins(t *testing.T) {
	primary := &fakeReader{spans: []backend.TextSpan{{Text: "3", Confidence: 0.5}}}
	fallback := &fakeReader{spans: []backend.TextSpan{{Text: "4", Confidence: 0.8}}}
	dec := NewDecoder(primary, fallback, nil, zerolog.Nop())

	got := dec.Decode(testPlate(t))
	if got.Code != "4" {
		t.Errorf("code = %q, want the higher-confidence 4", got.Code)
	}
	if got.Score != 10.8 {
		t.Errorf("score = %v, want 10.8", got.Score)
	}
}

func TestDecodeTieKeepsFirstDiscovered(t *testing.T) {
	primary := &fakeReader{spans: []backend.TextSpan{{Text: "3", Confidence: 0.7}}}
	fallback := &fakeReader{spans: []backend.TextSpan{{Text: "4", Confidence: 0.7}}}
	dec := NewDecoder(primary, fallback, nil, zerolog.Nop())

	got := dec.Decode(testPlate(t))
	if got.Code != "3" {
		t.Errorf("code = %q, want first-discovered 3 on equal score", got.Code)
	}
	if got.Reads[0].Source != ocr.SourcePrimary {
		t.Errorf("first read source = %q, want primary before fallback", got.Reads[0].Source)
	}
}

func TestDecodeEmptyPlate(t *testing.T) {
	primary := &fakeReader{spans: []backend.TextSpan{{Text: "3", Confidence: 0.9}}}
	dec := NewDecoder(primary, nil, nil, zerolog.Nop())

	got := dec.Decode(gocv.Mat{})
	if got.Found() || len(got.Reads) != 0 || primary.calls != 0 {
		t.Errorf("empty plate produced result %+v after %d reads", got, primary.calls)
	}
}

func TestDecodeReaderNotConfigured(t *testing.T) {
	primary := &fakeReader{err: backend.ErrNotConfigured}
	dec := NewDecoder(primary, nil, nil, zerolog.Nop())

	got := dec.Decode(testPlate(t))
	if got.Found() || len(got.Reads) != 0 {
		t.Errorf("unconfigured reader produced result %+v", got)
	}
}

func TestLoadTableDefault(t *testing.T) {
	table, err := LoadTable("")
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 20 {
		t.Errorf("default table has %d entries, want 20", len(table))
	}
	if table["20"] != defaultTable["20"] {
		t.Errorf("table[20] = %q, want %q", table["20"], defaultTable["20"])
	}
}

func TestLoadTableOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	if err := os.WriteFile(path, []byte(`{"1": "first", "2": "second"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if table["1"] != "first" || len(table) != 2 {
		t.Errorf("override table = %v", table)
	}
}

func TestLoadTableRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTable(path); err == nil {
		t.Error("empty table accepted")
	}
}
