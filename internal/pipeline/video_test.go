package pipeline

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestObserveDeduplicates(t *testing.T) {
	tracker := NewVideoTracker(nil, zerolog.Nop())

	tracker.observe("16330", 0.70, 10)
	tracker.observe("16330", 0.85, 13)
	tracker.observe("16330", 0.60, 16)

	track, ok := tracker.tracks["16330"]
	if !ok {
		t.Fatal("track missing")
	}
	if track.Occurrences != 3 {
		t.Errorf("occurrences = %d, want 3", track.Occurrences)
	}
	if track.MaxConfidence != 0.85 {
		t.Errorf("max confidence = %v, want 0.85", track.MaxConfidence)
	}
	if track.FirstSeenFrame != 10 {
		t.Errorf("first seen = %d, want 10", track.FirstSeenFrame)
	}
}

func TestObserveIgnoresEmptyPlate(t *testing.T) {
	tracker := NewVideoTracker(nil, zerolog.Nop())

	tracker.observe("", 0.9, 5)
	if len(tracker.tracks) != 0 {
		t.Errorf("empty plate tracked: %v", tracker.tracks)
	}
}

func TestSummaryOrdering(t *testing.T) {
	tracker := NewVideoTracker(nil, zerolog.Nop())

	tracker.observe("11111", 0.5, 20)
	tracker.observe("22222", 0.6, 4)
	tracker.observe("22222", 0.6, 7)
	tracker.observe("33333", 0.7, 1)
	tracker.observe("33333", 0.7, 10)

	got := tracker.summary()
	if len(got) != 3 {
		t.Fatalf("summary has %d tracks, want 3", len(got))
	}
	// Occurrences descending; equal counts ordered by earliest sighting.
	want := []string{"33333", "22222", "11111"}
	for i, plate := range want {
		if got[i].PlateNumber != plate {
			t.Errorf("summary[%d] = %q, want %q", i, got[i].PlateNumber, plate)
		}
	}
	if got[0].FirstSeenFrame != 1 {
		t.Errorf("first track first seen = %d, want 1", got[0].FirstSeenFrame)
	}
}

func TestProcessVideoMissingFile(t *testing.T) {
	tracker := NewVideoTracker(nil, zerolog.Nop())

	if _, err := tracker.ProcessVideo("no_such_video.mp4", ""); err == nil {
		t.Error("missing video did not error")
	}
}
