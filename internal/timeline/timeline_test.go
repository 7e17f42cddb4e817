package timeline

import (
	"math"
	"testing"

	"github.com/reelsmith/reelsmith/internal/scenario"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestReconcileNarrationWins(t *testing.T) {
	slides := []scenario.Slide{
		{Text: "one", DurationSeconds: 2},
		{Text: "two", DurationSeconds: 3},
		{Text: "three", DurationSeconds: 2},
	}
	// Only slide 2 has narration: 4.2s plus the 0.5s buffer replaces the
	// authored 3s.
	narration := func(idx int) (string, float64, bool) {
		if idx == 2 {
			return "/voice/s_slide_02.wav", 4.2, true
		}
		return "", 0, false
	}

	entries, total := Reconcile(slides, narration, nil, Options{
		TrailingBuffer: 0.5,
		IntroPad:       1.0,
		OutroPad:       2.0,
	})

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	wantDur := []float64{2, 4.7, 2}
	wantStart := []float64{1.0, 3.0, 7.7}
	for i, e := range entries {
		if !almostEqual(e.Duration, wantDur[i]) {
			t.Errorf("entry %d duration = %v, want %v", i, e.Duration, wantDur[i])
		}
		if !almostEqual(e.Start, wantStart[i]) {
			t.Errorf("entry %d start = %v, want %v", i, e.Start, wantStart[i])
		}
	}
	if !almostEqual(total, 11.7) {
		t.Errorf("total = %v, want 11.7", total)
	}

	if entries[1].NarrationPath == "" || entries[0].NarrationPath != "" {
		t.Error("narration path attached to wrong entries")
	}
}

func TestReconcileAuthoredFallback(t *testing.T) {
	slides := []scenario.Slide{
		{Text: "a", DurationSeconds: 4},
		{Text: "b", DurationSeconds: 6},
	}

	entries, total := Reconcile(slides, nil, nil, Options{TrailingBuffer: 0.5})

	if !almostEqual(entries[0].Duration, 4) || !almostEqual(entries[1].Duration, 6) {
		t.Errorf("authored durations not preserved: %v, %v", entries[0].Duration, entries[1].Duration)
	}
	if !almostEqual(total, 10) {
		t.Errorf("total = %v, want 10", total)
	}
}

func TestReconcileContiguous(t *testing.T) {
	slides := []scenario.Slide{
		{DurationSeconds: 3},
		{DurationSeconds: 1},
		{DurationSeconds: 5},
		{DurationSeconds: 2},
	}
	narration := func(idx int) (string, float64, bool) {
		if idx%2 == 0 {
			return "n.wav", float64(idx), true
		}
		return "", 0, false
	}

	entries, total := Reconcile(slides, narration, nil, Options{
		TrailingBuffer: 0.25,
		IntroPad:       0.5,
		OutroPad:       1.5,
	})

	if !almostEqual(entries[0].Start, 0.5) {
		t.Errorf("first entry starts at %v, want intro pad 0.5", entries[0].Start)
	}
	for i := 1; i < len(entries); i++ {
		if !almostEqual(entries[i].Start, entries[i-1].End()) {
			t.Errorf("entry %d start %v does not follow previous end %v",
				i, entries[i].Start, entries[i-1].End())
		}
	}
	if !almostEqual(total, entries[len(entries)-1].End()+1.5) {
		t.Errorf("total %v does not equal last end plus outro", total)
	}
}

func TestReconcileImages(t *testing.T) {
	slides := []scenario.Slide{
		{DurationSeconds: 2},
		{DurationSeconds: 2},
	}
	images := func(idx int) (string, bool) {
		if idx == 1 {
			return "/img/s_slide_1.png", true
		}
		return "", false
	}

	entries, _ := Reconcile(slides, nil, images, Options{})

	if entries[0].ImagePath == "" {
		t.Error("slide 1 image not attached")
	}
	if entries[1].ImagePath != "" {
		t.Error("slide 2 should have no image")
	}
}

func TestReconcileEmptySlides(t *testing.T) {
	entries, total := Reconcile(nil, nil, nil, Options{IntroPad: 1, OutroPad: 2})
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
	if !almostEqual(total, 3) {
		t.Errorf("total = %v, want pads only (3)", total)
	}
}
