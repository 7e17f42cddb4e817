// Package timeline reconciles authored slide durations with the narration
// audio that actually exists on disk, producing the single timeline both the
// visual and audio tracks are built from.
package timeline

import (
	"github.com/reelsmith/reelsmith/internal/scenario"
)

// Entry is a slide's resolved position on the composition timeline.
type Entry struct {
	Index         int     // 1-based slide index
	Start         float64 // seconds from composition start
	Duration      float64 // seconds on screen
	Text          string
	Emoji         string  // explicit sticker characters, may be empty
	NarrationPath string  // empty when the slide has no usable narration
	NarrationDur  float64 // raw narration length, 0 when none
	ImagePath     string  // empty when the slide has no generated image
}

// End returns the entry's end time on the timeline.
func (e Entry) End() float64 { return e.Start + e.Duration }

// NarrationLookup resolves a slide index (1-based) to a narration asset and
// its duration. ok must be false when the asset is missing or unreadable;
// the reconciler then falls back to the authored duration. The lookup is
// deliberately backend-agnostic: presence of a file is the only signal.
type NarrationLookup func(slideIndex int) (path string, duration float64, ok bool)

// ImageLookup resolves a slide index to an optional generated background
// image. May be nil.
type ImageLookup func(slideIndex int) (path string, ok bool)

// Options carries the timing knobs for reconciliation.
type Options struct {
	TrailingBuffer float64 // pad after narration ends so text lingers
	IntroPad       float64 // silent lead-in before the first slide
	OutroPad       float64 // tail after the last slide
}

// Reconcile computes the authoritative per-slide timeline. When a narration
// asset exists its length plus the trailing buffer wins over the authored
// duration; otherwise the authored duration_seconds is used as-is. Entries
// are contiguous, in slide order, starting at IntroPad. The returned total
// is IntroPad + sum(durations) + OutroPad.
func Reconcile(slides []scenario.Slide, narration NarrationLookup, images ImageLookup, opts Options) ([]Entry, float64) {
	entries := make([]Entry, 0, len(slides))

	start := opts.IntroPad
	for i, slide := range slides {
		index := i + 1
		entry := Entry{
			Index:    index,
			Start:    start,
			Duration: float64(slide.DurationSeconds),
			Text:     slide.Text,
			Emoji:    slide.Emoji,
		}

		if narration != nil {
			if path, dur, ok := narration(index); ok {
				entry.NarrationPath = path
				entry.NarrationDur = dur
				entry.Duration = dur + opts.TrailingBuffer
			}
		}
		if images != nil {
			if path, ok := images(index); ok {
				entry.ImagePath = path
			}
		}

		entries = append(entries, entry)
		start += entry.Duration
	}

	total := start + opts.OutroPad
	return entries, total
}
