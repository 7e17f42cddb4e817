package media

import (
	"errors"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ErrNoMediaAvailable is returned when the media library itself is empty, so
// no match could ever be produced.
var ErrNoMediaAvailable = errors.New("media library is empty")

// Similarity thresholds for fuzzy matching. A match must first clear the
// primary cutoff; if nothing does, the lenient cutoff accepts near-arbitrary
// similarity so a media-naming mismatch never blocks the pipeline.
const (
	primaryCutoff = 0.6
	lenientCutoff = 0.1
)

// Resolve matches a free-text media name, as emitted by an LLM, against the
// actual files of a library. It always returns a member of available when
// available is non-empty: best match above the primary cutoff, else best
// match above the lenient cutoff, else the first file in listing order.
func Resolve(requested string, available []string) (string, error) {
	if len(available) == 0 {
		return "", ErrNoMediaAvailable
	}

	if name, ok := closestMatch(requested, available, primaryCutoff); ok {
		return name, nil
	}
	if name, ok := closestMatch(requested, available, lenientCutoff); ok {
		return name, nil
	}
	return available[0], nil
}

// closestMatch ranks candidates by character-level similarity ratio and
// returns the best one at or above the cutoff.
func closestMatch(requested string, candidates []string, cutoff float64) (string, bool) {
	target := strings.Split(requested, "")

	best := ""
	bestRatio := 0.0
	for _, candidate := range candidates {
		m := difflib.NewMatcher(target, strings.Split(candidate, ""))
		if ratio := m.Ratio(); ratio > bestRatio {
			best = candidate
			bestRatio = ratio
		}
	}

	if bestRatio >= cutoff && best != "" {
		return best, true
	}
	return "", false
}
