package util

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSeconds converts a duration in seconds to the ffmpeg timestamp
// format HH:MM:SS.mmm.
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}

// Milliseconds converts seconds to whole milliseconds for adelay-style args.
func Milliseconds(seconds float64) int {
	if seconds < 0 {
		return 0
	}
	return int(seconds*1000 + 0.5)
}

// ParseFrameRate parses a frame rate in ffprobe fraction form (e.g. "30/1").
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
