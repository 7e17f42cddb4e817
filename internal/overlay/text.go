package overlay

import (
	"strings"
)

// Break points tried in priority order when splitting long display text.
// Sentence punctuation splits at every occurrence; everything after only at
// the first.
var (
	sentenceBreaks = []string{". ", "! ", "? "}
	clauseBreaks   = []string{": ", "; ", ", ", " - "}
	conjunctions   = []string{" but ", " and ", " or ", " because ", " when ", " if "}
)

// shortTextThreshold is the length below which text is left on one line.
const shortTextThreshold = 30

// BreakLines splits long display text into lines at natural language
// boundaries: sentence punctuation first, then clause punctuation, then
// coordinating conjunctions, then a plain word-count bisection. Short text
// is returned unchanged.
func BreakLines(text string) []string {
	if len(text) < shortTextThreshold {
		return []string{text}
	}

	for _, sep := range sentenceBreaks {
		if strings.Contains(text, sep) {
			parts := strings.Split(text, sep)
			punct := strings.TrimRight(sep, " ")
			lines := make([]string, len(parts))
			for i, part := range parts {
				if i < len(parts)-1 {
					lines[i] = part + punct
				} else {
					lines[i] = part
				}
			}
			return lines
		}
	}

	for _, sep := range clauseBreaks {
		if idx := strings.Index(text, sep); idx >= 0 {
			punct := strings.TrimRight(sep, " ")
			first := text[:idx] + punct
			rest := text[idx+len(sep):]
			return []string{first, rest}
		}
	}

	for _, sep := range conjunctions {
		if idx := strings.Index(text, sep); idx >= 0 {
			word := strings.TrimSpace(sep)
			rest := text[idx+len(sep):]
			return []string{text[:idx], word + " " + rest}
		}
	}

	words := strings.Fields(text)
	if len(words) > 5 {
		mid := len(words) / 2
		return []string{
			strings.Join(words[:mid], " "),
			strings.Join(words[mid:], " "),
		}
	}

	return []string{text}
}

// emojiRanges covers the Unicode blocks treated as emoji for overlay
// purposes.
var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F300, 0x1F5FF}, // symbols & pictographs
	{0x1F680, 0x1F6FF}, // transport & map symbols
	{0x1F700, 0x1F77F}, // alchemical symbols
	{0x1F780, 0x1F7FF}, // geometric shapes extended
	{0x1F800, 0x1F8FF}, // supplemental arrows-C
	{0x1F900, 0x1F9FF}, // supplemental symbols and pictographs
	{0x1FA00, 0x1FA6F}, // chess symbols
	{0x1FA70, 0x1FAFF}, // symbols and pictographs extended-A
	{0x2702, 0x27B0},   // dingbats
	{0x2600, 0x26FF},   // miscellaneous symbols
	{0x1F1E6, 0x1F1FF}, // regional indicators
	{0x1F000, 0x1F0FF}, // mahjong and playing cards
	{0xFE00, 0xFE0F},   // variation selectors
	{0x200D, 0x200D},   // zero width joiner
}

func isEmoji(r rune) bool {
	for _, rng := range emojiRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}

// ExtractEmojis returns the emoji characters found in text, in order.
func ExtractEmojis(text string) string {
	var b strings.Builder
	for _, r := range text {
		if isEmoji(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripEmojis removes emoji characters from text.
func StripEmojis(text string) string {
	var b strings.Builder
	for _, r := range text {
		if !isEmoji(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
