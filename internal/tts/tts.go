// Package tts generates narration audio for scenario slides through an
// external speech server.
package tts

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/overlay"
)

// Request is one line of narration to synthesize.
type Request struct {
	Text       string
	Emotion    string
	Voice      string // provider-specific sample path or preset name
	OutputPath string // where the finished wav must land
}

// Provider synthesizes narration through a specific speech backend.
type Provider interface {
	Name() string
	// Voices lists the configured voice identities for this backend.
	Voices() []string
	Synthesize(ctx context.Context, req Request) error
}

// NewProvider builds the backend named in the configuration.
func NewProvider(cfg *config.Config, logger zerolog.Logger) (Provider, error) {
	switch cfg.Voice.Provider {
	case "zonos", "":
		return newZonos(cfg.Voice.Zonos, logger), nil
	case "orpheus":
		return newOrpheus(cfg.Voice.Orpheus, logger), nil
	default:
		return nil, fmt.Errorf("unknown voice provider %q", cfg.Voice.Provider)
	}
}

var (
	fillerWords = regexp.MustCompile(`(?i)\b(ugh|hmm+|umm+)\b[.,!]?\s*`)
	multiDots   = regexp.MustCompile(`\.{2,}`)
	multiSpace  = regexp.MustCompile(`\s+`)
)

// PreprocessText strips the parts of display text that speech engines
// stumble over: emoji, quote marks, ellipses, and written-out filler
// noises.
func PreprocessText(text string) string {
	t := overlay.StripEmojis(text)
	t = strings.NewReplacer(`"`, "", "“", "", "”", "", "…", ".").Replace(t)
	t = multiDots.ReplaceAllString(t, ".")
	t = fillerWords.ReplaceAllString(t, "")
	t = multiSpace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}
