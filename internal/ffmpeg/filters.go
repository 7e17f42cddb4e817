package ffmpeg

import (
	"fmt"
	"strings"
)

// FilterBuilder helps construct a single comma-joined filter chain.
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder.
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{filters: make([]string, 0)}
}

// Scale adds a scale filter.
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:%d", width, height))
	return fb
}

// Crop adds a crop filter.
func (fb *FilterBuilder) Crop(width, height, x, y int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("crop=%d:%d:%d:%d", width, height, x, y))
	return fb
}

// FPS adds an fps filter.
func (fb *FilterBuilder) FPS(fps int) *FilterBuilder {
	if fps <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fps=%d", fps))
	return fb
}

// Volume applies a linear gain factor.
func (fb *FilterBuilder) Volume(gain float64) *FilterBuilder {
	fb.filters = append(fb.filters, fmt.Sprintf("volume=%g", gain))
	return fb
}

// ATrim limits an audio stream to [0, seconds].
func (fb *FilterBuilder) ATrim(seconds float64) *FilterBuilder {
	if seconds <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("atrim=0:%.3f", seconds))
	return fb
}

// ADelay shifts an audio stream by the given number of milliseconds on all
// channels.
func (fb *FilterBuilder) ADelay(ms int) *FilterBuilder {
	if ms < 0 {
		ms = 0
	}
	fb.filters = append(fb.filters, fmt.Sprintf("adelay=%d:all=1", ms))
	return fb
}

// Custom adds a custom filter string.
func (fb *FilterBuilder) Custom(filter string) *FilterBuilder {
	fb.filters = append(fb.filters, filter)
	return fb
}

// Build returns the complete filter string joined with commas.
func (fb *FilterBuilder) Build() string {
	return strings.Join(fb.filters, ",")
}

// Graph assembles a complete -filter_complex expression from labelled
// chains.
type Graph struct {
	chains []string
}

// NewGraph creates an empty filter graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Chain adds one labelled chain, e.g. Chain("[0:v]", fb, "[base]").
func (g *Graph) Chain(inputs string, fb *FilterBuilder, output string) *Graph {
	g.chains = append(g.chains, inputs+fb.Build()+output)
	return g
}

// Raw adds a pre-formatted chain.
func (g *Graph) Raw(chain string) *Graph {
	g.chains = append(g.chains, chain)
	return g
}

// Empty reports whether the graph has no chains.
func (g *Graph) Empty() bool { return len(g.chains) == 0 }

// String renders the graph as a -filter_complex argument.
func (g *Graph) String() string {
	return strings.Join(g.chains, ";")
}
