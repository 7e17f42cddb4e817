package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/patrickmn/go-cache"

	"github.com/reelsmith/reelsmith/pkg/util"
)

// MediaInfo contains metadata about a media file.
type MediaInfo struct {
	FilePath string
	Duration float64 // seconds
	Width    int
	Height   int
	FPS      float64
	HasAudio bool
	HasVideo bool
}

// Probe extracts metadata from a media file (video, audio or image).
func (e *Executor) Probe(ctx context.Context, filePath string) (*MediaInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s failed: %w", filePath, err)
	}

	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output for %s: %w", filePath, err)
	}

	info := &MediaInfo{FilePath: filePath}
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = dur
	}

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			info.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			if stream.RFrameRate != "" {
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}
			// Some containers only report duration on the stream.
			if info.Duration == 0 && stream.Duration != "" {
				if dur, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					info.Duration = dur
				}
			}
		case "audio":
			info.HasAudio = true
			if info.Duration == 0 && stream.Duration != "" {
				if dur, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					info.Duration = dur
				}
			}
		}
	}

	return info, nil
}

// ProbeDuration returns the duration of a media file in seconds, cached
// across the batch.
func (e *Executor) ProbeDuration(ctx context.Context, filePath string) (float64, error) {
	if cached, ok := e.durations.Get(filePath); ok {
		return cached.(float64), nil
	}

	info, err := e.Probe(ctx, filePath)
	if err != nil {
		return 0, err
	}
	if info.Duration <= 0 {
		return 0, fmt.Errorf("no duration reported for %s", filePath)
	}

	e.durations.Set(filePath, info.Duration, cache.DefaultExpiration)
	return info.Duration, nil
}

// probeResult matches ffprobe JSON output structure.
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		Duration   string `json:"duration"`
	} `json:"streams"`
}
