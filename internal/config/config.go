package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration.
type Config struct {
	// ProjectName namespaces the per-project output tree. Defaults to the
	// config file name when unset.
	ProjectName string `yaml:"project_name"`

	Directories DirectoriesConfig `yaml:"directories"`
	Video       VideoConfig       `yaml:"video"`
	Voice       VoiceConfig       `yaml:"voice"`
	Images      ImagesConfig      `yaml:"images"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
}

// DirectoriesConfig locates the shared media libraries and the per-project
// output tree.
type DirectoriesConfig struct {
	// Shared static libraries.
	Videos     string `yaml:"videos"`
	Music      string `yaml:"music"`
	Fonts      string `yaml:"fonts"`
	EmojiFonts string `yaml:"emoji_fonts"`

	// Root for per-project outputs; scenario/voice/image/video directories
	// live under <output_root>/<project_name>/.
	OutputRoot string `yaml:"output_root"`
	Scenarios  string `yaml:"scenarios"`
	VoiceLines string `yaml:"voice_lines"`
	Images     string `yaml:"images"`
	Videos_    string `yaml:"output_videos"`
}

type VideoConfig struct {
	Orientation string  `yaml:"orientation"` // "vertical" (9:16) or "horizontal" (16:9)
	Quality     float64 `yaml:"quality"`     // resolution scale factor, 1.0 = full
	FPS         int     `yaml:"fps"`
	CRF         int     `yaml:"crf"`
	Preset      string  `yaml:"preset"`

	BackgroundMusicVolume float64 `yaml:"background_music_volume"`
	VoiceNarrationVolume  float64 `yaml:"voice_narration_volume"`

	IntroPad       float64 `yaml:"intro_pad"`
	OutroPad       float64 `yaml:"outro_pad"`
	TrailingBuffer float64 `yaml:"trailing_buffer"`
	NarrationTrim  float64 `yaml:"narration_trim"` // seconds clipped off narration tails

	UseConsistentFont bool        `yaml:"use_consistent_font"`
	FontSize          float64     `yaml:"font_size"`
	StrokeWidth       int         `yaml:"stroke_width"`
	Emoji             EmojiConfig `yaml:"emoji"`
}

type EmojiConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Scale       float64 `yaml:"scale"`
	MaxRotation float64 `yaml:"max_rotation"` // degrees, rotation drawn from [-max, +max]
}

type VoiceConfig struct {
	Provider string `yaml:"provider"` // "zonos" or "orpheus"

	Zonos   ZonosConfig   `yaml:"zonos_settings"`
	Orpheus OrpheusConfig `yaml:"orpheus_settings"`

	Postprocessing PostprocessingConfig `yaml:"postprocessing"`
}

type ZonosConfig struct {
	Server       string   `yaml:"server"`
	SpeechRate   string   `yaml:"speech_rate"`
	VoiceSamples []string `yaml:"voice_samples"`
}

type OrpheusConfig struct {
	Server       string   `yaml:"server"`
	VoicePresets []string `yaml:"voice_presets"`
}

type PostprocessingConfig struct {
	Normalization   NormalizationConfig   `yaml:"normalization"`
	SilenceTrimming SilenceTrimmingConfig `yaml:"silence_trimming"`
}

type NormalizationConfig struct {
	Enabled  bool    `yaml:"enabled"`
	TargetDB float64 `yaml:"target_db"`
}

type SilenceTrimmingConfig struct {
	Enabled       bool    `yaml:"enabled"`
	MaxSilenceSec float64 `yaml:"max_silence_sec"`
	ThresholdDB   float64 `yaml:"threshold_db"`
}

type ImagesConfig struct {
	ComfyAddress   string `yaml:"comfy_server_address"`
	Steps          int    `yaml:"steps"`
	NegativePrompt string `yaml:"default_negative_prompt"`
}

type FFmpegConfig struct {
	Threads int `yaml:"threads"`
}

// Load reads configuration from a YAML file, applying defaults and optional
// environment overrides from a .env file.
func Load(path string) (*Config, error) {
	// .env is optional; ignore a missing file.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return nil, fmt.Errorf("no config file found; pass --config or create ./config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.ProjectName == "" {
		base := filepath.Base(path)
		cfg.ProjectName = base[:len(base)-len(filepath.Ext(base))]
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration that must be present before any scenario is
// processed. Failures here halt the whole run.
func (c *Config) Validate() error {
	if c.Directories.Videos == "" {
		return fmt.Errorf("config: directories.videos is required")
	}
	if c.Directories.Music == "" {
		return fmt.Errorf("config: directories.music is required")
	}
	if c.Directories.OutputRoot == "" {
		return fmt.Errorf("config: directories.output_root is required")
	}
	if c.Video.Quality <= 0 || c.Video.Quality > 1.0 {
		return fmt.Errorf("config: video.quality must be in (0, 1], got %v", c.Video.Quality)
	}
	if c.Video.Orientation != "vertical" && c.Video.Orientation != "horizontal" {
		return fmt.Errorf("config: video.orientation must be %q or %q", "vertical", "horizontal")
	}
	return nil
}

// Resolution returns the target output resolution after applying orientation
// and the quality scale factor. Dimensions are kept even for the encoder.
func (c *Config) Resolution() (int, int) {
	w, h := 1080, 1920
	if c.Video.Orientation == "horizontal" {
		w, h = 1920, 1080
	}
	w = int(float64(w) * c.Video.Quality)
	h = int(float64(h) * c.Video.Quality)
	if w%2 != 0 {
		w++
	}
	if h%2 != 0 {
		h++
	}
	return w, h
}

// ProjectDir returns the per-project directory for one of the output kinds.
func (c *Config) ProjectDir(kind string) string {
	return filepath.Join(c.Directories.OutputRoot, c.ProjectName, kind)
}

// ScenariosDir, VoiceLinesDir, ImagesDir and OutputDir resolve the standard
// per-project subdirectories.
func (c *Config) ScenariosDir() string  { return c.ProjectDir(c.Directories.Scenarios) }
func (c *Config) VoiceLinesDir() string { return c.ProjectDir(c.Directories.VoiceLines) }
func (c *Config) ImagesDir() string     { return c.ProjectDir(c.Directories.Images) }
func (c *Config) OutputDir() string     { return c.ProjectDir(c.Directories.Videos_) }

func defaultConfig() *Config {
	return &Config{
		Directories: DirectoriesConfig{
			Videos:     "lib/videos",
			Music:      "lib/music",
			Fonts:      "lib/fonts",
			EmojiFonts: "lib/fonts_emoji",
			OutputRoot: "output",
			Scenarios:  "scenarios",
			VoiceLines: "voice_lines",
			Images:     "images",
			Videos_:    "videos",
		},
		Video: VideoConfig{
			Orientation:           "vertical",
			Quality:               1.0,
			FPS:                   30,
			CRF:                   23,
			Preset:                "medium",
			BackgroundMusicVolume: 0.5,
			VoiceNarrationVolume:  1.0,
			TrailingBuffer:        0.5,
			NarrationTrim:         0.04,
			UseConsistentFont:     true,
			FontSize:              90,
			StrokeWidth:           3,
			Emoji: EmojiConfig{
				Enabled:     true,
				Scale:       1.0,
				MaxRotation: 15,
			},
		},
		Voice: VoiceConfig{
			Provider: "zonos",
			Zonos: ZonosConfig{
				Server:     "127.0.0.1:5001",
				SpeechRate: "15",
			},
			Postprocessing: PostprocessingConfig{
				Normalization: NormalizationConfig{TargetDB: -20.0},
				SilenceTrimming: SilenceTrimmingConfig{
					Enabled:       true,
					MaxSilenceSec: 1.0,
					ThresholdDB:   -50,
				},
			},
		},
		Images: ImagesConfig{
			ComfyAddress:   "127.0.0.1:8188",
			Steps:          20,
			NegativePrompt: "text, watermark, signature, blurry, distorted, low resolution",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REELSMITH_VIDEOS_DIR"); v != "" {
		cfg.Directories.Videos = v
	}
	if v := os.Getenv("REELSMITH_MUSIC_DIR"); v != "" {
		cfg.Directories.Music = v
	}
	if v := os.Getenv("REELSMITH_OUTPUT_ROOT"); v != "" {
		cfg.Directories.OutputRoot = v
	}
	if v := os.Getenv("REELSMITH_TTS_SERVER"); v != "" {
		cfg.Voice.Zonos.Server = v
	}
	if v := os.Getenv("REELSMITH_COMFY_ADDRESS"); v != "" {
		cfg.Images.ComfyAddress = v
	}
	if v := os.Getenv("REELSMITH_FFMPEG_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FFmpeg.Threads = n
		}
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".reelsmith", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// WithConfig stores config in context.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
