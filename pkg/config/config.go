// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/mediapump/pkg/adapters/smartcodec"
	"github.com/user/mediapump/pkg/player"
	"github.com/user/mediapump/pkg/ports"
	"github.com/user/mediapump/pkg/timeline"
)

// Config represents the full configuration for mediapump.
type Config struct {
	// Decoding
	DecodeVideo bool `yaml:"decode_video"`
	DecodeAudio bool `yaml:"decode_audio"`
	Sync        bool `yaml:"sync"`
	AudioStream int  `yaml:"audio_stream"`

	// Buffering
	QueueCapacity   int `yaml:"queue_capacity"`
	LateThresholdMs int `yaml:"late_threshold_ms"`

	// Output formats
	Video VideoConfig `yaml:"video"`
	Audio AudioConfig `yaml:"audio"`

	// Environment
	FFmpegPath    string `yaml:"ffmpeg_path"`
	LogLevel      string `yaml:"log_level"`
	LogTimestamps bool   `yaml:"log_timestamps"`
	MetricsAddr   string `yaml:"metrics_addr"`
}

// VideoConfig represents video output settings.
type VideoConfig struct {
	// Width and Height scale decoded pictures. Zero keeps the stream size.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// AudioConfig represents audio output settings.
type AudioConfig struct {
	SampleFormat string `yaml:"sample_format"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	opts := player.DefaultOptions()
	return Config{
		DecodeVideo:     opts.DecodeVideo,
		DecodeAudio:     opts.DecodeAudio,
		Sync:            opts.Sync,
		QueueCapacity:   opts.QueueCapacity,
		LateThresholdMs: int(timeline.DefaultLateThreshold / time.Millisecond),
		Audio: AudioConfig{
			SampleFormat: string(ports.SampleS16),
		},
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	return Parse(data)
}

// Load reads configuration through fs. Keys missing from the file keep
// their default values.
func Load(fs ports.FileSystem, path string) (Config, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return Defaults(), fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	switch ports.SampleFormat(c.Audio.SampleFormat) {
	case ports.SampleU8, ports.SampleS16:
	default:
		return fmt.Errorf("audio.sample_format must be u8 or s16, got %q", c.Audio.SampleFormat)
	}
	if c.Video.Width < 0 || c.Video.Height < 0 {
		return fmt.Errorf("video size must not be negative, got %dx%d", c.Video.Width, c.Video.Height)
	}
	if (c.Video.Width == 0) != (c.Video.Height == 0) {
		return fmt.Errorf("video.width and video.height must be set together")
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue_capacity must not be negative, got %d", c.QueueCapacity)
	}
	if c.LateThresholdMs < 0 {
		return fmt.Errorf("late_threshold_ms must not be negative, got %d", c.LateThresholdMs)
	}
	if c.AudioStream < 0 {
		return fmt.Errorf("audio_stream must not be negative, got %d", c.AudioStream)
	}
	return nil
}

// ToPlayerOptions converts Config to player.Options.
func (c Config) ToPlayerOptions() player.Options {
	return player.Options{
		DecodeVideo:   c.DecodeVideo,
		DecodeAudio:   c.DecodeAudio,
		Sync:          c.Sync,
		AudioStream:   c.AudioStream,
		QueueCapacity: c.QueueCapacity,
		LateThreshold: time.Duration(c.LateThresholdMs) * time.Millisecond,
	}
}

// ToCodecOptions converts Config to smartcodec.Options.
func (c Config) ToCodecOptions(log ports.Logger) smartcodec.Options {
	return smartcodec.Options{
		FFmpegPath:   c.FFmpegPath,
		Width:        c.Video.Width,
		Height:       c.Video.Height,
		SampleFormat: ports.SampleFormat(c.Audio.SampleFormat),
		Logger:       log,
	}
}

// Level returns the configured log level.
func (c Config) Level() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}
