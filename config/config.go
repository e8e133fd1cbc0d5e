// Package config holds the runtime configuration of the toolsuniverse CLI.
//
// Values are layered: DefaultConfig, then an optional JSON file, then a .env
// file loaded into the process environment, then TOOLSUNIVERSE_* environment
// variables. Load applies all layers and validates the result.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/opd-ai/toolsuniverse/av/audio"
	"github.com/opd-ai/toolsuniverse/av/imaging"
	"github.com/opd-ai/toolsuniverse/limits"
	"github.com/sirupsen/logrus"
)

// ErrInvalidConfig indicates a configuration value outside its valid range.
var ErrInvalidConfig = errors.New("invalid configuration")

// LoggingConfig controls the global logrus logger.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text or json
}

// ReportConfig controls failure reporting.
type ReportConfig struct {
	SentryDSN   string  `json:"sentry_dsn"` // Empty disables Sentry
	Environment string  `json:"environment"`
	SampleRate  float64 `json:"sample_rate"` // Fraction of events sent, 0..1
}

// BatchConfig controls the batch runner.
type BatchConfig struct {
	Workers       int     `json:"workers"`
	RatePerSecond float64 `json:"rate_per_second"` // 0 means unlimited
}

// AudioConfig holds default settings for the audio tools.
type AudioConfig struct {
	NoiseMode          string  `json:"noise_mode"` // gate or spectral
	NoiseReduction     float64 `json:"noise_reduction"`
	Aggressive         bool    `json:"aggressive"`
	ReverbMode         string  `json:"reverb_mode"` // direct or fft
	RoomSize           float64 `json:"room_size"`
	Damping            float64 `json:"damping"`
	Wet                float64 `json:"wet"`
	SilenceThresholdDB float64 `json:"silence_threshold_db"`
	SilenceMinMS       int     `json:"silence_min_ms"`
	SilencePaddingMS   int     `json:"silence_padding_ms"`
	TargetRate         int     `json:"target_rate"` // 0 keeps the input rate
}

// ImageConfig holds default settings for the image tools.
type ImageConfig struct {
	PaletteColors     int     `json:"palette_colors"`
	WatermarkPosition string  `json:"watermark_position"`
	WatermarkOpacity  float64 `json:"watermark_opacity"`
}

// Config is the complete CLI configuration.
type Config struct {
	OutputDir    string        `json:"output_dir"`
	MaxInputSize int64         `json:"max_input_size"`
	Logging      LoggingConfig `json:"logging"`
	Report       ReportConfig  `json:"report"`
	Batch        BatchConfig   `json:"batch"`
	Audio        AudioConfig   `json:"audio"`
	Image        ImageConfig   `json:"image"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		OutputDir:    "out",
		MaxInputSize: limits.MaxInputFileSize,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Report: ReportConfig{
			Environment: "production",
			SampleRate:  1.0,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Audio: AudioConfig{
			NoiseMode:          "gate",
			NoiseReduction:     0.5,
			ReverbMode:         "direct",
			RoomSize:           0.5,
			Damping:            0.5,
			Wet:                0.3,
			SilenceThresholdDB: -40,
			SilenceMinMS:       500,
			SilencePaddingMS:   100,
		},
		Image: ImageConfig{
			PaletteColors:     5,
			WatermarkPosition: "bottom-right",
			WatermarkOpacity:  0.5,
		},
	}
}

func unit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %s must be between 0 and 1: %v", ErrInvalidConfig, name, v)
	}
	return nil
}

// Validate checks every value against its valid range.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory cannot be empty", ErrInvalidConfig)
	}
	if c.MaxInputSize <= 0 || c.MaxInputSize > limits.MaxInputFileSize {
		return fmt.Errorf("%w: max input size must be between 1 and %d: %d", ErrInvalidConfig, limits.MaxInputFileSize, c.MaxInputSize)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("%w: log format must be text or json: %q", ErrInvalidConfig, c.Logging.Format)
	}
	if err := unit("report sample rate", c.Report.SampleRate); err != nil {
		return err
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1: %d", ErrInvalidConfig, c.Batch.Workers)
	}
	if c.Batch.RatePerSecond < 0 {
		return fmt.Errorf("%w: rate cannot be negative: %v", ErrInvalidConfig, c.Batch.RatePerSecond)
	}

	if _, err := audio.ParseNoiseMode(c.Audio.NoiseMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := audio.ParseReverbMode(c.Audio.ReverbMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"noise reduction", c.Audio.NoiseReduction},
		{"room size", c.Audio.RoomSize},
		{"damping", c.Audio.Damping},
		{"wet", c.Audio.Wet},
		{"watermark opacity", c.Image.WatermarkOpacity},
	} {
		if err := unit(f.name, f.v); err != nil {
			return err
		}
	}
	if c.Audio.SilenceThresholdDB > 0 {
		return fmt.Errorf("%w: silence threshold must be <= 0 dBFS: %v", ErrInvalidConfig, c.Audio.SilenceThresholdDB)
	}
	if c.Audio.SilenceMinMS < 0 || c.Audio.SilencePaddingMS < 0 {
		return fmt.Errorf("%w: silence durations cannot be negative", ErrInvalidConfig)
	}
	if c.Audio.TargetRate < 0 {
		return fmt.Errorf("%w: target rate cannot be negative: %d", ErrInvalidConfig, c.Audio.TargetRate)
	}

	if err := limits.ValidatePaletteColors(c.Image.PaletteColors); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := imaging.ParsePosition(c.Image.WatermarkPosition); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// NoiseConfig converts the audio defaults into an audio.NoiseConfig.
func (a AudioConfig) NoiseConfig() (audio.NoiseConfig, error) {
	mode, err := audio.ParseNoiseMode(a.NoiseMode)
	if err != nil {
		return audio.NoiseConfig{}, err
	}
	return audio.NoiseConfig{
		Reduction:  a.NoiseReduction,
		Aggressive: a.Aggressive,
		Mode:       mode,
	}, nil
}

// ReverbConfig converts the audio defaults into an audio.ReverbConfig.
func (a AudioConfig) ReverbConfig() (audio.ReverbConfig, error) {
	mode, err := audio.ParseReverbMode(a.ReverbMode)
	if err != nil {
		return audio.ReverbConfig{}, err
	}
	return audio.ReverbConfig{
		RoomSize: a.RoomSize,
		Damping:  a.Damping,
		Wet:      a.Wet,
		Mode:     mode,
	}, nil
}

// SilenceConfig converts the audio defaults into an audio.SilenceConfig.
func (a AudioConfig) SilenceConfig() audio.SilenceConfig {
	return audio.SilenceConfig{
		ThresholdDB: a.SilenceThresholdDB,
		MinDuration: time.Duration(a.SilenceMinMS) * time.Millisecond,
		Padding:     time.Duration(a.SilencePaddingMS) * time.Millisecond,
	}
}
