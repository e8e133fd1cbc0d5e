package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opd-ai/toolsuniverse/av/audio"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 5, cfg.Image.PaletteColors)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"zero input size", func(c *Config) { c.MaxInputSize = 0 }},
		{"huge input size", func(c *Config) { c.MaxInputSize = 1 << 40 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"sample rate above one", func(c *Config) { c.Report.SampleRate = 1.5 }},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"negative rate", func(c *Config) { c.Batch.RatePerSecond = -1 }},
		{"bad noise mode", func(c *Config) { c.Audio.NoiseMode = "wiener" }},
		{"bad reverb mode", func(c *Config) { c.Audio.ReverbMode = "plate" }},
		{"reduction above one", func(c *Config) { c.Audio.NoiseReduction = 2 }},
		{"negative wet", func(c *Config) { c.Audio.Wet = -0.1 }},
		{"positive silence threshold", func(c *Config) { c.Audio.SilenceThresholdDB = 3 }},
		{"negative padding", func(c *Config) { c.Audio.SilencePaddingMS = -1 }},
		{"negative target rate", func(c *Config) { c.Audio.TargetRate = -8000 }},
		{"too many colours", func(c *Config) { c.Image.PaletteColors = 64 }},
		{"bad position", func(c *Config) { c.Image.WatermarkPosition = "middle" }},
		{"opacity above one", func(c *Config) { c.Image.WatermarkOpacity = 1.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"output_dir": "results",
		"batch": {"workers": 2},
		"audio": {"noise_mode": "spectral"}
	}`), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, LoadFile(path, cfg))
	assert.Equal(t, "results", cfg.OutputDir)
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Equal(t, "spectral", cfg.Audio.NoiseMode)
	assert.Equal(t, 0.5, cfg.Audio.NoiseReduction, "unset fields keep defaults")

	t.Run("unknown field", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"colour": "blue"}`), 0o644))
		assert.ErrorIs(t, LoadFile(bad, DefaultConfig()), ErrInvalidConfig)
	})

	t.Run("missing file", func(t *testing.T) {
		err := LoadFile(filepath.Join(dir, "nope.json"), DefaultConfig())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SENTRY_DSN", "")
	t.Setenv(EnvPrefix+"WORKERS", "8")
	t.Setenv(EnvPrefix+"WET", "0.75")
	t.Setenv(EnvPrefix+"AGGRESSIVE", "true")
	t.Setenv(EnvPrefix+"OUTPUT_DIR", "/tmp/tu")
	t.Setenv(EnvPrefix+"SENTRY_DSN", "https://key@example.com/1")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 0.75, cfg.Audio.Wet)
	assert.True(t, cfg.Audio.Aggressive)
	assert.Equal(t, "/tmp/tu", cfg.OutputDir)
	assert.Equal(t, "https://key@example.com/1", cfg.Report.SentryDSN)

	t.Run("parse error", func(t *testing.T) {
		t.Setenv(EnvPrefix+"WORKERS", "many")
		assert.ErrorIs(t, ApplyEnv(DefaultConfig()), ErrInvalidConfig)
	})
}

func TestApplyEnvPlainSentryDSN(t *testing.T) {
	t.Setenv("SENTRY_DSN", "https://plain@example.com/2")
	t.Setenv(EnvPrefix+"SENTRY_DSN", "")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, "https://plain@example.com/2", cfg.Report.SentryDSN)
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"batch": {"workers": 2, "rate_per_second": 1}}`), 0o644))
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TOOLSUNIVERSE_PALETTE_COLORS=9\nTOOLSUNIVERSE_RATE=9\n"), 0o644))

	t.Setenv("SENTRY_DSN", "")
	t.Setenv(EnvPrefix+"RATE", "3")
	t.Cleanup(func() { os.Unsetenv(EnvPrefix + "PALETTE_COLORS") })

	cfg, err := Load(jsonPath, envPath)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Batch.Workers, "from file")
	assert.Equal(t, 9, cfg.Image.PaletteColors, "from .env")
	assert.Equal(t, 3.0, cfg.Batch.RatePerSecond, "environment wins over .env")
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	t.Setenv("SENTRY_DSN", "")
	cfg, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().OutputDir, cfg.OutputDir)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("SENTRY_DSN", "")
	t.Setenv(EnvPrefix+"WORKERS", "0")
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAudioConversions(t *testing.T) {
	a := DefaultConfig().Audio
	a.NoiseMode = "spectral"
	a.ReverbMode = "fft"

	nc, err := a.NoiseConfig()
	require.NoError(t, err)
	assert.Equal(t, audio.NoiseModeSpectral, nc.Mode)
	assert.Equal(t, 0.5, nc.Reduction)

	rc, err := a.ReverbConfig()
	require.NoError(t, err)
	assert.Equal(t, audio.ReverbModeFFT, rc.Mode)
	assert.Equal(t, 0.3, rc.Wet)

	sc := a.SilenceConfig()
	assert.Equal(t, -40.0, sc.ThresholdDB)
	assert.Equal(t, 500*time.Millisecond, sc.MinDuration)
	assert.Equal(t, 100*time.Millisecond, sc.Padding)

	a.NoiseMode = "bogus"
	_, err = a.NoiseConfig()
	assert.ErrorIs(t, err, audio.ErrInvalidParameter)
}

func TestConfigureLogging(t *testing.T) {
	prevLevel := logrus.GetLevel()
	t.Cleanup(func() {
		logrus.SetLevel(prevLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	require.NoError(t, ConfigureLogging(LoggingConfig{Level: "debug", Format: "json"}))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	_, isJSON := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	assert.ErrorIs(t, ConfigureLogging(LoggingConfig{Level: "nope"}), ErrInvalidConfig)
	assert.ErrorIs(t, ConfigureLogging(LoggingConfig{Level: "info", Format: "yaml"}), ErrInvalidConfig)
}
