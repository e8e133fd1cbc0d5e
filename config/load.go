package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "TOOLSUNIVERSE_"

// Load builds the configuration from defaults, the optional JSON file at
// path, the optional .env files and the environment, then validates it.
//
// Parameters:
//   - path: JSON config file, or "" for none
//   - envFiles: .env files to load; none means ".env" in the working directory
//
// Returns:
//   - *Config: Validated configuration
//   - error: File, parse or validation error (ErrInvalidConfig)
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Load",
		"file":       path,
		"output_dir": cfg.OutputDir,
		"workers":    cfg.Batch.Workers,
		"sentry":     cfg.Report.SentryDSN != "",
	}).Debug("Configuration loaded")

	return cfg, nil
}

// LoadFile overlays the JSON file at path onto cfg. Fields missing from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	// #nosec G304 - config path comes from the operator
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	decoder := json.NewDecoder(f)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored and variables already set are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, name := range files {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logrus.WithFields(logrus.Fields{
					"function": "LoadDotEnv",
					"file":     name,
				}).Debug("No .env file found")
				continue
			}
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
		logrus.WithFields(logrus.Fields{
			"function": "LoadDotEnv",
			"file":     name,
		}).Debug("Loaded .env file")
	}
	return nil
}

type envBinding struct {
	name  string
	apply func(string) error
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setInt64(dst *int64) func(string) error {
	return func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setFloat(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func (c *Config) envBindings() []envBinding {
	return []envBinding{
		{"OUTPUT_DIR", setString(&c.OutputDir)},
		{"MAX_INPUT_SIZE", setInt64(&c.MaxInputSize)},
		{"LOG_LEVEL", setString(&c.Logging.Level)},
		{"LOG_FORMAT", setString(&c.Logging.Format)},
		{"SENTRY_DSN", setString(&c.Report.SentryDSN)},
		{"ENVIRONMENT", setString(&c.Report.Environment)},
		{"SENTRY_SAMPLE_RATE", setFloat(&c.Report.SampleRate)},
		{"WORKERS", setInt(&c.Batch.Workers)},
		{"RATE", setFloat(&c.Batch.RatePerSecond)},
		{"NOISE_MODE", setString(&c.Audio.NoiseMode)},
		{"NOISE_REDUCTION", setFloat(&c.Audio.NoiseReduction)},
		{"AGGRESSIVE", setBool(&c.Audio.Aggressive)},
		{"REVERB_MODE", setString(&c.Audio.ReverbMode)},
		{"ROOM_SIZE", setFloat(&c.Audio.RoomSize)},
		{"DAMPING", setFloat(&c.Audio.Damping)},
		{"WET", setFloat(&c.Audio.Wet)},
		{"SILENCE_THRESHOLD_DB", setFloat(&c.Audio.SilenceThresholdDB)},
		{"SILENCE_MIN_MS", setInt(&c.Audio.SilenceMinMS)},
		{"SILENCE_PADDING_MS", setInt(&c.Audio.SilencePaddingMS)},
		{"TARGET_RATE", setInt(&c.Audio.TargetRate)},
		{"PALETTE_COLORS", setInt(&c.Image.PaletteColors)},
		{"WATERMARK_POSITION", setString(&c.Image.WatermarkPosition)},
		{"WATERMARK_OPACITY", setFloat(&c.Image.WatermarkOpacity)},
	}
}

// ApplyEnv overrides cfg with TOOLSUNIVERSE_* environment variables. The
// conventional SENTRY_DSN variable is honoured when TOOLSUNIVERSE_SENTRY_DSN
// is unset.
func ApplyEnv(cfg *Config) error {
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		cfg.Report.SentryDSN = dsn
	}
	for _, b := range cfg.envBindings() {
		v, ok := os.LookupEnv(EnvPrefix + b.name)
		if !ok || v == "" {
			continue
		}
		if err := b.apply(v); err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidConfig, EnvPrefix, b.name, v, err)
		}
	}
	return nil
}

// ConfigureLogging applies the logging settings to the global logrus logger.
func ConfigureLogging(lc LoggingConfig) error {
	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	logrus.SetLevel(level)

	switch lc.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("%w: log format must be text or json: %q", ErrInvalidConfig, lc.Format)
	}
	return nil
}
