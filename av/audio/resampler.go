// Package audio provides audio processing capabilities for toolsuniverse.
//
// This module implements sample rate conversion. It is used to bring inputs
// to a common rate and, driven by a frequency ratio instead of two rates, by
// the duration-changing pitch shifter.
package audio

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Resampler provides audio sample rate conversion functionality.
//
// Uses linear interpolation, which is cheap and good enough for the tools in
// this package. A Resampler keeps the fractional read position between calls,
// so a stream fed in chunks yields as many output frames as a single call.
// Output frames that fall after the last input frame of a chunk repeat that
// frame. It should be used for a single stream.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64 // Input frames consumed per output frame
	position   float64 // Current fractional position in the next chunk
}

// ResamplerConfig holds configuration for creating a resampler.
type ResamplerConfig struct {
	InputRate  int // Input sample rate in Hz
	OutputRate int // Output sample rate in Hz
	Channels   int // Number of interleaved channels (1-8)
}

// NewResampler creates a new audio resampler instance.
//
// Parameters:
//   - config: Resampler configuration
//
// Returns:
//   - *Resampler: New resampler instance
//   - error: ErrInvalidParameter for bad rates or channel counts
func NewResampler(config ResamplerConfig) (*Resampler, error) {
	logrus.WithFields(logrus.Fields{
		"function":    "NewResampler",
		"input_rate":  config.InputRate,
		"output_rate": config.OutputRate,
		"channels":    config.Channels,
	}).Info("Creating new audio resampler")

	if config.InputRate <= 0 || config.OutputRate <= 0 {
		logrus.WithFields(logrus.Fields{
			"function":    "NewResampler",
			"input_rate":  config.InputRate,
			"output_rate": config.OutputRate,
			"error":       "invalid sample rates",
		}).Error("Sample rate validation failed")
		return nil, fmt.Errorf("%w: invalid sample rates: input=%d, output=%d", ErrInvalidParameter, config.InputRate, config.OutputRate)
	}

	r, err := newRatioResampler(float64(config.InputRate)/float64(config.OutputRate), config.Channels)
	if err != nil {
		return nil, err
	}
	r.inputRate = config.InputRate
	r.outputRate = config.OutputRate

	logrus.WithFields(logrus.Fields{
		"function":    "NewResampler",
		"input_rate":  r.inputRate,
		"output_rate": r.outputRate,
		"channels":    r.channels,
		"ratio":       r.ratio,
	}).Info("Audio resampler created successfully")

	return r, nil
}

// newRatioResampler builds a resampler from a step ratio rather than rates.
// A ratio above 1 shortens the signal and raises its pitch.
func newRatioResampler(ratio float64, channels int) (*Resampler, error) {
	if channels < 1 || channels > MaxChannels {
		logrus.WithFields(logrus.Fields{
			"function": "newRatioResampler",
			"channels": channels,
			"error":    "unsupported channel count",
		}).Error("Channel count validation failed")
		return nil, fmt.Errorf("%w: unsupported channel count: %d (must be 1-%d)", ErrInvalidParameter, channels, MaxChannels)
	}
	if ratio <= 0 {
		return nil, fmt.Errorf("%w: resampling ratio must be positive: %f", ErrInvalidParameter, ratio)
	}
	return &Resampler{
		channels: channels,
		ratio:    ratio,
	}, nil
}

// validateResamplerInput checks that the input is non-empty and aligned to
// the configured channel count.
func validateResamplerInput(input []float64, channels int) error {
	if len(input) == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "validateResamplerInput",
			"error":    "empty input samples",
		}).Error("Input validation failed")
		return ErrEmptyBuffer
	}

	if len(input)%channels != 0 {
		logrus.WithFields(logrus.Fields{
			"function":     "validateResamplerInput",
			"input_length": len(input),
			"channels":     channels,
			"remainder":    len(input) % channels,
			"error":        "samples not aligned to channel count",
		}).Error("Input alignment validation failed")
		return fmt.Errorf("%w: input samples (%d) not aligned to channel count (%d)", ErrInvalidBuffer, len(input), channels)
	}

	return nil
}

// interpolateSample performs linear interpolation for a single channel sample.
//
// Indices at the upper boundary hold the last available frame.
func interpolateSample(input []float64, inputIndex int, frac float64, ch, channels, inputFrames int) float64 {
	if inputIndex >= inputFrames-1 {
		if inputIndex < inputFrames {
			return input[inputIndex*channels+ch]
		}
		return input[len(input)-channels+ch]
	}
	sample1 := input[inputIndex*channels+ch]
	sample2 := input[(inputIndex+1)*channels+ch]
	return sample1*(1.0-frac) + sample2*frac
}

// Resample converts interleaved samples from the input rate to the output rate.
//
// Parameters:
//   - input: Interleaved samples
//
// Returns:
//   - []float64: Resampled interleaved samples
//   - error: ErrEmptyBuffer or ErrInvalidBuffer for malformed input
func (r *Resampler) Resample(input []float64) ([]float64, error) {
	logrus.WithFields(logrus.Fields{
		"function":     "Resample",
		"input_length": len(input),
		"ratio":        r.ratio,
		"channels":     r.channels,
		"position":     r.position,
	}).Debug("Starting audio resampling")

	if err := validateResamplerInput(input, r.channels); err != nil {
		return nil, err
	}

	// Same-rate optimization
	if r.ratio == 1.0 {
		result := make([]float64, len(input))
		copy(result, input)
		return result, nil
	}

	inputFrames := len(input) / r.channels
	outputFrames := 0
	for pos := r.position; pos < float64(inputFrames); pos += r.ratio {
		outputFrames++
	}
	output := make([]float64, 0, outputFrames*r.channels)

	for outputFrame := 0; outputFrame < outputFrames; outputFrame++ {
		inputIndex := int(r.position)
		frac := r.position - float64(inputIndex)

		for ch := 0; ch < r.channels; ch++ {
			output = append(output, interpolateSample(input, inputIndex, frac, ch, r.channels, inputFrames))
		}

		r.position += r.ratio
	}

	// Carry the fractional position into the next call.
	r.position -= float64(inputFrames)

	logrus.WithFields(logrus.Fields{
		"function":       "Resample",
		"input_frames":   inputFrames,
		"output_frames":  len(output) / r.channels,
		"ratio":          r.ratio,
		"final_position": r.position,
	}).Debug("Audio resampling completed successfully")

	return output, nil
}

// GetInputRate returns the configured input sample rate (0 for ratio-driven resamplers).
func (r *Resampler) GetInputRate() int {
	return r.inputRate
}

// GetOutputRate returns the configured output sample rate (0 for ratio-driven resamplers).
func (r *Resampler) GetOutputRate() int {
	return r.outputRate
}

// GetChannels returns the configured number of channels.
func (r *Resampler) GetChannels() int {
	return r.channels
}

// CalculateOutputSize estimates the output frame count for a given input
// frame count when processed in a single call from a reset state.
func (r *Resampler) CalculateOutputSize(inputFrames int) int {
	if r.ratio == 1.0 {
		return inputFrames
	}
	n := 0
	for pos := 0.0; pos < float64(inputFrames); pos += r.ratio {
		n++
	}
	return n
}

// Reset clears the stream position.
//
// This is useful when starting a new audio stream or when there's
// a discontinuity in the audio data.
func (r *Resampler) Reset() {
	logrus.WithFields(logrus.Fields{
		"function":     "Reset",
		"old_position": r.position,
	}).Debug("Resetting resampler state")

	r.position = 0.0
}

// ResampleBuffer converts a whole buffer to a new sample rate.
//
// Parameters:
//   - buf: Input audio (not modified)
//   - outputRate: Target sample rate in Hz
//
// Returns:
//   - *Buffer: Buffer at outputRate
//   - error: Validation error
func ResampleBuffer(buf *Buffer, outputRate int) (*Buffer, error) {
	if err := validateInput("ResampleBuffer", buf); err != nil {
		return nil, err
	}
	if buf.SampleRate == outputRate {
		return buf.Clone(), nil
	}

	r, err := NewResampler(ResamplerConfig{
		InputRate:  buf.SampleRate,
		OutputRate: outputRate,
		Channels:   buf.NumChannels(),
	})
	if err != nil {
		return nil, err
	}

	out, err := r.Resample(buf.Interleaved())
	if err != nil {
		return nil, fmt.Errorf("resampling failed: %w", err)
	}
	return FromInterleaved(out, outputRate, buf.NumChannels())
}
