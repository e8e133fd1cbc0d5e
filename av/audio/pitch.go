// Package audio provides audio processing capabilities for toolsuniverse.
//
// This file implements pitch shifting, either by plain resampling (which also
// changes the duration) or by resampling inside overlapping windowed frames
// (which keeps the duration).
package audio

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

const (
	// MaxSemitones bounds the shift in either direction.
	MaxSemitones = 24.0

	// DefaultPitchFrameSize is the overlap-add frame length.
	DefaultPitchFrameSize = 4096
)

// PitchConfig controls pitch shifting.
type PitchConfig struct {
	Semitones      float64 // Shift amount, -24..24
	PreserveTiming bool    // Keep the original duration
	FrameSize      int     // Overlap-add frame size (default 4096, power of two)
}

// PitchRatio converts a semitone offset into a frequency ratio.
func PitchRatio(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}

// ShiftPitch changes the pitch of the signal.
//
// Without PreserveTiming the buffer is resampled by the pitch ratio, so the
// output is 1/ratio times as long. With PreserveTiming each Hann-windowed
// frame is resampled in place and overlap-added; the duration is unchanged
// but there is no phase correction, so artifacts grow with the shift size.
//
// Parameters:
//   - buf: Input audio (not modified)
//   - cfg: Shift amount and mode
//
// Returns:
//   - *Buffer: Shifted audio
//   - error: ErrEmptyBuffer or ErrInvalidParameter
func ShiftPitch(buf *Buffer, cfg PitchConfig) (*Buffer, error) {
	if err := validateInput("ShiftPitch", buf); err != nil {
		return nil, err
	}
	if math.IsNaN(cfg.Semitones) || math.Abs(cfg.Semitones) > MaxSemitones {
		logrus.WithFields(logrus.Fields{
			"function":  "ShiftPitch",
			"semitones": cfg.Semitones,
			"error":     "semitones out of range",
		}).Error("Pitch validation failed")
		return nil, fmt.Errorf("%w: semitones must be between -%.0f and %.0f: %f", ErrInvalidParameter, MaxSemitones, MaxSemitones, cfg.Semitones)
	}
	if cfg.FrameSize == 0 {
		cfg.FrameSize = DefaultPitchFrameSize
	}
	if cfg.FrameSize < 64 || cfg.FrameSize&(cfg.FrameSize-1) != 0 {
		return nil, fmt.Errorf("%w: frame size must be a power of 2 >= 64: %d", ErrInvalidParameter, cfg.FrameSize)
	}

	ratio := PitchRatio(cfg.Semitones)

	logrus.WithFields(logrus.Fields{
		"function":        "ShiftPitch",
		"frames":          buf.Frames(),
		"semitones":       cfg.Semitones,
		"ratio":           ratio,
		"preserve_timing": cfg.PreserveTiming,
	}).Info("Starting pitch shift")

	if cfg.Semitones == 0 {
		return buf.Clone(), nil
	}

	if !cfg.PreserveTiming {
		r, err := newRatioResampler(ratio, buf.NumChannels())
		if err != nil {
			return nil, err
		}
		out, err := r.Resample(buf.Interleaved())
		if err != nil {
			return nil, fmt.Errorf("pitch resampling failed: %w", err)
		}
		return FromInterleaved(out, buf.SampleRate, buf.NumChannels())
	}

	out := buf.mapChannels(func(ch []float64) []float64 {
		return shiftFrames(ch, ratio, cfg.FrameSize)
	})

	logrus.WithFields(logrus.Fields{
		"function": "ShiftPitch",
		"frames":   out.Frames(),
	}).Info("Pitch shift completed")

	return out, nil
}

// shiftFrames resamples each windowed frame by ratio and overlap-adds it at
// its original position. Reads past the end of a frame contribute silence.
// The output is divided by the summed window weight at the resampled read
// positions, so a coherent signal keeps its level.
func shiftFrames(samples []float64, ratio float64, frameSize int) []float64 {
	hop := frameSize / 4
	window := HannWindow(frameSize)

	out := make([]float64, len(samples))
	weight := make([]float64, len(samples))
	frame := make([]float64, frameSize)

	for pos := -frameSize + hop; pos < len(samples); pos += hop {
		for i := range frame {
			idx := pos + i
			if idx >= 0 && idx < len(samples) {
				frame[i] = samples[idx] * window[i]
			} else {
				frame[i] = 0
			}
		}

		for j := 0; j < frameSize; j++ {
			idx := pos + j
			if idx < 0 || idx >= len(samples) {
				continue
			}
			src := float64(j) * ratio
			lo := int(src)
			var v, w float64
			if lo < frameSize-1 {
				frac := src - float64(lo)
				v = frame[lo]*(1-frac) + frame[lo+1]*frac
				w = window[lo]*(1-frac) + window[lo+1]*frac
			} else if lo == frameSize-1 {
				v = frame[lo]
				w = window[lo]
			}
			out[idx] += v
			weight[idx] += w
		}
	}

	for i := range out {
		if weight[i] > 1e-9 {
			out[i] /= weight[i]
		}
	}
	return out
}
