// Package audio provides audio processing capabilities for toolsuniverse.
//
// This file implements noise reduction. Two strategies are available: a
// frame-based noise gate working in the time domain, and spectral subtraction
// over FFT frames.
package audio

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// NoiseMode selects the noise reduction strategy.
type NoiseMode int

const (
	// NoiseModeGate shapes per-sample gain inside Hann-windowed frames.
	NoiseModeGate NoiseMode = iota
	// NoiseModeSpectral subtracts an estimated noise floor from FFT magnitudes.
	NoiseModeSpectral
)

// String returns the mode name used in logs and CLI flags.
func (m NoiseMode) String() string {
	switch m {
	case NoiseModeGate:
		return "gate"
	case NoiseModeSpectral:
		return "spectral"
	default:
		return fmt.Sprintf("NoiseMode(%d)", int(m))
	}
}

// ParseNoiseMode converts a CLI name into a NoiseMode.
func ParseNoiseMode(name string) (NoiseMode, error) {
	switch name {
	case "gate", "":
		return NoiseModeGate, nil
	case "spectral":
		return NoiseModeSpectral, nil
	default:
		return 0, fmt.Errorf("%w: unknown noise mode %q", ErrInvalidParameter, name)
	}
}

const (
	gateFrameSize     = 2048
	gateHopSize       = gateFrameSize / 4 // 75% overlap
	spectralFrameSize = 2048
	spectralHopSize   = spectralFrameSize / 2

	// voiceRatio is how far a frame RMS must exceed the gate to count as voice.
	voiceRatio = 2.0

	overSubtraction = 2.0
	spectralFloor   = 0.1

	// noiseFloorFraction of the quietest frames seed the noise estimate.
	noiseFloorFraction = 0.1
)

// NoiseConfig controls noise reduction.
type NoiseConfig struct {
	Reduction  float64   // Strength, 0.0 = passthrough, 1.0 = maximum
	Aggressive bool      // Attenuate harder in the gate strategy
	NoiseGate  float64   // Linear gate level before scaling by Reduction (default 0.02)
	Mode       NoiseMode // Strategy
}

// gateGains holds the per-sample multipliers for one frame class.
type gateGains struct {
	below float64 // |s| under the gate threshold
	above float64 // |s| at or over the gate threshold
}

// gainsFor returns the attenuation used by the gate. Samples under the
// threshold are always attenuated more than samples above it.
func (c NoiseConfig) gainsFor(voice bool) gateGains {
	r := c.Reduction
	switch {
	case voice && c.Aggressive:
		return gateGains{below: 1 - 0.6*r, above: 1}
	case voice:
		return gateGains{below: 1 - 0.4*r, above: 1}
	case c.Aggressive:
		return gateGains{below: 1 - 0.95*r, above: 1 - 0.5*r}
	default:
		return gateGains{below: 1 - 0.8*r, above: 1 - 0.3*r}
	}
}

// ReduceNoise attenuates background noise.
//
// Parameters:
//   - buf: Input audio (not modified)
//   - cfg: Strength, mode and gate settings
//
// Returns:
//   - *Buffer: Processed audio, same layout and length as the input
//   - error: ErrEmptyBuffer or ErrInvalidParameter
func ReduceNoise(buf *Buffer, cfg NoiseConfig) (*Buffer, error) {
	if err := validateInput("ReduceNoise", buf); err != nil {
		return nil, err
	}
	if cfg.Reduction < 0 || cfg.Reduction > 1 {
		logrus.WithFields(logrus.Fields{
			"function":  "ReduceNoise",
			"reduction": cfg.Reduction,
			"error":     "reduction must be between 0.0 and 1.0",
		}).Error("Reduction validation failed")
		return nil, fmt.Errorf("%w: reduction must be between 0.0 and 1.0: %f", ErrInvalidParameter, cfg.Reduction)
	}
	if cfg.NoiseGate == 0 {
		cfg.NoiseGate = 0.02
	}
	if cfg.NoiseGate < 0 || cfg.NoiseGate > 1 {
		return nil, fmt.Errorf("%w: noise gate must be between 0.0 and 1.0: %f", ErrInvalidParameter, cfg.NoiseGate)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "ReduceNoise",
		"frames":     buf.Frames(),
		"channels":   buf.NumChannels(),
		"reduction":  cfg.Reduction,
		"aggressive": cfg.Aggressive,
		"mode":       cfg.Mode.String(),
	}).Info("Starting noise reduction")

	if cfg.Reduction == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "ReduceNoise",
		}).Debug("Zero reduction, returning copy")
		return buf.Clone(), nil
	}

	var out *Buffer
	switch cfg.Mode {
	case NoiseModeGate:
		out = buf.mapChannels(func(ch []float64) []float64 { return gateChannel(ch, cfg) })
	case NoiseModeSpectral:
		out = buf.mapChannels(func(ch []float64) []float64 { return spectralSubtract(ch, cfg.Reduction) })
	default:
		return nil, fmt.Errorf("%w: unknown noise mode %d", ErrInvalidParameter, int(cfg.Mode))
	}

	logrus.WithFields(logrus.Fields{
		"function": "ReduceNoise",
		"frames":   out.Frames(),
		"mode":     cfg.Mode.String(),
	}).Info("Noise reduction completed")

	return out, nil
}

// gateChannel runs the windowed noise gate over one channel.
//
// Each frame is classified by RMS, gain-shaped per sample, Hann windowed and
// overlap-added. Dividing by the accumulated window weight keeps unity gain
// where the frames overlap unevenly (start and end of the signal).
func gateChannel(samples []float64, cfg NoiseConfig) []float64 {
	threshold := cfg.NoiseGate * cfg.Reduction
	window := HannWindow(gateFrameSize)

	out := make([]float64, len(samples))
	weight := make([]float64, len(samples))
	frame := make([]float64, gateFrameSize)

	voiceFrames, noiseFrames := 0, 0
	for pos := -gateFrameSize + gateHopSize; pos < len(samples); pos += gateHopSize {
		for i := range frame {
			idx := pos + i
			if idx >= 0 && idx < len(samples) {
				frame[i] = samples[idx]
			} else {
				frame[i] = 0
			}
		}

		voice := rms(frame) > threshold*voiceRatio
		if voice {
			voiceFrames++
		} else {
			noiseFrames++
		}
		gains := cfg.gainsFor(voice)

		for i, s := range frame {
			idx := pos + i
			if idx < 0 || idx >= len(samples) {
				continue
			}
			g := gains.above
			if math.Abs(s) < threshold {
				g = gains.below
			}
			out[idx] += s * g * window[i]
			weight[idx] += window[i]
		}
	}

	for i := range out {
		if weight[i] > 1e-9 {
			out[i] /= weight[i]
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":     "gateChannel",
		"threshold":    threshold,
		"voice_frames": voiceFrames,
		"noise_frames": noiseFrames,
	}).Debug("Noise gate channel processed")

	return out
}

// spectralSubtract removes an estimated stationary noise spectrum.
//
// The noise floor is the mean magnitude spectrum of the quietest frames.
// Each frame magnitude is reduced by overSubtraction*reduction*floor and
// limited below by spectralFloor*magnitude to avoid musical noise.
func spectralSubtract(samples []float64, reduction float64) []float64 {
	window := HannWindow(spectralFrameSize)
	bins := spectralFrameSize/2 + 1

	// First pass: frame spectra and energies.
	type frameSpectrum struct {
		pos      int
		spectrum []complex128
		energy   float64
	}
	var frames []frameSpectrum
	for pos := -spectralFrameSize + spectralHopSize; pos < len(samples); pos += spectralHopSize {
		spectrum := make([]complex128, spectralFrameSize)
		var energy float64
		for i := range spectrum {
			idx := pos + i
			if idx >= 0 && idx < len(samples) {
				v := samples[idx] * window[i]
				spectrum[i] = complex(v, 0)
				energy += v * v
			}
		}
		FFT(spectrum)
		frames = append(frames, frameSpectrum{pos: pos, spectrum: spectrum, energy: energy})
	}

	// Noise floor from the quietest frames.
	order := make([]int, len(frames))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return frames[order[a]].energy < frames[order[b]].energy })
	count := int(math.Ceil(float64(len(frames)) * noiseFloorFraction))
	if count < 1 {
		count = 1
	}
	noiseFloor := make([]float64, bins)
	for _, fi := range order[:count] {
		for k := 0; k < bins; k++ {
			noiseFloor[k] += cmplxAbs(frames[fi].spectrum[k]) / float64(count)
		}
	}

	// Second pass: subtraction, inverse transform, overlap-add.
	out := make([]float64, len(samples))
	weight := make([]float64, len(samples))
	for _, f := range frames {
		for k := 0; k < bins; k++ {
			mag := cmplxAbs(f.spectrum[k])
			if mag == 0 {
				continue
			}
			subtracted := mag - overSubtraction*reduction*noiseFloor[k]
			if floor := spectralFloor * mag; subtracted < floor {
				subtracted = floor
			}
			ratio := subtracted / mag
			f.spectrum[k] *= complex(ratio, 0)
			if k > 0 && k < spectralFrameSize/2 {
				f.spectrum[spectralFrameSize-k] *= complex(ratio, 0)
			}
		}
		IFFT(f.spectrum)

		for i := range f.spectrum {
			idx := f.pos + i
			if idx < 0 || idx >= len(samples) {
				continue
			}
			out[idx] += real(f.spectrum[i]) * window[i]
			weight[idx] += window[i] * window[i]
		}
	}

	for i := range out {
		if weight[i] > 1e-9 {
			out[i] /= weight[i]
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":     "spectralSubtract",
		"frames":       len(frames),
		"noise_frames": count,
		"reduction":    reduction,
	}).Debug("Spectral subtraction channel processed")

	return out
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
