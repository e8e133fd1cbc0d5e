// Package audio provides audio processing capabilities for toolsuniverse.
//
// This file implements a convolution reverb driven by a synthesized impulse
// response.
package audio

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

// ReverbMode selects the convolution strategy.
type ReverbMode int

const (
	// ReverbModeDirect convolves in the time domain with a truncated impulse.
	ReverbModeDirect ReverbMode = iota
	// ReverbModeFFT convolves with the full impulse using FFT overlap-add.
	ReverbModeFFT
)

// String returns the mode name used in logs and CLI flags.
func (m ReverbMode) String() string {
	switch m {
	case ReverbModeDirect:
		return "direct"
	case ReverbModeFFT:
		return "fft"
	default:
		return fmt.Sprintf("ReverbMode(%d)", int(m))
	}
}

// ParseReverbMode converts a CLI name into a ReverbMode.
func ParseReverbMode(name string) (ReverbMode, error) {
	switch name {
	case "direct", "":
		return ReverbModeDirect, nil
	case "fft":
		return ReverbModeFFT, nil
	default:
		return 0, fmt.Errorf("%w: unknown reverb mode %q", ErrInvalidParameter, name)
	}
}

// DefaultTapLimit is the number of impulse samples used by direct convolution.
const DefaultTapLimit = 1000

// ReverbConfig controls the reverb.
type ReverbConfig struct {
	RoomSize float64    // 0..1, scales the impulse length
	Damping  float64    // 0..1, steepens the impulse decay
	Wet      float64    // 0..1, dry/wet mix
	Seed     uint64     // Noise seed for the impulse response
	Mode     ReverbMode // Convolution strategy
	TapLimit int        // Direct mode truncation (default 1000)
}

// SynthesizeImpulse builds an impulse response of exponentially decaying
// white noise.
//
// The length is (0.1 + 2.9*roomSize) seconds and the envelope is
// (1 - i/len)^(2 + 8*damping). The same seed always yields the same impulse.
func SynthesizeImpulse(sampleRate int, roomSize, damping float64, seed uint64) []float64 {
	length := int((0.1 + 2.9*roomSize) * float64(sampleRate))
	if length < 1 {
		length = 1
	}
	decay := 2 + 8*damping
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	impulse := make([]float64, length)
	for i := range impulse {
		envelope := math.Pow(1-float64(i)/float64(length), decay)
		impulse[i] = (rng.Float64()*2 - 1) * envelope
	}
	return impulse
}

// ApplyReverb mixes a convolved copy of the signal back into the dry signal.
//
// Output = dry*(1-wet) + convolved*wet*0.5. The output has the same length as
// the input; the reverb tail past the end of the input is discarded.
//
// Parameters:
//   - buf: Input audio (not modified)
//   - cfg: Room, damping, mix and convolution settings
//
// Returns:
//   - *Buffer: Processed audio
//   - error: ErrEmptyBuffer or ErrInvalidParameter
func ApplyReverb(buf *Buffer, cfg ReverbConfig) (*Buffer, error) {
	if err := validateInput("ApplyReverb", buf); err != nil {
		return nil, err
	}
	params := []struct {
		name  string
		value float64
	}{{"room size", cfg.RoomSize}, {"damping", cfg.Damping}, {"wet", cfg.Wet}}
	for _, p := range params {
		if p.value < 0 || p.value > 1 {
			logrus.WithFields(logrus.Fields{
				"function":  "ApplyReverb",
				"parameter": p.name,
				"value":     p.value,
			}).Error("Reverb parameter validation failed")
			return nil, fmt.Errorf("%w: %s must be between 0.0 and 1.0: %f", ErrInvalidParameter, p.name, p.value)
		}
	}
	if cfg.TapLimit == 0 {
		cfg.TapLimit = DefaultTapLimit
	}
	if cfg.TapLimit < 0 {
		return nil, fmt.Errorf("%w: tap limit cannot be negative: %d", ErrInvalidParameter, cfg.TapLimit)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "ApplyReverb",
		"frames":    buf.Frames(),
		"room_size": cfg.RoomSize,
		"damping":   cfg.Damping,
		"wet":       cfg.Wet,
		"mode":      cfg.Mode.String(),
	}).Info("Starting reverb")

	if cfg.Wet == 0 {
		return buf.Clone(), nil
	}

	impulse := SynthesizeImpulse(buf.SampleRate, cfg.RoomSize, cfg.Damping, cfg.Seed)

	var convolve func([]float64) []float64
	switch cfg.Mode {
	case ReverbModeDirect:
		taps := impulse
		if len(taps) > cfg.TapLimit {
			taps = taps[:cfg.TapLimit]
		}
		convolve = func(ch []float64) []float64 { return convolveDirect(ch, taps) }
	case ReverbModeFFT:
		convolve = func(ch []float64) []float64 { return ConvolveFFT(ch, impulse, len(ch)) }
	default:
		return nil, fmt.Errorf("%w: unknown reverb mode %d", ErrInvalidParameter, int(cfg.Mode))
	}

	dry := 1 - cfg.Wet
	wet := cfg.Wet * 0.5
	out := buf.mapChannels(func(ch []float64) []float64 {
		conv := convolve(ch)
		mixed := make([]float64, len(ch))
		for i, s := range ch {
			mixed[i] = s*dry + conv[i]*wet
		}
		return mixed
	})

	logrus.WithFields(logrus.Fields{
		"function":       "ApplyReverb",
		"impulse_length": len(impulse),
		"frames":         out.Frames(),
	}).Info("Reverb completed")

	return out, nil
}

// convolveDirect computes y[n] = sum_k x[n-k]*h[k] for n < len(x).
func convolveDirect(x, h []float64) []float64 {
	y := make([]float64, len(x))
	for n := range y {
		var acc float64
		kMax := len(h)
		if n+1 < kMax {
			kMax = n + 1
		}
		for k := 0; k < kMax; k++ {
			acc += x[n-k] * h[k]
		}
		y[n] = acc
	}
	return y
}

// ConvolveFFT computes the linear convolution of x and h with partitioned
// overlap-add and returns the first outLen samples (outLen <= 0 means the full
// len(x)+len(h)-1 result).
func ConvolveFFT(x, h []float64, outLen int) []float64 {
	if len(x) == 0 || len(h) == 0 {
		return []float64{}
	}
	full := len(x) + len(h) - 1
	if outLen <= 0 || outLen > full {
		outLen = full
	}
	out := make([]float64, outLen)

	size := NextPowerOfTwo(2 * len(h))
	block := size - len(h) + 1

	kernel := make([]complex128, size)
	for i, v := range h {
		kernel[i] = complex(v, 0)
	}
	FFT(kernel)

	segment := make([]complex128, size)
	for start := 0; start < len(x) && start < outLen; start += block {
		end := start + block
		if end > len(x) {
			end = len(x)
		}
		for i := range segment {
			segment[i] = 0
		}
		for i, v := range x[start:end] {
			segment[i] = complex(v, 0)
		}
		FFT(segment)
		for i := range segment {
			segment[i] *= kernel[i]
		}
		IFFT(segment)

		for i := range segment {
			idx := start + i
			if idx >= outLen {
				break
			}
			out[idx] += real(segment[i])
		}
	}
	return out
}
