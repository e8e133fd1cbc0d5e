package audio

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// MaxChannels is the largest channel count accepted by Buffer.Validate.
const MaxChannels = 8

// Buffer holds decoded PCM audio as planar float64 samples.
//
// Samples are nominally in the [-1.0, 1.0] range. Channels[c][i] is sample i
// of channel c; every channel must have the same length. Processing functions
// in this package never modify their input buffer.
type Buffer struct {
	SampleRate int
	Channels   [][]float64
}

// NewBuffer allocates a zeroed buffer with the given layout.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	buf := &Buffer{
		SampleRate: sampleRate,
		Channels:   make([][]float64, channels),
	}
	for c := range buf.Channels {
		buf.Channels[c] = make([]float64, frames)
	}
	return buf
}

// NewMonoBuffer wraps a single channel of samples without copying.
func NewMonoBuffer(sampleRate int, samples []float64) *Buffer {
	return &Buffer{
		SampleRate: sampleRate,
		Channels:   [][]float64{samples},
	}
}

// FromInterleaved builds a planar buffer from interleaved samples.
//
// Parameters:
//   - samples: Interleaved samples (frame 0 ch 0, frame 0 ch 1, ...)
//   - sampleRate: Sample rate in Hz
//   - channels: Number of interleaved channels
//
// Returns:
//   - *Buffer: New planar buffer
//   - error: Validation error if the layout is inconsistent
func FromInterleaved(samples []float64, sampleRate, channels int) (*Buffer, error) {
	if channels < 1 || channels > MaxChannels {
		return nil, fmt.Errorf("%w: channel count %d (must be 1-%d)", ErrInvalidBuffer, channels, MaxChannels)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples not aligned to %d channels", ErrInvalidBuffer, len(samples), channels)
	}

	frames := len(samples) / channels
	buf := NewBuffer(sampleRate, channels, frames)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			buf.Channels[c][i] = samples[i*channels+c]
		}
	}
	return buf, nil
}

// Interleaved returns the samples in interleaved order.
func (b *Buffer) Interleaved() []float64 {
	channels := b.NumChannels()
	frames := b.Frames()
	out := make([]float64, frames*channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out[i*channels+c] = b.Channels[c][i]
		}
	}
	return out
}

// NumChannels returns the number of channels.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// Frames returns the number of samples per channel.
func (b *Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate) * float64(time.Second))
}

// Mono returns the channel average. For mono buffers the channel is copied.
func (b *Buffer) Mono() []float64 {
	frames := b.Frames()
	out := make([]float64, frames)
	if len(b.Channels) == 0 {
		return out
	}
	if len(b.Channels) == 1 {
		copy(out, b.Channels[0])
		return out
	}

	scale := 1.0 / float64(len(b.Channels))
	for _, ch := range b.Channels {
		for i, s := range ch {
			out[i] += s * scale
		}
	}
	return out
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		SampleRate: b.SampleRate,
		Channels:   make([][]float64, len(b.Channels)),
	}
	for c, ch := range b.Channels {
		out.Channels[c] = append([]float64(nil), ch...)
	}
	return out
}

// Validate checks the buffer layout.
//
// A valid buffer has a positive sample rate, between 1 and MaxChannels
// channels, and channels of equal length.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidBuffer, b.SampleRate)
	}
	if len(b.Channels) == 0 || len(b.Channels) > MaxChannels {
		return fmt.Errorf("%w: channel count %d (must be 1-%d)", ErrInvalidBuffer, len(b.Channels), MaxChannels)
	}
	frames := len(b.Channels[0])
	for c, ch := range b.Channels {
		if len(ch) != frames {
			return fmt.Errorf("%w: channel %d has %d samples, expected %d", ErrInvalidBuffer, c, len(ch), frames)
		}
	}
	return nil
}

// validateInput is shared by the processing entry points: the buffer must be
// well formed and non-empty.
func validateInput(function string, b *Buffer) error {
	if err := b.Validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": function,
			"error":    err.Error(),
		}).Error("Buffer validation failed")
		return err
	}
	if b.Frames() == 0 {
		logrus.WithFields(logrus.Fields{
			"function": function,
			"error":    ErrEmptyBuffer.Error(),
		}).Error("Buffer validation failed")
		return ErrEmptyBuffer
	}
	return nil
}

// mapChannels applies fn to every channel and assembles a new buffer.
func (b *Buffer) mapChannels(fn func([]float64) []float64) *Buffer {
	out := &Buffer{
		SampleRate: b.SampleRate,
		Channels:   make([][]float64, len(b.Channels)),
	}
	for c, ch := range b.Channels {
		out.Channels[c] = fn(ch)
	}
	return out
}

// clampSample limits a sample to the nominal [-1, 1] range.
func clampSample(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return s
}
