package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Trim returns the [start, end) portion of the buffer. An end of zero or past
// the buffer means "to the end".
func Trim(buf *Buffer, start, end time.Duration) (*Buffer, error) {
	if err := validateInput("Trim", buf); err != nil {
		return nil, err
	}
	frames := buf.Frames()
	from := int(start.Seconds() * float64(buf.SampleRate))
	to := frames
	if end > 0 {
		to = int(end.Seconds() * float64(buf.SampleRate))
	}
	if to > frames {
		to = frames
	}
	if from < 0 || from >= to {
		logrus.WithFields(logrus.Fields{
			"function": "Trim",
			"start":    start,
			"end":      end,
			"duration": buf.Duration(),
		}).Error("Trim range validation failed")
		return nil, fmt.Errorf("%w: trim range %v-%v outside buffer of %v", ErrInvalidParameter, start, end, buf.Duration())
	}

	return buf.mapChannels(func(ch []float64) []float64 {
		return append([]float64(nil), ch[from:to]...)
	}), nil
}

// Peak returns the largest absolute sample across all channels.
func Peak(buf *Buffer) float64 {
	var peak float64
	for _, ch := range buf.Channels {
		for _, s := range ch {
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// Normalize scales the buffer so its peak equals target (0 < target <= 1).
// A silent buffer is returned unchanged.
func Normalize(buf *Buffer, target float64) (*Buffer, error) {
	if err := validateInput("Normalize", buf); err != nil {
		return nil, err
	}
	if target <= 0 || target > 1 {
		return nil, fmt.Errorf("%w: normalize target must be in (0, 1]: %f", ErrInvalidParameter, target)
	}
	peak := Peak(buf)
	if peak == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "Normalize",
		}).Warn("Silent buffer, nothing to normalize")
		return buf.Clone(), nil
	}

	gain := target / peak
	logrus.WithFields(logrus.Fields{
		"function": "Normalize",
		"peak":     peak,
		"target":   target,
		"gain":     gain,
	}).Debug("Normalizing buffer")

	return buf.mapChannels(func(ch []float64) []float64 {
		out := make([]float64, len(ch))
		for i, s := range ch {
			out[i] = s * gain
		}
		return out
	}), nil
}

// Fade applies linear fade-in and fade-out ramps. Ramps longer than the
// buffer are shortened to fit.
func Fade(buf *Buffer, fadeIn, fadeOut time.Duration) (*Buffer, error) {
	if err := validateInput("Fade", buf); err != nil {
		return nil, err
	}
	if fadeIn < 0 || fadeOut < 0 {
		return nil, fmt.Errorf("%w: fade durations cannot be negative", ErrInvalidParameter)
	}
	frames := buf.Frames()
	in := min(int(fadeIn.Seconds()*float64(buf.SampleRate)), frames)
	out := min(int(fadeOut.Seconds()*float64(buf.SampleRate)), frames)

	return buf.mapChannels(func(ch []float64) []float64 {
		res := append([]float64(nil), ch...)
		for i := 0; i < in; i++ {
			res[i] *= float64(i) / float64(in)
		}
		for i := 0; i < out; i++ {
			res[frames-1-i] *= float64(i) / float64(out)
		}
		return res
	}), nil
}
