// Package audio provides audio processing capabilities for toolsuniverse.
//
// This file implements silence detection and removal.
package audio

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// silenceWindow is the RMS classification window.
const silenceWindow = 10 * time.Millisecond

// SilenceConfig controls silence detection. A zero ThresholdDB or
// MinDuration takes the value from DefaultSilenceConfig; a zero Padding
// keeps no silence next to audio.
type SilenceConfig struct {
	ThresholdDB float64       // Windows quieter than this (dBFS) are silent (default -40)
	MinDuration time.Duration // Shorter silent runs are kept (default 500ms)
	Padding     time.Duration // Silence left next to kept audio (default 100ms)
}

// DefaultSilenceConfig returns the standard silence settings.
func DefaultSilenceConfig() SilenceConfig {
	return SilenceConfig{
		ThresholdDB: -40,
		MinDuration: 500 * time.Millisecond,
		Padding:     100 * time.Millisecond,
	}
}

// Region is a half-open span [Start, End) measured in frames.
type Region struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of frames in the region.
func (r Region) Len() int {
	return r.End - r.Start
}

// SilenceReport summarises a removal pass.
type SilenceReport struct {
	Regions          []Region      `json:"regions"` // Removed spans in input frames
	RemovedFrames    int           `json:"removed_frames"`
	KeptFrames       int           `json:"kept_frames"`
	OriginalDuration time.Duration `json:"original_duration"`
	ResultDuration   time.Duration `json:"result_duration"`
}

// withDefaults fills the zero threshold and minimum duration.
func (c SilenceConfig) withDefaults() SilenceConfig {
	d := DefaultSilenceConfig()
	if c.ThresholdDB == 0 {
		c.ThresholdDB = d.ThresholdDB
	}
	if c.MinDuration == 0 {
		c.MinDuration = d.MinDuration
	}
	return c
}

func (c SilenceConfig) validate() error {
	if c.ThresholdDB > 0 {
		return fmt.Errorf("%w: silence threshold must be <= 0 dBFS: %f", ErrInvalidParameter, c.ThresholdDB)
	}
	if c.MinDuration < 0 || c.Padding < 0 {
		return fmt.Errorf("%w: silence durations cannot be negative", ErrInvalidParameter)
	}
	return nil
}

// DetectSilence returns the spans that RemoveSilence would cut.
//
// The mono mix is classified in 10ms RMS windows against 10^(dB/20). Silent
// runs shorter than MinDuration are discarded, and the remaining runs are
// shrunk by Padding on every side that borders kept audio.
func DetectSilence(buf *Buffer, cfg SilenceConfig) ([]Region, error) {
	if err := validateInput("DetectSilence", buf); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "DetectSilence",
			"error":    err.Error(),
		}).Error("Silence config validation failed")
		return nil, err
	}

	threshold := dbToAmplitude(cfg.ThresholdDB)
	mono := buf.Mono()
	frames := len(mono)

	window := int(silenceWindow.Seconds() * float64(buf.SampleRate))
	if window < 1 {
		window = 1
	}
	silent := make([]bool, frames)
	for pos := 0; pos < frames; pos += window {
		end := pos + window
		if end > frames {
			end = frames
		}
		if rms(mono[pos:end]) < threshold {
			for i := pos; i < end; i++ {
				silent[i] = true
			}
		}
	}

	minFrames := int(cfg.MinDuration.Seconds() * float64(buf.SampleRate))
	pad := int(cfg.Padding.Seconds() * float64(buf.SampleRate))

	var regions []Region
	for i := 0; i < frames; {
		if !silent[i] {
			i++
			continue
		}
		start := i
		for i < frames && silent[i] {
			i++
		}
		end := i
		if end-start < minFrames {
			continue
		}
		if start > 0 {
			start += pad
		}
		if end < frames {
			end -= pad
		}
		if end > start {
			regions = append(regions, Region{Start: start, End: end})
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":  "DetectSilence",
		"frames":    frames,
		"threshold": threshold,
		"regions":   len(regions),
	}).Debug("Silence detection completed")

	return regions, nil
}

// RemoveSilence splices out the silent regions of every channel.
//
// A buffer without silence comes back with exactly the same length; a fully
// silent buffer comes back empty.
//
// Parameters:
//   - buf: Input audio (not modified)
//   - cfg: Threshold and duration settings
//
// Returns:
//   - *Buffer: Audio with silence removed
//   - *SilenceReport: What was removed
//   - error: ErrEmptyBuffer or ErrInvalidParameter
func RemoveSilence(buf *Buffer, cfg SilenceConfig) (*Buffer, *SilenceReport, error) {
	regions, err := DetectSilence(buf, cfg)
	if err != nil {
		return nil, nil, err
	}

	removed := 0
	for _, r := range regions {
		removed += r.Len()
	}
	kept := buf.Frames() - removed

	out := buf.mapChannels(func(ch []float64) []float64 {
		spliced := make([]float64, 0, kept)
		pos := 0
		for _, r := range regions {
			spliced = append(spliced, ch[pos:r.Start]...)
			pos = r.End
		}
		return append(spliced, ch[pos:]...)
	})

	report := &SilenceReport{
		Regions:          regions,
		RemovedFrames:    removed,
		KeptFrames:       kept,
		OriginalDuration: buf.Duration(),
		ResultDuration:   out.Duration(),
	}
	if report.Regions == nil {
		report.Regions = []Region{}
	}

	logrus.WithFields(logrus.Fields{
		"function":       "RemoveSilence",
		"regions":        len(regions),
		"removed_frames": removed,
		"kept_frames":    kept,
	}).Info("Silence removal completed")

	return out, report, nil
}
