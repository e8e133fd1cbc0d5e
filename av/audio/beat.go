// Package audio provides audio processing capabilities for toolsuniverse.
//
// This file implements tempo estimation from a bass-band energy curve.
package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// maxConfidenceIntervals bounds how many intervals feed the confidence score.
const maxConfidenceIntervals = 20

// BeatConfig controls beat detection.
type BeatConfig struct {
	CutoffHz    float64       // Low-pass cutoff isolating bass energy (default 250)
	Window      time.Duration // RMS energy window (default 100ms, hop is a quarter)
	ThresholdK  float64       // Threshold = mean + K*stddev (default 0.5)
	MinInterval time.Duration // Peaks closer than this are merged (default 200ms)
}

// DefaultBeatConfig returns the standard detector settings.
func DefaultBeatConfig() BeatConfig {
	return BeatConfig{
		CutoffHz:    250,
		Window:      100 * time.Millisecond,
		ThresholdK:  0.5,
		MinInterval: 200 * time.Millisecond,
	}
}

// withDefaults fills zero fields from DefaultBeatConfig.
func (c BeatConfig) withDefaults() BeatConfig {
	d := DefaultBeatConfig()
	if c.CutoffHz == 0 {
		c.CutoffHz = d.CutoffHz
	}
	if c.Window == 0 {
		c.Window = d.Window
	}
	if c.ThresholdK == 0 {
		c.ThresholdK = d.ThresholdK
	}
	if c.MinInterval == 0 {
		c.MinInterval = d.MinInterval
	}
	return c
}

// BeatResult reports the detected beats and tempo statistics.
type BeatResult struct {
	BPM        float64   `json:"bpm"`
	Beats      []float64 `json:"beats"`      // Beat timestamps in seconds
	Intervals  []float64 `json:"intervals"`  // Inter-beat intervals after outlier removal
	Stability  float64   `json:"stability"`  // 1 - stddev/mean of the intervals
	Confidence float64   `json:"confidence"` // Alignment of intervals with the mean interval
	Threshold  float64   `json:"threshold"`  // Energy threshold used for peak picking
}

// DetectBeats estimates beat positions and tempo.
//
// The signal is mixed to mono, low-pass filtered to keep the bass band,
// converted into an overlapping RMS energy curve, and peak-picked against an
// adaptive mean + K*stddev threshold. Inter-beat intervals are cleaned with
// the IQR rule before the tempo is computed.
//
// Parameters:
//   - buf: Audio to analyse
//   - cfg: Detector settings; zero fields take defaults
//
// Returns:
//   - *BeatResult: Beats, BPM, stability and confidence
//   - error: ErrEmptyBuffer, ErrInvalidParameter or ErrInsufficientBeats
func DetectBeats(buf *Buffer, cfg BeatConfig) (*BeatResult, error) {
	if err := validateInput("DetectBeats", buf); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	if cfg.CutoffHz < 0 || cfg.CutoffHz >= float64(buf.SampleRate)/2 {
		return nil, fmt.Errorf("%w: cutoff %.1f Hz outside (0, %d)", ErrInvalidParameter, cfg.CutoffHz, buf.SampleRate/2)
	}
	if cfg.Window < 0 || cfg.MinInterval < 0 || cfg.ThresholdK < 0 {
		return nil, fmt.Errorf("%w: negative beat detector setting", ErrInvalidParameter)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "DetectBeats",
		"frames":      buf.Frames(),
		"sample_rate": buf.SampleRate,
		"cutoff_hz":   cfg.CutoffHz,
		"window":      cfg.Window,
	}).Info("Starting beat detection")

	filtered := lowPass(buf.Mono(), buf.SampleRate, cfg.CutoffHz)

	windowSize := int(cfg.Window.Seconds() * float64(buf.SampleRate))
	if windowSize < 4 {
		windowSize = 4
	}
	hop := windowSize / 4
	energy := energyCurve(filtered, windowSize, hop)

	threshold := mean(energy) + cfg.ThresholdK*stddev(energy)
	hopSeconds := float64(hop) / float64(buf.SampleRate)
	centerOffset := float64(windowSize) / 2 / float64(buf.SampleRate)
	beats := pickPeaks(energy, threshold, hopSeconds, centerOffset, cfg.MinInterval.Seconds())

	logrus.WithFields(logrus.Fields{
		"function":      "DetectBeats",
		"energy_frames": len(energy),
		"threshold":     threshold,
		"beats":         len(beats),
	}).Debug("Peak picking completed")

	if len(beats) < 2 {
		logrus.WithFields(logrus.Fields{
			"function": "DetectBeats",
			"beats":    len(beats),
			"error":    ErrInsufficientBeats.Error(),
		}).Warn("Beat detection found no tempo")
		return nil, ErrInsufficientBeats
	}

	intervals := make([]float64, 0, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		intervals = append(intervals, beats[i]-beats[i-1])
	}
	intervals = removeOutliers(intervals)

	meanInterval := mean(intervals)
	result := &BeatResult{
		BPM:        60.0 / meanInterval,
		Beats:      beats,
		Intervals:  intervals,
		Stability:  stability(intervals),
		Confidence: alignmentConfidence(intervals, meanInterval),
		Threshold:  threshold,
	}

	logrus.WithFields(logrus.Fields{
		"function":   "DetectBeats",
		"bpm":        result.BPM,
		"beats":      len(result.Beats),
		"stability":  result.Stability,
		"confidence": result.Confidence,
	}).Info("Beat detection completed")

	return result, nil
}

// lowPass applies a single-pole IIR low-pass filter.
func lowPass(samples []float64, sampleRate int, cutoffHz float64) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}
	rc := 1.0 / (2 * math.Pi * cutoffHz)
	dt := 1.0 / float64(sampleRate)
	alpha := dt / (rc + dt)

	prev := 0.0
	for i, s := range samples {
		prev += alpha * (s - prev)
		out[i] = prev
	}
	return out
}

// energyCurve computes RMS over windows advancing by hop samples. A trailing
// partial window is included when it is at least half full.
func energyCurve(samples []float64, windowSize, hop int) []float64 {
	var energy []float64
	for pos := 0; pos < len(samples); pos += hop {
		end := pos + windowSize
		if end > len(samples) {
			if len(samples)-pos < windowSize/2 {
				break
			}
			end = len(samples)
		}
		energy = append(energy, rms(samples[pos:end]))
	}
	return energy
}

// pickPeaks marks local maxima above the threshold as beats. When two peaks
// fall within minInterval of each other the stronger one wins.
func pickPeaks(energy []float64, threshold, hopSeconds, offset, minInterval float64) []float64 {
	var beats []float64
	lastValue := 0.0
	for i := range energy {
		v := energy[i]
		if v <= threshold {
			continue
		}
		if i > 0 && v <= energy[i-1] {
			continue
		}
		if i < len(energy)-1 && v < energy[i+1] {
			continue
		}

		t := float64(i)*hopSeconds + offset
		if n := len(beats); n > 0 && t-beats[n-1] < minInterval {
			if v > lastValue {
				beats[n-1] = t
				lastValue = v
			}
			continue
		}
		beats = append(beats, t)
		lastValue = v
	}
	return beats
}

// removeOutliers drops intervals outside [Q1-1.5*IQR, Q3+1.5*IQR]. With fewer
// than four intervals the quartiles are meaningless and all are kept.
func removeOutliers(intervals []float64) []float64 {
	if len(intervals) < 4 {
		return intervals
	}
	q1 := quantile(intervals, 0.25)
	q3 := quantile(intervals, 0.75)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	kept := make([]float64, 0, len(intervals))
	for _, v := range intervals {
		if v >= lo && v <= hi {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return intervals
	}
	return kept
}

func stability(intervals []float64) float64 {
	m := mean(intervals)
	if m == 0 {
		return 0
	}
	s := 1 - stddev(intervals)/m
	return math.Max(0, math.Min(1, s))
}

func alignmentConfidence(intervals []float64, expected float64) float64 {
	if expected <= 0 || len(intervals) == 0 {
		return 0
	}
	n := len(intervals)
	if n > maxConfidenceIntervals {
		n = maxConfidenceIntervals
	}
	var score float64
	for _, v := range intervals[:n] {
		score += math.Max(0, 1-math.Abs(v-expected)/expected)
	}
	return score / float64(n)
}
