// Package audio provides audio processing capabilities for toolsuniverse.
//
// This file implements the effect framework: a common interface over the
// processing routines of this package and a chain that applies them in order.
package audio

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// AudioEffect defines the interface for audio processing effects.
//
// Effects take a buffer and return a processed buffer; they must not modify
// their input. Effects can be chained together with EffectChain.
type AudioEffect interface {
	// Process applies the effect to a buffer
	Process(buf *Buffer) (*Buffer, error)

	// GetName returns a human-readable name for the effect
	GetName() string

	// Close releases any resources used by the effect
	Close() error
}

// GainEffect implements basic audio gain (volume) control.
//
// Gain values: 0.0 = silence, 1.0 = no change, >1.0 = amplification.
// Results are clipped to [-1, 1].
type GainEffect struct {
	gain float64 // Linear gain multiplier (0.0 to 4.0)
}

// NewGainEffect creates a new gain control effect.
//
// Parameters:
//   - gain: Linear gain multiplier (0.0 = silence, 1.0 = unity, 2.0 = +6dB)
//
// Returns:
//   - *GainEffect: New gain effect instance
//   - error: Validation error if gain is invalid
func NewGainEffect(gain float64) (*GainEffect, error) {
	if err := validateGain(gain); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewGainEffect",
			"gain":     gain,
			"error":    err.Error(),
		}).Error("Gain validation failed")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewGainEffect",
		"gain":     gain,
	}).Debug("Gain effect created")

	return &GainEffect{gain: gain}, nil
}

func validateGain(gain float64) error {
	if gain < 0.0 {
		return fmt.Errorf("%w: gain cannot be negative: %f", ErrInvalidParameter, gain)
	}
	if gain > 4.0 {
		return fmt.Errorf("%w: gain too high (max 4.0): %f", ErrInvalidParameter, gain)
	}
	return nil
}

// Process applies gain with clipping protection.
func (g *GainEffect) Process(buf *Buffer) (*Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	clippedCount := 0
	out := buf.mapChannels(func(ch []float64) []float64 {
		res := make([]float64, len(ch))
		for i, s := range ch {
			v := s * g.gain
			if v > 1.0 || v < -1.0 {
				clippedCount++
			}
			res[i] = clampSample(v)
		}
		return res
	})

	if clippedCount > 0 {
		logrus.WithFields(logrus.Fields{
			"function":      "GainEffect.Process",
			"clipped_count": clippedCount,
			"total_samples": buf.Frames() * buf.NumChannels(),
			"gain":          g.gain,
		}).Warn("Audio clipping detected during gain processing")
	}

	return out, nil
}

// GetName returns the effect name for debugging and logging.
func (g *GainEffect) GetName() string {
	return fmt.Sprintf("Gain(%.2f)", g.gain)
}

// SetGain updates the gain value.
func (g *GainEffect) SetGain(gain float64) error {
	if err := validateGain(gain); err != nil {
		return err
	}
	g.gain = gain
	return nil
}

// GetGain returns the current gain value.
func (g *GainEffect) GetGain() float64 {
	return g.gain
}

// Close releases effect resources (no-op for gain effect).
func (g *GainEffect) Close() error {
	return nil
}

// NormalizeEffect scales audio so its peak reaches a target level.
type NormalizeEffect struct {
	target float64
}

// NewNormalizeEffect creates a peak normalizer (0 < target <= 1).
func NewNormalizeEffect(target float64) (*NormalizeEffect, error) {
	if target <= 0 || target > 1 {
		return nil, fmt.Errorf("%w: normalize target must be in (0, 1]: %f", ErrInvalidParameter, target)
	}
	return &NormalizeEffect{target: target}, nil
}

// Process normalizes the buffer.
func (n *NormalizeEffect) Process(buf *Buffer) (*Buffer, error) {
	return Normalize(buf, n.target)
}

// GetName returns the effect name.
func (n *NormalizeEffect) GetName() string {
	return fmt.Sprintf("Normalize(%.2f)", n.target)
}

// Close is a no-op.
func (n *NormalizeEffect) Close() error { return nil }

// NoiseReductionEffect wraps ReduceNoise.
type NoiseReductionEffect struct {
	config NoiseConfig
}

// NewNoiseReductionEffect creates a noise reduction effect.
func NewNoiseReductionEffect(config NoiseConfig) (*NoiseReductionEffect, error) {
	if config.Reduction < 0 || config.Reduction > 1 {
		return nil, fmt.Errorf("%w: reduction must be between 0.0 and 1.0: %f", ErrInvalidParameter, config.Reduction)
	}
	return &NoiseReductionEffect{config: config}, nil
}

// Process applies noise reduction.
func (n *NoiseReductionEffect) Process(buf *Buffer) (*Buffer, error) {
	return ReduceNoise(buf, n.config)
}

// GetName returns the effect name.
func (n *NoiseReductionEffect) GetName() string {
	return fmt.Sprintf("NoiseReduction(%s, %.2f)", n.config.Mode, n.config.Reduction)
}

// Close is a no-op.
func (n *NoiseReductionEffect) Close() error { return nil }

// ReverbEffect wraps ApplyReverb.
type ReverbEffect struct {
	config ReverbConfig
}

// NewReverbEffect creates a reverb effect.
func NewReverbEffect(config ReverbConfig) *ReverbEffect {
	return &ReverbEffect{config: config}
}

// Process applies the reverb.
func (r *ReverbEffect) Process(buf *Buffer) (*Buffer, error) {
	return ApplyReverb(buf, r.config)
}

// GetName returns the effect name.
func (r *ReverbEffect) GetName() string {
	return fmt.Sprintf("Reverb(room=%.2f, wet=%.2f)", r.config.RoomSize, r.config.Wet)
}

// Close is a no-op.
func (r *ReverbEffect) Close() error { return nil }

// PitchShiftEffect wraps ShiftPitch.
type PitchShiftEffect struct {
	config PitchConfig
}

// NewPitchShiftEffect creates a pitch shift effect.
func NewPitchShiftEffect(config PitchConfig) *PitchShiftEffect {
	return &PitchShiftEffect{config: config}
}

// Process shifts the pitch.
func (p *PitchShiftEffect) Process(buf *Buffer) (*Buffer, error) {
	return ShiftPitch(buf, p.config)
}

// GetName returns the effect name.
func (p *PitchShiftEffect) GetName() string {
	return fmt.Sprintf("PitchShift(%+.1f)", p.config.Semitones)
}

// Close is a no-op.
func (p *PitchShiftEffect) Close() error { return nil }

// SilenceTrimEffect wraps RemoveSilence and keeps the last report.
type SilenceTrimEffect struct {
	config SilenceConfig
	last   *SilenceReport
}

// NewSilenceTrimEffect creates a silence removal effect.
func NewSilenceTrimEffect(config SilenceConfig) *SilenceTrimEffect {
	return &SilenceTrimEffect{config: config.withDefaults()}
}

// Process removes silence.
func (s *SilenceTrimEffect) Process(buf *Buffer) (*Buffer, error) {
	out, report, err := RemoveSilence(buf, s.config)
	if err != nil {
		return nil, err
	}
	s.last = report
	return out, nil
}

// LastReport returns the report of the most recent Process call.
func (s *SilenceTrimEffect) LastReport() *SilenceReport {
	return s.last
}

// GetName returns the effect name.
func (s *SilenceTrimEffect) GetName() string {
	return fmt.Sprintf("SilenceTrim(%.0fdB)", s.config.ThresholdDB)
}

// Close is a no-op.
func (s *SilenceTrimEffect) Close() error { return nil }

// EffectChain manages a sequence of audio effects.
//
// Effects are applied in the order they were added. The first failing effect
// stops processing and its error is returned.
type EffectChain struct {
	effects []AudioEffect
}

// NewEffectChain creates a new, empty audio effect chain.
func NewEffectChain() *EffectChain {
	return &EffectChain{
		effects: make([]AudioEffect, 0),
	}
}

// AddEffect adds an effect to the end of the processing chain.
func (e *EffectChain) AddEffect(effect AudioEffect) {
	logrus.WithFields(logrus.Fields{
		"function":     "EffectChain.AddEffect",
		"effect_name":  effect.GetName(),
		"new_position": len(e.effects),
	}).Debug("Adding effect to audio chain")

	e.effects = append(e.effects, effect)
}

// Process applies all effects in the chain sequentially.
//
// Parameters:
//   - buf: Input buffer
//
// Returns:
//   - *Buffer: Processed buffer after all effects (a copy when the chain is empty)
//   - error: First error encountered during processing
func (e *EffectChain) Process(buf *Buffer) (*Buffer, error) {
	if len(e.effects) == 0 {
		if err := buf.Validate(); err != nil {
			return nil, err
		}
		return buf.Clone(), nil
	}

	current := buf
	for i, effect := range e.effects {
		logrus.WithFields(logrus.Fields{
			"function":     "EffectChain.Process",
			"effect_index": i,
			"effect_name":  effect.GetName(),
			"frames":       current.Frames(),
		}).Debug("Processing buffer through effect")

		processed, err := effect.Process(current)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":     "EffectChain.Process",
				"effect_index": i,
				"effect_name":  effect.GetName(),
				"error":        err.Error(),
			}).Error("Effect processing failed")
			return nil, fmt.Errorf("effect %d (%s) failed: %w", i, effect.GetName(), err)
		}
		current = processed
	}

	logrus.WithFields(logrus.Fields{
		"function":        "EffectChain.Process",
		"input_frames":    buf.Frames(),
		"output_frames":   current.Frames(),
		"effects_applied": len(e.effects),
	}).Debug("Effect chain processing completed successfully")

	return current, nil
}

// GetEffectCount returns the number of effects in the chain.
func (e *EffectChain) GetEffectCount() int {
	return len(e.effects)
}

// GetEffectNames returns the names of all effects in the chain.
func (e *EffectChain) GetEffectNames() []string {
	names := make([]string, len(e.effects))
	for i, effect := range e.effects {
		names[i] = effect.GetName()
	}
	return names
}

// Clear closes and removes all effects from the chain.
func (e *EffectChain) Clear() error {
	var errs []error
	for i, effect := range e.effects {
		if err := effect.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":     "EffectChain.Clear",
				"effect_index": i,
				"effect_name":  effect.GetName(),
				"error":        err.Error(),
			}).Error("Failed to close effect")
			errs = append(errs, fmt.Errorf("effect %d (%s) close failed: %w", i, effect.GetName(), err))
		}
	}

	e.effects = e.effects[:0]
	return errors.Join(errs...)
}

// Close releases all effect resources.
func (e *EffectChain) Close() error {
	return e.Clear()
}
