// Package audio provides audio processing capabilities for toolsuniverse.
//
// This file implements the processing pipeline used by the tools:
//
//	Decoded Buffer → Resampling (optional) → Effects → Processed Buffer
package audio

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Processor runs a buffer through optional sample rate conversion and an
// effect chain.
type Processor struct {
	targetRate  int          // 0 keeps the input rate
	effectChain *EffectChain // Applied after resampling
}

// NewProcessor creates a processor. A targetRate of 0 disables resampling.
func NewProcessor(targetRate int) (*Processor, error) {
	if targetRate < 0 {
		return nil, fmt.Errorf("%w: target rate cannot be negative: %d", ErrInvalidParameter, targetRate)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewProcessor",
		"target_rate": targetRate,
	}).Debug("Creating new audio processor")

	return &Processor{
		targetRate:  targetRate,
		effectChain: NewEffectChain(),
	}, nil
}

// Process converts the buffer to the target rate and applies the effects.
//
// Parameters:
//   - buf: Decoded input (not modified)
//
// Returns:
//   - *Buffer: Processed audio
//   - error: Any error from resampling or an effect
func (p *Processor) Process(buf *Buffer) (*Buffer, error) {
	if err := validateInput("Processor.Process", buf); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":     "Processor.Process",
		"frames":       buf.Frames(),
		"sample_rate":  buf.SampleRate,
		"target_rate":  p.targetRate,
		"effect_count": p.effectChain.GetEffectCount(),
	}).Info("Processing audio buffer")

	current := buf
	if p.targetRate != 0 && p.targetRate != buf.SampleRate {
		resampled, err := ResampleBuffer(buf, p.targetRate)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Processor.Process",
				"error":    err.Error(),
			}).Error("Resampling failed")
			return nil, fmt.Errorf("resampling failed: %w", err)
		}
		current = resampled
	}

	out, err := p.effectChain.Process(current)
	if err != nil {
		return nil, fmt.Errorf("effects processing failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":      "Processor.Process",
		"input_frames":  buf.Frames(),
		"output_frames": out.Frames(),
		"sample_rate":   out.SampleRate,
		"resampled":     current != buf,
	}).Info("Audio processing completed successfully")

	return out, nil
}

// AddEffect appends an effect to the processor's effect chain.
func (p *Processor) AddEffect(effect AudioEffect) {
	p.effectChain.AddEffect(effect)
}

// GetEffectChain returns the processor's effect chain.
func (p *Processor) GetEffectChain() *EffectChain {
	return p.effectChain
}

// GetTargetRate returns the configured output rate (0 = input rate).
func (p *Processor) GetTargetRate() int {
	return p.targetRate
}

// DisableEffects removes every effect from the chain.
func (p *Processor) DisableEffects() error {
	return p.effectChain.Clear()
}

// Close releases the effect chain.
func (p *Processor) Close() error {
	if err := p.effectChain.Close(); err != nil {
		return fmt.Errorf("failed to close effect chain: %w", err)
	}
	return nil
}
