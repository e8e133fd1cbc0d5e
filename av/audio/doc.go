// Package audio provides the signal processing routines behind the
// toolsuniverse audio tools.
//
// All routines operate on an in-memory Buffer of planar float64 samples and
// return new buffers; inputs are never modified. Nothing is shared between
// calls, so independent buffers can be processed from separate goroutines.
//
// # Core Components
//
//   - DetectBeats: bass-band energy peak picking with adaptive threshold,
//     IQR interval cleaning, BPM, stability and confidence
//   - ReduceNoise: windowed noise gate or FFT spectral subtraction
//   - ApplyReverb: synthesized impulse response, truncated direct or full
//     FFT convolution
//   - ShiftPitch: resampling or duration-preserving overlap-add
//   - DetectSilence / RemoveSilence: RMS windows against a dBFS threshold
//   - Resampler: linear-interpolation sample rate conversion
//   - DecodeOpus: Ogg/Opus ingest via github.com/pion/opus
//   - EffectChain: sequential processing with the AudioEffect interface
//
// Example of building an effects chain:
//
//	chain := audio.NewEffectChain()
//	nr, _ := audio.NewNoiseReductionEffect(audio.NoiseConfig{Reduction: 0.5})
//	chain.AddEffect(nr)
//	chain.AddEffect(audio.NewReverbEffect(audio.ReverbConfig{RoomSize: 0.4, Wet: 0.3}))
//
//	processed, err := chain.Process(buf)
//
// WAV encoding and decoding live in the sibling av/wav package.
//
// # Dependencies
//
//   - github.com/pion/opus: Pure Go Opus decoder (no CGO)
//   - github.com/sirupsen/logrus: Structured logging
package audio
