package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestEffect = errors.New("test effect failure")

// stubEffect is a configurable AudioEffect for chain tests.
type stubEffect struct {
	name       string
	processErr error
	closeErr   error
	calls      int
	closed     bool
}

func (s *stubEffect) Process(buf *Buffer) (*Buffer, error) {
	s.calls++
	if s.processErr != nil {
		return nil, s.processErr
	}
	return buf.Clone(), nil
}

func (s *stubEffect) GetName() string { return s.name }

func (s *stubEffect) Close() error {
	s.closed = true
	return s.closeErr
}

func TestNewGainEffect(t *testing.T) {
	tests := []struct {
		name      string
		gain      float64
		expectErr bool
	}{
		{"silence", 0.0, false},
		{"unity", 1.0, false},
		{"maximum", 4.0, false},
		{"negative", -0.1, true},
		{"too_high", 4.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effect, err := NewGainEffect(tt.gain)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
				assert.Nil(t, effect)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.gain, effect.GetGain())
		})
	}
}

func TestGainEffectProcess(t *testing.T) {
	effect, err := NewGainEffect(2.0)
	require.NoError(t, err)

	buf := NewMonoBuffer(8000, []float64{0.25, -0.25, 0.75, -0.75})
	out, err := effect.Process(buf)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.5, -0.5, 1.0, -1.0}, out.Channels[0])
	assert.Equal(t, []float64{0.25, -0.25, 0.75, -0.75}, buf.Channels[0])
	assert.Equal(t, "Gain(2.00)", effect.GetName())

	require.NoError(t, effect.SetGain(0.5))
	assert.Equal(t, 0.5, effect.GetGain())
	assert.ErrorIs(t, effect.SetGain(5), ErrInvalidParameter)
	assert.Equal(t, 0.5, effect.GetGain())
	assert.NoError(t, effect.Close())
}

func TestEffectConstructorsValidate(t *testing.T) {
	_, err := NewNormalizeEffect(0)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewNoiseReductionEffect(NoiseConfig{Reduction: 2})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestEffectNames(t *testing.T) {
	nr, err := NewNoiseReductionEffect(NoiseConfig{Reduction: 0.5, Mode: NoiseModeSpectral})
	require.NoError(t, err)
	norm, err := NewNormalizeEffect(0.9)
	require.NoError(t, err)

	chain := NewEffectChain()
	chain.AddEffect(nr)
	chain.AddEffect(NewReverbEffect(ReverbConfig{RoomSize: 0.4, Wet: 0.3}))
	chain.AddEffect(NewPitchShiftEffect(PitchConfig{Semitones: -3}))
	chain.AddEffect(NewSilenceTrimEffect(DefaultSilenceConfig()))
	chain.AddEffect(norm)

	assert.Equal(t, []string{
		"NoiseReduction(spectral, 0.50)",
		"Reverb(room=0.40, wet=0.30)",
		"PitchShift(-3.0)",
		"SilenceTrim(-40dB)",
		"Normalize(0.90)",
	}, chain.GetEffectNames())
	assert.Equal(t, 5, chain.GetEffectCount())
}

func TestEffectChainEmptyReturnsCopy(t *testing.T) {
	chain := NewEffectChain()
	buf := NewMonoBuffer(8000, []float64{0.1, 0.2})

	out, err := chain.Process(buf)
	require.NoError(t, err)
	assert.Equal(t, buf.Channels, out.Channels)

	out.Channels[0][0] = 1
	assert.Equal(t, 0.1, buf.Channels[0][0])
}

func TestEffectChainAppliesInOrder(t *testing.T) {
	gain, err := NewGainEffect(0.5)
	require.NoError(t, err)
	norm, err := NewNormalizeEffect(1.0)
	require.NoError(t, err)

	chain := NewEffectChain()
	chain.AddEffect(gain)
	chain.AddEffect(norm)

	out, err := chain.Process(NewMonoBuffer(8000, []float64{0.2, -0.4, 0.1}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, Peak(out), 1e-12)
	assert.InDelta(t, -1.0, out.Channels[0][1], 1e-12)
}

func TestEffectChainStopsOnError(t *testing.T) {
	failing := &stubEffect{name: "failing", processErr: errTestEffect}
	after := &stubEffect{name: "after"}

	chain := NewEffectChain()
	chain.AddEffect(failing)
	chain.AddEffect(after)

	out, err := chain.Process(NewMonoBuffer(8000, []float64{0.1}))
	assert.ErrorIs(t, err, errTestEffect)
	assert.Contains(t, err.Error(), "effect 0 (failing)")
	assert.Nil(t, out)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 0, after.calls)
}

func TestEffectChainClear(t *testing.T) {
	good := &stubEffect{name: "good"}
	bad := &stubEffect{name: "bad", closeErr: errTestEffect}

	chain := NewEffectChain()
	chain.AddEffect(good)
	chain.AddEffect(bad)

	err := chain.Clear()
	assert.ErrorIs(t, err, errTestEffect)
	assert.True(t, good.closed)
	assert.True(t, bad.closed)
	assert.Equal(t, 0, chain.GetEffectCount())

	assert.NoError(t, chain.Close())
}

func TestSilenceTrimEffectReport(t *testing.T) {
	effect := NewSilenceTrimEffect(DefaultSilenceConfig())
	assert.Nil(t, effect.LastReport())

	tone := sineBuffer(8000, 440, 0.5, time.Second).Channels[0]
	buf := NewMonoBuffer(8000, append(make([]float64, 8000), tone...))

	out, err := effect.Process(buf)
	require.NoError(t, err)
	require.NotNil(t, effect.LastReport())
	assert.Equal(t, 7200, effect.LastReport().RemovedFrames)
	assert.Equal(t, 8800, out.Frames())
}
