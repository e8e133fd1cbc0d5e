package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeImpulse(t *testing.T) {
	tests := []struct {
		name     string
		roomSize float64
		wantLen  int
	}{
		{"small_room", 0, 100},
		{"half_room", 0.5, 1550},
		{"large_room", 1, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := SynthesizeImpulse(1000, tt.roomSize, 0.5, 42)
			assert.InDelta(t, tt.wantLen, len(h), 1)
			for _, v := range h {
				assert.LessOrEqual(t, v, 1.0)
				assert.GreaterOrEqual(t, v, -1.0)
			}
		})
	}
}

func TestSynthesizeImpulseIsSeeded(t *testing.T) {
	a := SynthesizeImpulse(8000, 0.3, 0.2, 7)
	b := SynthesizeImpulse(8000, 0.3, 0.2, 7)
	c := SynthesizeImpulse(8000, 0.3, 0.2, 8)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSynthesizeImpulseDecays(t *testing.T) {
	h := SynthesizeImpulse(8000, 0.5, 1, 3)
	quarter := len(h) / 4

	assert.Greater(t, rms(h[:quarter]), rms(h[len(h)-quarter:]))
}

func TestApplyReverbDryIsIdentity(t *testing.T) {
	buf := sineBuffer(8000, 220, 0.5, 200*time.Millisecond)

	out, err := ApplyReverb(buf, ReverbConfig{RoomSize: 0.8, Damping: 0.5, Wet: 0})
	require.NoError(t, err)
	assert.Equal(t, buf.Channels, out.Channels)
}

func TestApplyReverbModesAgreeOnShortImpulse(t *testing.T) {
	// At 1kHz a zero room size gives a 100 tap impulse, inside the direct
	// mode tap limit, so both strategies convolve with the same kernel.
	buf := noiseBuffer(1000, 500, 0.5, 9)
	cfg := ReverbConfig{RoomSize: 0, Damping: 0.3, Wet: 0.6, Seed: 11}

	cfg.Mode = ReverbModeDirect
	direct, err := ApplyReverb(buf, cfg)
	require.NoError(t, err)

	cfg.Mode = ReverbModeFFT
	fft, err := ApplyReverb(buf, cfg)
	require.NoError(t, err)

	require.Equal(t, buf.Frames(), direct.Frames())
	require.Equal(t, buf.Frames(), fft.Frames())
	for i := range direct.Channels[0] {
		assert.InDelta(t, direct.Channels[0][i], fft.Channels[0][i], 1e-9, "sample %d", i)
	}
}

func TestApplyReverbAddsTail(t *testing.T) {
	samples := make([]float64, 4000)
	samples[0] = 1
	buf := NewMonoBuffer(8000, samples)

	out, err := ApplyReverb(buf, ReverbConfig{RoomSize: 0.2, Wet: 1, Seed: 5, Mode: ReverbModeFFT})
	require.NoError(t, err)

	assert.Greater(t, rms(out.Channels[0][100:1000]), 0.0, "impulse should ring after the click")
}

func TestApplyReverbValidation(t *testing.T) {
	buf := sineBuffer(8000, 220, 0.5, 100*time.Millisecond)

	tests := []struct {
		name string
		cfg  ReverbConfig
	}{
		{"room_size_negative", ReverbConfig{RoomSize: -0.1, Wet: 0.5}},
		{"damping_too_high", ReverbConfig{Damping: 1.1, Wet: 0.5}},
		{"wet_too_high", ReverbConfig{Wet: 2}},
		{"negative_taps", ReverbConfig{Wet: 0.5, TapLimit: -1}},
		{"unknown_mode", ReverbConfig{Wet: 0.5, Mode: ReverbMode(9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ApplyReverb(buf, tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidParameter)
			assert.Nil(t, out)
		})
	}
}

func TestConvolveFFT(t *testing.T) {
	t.Run("known_result", func(t *testing.T) {
		got := ConvolveFFT([]float64{1, 2, 3}, []float64{1, 1}, 0)
		want := []float64{1, 3, 5, 3}
		require.Len(t, got, len(want))
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-12)
		}
	})

	t.Run("matches_direct", func(t *testing.T) {
		x := noiseBuffer(8000, 300, 1, 21).Channels[0]
		h := noiseBuffer(8000, 37, 1, 22).Channels[0]

		want := convolveDirect(x, h)
		got := ConvolveFFT(x, h, len(x))
		require.Len(t, got, len(x))
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-9)
		}
	})

	t.Run("empty_inputs", func(t *testing.T) {
		assert.Empty(t, ConvolveFFT(nil, []float64{1}, 0))
		assert.Empty(t, ConvolveFFT([]float64{1}, nil, 0))
	})
}

func TestParseReverbMode(t *testing.T) {
	mode, err := ParseReverbMode("fft")
	require.NoError(t, err)
	assert.Equal(t, ReverbModeFFT, mode)
	assert.Equal(t, "fft", mode.String())

	mode, err = ParseReverbMode("")
	require.NoError(t, err)
	assert.Equal(t, ReverbModeDirect, mode)

	_, err = ParseReverbMode("plate")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
