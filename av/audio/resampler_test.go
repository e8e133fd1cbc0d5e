package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResampler(t *testing.T) {
	tests := []struct {
		name      string
		config    ResamplerConfig
		expectErr bool
	}{
		{
			name:      "valid_config",
			config:    ResamplerConfig{InputRate: 44100, OutputRate: 48000, Channels: 2},
			expectErr: false,
		},
		{
			name:      "zero_input_rate",
			config:    ResamplerConfig{InputRate: 0, OutputRate: 48000, Channels: 1},
			expectErr: true,
		},
		{
			name:      "zero_output_rate",
			config:    ResamplerConfig{InputRate: 44100, OutputRate: 0, Channels: 1},
			expectErr: true,
		},
		{
			name:      "invalid_channels_zero",
			config:    ResamplerConfig{InputRate: 44100, OutputRate: 48000, Channels: 0},
			expectErr: true,
		},
		{
			name:      "invalid_channels_too_many",
			config:    ResamplerConfig{InputRate: 44100, OutputRate: 48000, Channels: MaxChannels + 1},
			expectErr: true,
		},
		{
			name:      "surround",
			config:    ResamplerConfig{InputRate: 48000, OutputRate: 44100, Channels: 6},
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resampler, err := NewResampler(tt.config)

			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
				assert.Nil(t, resampler)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, resampler)
				assert.Equal(t, tt.config.InputRate, resampler.GetInputRate())
				assert.Equal(t, tt.config.OutputRate, resampler.GetOutputRate())
				assert.Equal(t, tt.config.Channels, resampler.GetChannels())
			}
		})
	}
}

func TestResamplerSameRate(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{InputRate: 48000, OutputRate: 48000, Channels: 1})
	require.NoError(t, err)

	input := []float64{0.1, 0.2, -0.3, 0.4}
	output, err := resampler.Resample(input)
	require.NoError(t, err)

	assert.Equal(t, input, output)
	output[0] = 1
	assert.Equal(t, 0.1, input[0], "same-rate output must be a copy")
}

func TestResamplerDownsample(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{InputRate: 44100, OutputRate: 22050, Channels: 1})
	require.NoError(t, err)

	input := make([]float64, 100)
	for i := range input {
		input[i] = float64(i) / 100
	}

	output, err := resampler.Resample(input)
	require.NoError(t, err)

	require.Len(t, output, 50)
	for i, v := range output {
		assert.InDelta(t, input[i*2], v, 1e-12)
	}
}

func TestResamplerUpsampleInterpolates(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{InputRate: 8000, OutputRate: 16000, Channels: 1})
	require.NoError(t, err)

	output, err := resampler.Resample([]float64{0, 1, 0, -1})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.5, 1, 0.5, 0, -0.5, -1, -1}, output)
}

func TestResamplerStereo(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{InputRate: 48000, OutputRate: 24000, Channels: 2})
	require.NoError(t, err)

	// Left channel constant 0.5, right channel constant -0.5.
	input := make([]float64, 200)
	for i := 0; i < len(input); i += 2 {
		input[i] = 0.5
		input[i+1] = -0.5
	}

	output, err := resampler.Resample(input)
	require.NoError(t, err)
	require.Len(t, output, 100)
	for i := 0; i < len(output); i += 2 {
		assert.Equal(t, 0.5, output[i])
		assert.Equal(t, -0.5, output[i+1])
	}
}

func TestResamplerChunksKeepPosition(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{InputRate: 44100, OutputRate: 22050, Channels: 1})
	require.NoError(t, err)

	total := 0
	for chunk := 0; chunk < 4; chunk++ {
		out, err := resampler.Resample(make([]float64, 99))
		require.NoError(t, err)
		total += len(out)
	}
	assert.Equal(t, 198, total)
}

func TestResamplerInvalidInput(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{InputRate: 44100, OutputRate: 48000, Channels: 2})
	require.NoError(t, err)

	_, err = resampler.Resample(nil)
	assert.ErrorIs(t, err, ErrEmptyBuffer)

	_, err = resampler.Resample([]float64{0.1, 0.2, 0.3})
	assert.ErrorIs(t, err, ErrInvalidBuffer)
}

func TestResamplerCalculateOutputSize(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{InputRate: 24000, OutputRate: 48000, Channels: 1})
	require.NoError(t, err)

	assert.Equal(t, 200, resampler.CalculateOutputSize(100))

	output, err := resampler.Resample(make([]float64, 100))
	require.NoError(t, err)
	assert.Len(t, output, resampler.CalculateOutputSize(100))
}

func TestResamplerReset(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{InputRate: 44100, OutputRate: 48000, Channels: 1})
	require.NoError(t, err)

	_, err = resampler.Resample([]float64{0.1, 0.2, 0.3, 0.4, 0.5})
	require.NoError(t, err)

	resampler.Reset()
	assert.Equal(t, 0.0, resampler.position)
}

func TestResamplerChunkBoundaryHoldsLastFrame(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{InputRate: 8000, OutputRate: 16000, Channels: 1})
	require.NoError(t, err)

	first, err := resampler.Resample([]float64{0, 1})
	require.NoError(t, err)
	second, err := resampler.Resample([]float64{0, -1})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.5, 1, 1}, first)
	assert.Equal(t, []float64{0, -0.5, -1, -1}, second)
	assert.Equal(t, 0.0, resampler.position)
}

func TestResampleBuffer(t *testing.T) {
	buf := NewBuffer(48000, 2, 480)

	out, err := ResampleBuffer(buf, 24000)
	require.NoError(t, err)
	assert.Equal(t, 24000, out.SampleRate)
	assert.Equal(t, 2, out.NumChannels())
	assert.Equal(t, 240, out.Frames())

	same, err := ResampleBuffer(buf, 48000)
	require.NoError(t, err)
	assert.Equal(t, buf.Channels, same.Channels)

	_, err = ResampleBuffer(buf, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
