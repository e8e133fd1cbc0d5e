package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFFTImpulse(t *testing.T) {
	data := make([]complex128, 8)
	data[0] = 1

	FFT(data)

	for i, v := range data {
		assert.InDelta(t, 1.0, real(v), 1e-12, "bin %d", i)
		assert.InDelta(t, 0.0, imag(v), 1e-12, "bin %d", i)
	}
}

func TestFFTSinePeak(t *testing.T) {
	const n = 64
	data := make([]complex128, n)
	for i := range data {
		data[i] = complex(math.Cos(2*math.Pi*4*float64(i)/n), 0)
	}

	FFT(data)

	// A cosine at bin 4 splits its energy between bins 4 and n-4.
	assert.InDelta(t, n/2, cmplxAbs(data[4]), 1e-9)
	assert.InDelta(t, n/2, cmplxAbs(data[n-4]), 1e-9)
	assert.InDelta(t, 0, cmplxAbs(data[5]), 1e-9)
}

func TestFFTRoundTrip(t *testing.T) {
	original := []float64{0.5, -0.25, 0.75, 0.1, -0.9, 0.3, 0, 0.2, 0.4, -0.6, 0.8, -0.1, 0.05, 0.6, -0.3, 0.15}
	data := make([]complex128, len(original))
	for i, v := range original {
		data[i] = complex(v, 0)
	}

	FFT(data)
	IFFT(data)

	for i, v := range original {
		assert.InDelta(t, v, real(data[i]), 1e-12)
		assert.InDelta(t, 0, imag(data[i]), 1e-12)
	}
}

func TestFFTIgnoresNonPowerOfTwo(t *testing.T) {
	data := []complex128{1, 2, 3}
	FFT(data)
	assert.Equal(t, []complex128{1, 2, 3}, data)
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {1000, 1024}, {2048, 2048}, {2049, 4096},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextPowerOfTwo(tt.in), "NextPowerOfTwo(%d)", tt.in)
	}
}

func TestHannWindow(t *testing.T) {
	w := HannWindow(9)
	assert.InDelta(t, 0, w[0], 1e-12)
	assert.InDelta(t, 0, w[8], 1e-12)
	assert.InDelta(t, 1, w[4], 1e-12)
	assert.InDelta(t, w[2], w[6], 1e-12)

	assert.Equal(t, []float64{1}, HannWindow(1))
}
