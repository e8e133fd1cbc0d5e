package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsHelpers(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.Equal(t, 5.0, mean(values))
	assert.Equal(t, 2.0, stddev(values))
	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 0.0, stddev(nil))
}

func TestQuantile(t *testing.T) {
	values := []float64{4, 1, 3, 2}

	assert.Equal(t, 1.0, quantile(values, 0))
	assert.Equal(t, 4.0, quantile(values, 1))
	assert.InDelta(t, 2.5, quantile(values, 0.5), 1e-12)
	assert.InDelta(t, 1.75, quantile(values, 0.25), 1e-12)
	assert.Equal(t, []float64{4, 1, 3, 2}, values, "quantile must not reorder its input")
}

func TestRMSAndDecibels(t *testing.T) {
	assert.Equal(t, 0.5, rms([]float64{0.5, -0.5, 0.5, -0.5}))
	assert.Equal(t, 0.0, rms(nil))
	assert.InDelta(t, 0.01, dbToAmplitude(-40), 1e-12)
	assert.InDelta(t, 1.0, dbToAmplitude(0), 1e-12)
}
