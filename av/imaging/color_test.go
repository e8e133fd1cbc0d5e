package imaging

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHex(t *testing.T) {
	assert.Equal(t, "#ff8000", Hex(color.NRGBA{R: 255, G: 128, B: 0, A: 255}))
	assert.Equal(t, "#000000", Hex(color.NRGBA{}))
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#ff8000", color.NRGBA{R: 255, G: 128, B: 0, A: 255}, false},
		{"00ff00", color.NRGBA{G: 255, A: 255}, false},
		{"#fff", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, false},
		{"#12345", color.NRGBA{}, true},
		{"#zzzzzz", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToHSL(t *testing.T) {
	tests := []struct {
		name string
		c    color.NRGBA
		want HSL
	}{
		{"red", color.NRGBA{R: 255, A: 255}, HSL{H: 0, S: 1, L: 0.5}},
		{"green", color.NRGBA{G: 255, A: 255}, HSL{H: 120, S: 1, L: 0.5}},
		{"blue", color.NRGBA{B: 255, A: 255}, HSL{H: 240, S: 1, L: 0.5}},
		{"magenta", color.NRGBA{R: 255, B: 255, A: 255}, HSL{H: 300, S: 1, L: 0.5}},
		{"white", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, HSL{H: 0, S: 0, L: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToHSL(tt.c)
			assert.InDelta(t, tt.want.H, got.H, 1e-9)
			assert.InDelta(t, tt.want.S, got.S, 1e-9)
			assert.InDelta(t, tt.want.L, got.L, 1e-9)
		})
	}
}

func TestLuminance(t *testing.T) {
	assert.InDelta(t, 1.0, Luminance(color.NRGBA{R: 255, G: 255, B: 255}), 1e-12)
	assert.Equal(t, 0.0, Luminance(color.NRGBA{}))
	assert.Greater(t, Luminance(color.NRGBA{G: 255}), Luminance(color.NRGBA{R: 255}))
}

func TestColorName(t *testing.T) {
	tests := []struct {
		c    color.NRGBA
		want string
	}{
		{color.NRGBA{A: 255}, "Black"},
		{color.NRGBA{R: 255, G: 255, B: 255, A: 255}, "White"},
		{color.NRGBA{R: 128, G: 128, B: 128, A: 255}, "Gray"},
		{color.NRGBA{R: 255, A: 255}, "Red"},
		{color.NRGBA{R: 255, G: 140, A: 255}, "Orange"},
		{color.NRGBA{R: 255, G: 230, A: 255}, "Yellow"},
		{color.NRGBA{G: 100, A: 255}, "Dark Green"},
		{color.NRGBA{R: 160, G: 200, B: 255, A: 255}, "Light Blue"},
		{color.NRGBA{R: 128, B: 255, A: 255}, "Purple"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ColorName(tt.c))
		})
	}
}
