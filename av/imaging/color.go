package imaging

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// HSL is a colour in hue/saturation/lightness form.
type HSL struct {
	H float64 `json:"h"` // Hue in degrees, [0, 360)
	S float64 `json:"s"` // Saturation, [0, 1]
	L float64 `json:"l"` // Lightness, [0, 1]
}

// Hex formats a colour as #rrggbb.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses #rgb or #rrggbb (the leading # is optional).
func ParseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: hex colour %q", ErrInvalidParameter, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: hex colour %q", ErrInvalidParameter, s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// ToHSL converts an RGB colour to HSL.
func ToHSL(c color.NRGBA) HSL {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	l := (hi + lo) / 2
	if hi == lo {
		return HSL{H: 0, S: 0, L: l}
	}

	d := hi - lo
	s := d / (1 - math.Abs(2*l-1))

	var h float64
	switch hi {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return HSL{H: h, S: s, L: l}
}

// Luminance returns the Rec. 709 weighted brightness of a colour in [0, 1].
func Luminance(c color.NRGBA) float64 {
	return (0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)) / 255
}

// hueNames maps the upper bound of a hue band to its name.
var hueNames = []struct {
	upTo float64
	name string
}{
	{15, "Red"},
	{45, "Orange"},
	{70, "Yellow"},
	{160, "Green"},
	{195, "Cyan"},
	{260, "Blue"},
	{290, "Purple"},
	{340, "Pink"},
	{360, "Red"},
}

// ColorName gives a coarse human-readable name for a colour, for example
// "Dark Blue" or "Light Gray".
func ColorName(c color.NRGBA) string {
	hsl := ToHSL(c)
	switch {
	case hsl.L < 0.1:
		return "Black"
	case hsl.L > 0.93:
		return "White"
	}

	base := "Gray"
	if hsl.S >= 0.15 {
		for _, band := range hueNames {
			if hsl.H < band.upTo {
				base = band.name
				break
			}
		}
	}

	switch {
	case hsl.L < 0.3:
		return "Dark " + base
	case hsl.L > 0.7:
		return "Light " + base
	default:
		return base
	}
}
