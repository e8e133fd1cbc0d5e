package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/opd-ai/toolsuniverse/limits"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Position selects the watermark anchor.
type Position int

// Watermark anchors.
const (
	BottomRight Position = iota
	BottomLeft
	TopRight
	TopLeft
	Center
)

var positionNames = map[string]Position{
	"bottom-right": BottomRight,
	"bottom-left":  BottomLeft,
	"top-right":    TopRight,
	"top-left":     TopLeft,
	"center":       Center,
}

// String returns the position name used by the CLI.
func (p Position) String() string {
	for name, pos := range positionNames {
		if pos == p {
			return name
		}
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// ParsePosition converts a CLI name into a Position. An empty name means
// bottom-right.
func ParsePosition(name string) (Position, error) {
	if name == "" {
		return BottomRight, nil
	}
	p, ok := positionNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown watermark position %q", ErrInvalidParameter, name)
	}
	return p, nil
}

// WatermarkConfig controls the text overlay. Margin is used as given, so a
// zero Margin places the label flush against the anchored edges.
type WatermarkConfig struct {
	Text     string
	Position Position
	Opacity  float64     // 0..1
	Scale    int         // Integer glyph magnification (0 means 2)
	Margin   int         // Distance from the anchored edges in pixels
	Color    color.NRGBA // Text colour (zero means white)
}

// DefaultWatermarkConfig returns a half-opaque white label in the
// bottom-right corner, magnified twice and 10 pixels from the edges.
func DefaultWatermarkConfig(text string) WatermarkConfig {
	return WatermarkConfig{
		Text:     text,
		Position: BottomRight,
		Opacity:  0.5,
		Scale:    2,
		Margin:   10,
		Color:    color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// Watermark draws text over a copy of img.
//
// The label is rendered with the 7x13 basic bitmap font, magnified by Scale
// with nearest-neighbour scaling, and composited with the given opacity at
// the anchored position.
//
// Parameters:
//   - img: Source image (not modified)
//   - cfg: Label and placement
//
// Returns:
//   - *image.NRGBA: Watermarked copy
//   - error: ErrInvalidImage, ErrInvalidParameter or a limits error
func Watermark(img image.Image, cfg WatermarkConfig) (*image.NRGBA, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}
	if err := limits.ValidateWatermarkText(cfg.Text); err != nil {
		return nil, err
	}
	if cfg.Opacity < 0 || cfg.Opacity > 1 {
		return nil, fmt.Errorf("%w: opacity must be between 0.0 and 1.0: %f", ErrInvalidParameter, cfg.Opacity)
	}
	if cfg.Scale == 0 {
		cfg.Scale = 2
	}
	if cfg.Scale < 1 || cfg.Margin < 0 {
		return nil, fmt.Errorf("%w: scale %d and margin %d", ErrInvalidParameter, cfg.Scale, cfg.Margin)
	}
	if cfg.Color == (color.NRGBA{}) {
		cfg.Color = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}

	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	label := renderText(cfg.Text, cfg.Color)
	lw, lh := label.Bounds().Dx()*cfg.Scale, label.Bounds().Dy()*cfg.Scale
	scaled := image.NewNRGBA(image.Rect(0, 0, lw, lh))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), label, label.Bounds(), draw.Src, nil)

	origin := anchor(cfg.Position, out.Bounds(), lw, lh, cfg.Margin)
	target := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(lw, lh))}
	mask := image.NewUniform(color.Alpha{A: uint8(cfg.Opacity*255 + 0.5)})
	draw.DrawMask(out, target, scaled, image.Point{}, mask, image.Point{}, draw.Over)

	logrus.WithFields(logrus.Fields{
		"function": "Watermark",
		"text_len": len(cfg.Text),
		"position": cfg.Position.String(),
		"opacity":  cfg.Opacity,
		"label_w":  lw,
		"label_h":  lh,
	}).Debug("Watermark applied")

	return out, nil
}

// renderText draws text on a transparent canvas sized to fit it.
func renderText(text string, c color.NRGBA) *image.NRGBA {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	canvas := image.NewNRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(text)
	return canvas
}

// anchor returns the top-left corner of a w x h label placed at pos.
func anchor(pos Position, bounds image.Rectangle, w, h, margin int) image.Point {
	switch pos {
	case TopLeft:
		return image.Pt(bounds.Min.X+margin, bounds.Min.Y+margin)
	case TopRight:
		return image.Pt(bounds.Max.X-margin-w, bounds.Min.Y+margin)
	case BottomLeft:
		return image.Pt(bounds.Min.X+margin, bounds.Max.Y-margin-h)
	case Center:
		return image.Pt(bounds.Min.X+(bounds.Dx()-w)/2, bounds.Min.Y+(bounds.Dy()-h)/2)
	default:
		return image.Pt(bounds.Max.X-margin-w, bounds.Max.Y-margin-h)
	}
}
