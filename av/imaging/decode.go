package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"

	"github.com/opd-ai/toolsuniverse/limits"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Decode reads an image in any registered format.
//
// The dimensions are checked against limits.MaxImagePixels from the header
// before the pixel data is decoded.
//
// Parameters:
//   - r: Encoded image
//
// Returns:
//   - image.Image: Decoded image
//   - string: Format name ("png", "jpeg", "gif", "bmp", "webp")
//   - error: ErrDecodeFailed or a limits error
func Decode(r io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Decode",
			"bytes":    len(data),
			"error":    err.Error(),
		}).Error("Image header decoding failed")
		return nil, "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if err := limits.ValidateImageBounds(cfg.Width, cfg.Height); err != nil {
		return nil, "", err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Decode",
		"format":   format,
		"width":    cfg.Width,
		"height":   cfg.Height,
	}).Debug("Image decoded")

	return img, format, nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := validateImage(img); err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

func validateImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if img.Bounds().Empty() {
		return fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, img.Bounds())
	}
	return nil
}
