package imaging

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

// Downscale shrinks img so its longest side is at most maxDim, keeping the
// aspect ratio. Images already within the limit are returned unchanged.
//
// Parameters:
//   - img: Source image
//   - maxDim: Longest allowed side in pixels (must be positive)
//
// Returns:
//   - image.Image: Scaled image, or img itself
//   - error: ErrInvalidImage or ErrInvalidParameter
func Downscale(img image.Image, maxDim int) (image.Image, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}
	if maxDim <= 0 {
		return nil, fmt.Errorf("%w: max dimension must be positive: %d", ErrInvalidParameter, maxDim)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img, nil
	}

	scale := float64(maxDim) / float64(max(w, h))
	tw := max(1, int(float64(w)*scale+0.5))
	th := max(1, int(float64(h)*scale+0.5))

	dst := image.NewNRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	logrus.WithFields(logrus.Fields{
		"function":   "Downscale",
		"src_width":  w,
		"src_height": h,
		"dst_width":  tw,
		"dst_height": th,
	}).Debug("Image downscaled")

	return dst, nil
}
