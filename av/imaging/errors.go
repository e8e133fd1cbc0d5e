package imaging

import "errors"

// Sentinel errors for image operations.
var (
	// ErrInvalidImage indicates a nil image or one with empty bounds.
	ErrInvalidImage = errors.New("invalid image")

	// ErrDecodeFailed indicates the input could not be decoded as an image.
	ErrDecodeFailed = errors.New("image decode failed")

	// ErrInvalidColorCount indicates a palette size outside the supported range.
	ErrInvalidColorCount = errors.New("invalid color count")

	// ErrNoOpaquePixels indicates every sampled pixel was transparent.
	ErrNoOpaquePixels = errors.New("no opaque pixels to sample")

	// ErrInvalidParameter indicates an out-of-range option.
	ErrInvalidParameter = errors.New("invalid parameter")
)
