// Package limits provides centralized size limits for toolsuniverse inputs.
// This ensures consistent validation across the audio and image tools.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxInputFileSize is the largest input file accepted (100 MiB)
	MaxInputFileSize = 100 * 1024 * 1024

	// MaxAudioFrames is the longest decoded audio accepted
	// This is 30 minutes of audio at 48 kHz
	MaxAudioFrames = 48000 * 60 * 30

	// MaxImagePixels is the largest decoded image accepted (40 megapixels)
	MaxImagePixels = 40_000_000

	// MinPaletteColors and MaxPaletteColors bound the palette size
	MinPaletteColors = 1
	MaxPaletteColors = 32

	// MaxWatermarkText is the longest watermark label in bytes
	MaxWatermarkText = 256
)

var (
	// ErrInputEmpty indicates an empty input was provided
	ErrInputEmpty = errors.New("empty input")

	// ErrInputTooLarge indicates an input exceeds its maximum size
	ErrInputTooLarge = errors.New("input too large")

	// ErrOutOfRange indicates a count parameter outside its bounds
	ErrOutOfRange = errors.New("value out of range")
)

// ValidateSize validates data against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateSize(data []byte, maxSize int) error {
	if len(data) == 0 {
		return ErrInputEmpty
	}
	if len(data) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrInputTooLarge, len(data), maxSize)
	}
	return nil
}

// ValidateFileSize validates a file size against the specified maximum.
// Returns an error with context if the file is empty or exceeds the limit.
func ValidateFileSize(size, maxSize int64) error {
	if size <= 0 {
		return ErrInputEmpty
	}
	if size > maxSize {
		return fmt.Errorf("%w: file size %d exceeds limit %d", ErrInputTooLarge, size, maxSize)
	}
	return nil
}

// ValidateInputFile validates a file size against MaxInputFileSize.
func ValidateInputFile(size int64) error {
	return ValidateFileSize(size, MaxInputFileSize)
}

// ValidateAudioFrames validates a decoded frame count against MaxAudioFrames.
func ValidateAudioFrames(frames int) error {
	if frames <= 0 {
		return ErrInputEmpty
	}
	if frames > MaxAudioFrames {
		return fmt.Errorf("%w: %d frames exceeds limit %d", ErrInputTooLarge, frames, MaxAudioFrames)
	}
	return nil
}

// ValidateImageBounds validates image dimensions against MaxImagePixels.
// Returns an error with context if either side is zero or the area exceeds
// the limit.
func ValidateImageBounds(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInputEmpty
	}
	if int64(width)*int64(height) > MaxImagePixels {
		return fmt.Errorf("%w: image %dx%d exceeds %d pixels", ErrInputTooLarge, width, height, MaxImagePixels)
	}
	return nil
}

// ValidatePaletteColors validates a requested palette size.
func ValidatePaletteColors(n int) error {
	if n < MinPaletteColors || n > MaxPaletteColors {
		return fmt.Errorf("%w: palette size %d (must be %d-%d)", ErrOutOfRange, n, MinPaletteColors, MaxPaletteColors)
	}
	return nil
}

// ValidateWatermarkText validates a watermark label against MaxWatermarkText.
func ValidateWatermarkText(text string) error {
	return ValidateSize([]byte(text), MaxWatermarkText)
}
