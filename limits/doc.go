// Package limits provides centralized size limits and validation functions
// for toolsuniverse inputs. Every tool checks its input against these limits
// before decoding or processing, so a single oversized upload cannot exhaust
// memory.
//
// # Limit Hierarchy
//
//   - MaxInputFileSize (100 MiB): The largest file accepted from disk. This is
//     checked before the file is read.
//
//   - MaxAudioFrames: The longest decoded audio accepted, 30 minutes at
//     48 kHz. Compressed inputs can expand far beyond their file size, so the
//     decoded length is checked separately.
//
//   - MaxImagePixels (40 megapixels): The largest decoded image accepted.
//     Dimensions are checked from the image header before full decoding.
//
//   - MaxPaletteColors (32): The largest palette the extractor will build.
//
//   - MaxWatermarkText (256 bytes): The longest watermark label.
//
// # Validation Functions
//
// Each validation function checks for empty input and limit violations:
//
//	err := limits.ValidateInputFile(info.Size())
//	if err != nil {
//	    // Handle validation error (ErrInputEmpty or ErrInputTooLarge)
//	}
//
// For custom limits, use the generic ValidateSize function:
//
//	err := limits.ValidateSize(data, 4096)
//
// # Error Types
//
//   - ErrInputEmpty: Returned when an empty input is provided
//   - ErrInputTooLarge: Returned when an input exceeds its limit
//   - ErrOutOfRange: Returned when a count parameter is outside its bounds
package limits
