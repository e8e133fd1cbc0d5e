package audio

import "errors"

// Sentinel errors for audio operations.
// These errors enable reliable error classification using errors.Is().

// Input errors.
var (
	// ErrEmptyBuffer indicates a buffer without samples was supplied.
	ErrEmptyBuffer = errors.New("empty audio buffer")

	// ErrInvalidBuffer indicates a malformed buffer (bad rate, ragged channels).
	ErrInvalidBuffer = errors.New("invalid audio buffer")

	// ErrInvalidParameter indicates an out-of-range processing parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Analysis errors.
var (
	// ErrInsufficientBeats indicates fewer than two beats were detected.
	ErrInsufficientBeats = errors.New("not enough beats detected")
)

// Codec errors.
var (
	// ErrDecodeFailed indicates the compressed input could not be decoded.
	ErrDecodeFailed = errors.New("audio decode failed")

	// ErrUnsupportedCodec indicates a stream in a codec this package cannot decode.
	ErrUnsupportedCodec = errors.New("unsupported codec")

	// ErrInvalidOggStream indicates a malformed Ogg container.
	ErrInvalidOggStream = errors.New("invalid ogg stream")
)
