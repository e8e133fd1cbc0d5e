package wav

import "errors"

// Sentinel errors for WAV encoding and decoding.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrNotRIFF indicates the input does not start with a RIFF header.
	ErrNotRIFF = errors.New("not a RIFF file")

	// ErrNotWAVE indicates a RIFF file of a form other than WAVE.
	ErrNotWAVE = errors.New("not a WAVE file")

	// ErrMissingFormat indicates the fmt chunk is absent or truncated.
	ErrMissingFormat = errors.New("missing fmt chunk")

	// ErrMissingData indicates the data chunk is absent.
	ErrMissingData = errors.New("missing data chunk")

	// ErrUnsupportedFormat indicates a sample encoding this package cannot read.
	ErrUnsupportedFormat = errors.New("unsupported WAV sample format")
)
