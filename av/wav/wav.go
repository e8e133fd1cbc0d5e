// Package wav reads and writes RIFF/WAVE audio for toolsuniverse.
//
// Every tool that produces audio writes it through Encode, which emits the
// canonical 44-byte header followed by interleaved 16-bit little-endian PCM.
// Decode accepts the common encodings found in the wild: integer PCM at 8,
// 16, 24 and 32 bits, 32-bit IEEE float, and WAVE_FORMAT_EXTENSIBLE wrappers
// around either.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/opd-ai/toolsuniverse/av/audio"
	"github.com/sirupsen/logrus"
)

// HeaderSize is the length of the canonical header written by Encode.
const HeaderSize = 44

// maxFormatChunk bounds the fmt chunk; real ones are 16 to 40 bytes.
const maxFormatChunk = 1024

// WAVE format tags.
const (
	formatPCM        uint16 = 0x0001
	formatIEEEFloat  uint16 = 0x0003
	formatExtensible uint16 = 0xFFFE
)

// Format describes the sample layout of a WAVE stream.
type Format struct {
	AudioFormat   uint16
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// blockAlign returns the byte size of one frame.
func (f Format) blockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// Encode writes buf as 16-bit PCM WAVE.
//
// Samples are clamped to [-1, 1]. Positive values scale by 32767 and
// negative values by 32768, matching the decoder so a round trip stays within
// one quantization step.
//
// Parameters:
//   - w: Destination
//   - buf: Audio to encode
//
// Returns:
//   - error: Validation or write error
func Encode(w io.Writer, buf *audio.Buffer) error {
	if err := buf.Validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Encode",
			"error":    err.Error(),
		}).Error("Buffer validation failed")
		return err
	}

	channels := buf.NumChannels()
	frames := buf.Frames()
	dataSize := frames * channels * 2
	format := Format{
		AudioFormat:   formatPCM,
		Channels:      channels,
		SampleRate:    buf.SampleRate,
		BitsPerSample: 16,
	}

	header := make([]byte, HeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], format.AudioFormat)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(buf.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(buf.SampleRate*format.blockAlign()))
	binary.LittleEndian.PutUint16(header[32:34], uint16(format.blockAlign()))
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	data := make([]byte, dataSize)
	offset := 0
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			binary.LittleEndian.PutUint16(data[offset:], uint16(floatToPCM16(buf.Channels[c][i])))
			offset += 2
		}
	}

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Encode",
		"channels":    channels,
		"sample_rate": buf.SampleRate,
		"frames":      frames,
		"bytes":       HeaderSize + dataSize,
	}).Debug("WAV encoded")

	return nil
}

// EncodeBytes returns the WAVE encoding of buf.
func EncodeBytes(buf *audio.Buffer) ([]byte, error) {
	var out bytes.Buffer
	if err := Encode(&out, buf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func floatToPCM16(s float64) int16 {
	if s >= 0 {
		return int16(math.Round(math.Min(s, 1) * 32767))
	}
	return int16(math.Round(math.Max(s, -1) * 32768))
}

func pcm16ToFloat(v int16) float64 {
	if v >= 0 {
		return float64(v) / 32767
	}
	return float64(v) / 32768
}

// Decode reads a WAVE stream into a buffer.
//
// Chunks other than fmt and data are skipped. A data chunk whose declared
// size runs past the end of the stream is read up to the end, which accepts
// files written by streaming encoders that never patch the header.
//
// Parameters:
//   - r: WAVE byte stream
//
// Returns:
//   - *audio.Buffer: Decoded samples
//   - error: ErrNotRIFF, ErrNotWAVE, ErrMissingFormat, ErrMissingData or
//     ErrUnsupportedFormat
func Decode(r io.Reader) (*audio.Buffer, error) {
	riff := make([]byte, 12)
	if _, err := io.ReadFull(r, riff); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrNotRIFF, err)
	}
	if string(riff[0:4]) != "RIFF" {
		return nil, ErrNotRIFF
	}
	if string(riff[8:12]) != "WAVE" {
		return nil, ErrNotWAVE
	}

	var (
		format *Format
		data   []byte
	)
	chunk := make([]byte, 8)
	for data == nil || format == nil {
		if _, err := io.ReadFull(r, chunk); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, fmt.Errorf("reading chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			if size > maxFormatChunk {
				return nil, fmt.Errorf("%w: fmt chunk of %d bytes", ErrMissingFormat, size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMissingFormat, err)
			}
			f, err := parseFormat(body)
			if err != nil {
				return nil, err
			}
			format = f
		case "data":
			body, err := io.ReadAll(io.LimitReader(r, size))
			if err != nil {
				return nil, fmt.Errorf("reading data chunk: %w", err)
			}
			data = body
		default:
			logrus.WithFields(logrus.Fields{
				"function": "Decode",
				"chunk":    id,
				"size":     size,
			}).Debug("Skipping WAV chunk")
			if _, err := io.CopyN(io.Discard, r, size); err != nil {
				return nil, fmt.Errorf("%w: truncated %q chunk", ErrMissingData, id)
			}
		}
		if size%2 == 1 {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil {
				break
			}
		}
	}

	if format == nil {
		return nil, ErrMissingFormat
	}
	if data == nil {
		return nil, ErrMissingData
	}

	buf, err := decodeSamples(*format, data)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Decode",
			"format":   format.AudioFormat,
			"bits":     format.BitsPerSample,
			"error":    err.Error(),
		}).Error("WAV sample decoding failed")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Decode",
		"channels":    format.Channels,
		"sample_rate": format.SampleRate,
		"bits":        format.BitsPerSample,
		"frames":      buf.Frames(),
	}).Debug("WAV decoded")

	return buf, nil
}

// DecodeBytes decodes an in-memory WAVE file.
func DecodeBytes(data []byte) (*audio.Buffer, error) {
	return Decode(bytes.NewReader(data))
}

// parseFormat reads a fmt chunk body, resolving WAVE_FORMAT_EXTENSIBLE to
// its sub-format tag.
func parseFormat(body []byte) (*Format, error) {
	if len(body) < 16 {
		return nil, fmt.Errorf("%w: fmt chunk is %d bytes", ErrMissingFormat, len(body))
	}
	f := &Format{
		AudioFormat:   binary.LittleEndian.Uint16(body[0:2]),
		Channels:      int(binary.LittleEndian.Uint16(body[2:4])),
		SampleRate:    int(binary.LittleEndian.Uint32(body[4:8])),
		BitsPerSample: int(binary.LittleEndian.Uint16(body[14:16])),
	}
	if f.AudioFormat == formatExtensible {
		if len(body) < 26 {
			return nil, fmt.Errorf("%w: extensible fmt chunk is %d bytes", ErrMissingFormat, len(body))
		}
		// The sub-format GUID starts at offset 24; its first two bytes are the tag.
		f.AudioFormat = binary.LittleEndian.Uint16(body[24:26])
	}

	if f.Channels < 1 || f.Channels > audio.MaxChannels {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.Channels)
	}
	if f.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, f.SampleRate)
	}
	switch {
	case f.AudioFormat == formatPCM && (f.BitsPerSample == 8 || f.BitsPerSample == 16 || f.BitsPerSample == 24 || f.BitsPerSample == 32):
	case f.AudioFormat == formatIEEEFloat && f.BitsPerSample == 32:
	default:
		return nil, fmt.Errorf("%w: format tag 0x%04x with %d bits", ErrUnsupportedFormat, f.AudioFormat, f.BitsPerSample)
	}
	return f, nil
}

func decodeSamples(f Format, data []byte) (*audio.Buffer, error) {
	block := f.blockAlign()
	frames := len(data) / block
	bytesPerSample := f.BitsPerSample / 8
	buf := audio.NewBuffer(f.SampleRate, f.Channels, frames)

	for i := 0; i < frames; i++ {
		for c := 0; c < f.Channels; c++ {
			p := data[i*block+c*bytesPerSample:]
			var v float64
			switch {
			case f.AudioFormat == formatIEEEFloat:
				v = float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
			case f.BitsPerSample == 8:
				v = (float64(p[0]) - 128) / 128
			case f.BitsPerSample == 16:
				v = pcm16ToFloat(int16(binary.LittleEndian.Uint16(p)))
			case f.BitsPerSample == 24:
				raw := int32(uint32(p[0])<<8|uint32(p[1])<<16|uint32(p[2])<<24) >> 8
				v = float64(raw) / 8388608
			case f.BitsPerSample == 32:
				v = float64(int32(binary.LittleEndian.Uint32(p))) / 2147483648
			default:
				return nil, fmt.Errorf("%w: %d bits", ErrUnsupportedFormat, f.BitsPerSample)
			}
			buf.Channels[c][i] = v
		}
	}

	if trailing := len(data) % block; trailing != 0 {
		logrus.WithFields(logrus.Fields{
			"function": "decodeSamples",
			"trailing": trailing,
		}).Warn("Ignoring partial trailing WAV frame")
	}
	return buf, nil
}
