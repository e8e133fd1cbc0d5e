// Package audio provides audio processing capabilities for toolsuniverse.
//
// This file implements Ogg/Opus ingest: a minimal Ogg page reader and
// packet decoding through the pure Go pion/opus decoder.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pion/opus"
	"github.com/sirupsen/logrus"
)

const (
	// OpusSampleRate is the output rate of decoded Opus audio.
	OpusSampleRate = 48000

	oggHeaderSize = 27

	// maxOpusPacketBytes is a decode scratch buffer large enough for 120ms of
	// 48kHz stereo S16LE output.
	maxOpusPacketBytes = 5760 * 2 * 2
)

var (
	oggCapturePattern = []byte("OggS")
	opusHeadMagic     = []byte("OpusHead")
	opusTagsMagic     = []byte("OpusTags")
)

// ReadOggPackets extracts the packets of the first logical stream in an Ogg
// container. Pages belonging to other streams are skipped. Page checksums
// are not verified.
//
// Parameters:
//   - r: Ogg byte stream
//
// Returns:
//   - [][]byte: Packets in stream order
//   - error: ErrInvalidOggStream for malformed pages
func ReadOggPackets(r io.Reader) ([][]byte, error) {
	var (
		packets [][]byte
		partial []byte
		serial  uint32
		pages   int
	)
	header := make([]byte, oggHeaderSize)

	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if errors.Is(err, io.EOF) && pages > 0 {
				break
			}
			return nil, fmt.Errorf("%w: reading page header: %v", ErrInvalidOggStream, err)
		}
		if !bytes.Equal(header[:4], oggCapturePattern) {
			return nil, fmt.Errorf("%w: missing capture pattern at page %d", ErrInvalidOggStream, pages)
		}
		if header[4] != 0 {
			return nil, fmt.Errorf("%w: unsupported ogg version %d", ErrInvalidOggStream, header[4])
		}

		headerType := header[5]
		pageSerial := binary.LittleEndian.Uint32(header[14:18])
		segments := make([]byte, header[26])
		if _, err := io.ReadFull(r, segments); err != nil {
			return nil, fmt.Errorf("%w: reading segment table: %v", ErrInvalidOggStream, err)
		}
		bodySize := 0
		for _, s := range segments {
			bodySize += int(s)
		}
		body := make([]byte, bodySize)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("%w: reading page body: %v", ErrInvalidOggStream, err)
		}

		if pages == 0 {
			serial = pageSerial
		}
		pages++
		if pageSerial != serial {
			continue
		}
		if headerType&0x01 == 0 {
			partial = nil
		}

		offset := 0
		for _, s := range segments {
			partial = append(partial, body[offset:offset+int(s)]...)
			offset += int(s)
			if s < 255 {
				packets = append(packets, partial)
				partial = nil
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "ReadOggPackets",
		"pages":    pages,
		"packets":  len(packets),
	}).Debug("Ogg packets extracted")

	return packets, nil
}

// OpusFrameDuration returns the duration of one frame and the number of
// frames in a packet, from its TOC byte (and the frame count byte for code 3
// packets), following RFC 6716 section 3.1.
func OpusFrameDuration(packet []byte) (time.Duration, int, error) {
	if len(packet) == 0 {
		return 0, 0, fmt.Errorf("%w: empty opus packet", ErrDecodeFailed)
	}
	toc := packet[0]
	config := int(toc >> 3)

	var frame time.Duration
	switch {
	case config < 12: // SILK-only
		frame = []time.Duration{10, 20, 40, 60}[config%4] * time.Millisecond
	case config < 16: // Hybrid
		frame = []time.Duration{10, 20}[config%2] * time.Millisecond
	default: // CELT-only
		frame = []time.Duration{2500, 5000, 10000, 20000}[config%4] * time.Microsecond
	}

	count := 1
	switch toc & 0x03 {
	case 1, 2:
		count = 2
	case 3:
		if len(packet) < 2 {
			return 0, 0, fmt.Errorf("%w: truncated code 3 opus packet", ErrDecodeFailed)
		}
		count = int(packet[1] & 0x3F)
	}
	return frame, count, nil
}

// opusHead carries the fields of the identification header that matter here.
type opusHead struct {
	channels int
	preSkip  int
}

func parseOpusHead(packet []byte) (*opusHead, error) {
	if len(packet) < 19 || !bytes.Equal(packet[:8], opusHeadMagic) {
		return nil, fmt.Errorf("%w: missing OpusHead", ErrUnsupportedCodec)
	}
	return &opusHead{
		channels: int(packet[9]),
		preSkip:  int(binary.LittleEndian.Uint16(packet[10:12])),
	}, nil
}

// DecodeOpus decodes an Ogg/Opus stream into a 48kHz buffer.
//
// Only SILK-mode packets are supported by the underlying decoder; Hybrid and
// CELT packets yield ErrUnsupportedCodec. The encoder pre-skip is trimmed
// from the start of the output.
//
// Parameters:
//   - r: Ogg/Opus byte stream
//
// Returns:
//   - *Buffer: Decoded audio
//   - error: ErrInvalidOggStream, ErrUnsupportedCodec or ErrDecodeFailed
func DecodeOpus(r io.Reader) (*Buffer, error) {
	packets, err := ReadOggPackets(r)
	if err != nil {
		return nil, err
	}
	if len(packets) < 2 {
		return nil, fmt.Errorf("%w: stream has %d packets, need headers and audio", ErrInvalidOggStream, len(packets))
	}

	head, err := parseOpusHead(packets[0])
	if err != nil {
		return nil, err
	}
	audioPackets := packets[1:]
	if bytes.HasPrefix(audioPackets[0], opusTagsMagic) {
		audioPackets = audioPackets[1:]
	}

	logrus.WithFields(logrus.Fields{
		"function": "DecodeOpus",
		"channels": head.channels,
		"pre_skip": head.preSkip,
		"packets":  len(audioPackets),
	}).Info("Decoding Ogg/Opus stream")

	decoder := opus.NewDecoder()
	scratch := make([]byte, maxOpusPacketBytes)
	var (
		pcm    []float64
		stereo bool
	)

	for i, packet := range audioPackets {
		frame, count, err := OpusFrameDuration(packet)
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", i, err)
		}
		if config := packet[0] >> 3; config >= 12 {
			logrus.WithFields(logrus.Fields{
				"function": "DecodeOpus",
				"packet":   i,
				"config":   config,
			}).Error("Non-SILK opus packet")
			return nil, fmt.Errorf("%w: packet %d uses opus config %d (only SILK is decodable)", ErrUnsupportedCodec, i, config)
		}

		bandwidth, isStereo, err := decoder.Decode(packet, scratch)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "DecodeOpus",
				"packet":   i,
				"error":    err.Error(),
			}).Error("Opus decode failed")
			return nil, fmt.Errorf("%w: packet %d: %v", ErrDecodeFailed, i, err)
		}
		stereo = isStereo

		channels := 1
		if isStereo {
			channels = 2
		}
		samples := int(frame.Seconds()*OpusSampleRate) * count * channels
		if samples*2 > len(scratch) {
			samples = len(scratch) / 2
		}
		for j := 0; j < samples; j++ {
			v := int16(binary.LittleEndian.Uint16(scratch[j*2:]))
			pcm = append(pcm, float64(v)/32768.0)
		}

		logrus.WithFields(logrus.Fields{
			"function":  "DecodeOpus",
			"packet":    i,
			"bandwidth": bandwidth.String(),
			"samples":   samples,
		}).Debug("Opus packet decoded")
	}

	channels := 1
	if stereo {
		channels = 2
	}
	if skip := head.preSkip * channels; skip < len(pcm) {
		pcm = pcm[skip:]
	} else {
		pcm = pcm[:0]
	}

	buf, err := FromInterleaved(pcm, OpusSampleRate, channels)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "DecodeOpus",
		"frames":   buf.Frames(),
		"channels": channels,
		"duration": buf.Duration(),
	}).Info("Ogg/Opus decode completed")

	return buf, nil
}
