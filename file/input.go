package file

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/opd-ai/toolsuniverse/av/audio"
	"github.com/opd-ai/toolsuniverse/av/imaging"
	"github.com/opd-ai/toolsuniverse/av/wav"
	"github.com/opd-ai/toolsuniverse/limits"
	"github.com/sirupsen/logrus"
)

// ErrDirectoryTraversal indicates an attempt to access files outside allowed directories.
var ErrDirectoryTraversal = errors.New("path contains directory traversal")

// ErrInvalidFileType indicates the content does not match the expected kind.
var ErrInvalidFileType = errors.New("invalid file type")

// ErrEmptyInput indicates an empty input file.
var ErrEmptyInput = errors.New("empty input file")

// ErrFileTooLarge indicates an input file over the size limit.
var ErrFileTooLarge = errors.New("input file too large")

// Kind is the broad media class a tool expects.
type Kind int

const (
	// KindAudio accepts audio/* and Ogg content.
	KindAudio Kind = iota
	// KindImage accepts image/* content.
	KindImage
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindImage:
		return "image"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Input is a loaded and type-checked input file.
type Input struct {
	Path string
	Name string // Base name without directory
	Kind Kind
	MIME string // Sniffed content type
	Data []byte
}

// ValidatePath checks if a file path is safe from directory traversal attacks.
// It returns the cleaned path or an error if the path contains traversal attempts.
func ValidatePath(path string) (string, error) {
	cleanedPath := filepath.Clean(path)

	for _, part := range strings.Split(filepath.ToSlash(cleanedPath), "/") {
		if part == ".." {
			return "", ErrDirectoryTraversal
		}
	}

	return cleanedPath, nil
}

// DetectContentType sniffs the MIME type of data.
func DetectContentType(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return mime
}

// matchesKind reports whether a sniffed MIME type is acceptable for kind.
func matchesKind(mime string, kind Kind) bool {
	switch kind {
	case KindAudio:
		return strings.HasPrefix(mime, "audio/") || mime == "application/ogg"
	case KindImage:
		return strings.HasPrefix(mime, "image/")
	default:
		return false
	}
}

// Load reads an input file of the given kind, enforcing
// limits.MaxInputFileSize.
func Load(path string, kind Kind) (*Input, error) {
	return LoadLimited(path, kind, limits.MaxInputFileSize)
}

// LoadLimited reads an input file with a custom size limit.
//
// Parameters:
//   - path: File to read
//   - kind: Expected media class
//   - maxSize: Largest accepted size in bytes
//
// Returns:
//   - *Input: File contents and sniffed type
//   - error: ErrDirectoryTraversal, ErrEmptyInput, ErrFileTooLarge,
//     ErrInvalidFileType or an os error
func LoadLimited(path string, kind Kind, maxSize int64) (*Input, error) {
	cleaned, err := ValidatePath(path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "LoadLimited",
			"path":     path,
			"error":    err.Error(),
		}).Error("Path validation failed")
		return nil, err
	}

	info, err := os.Stat(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidFileType, cleaned)
	}
	if err := limits.ValidateFileSize(info.Size(), maxSize); err != nil {
		if errors.Is(err, limits.ErrInputEmpty) {
			return nil, fmt.Errorf("%w: %s", ErrEmptyInput, cleaned)
		}
		return nil, fmt.Errorf("%w: %w", ErrFileTooLarge, err)
	}

	data, err := os.ReadFile(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	mime := DetectContentType(data)
	if !matchesKind(mime, kind) {
		logrus.WithFields(logrus.Fields{
			"function": "LoadLimited",
			"path":     cleaned,
			"mime":     mime,
			"expected": kind.String(),
		}).Warn("Rejected input with unexpected content type")
		return nil, fmt.Errorf("%w: %s is %s, expected %s", ErrInvalidFileType, cleaned, mime, kind)
	}

	logrus.WithFields(logrus.Fields{
		"function": "LoadLimited",
		"path":     cleaned,
		"mime":     mime,
		"size":     len(data),
	}).Info("Input loaded")

	return &Input{
		Path: cleaned,
		Name: filepath.Base(cleaned),
		Kind: kind,
		MIME: mime,
		Data: data,
	}, nil
}

// DecodeAudio decodes a loaded audio input (WAV or Ogg/Opus) and checks the
// decoded length against limits.MaxAudioFrames.
func DecodeAudio(in *Input) (*audio.Buffer, error) {
	if in.Kind != KindAudio {
		return nil, fmt.Errorf("%w: %s is not audio", ErrInvalidFileType, in.Name)
	}

	var (
		buf *audio.Buffer
		err error
	)
	switch in.MIME {
	case "audio/wave", "audio/wav", "audio/x-wav":
		buf, err = wav.DecodeBytes(in.Data)
	case "application/ogg":
		buf, err = audio.DecodeOpus(bytes.NewReader(in.Data))
	default:
		return nil, fmt.Errorf("%w: %s (%s)", audio.ErrUnsupportedCodec, in.Name, in.MIME)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", in.Name, err)
	}
	if err := limits.ValidateAudioFrames(buf.Frames()); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", in.Name, err)
	}
	return buf, nil
}

// DecodeImage decodes a loaded image input.
func DecodeImage(in *Input) (image.Image, error) {
	if in.Kind != KindImage {
		return nil, fmt.Errorf("%w: %s is not an image", ErrInvalidFileType, in.Name)
	}
	img, _, err := imaging.Decode(bytes.NewReader(in.Data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", in.Name, err)
	}
	return img, nil
}
