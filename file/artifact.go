package file

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// ErrInvalidArtifactName indicates an artifact name that is not a plain file name.
var ErrInvalidArtifactName = errors.New("invalid artifact name")

// ManifestName is the file name WriteManifest uses.
const ManifestName = "manifest.json"

// Artifact describes one written output file.
type Artifact struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"` // Hex BLAKE2b-256 of the contents
	CreatedAt time.Time `json:"created_at"`
}

// Checksum returns the hex BLAKE2b-256 digest of data.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteArtifact writes data to dir/name and describes the result.
//
// The directory is created if needed. Data is written to a temporary file in
// the same directory and renamed into place.
//
// Parameters:
//   - dir: Output directory
//   - name: Plain file name (no separators)
//   - data: File contents
//
// Returns:
//   - *Artifact: ID, path, size and checksum of the written file
//   - error: ErrInvalidArtifactName, ErrDirectoryTraversal or an os error
func WriteArtifact(dir, name string, data []byte) (*Artifact, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidArtifactName, name)
	}
	cleanedDir, err := ValidatePath(dir)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate artifact ID: %w", err)
	}

	if err := os.MkdirAll(cleanedDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(cleanedDir, name)
	tmp, err := os.CreateTemp(cleanedDir, "."+name+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("failed to move artifact into place: %w", err)
	}

	art := &Artifact{
		ID:        id,
		Name:      name,
		Path:      path,
		Size:      int64(len(data)),
		Checksum:  Checksum(data),
		CreatedAt: time.Now().UTC(),
	}

	logrus.WithFields(logrus.Fields{
		"function": "WriteArtifact",
		"id":       art.ID.String(),
		"path":     art.Path,
		"size":     art.Size,
	}).Info("Artifact written")

	return art, nil
}

// Manifest records the outputs and results of one tool run.
type Manifest struct {
	ID        uuid.UUID      `json:"id"`
	Tool      string         `json:"tool"`
	CreatedAt time.Time      `json:"created_at"`
	Artifacts []*Artifact    `json:"artifacts"`
	Results   map[string]any `json:"results,omitempty"`
}

// NewManifest starts a manifest for the named tool.
func NewManifest(tool string) *Manifest {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Manifest{
		ID:        id,
		Tool:      tool,
		CreatedAt: time.Now().UTC(),
		Artifacts: []*Artifact{},
		Results:   make(map[string]any),
	}
}

// Add appends an artifact to the manifest.
func (m *Manifest) Add(a *Artifact) {
	m.Artifacts = append(m.Artifacts, a)
}

// SetResult stores a JSON-serialisable result under key.
func (m *Manifest) SetResult(key string, value any) {
	m.Results[key] = value
}

// WriteManifest writes m as indented JSON to dir/manifest.json.
func WriteManifest(dir string, m *Manifest) (*Artifact, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return WriteArtifact(dir, ManifestName, append(data, '\n'))
}

// OutputName derives an output file name from an input path, for example
// OutputName("in/song.ogg", "denoised", ".wav") is "song-denoised.wav".
func OutputName(inputPath, suffix, ext string) string {
	stem := stemOf(filepath.Base(inputPath))
	if suffix != "" {
		stem += "-" + suffix
	}
	return stem + ext
}

// UniqueNames returns the base name of every path, renaming inputs whose stem
// repeats so that names derived with OutputName never collide. The first
// input with a stem keeps it; later ones get "-2", "-3" and so on, skipping
// stems that another input already carries.
func UniqueNames(paths []string) []string {
	reserved := make(map[string]bool, len(paths))
	for _, p := range paths {
		reserved[stemOf(filepath.Base(p))] = true
	}

	used := make(map[string]bool, len(paths))
	names := make([]string, len(paths))
	for i, p := range paths {
		base := filepath.Base(p)
		stem := stemOf(base)
		if !used[stem] {
			used[stem] = true
			names[i] = base
			continue
		}
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s-%d", stem, n)
			if !used[candidate] && !reserved[candidate] {
				used[candidate] = true
				names[i] = candidate + filepath.Ext(base)
				break
			}
		}
	}
	return names
}

func stemOf(base string) string {
	return strings.TrimSuffix(base, filepath.Ext(base))
}
