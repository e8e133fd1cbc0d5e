package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opd-ai/toolsuniverse/av/audio"
	"github.com/opd-ai/toolsuniverse/av/wav"
	"github.com/opd-ai/toolsuniverse/config"
	"github.com/opd-ai/toolsuniverse/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOutput struct {
	Tool    string
	Summary struct {
		Results []struct {
			Name   string
			Error  string
			Output json.RawMessage
		}
		Succeeded int
		Failed    int
		Skipped   int
	}
	Manifest string
}

func runCLI(t *testing.T, args ...string) (int, testOutput, string) {
	t.Helper()
	t.Setenv("SENTRY_DSN", "")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-log-level", "error"}, args...), &stdout, &stderr)

	var out testOutput
	if stdout.Len() > 0 && strings.HasPrefix(strings.TrimSpace(stdout.String()), "{") {
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &out), stdout.String())
	}
	return code, out, stderr.String()
}

func sine(rate int, seconds, freq, amp float64) []float64 {
	n := int(seconds * float64(rate))
	s := make([]float64, n)
	for i := range s {
		s[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return s
}

func writeWAVFile(t *testing.T, dir, name string, samples []float64, rate int) string {
	t.Helper()
	data, err := wav.EncodeBytes(audio.NewMonoBuffer(rate, samples))
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writePNGFile(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	colors := []color.NRGBA{
		{R: 230, G: 40, B: 40, A: 255},
		{R: 40, G: 200, B: 60, A: 255},
		{R: 30, G: 60, B: 220, A: 255},
		{R: 250, G: 240, B: 80, A: 255},
	}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, colors[(y/32)*2+x/32])
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func readWAV(t *testing.T, path string) *audio.Buffer {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	buf, err := wav.DecodeBytes(data)
	require.NoError(t, err)
	return buf
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"explode", "a.wav"}},
		{"unknown global flag", []string{"-bogus", "beats", "a.wav"}},
		{"no inputs", []string{"denoise"}},
		{"unknown command flag", []string{"denoise", "-loud", "a.wav"}},
		{"watermark without text", []string{"watermark", "a.png"}},
		{"resample without rate", []string{"resample", "a.wav"}},
		{"palette colour count", []string{"palette", "-colors", "0", "a.png"}},
		{"bad noise mode", []string{"denoise", "-mode", "wiener", "a.wav"}},
		{"reduction out of range", []string{"denoise", "-reduction", "1.5", "a.wav"}},
		{"pitch out of range", []string{"pitch", "-semitones", "30", "a.wav"}},
		{"trim end before start", []string{"trim", "-start", "2s", "-end", "1s", "a.wav"}},
		{"bad log level", []string{"-log-level", "loud", "beats", "a.wav"}},
		{"bad workers", []string{"-workers", "-3", "beats", "a.wav"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
		})
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-help"}, &stdout, &stderr)
	assert.Equal(t, exitOK, code)
	for name := range commands {
		assert.Contains(t, stdout.String(), name)
	}
	assert.Contains(t, stdout.String(), "-out")
}

func TestRunDenoise(t *testing.T) {
	in := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "results")
	path := writeWAVFile(t, in, "tone.wav", sine(8000, 1, 440, 0.5), 8000)

	code, out, stderr := runCLI(t, "-out", outDir, "denoise", "-reduction", "0.5", path)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "denoise", out.Tool)
	assert.Equal(t, 1, out.Summary.Succeeded)
	assert.Equal(t, filepath.Join(outDir, file.ManifestName), out.Manifest)

	buf := readWAV(t, filepath.Join(outDir, "tone-denoised.wav"))
	assert.Equal(t, 8000, buf.SampleRate)
	assert.Equal(t, 8000, buf.Frames())

	raw, err := os.ReadFile(out.Manifest)
	require.NoError(t, err)
	var manifest file.Manifest
	require.NoError(t, json.Unmarshal(raw, &manifest))
	require.Len(t, manifest.Artifacts, 1)
	assert.Equal(t, "tone-denoised.wav", manifest.Artifacts[0].Name)
}

func TestRunSameBaseNames(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "b"), 0o755))
	first := writeWAVFile(t, filepath.Join(root, "a"), "song.wav", sine(8000, 1, 440, 0.5), 8000)
	second := writeWAVFile(t, filepath.Join(root, "b"), "song.wav", sine(8000, 2, 440, 0.5), 8000)

	code, out, stderr := runCLI(t, "-out", outDir, "denoise", first, second)
	require.Equal(t, exitOK, code, stderr)
	require.Len(t, out.Summary.Results, 2)
	assert.Equal(t, "song.wav", out.Summary.Results[0].Name)
	assert.Equal(t, "song-2.wav", out.Summary.Results[1].Name)

	assert.Equal(t, 8000, readWAV(t, filepath.Join(outDir, "song-denoised.wav")).Frames())
	assert.Equal(t, 16000, readWAV(t, filepath.Join(outDir, "song-2-denoised.wav")).Frames())

	raw, err := os.ReadFile(out.Manifest)
	require.NoError(t, err)
	var manifest file.Manifest
	require.NoError(t, json.Unmarshal(raw, &manifest))
	require.Len(t, manifest.Artifacts, 2)
	assert.NotEqual(t, manifest.Artifacts[0].Path, manifest.Artifacts[1].Path)
	assert.Len(t, manifest.Results, 2)
}

func TestRunResample(t *testing.T) {
	in := t.TempDir()
	outDir := t.TempDir()
	path := writeWAVFile(t, in, "tone.wav", sine(8000, 1, 440, 0.5), 8000)

	code, _, stderr := runCLI(t, "-out", outDir, "resample", "-rate", "16000", path)
	require.Equal(t, exitOK, code, stderr)

	buf := readWAV(t, filepath.Join(outDir, "tone-16000hz.wav"))
	assert.Equal(t, 16000, buf.SampleRate)
	assert.InDelta(t, 16000, buf.Frames(), 2)
}

func TestRunTrim(t *testing.T) {
	in := t.TempDir()
	outDir := t.TempDir()
	path := writeWAVFile(t, in, "tone.wav", sine(8000, 1, 440, 0.5), 8000)

	code, _, stderr := runCLI(t, "-out", outDir, "trim",
		"-start", "250ms", "-end", "750ms", "-fade-in", "10ms", "-normalize", "0.9", path)
	require.Equal(t, exitOK, code, stderr)

	buf := readWAV(t, filepath.Join(outDir, "tone-trimmed.wav"))
	assert.Equal(t, 4000, buf.Frames())
	assert.InDelta(t, 0.9, audio.Peak(buf), 1e-3)
	assert.Zero(t, buf.Channels[0][0], "fade-in starts from silence")
}

func TestRunSilenceDetectOnly(t *testing.T) {
	in := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "never-created")

	samples := sine(8000, 0.5, 440, 0.5)
	samples = append(samples, make([]float64, 8000)...)
	samples = append(samples, sine(8000, 0.5, 440, 0.5)...)
	path := writeWAVFile(t, in, "gap.wav", samples, 8000)

	code, out, stderr := runCLI(t, "-out", outDir, "silence", "-detect-only", path)
	require.Equal(t, exitOK, code, stderr)
	assert.Empty(t, out.Manifest)

	var details struct {
		Result struct {
			Regions []audio.Region
		}
	}
	require.Len(t, out.Summary.Results, 1)
	require.NoError(t, json.Unmarshal(out.Summary.Results[0].Output, &details))
	assert.Len(t, details.Result.Regions, 1)

	_, err := os.Stat(outDir)
	assert.True(t, os.IsNotExist(err), "analysis writes no files")
}

func TestRunPaletteAndWatermark(t *testing.T) {
	in := t.TempDir()
	outDir := t.TempDir()
	path := writePNGFile(t, in, "pic.png")

	code, out, stderr := runCLI(t, "-out", outDir, "palette", "-colors", "4", "-swatch", "10", path)
	require.Equal(t, exitOK, code, stderr)

	var result struct {
		Result struct {
			Width    int
			Swatches []struct{ Hex string }
		}
	}
	require.NoError(t, json.Unmarshal(out.Summary.Results[0].Output, &result))
	assert.Equal(t, 64, result.Result.Width)
	assert.Len(t, result.Result.Swatches, 4)
	assert.FileExists(t, filepath.Join(outDir, "pic-palette.png"))

	code, _, stderr = runCLI(t, "-out", outDir, "watermark", "-text", "hi", "-position", "center", path)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, filepath.Join(outDir, "pic-watermarked.png"))

	flushDir := t.TempDir()
	code, _, stderr = runCLI(t, "-out", flushDir, "watermark", "-text", "hi", "-position", "top-left", "-margin", "0", path)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, filepath.Join(flushDir, "pic-watermarked.png"))
}

func TestRunPartialFailure(t *testing.T) {
	in := t.TempDir()
	outDir := t.TempDir()
	good := writeWAVFile(t, in, "good.wav", sine(8000, 0.5, 440, 0.5), 8000)
	bad := filepath.Join(in, "bad.wav")
	require.NoError(t, os.WriteFile(bad, []byte("this is not audio"), 0o644))

	code, out, _ := runCLI(t, "-out", outDir, "opus2wav", good, bad)
	assert.Equal(t, exitFailure, code)
	assert.Equal(t, 1, out.Summary.Succeeded)
	assert.Equal(t, 1, out.Summary.Failed)
	assert.Contains(t, out.Summary.Results[1].Error, "invalid file type")
	assert.FileExists(t, filepath.Join(outDir, "good.wav"))
}

func TestRunBeatsOnSilenceFails(t *testing.T) {
	in := t.TempDir()
	path := writeWAVFile(t, in, "quiet.wav", make([]float64, 22050), 22050)

	code, out, _ := runCLI(t, "-out", t.TempDir(), "beats", path)
	assert.Equal(t, exitFailure, code)
	assert.Equal(t, 1, out.Summary.Failed)
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	g := &globalFlags{logLevel: "debug", logFormat: "json", outDir: "elsewhere", workers: 2}
	require.NoError(t, g.applyOverrides(cfg))
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "elsewhere", cfg.OutputDir)
	assert.Equal(t, 2, cfg.Batch.Workers)

	untouched := config.DefaultConfig()
	require.NoError(t, (&globalFlags{}).applyOverrides(untouched))
	assert.Equal(t, config.DefaultConfig(), untouched)

	assert.ErrorIs(t, (&globalFlags{logFormat: "xml"}).applyOverrides(config.DefaultConfig()), errUsage)
}
