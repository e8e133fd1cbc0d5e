// Package main provides the toolsuniverse command-line interface.
//
// # Overview
//
// toolsuniverse runs the audio and image tools of the toolsuniverse library
// over one or more input files. Every input is loaded and type-checked by
// sniffing its content, processed by a bounded worker pool, and written to the
// output directory together with a manifest.json that records the ID, size
// and BLAKE2b-256 checksum of each file. A JSON summary is printed on stdout;
// logs go to stderr.
//
// # Usage
//
//	toolsuniverse [global options] <command> [command options] <input>...
//
// Detect the tempo of a song:
//
//	toolsuniverse beats song.wav
//
// Denoise a folder of recordings with spectral subtraction:
//
//	toolsuniverse -out clean denoise -mode spectral -reduction 0.7 takes/*.wav
//
// Watermark photos in the top-left corner:
//
//	toolsuniverse watermark -text "(c) 2026" -position top-left -opacity 0.4 *.png
//
// # Commands
//
//   - beats: beat positions, BPM, stability and confidence
//   - denoise: noise gate or spectral subtraction
//   - reverb: synthesized-impulse convolution reverb
//   - pitch: pitch shift, optionally preserving duration
//   - silence: remove (or with -detect-only, list) silent passages
//   - resample: sample rate conversion
//   - trim: cut a time range with optional fades and normalization
//   - opus2wav: decode Ogg/Opus (SILK) or WAV into 16-bit WAV
//   - palette: dominant colours with names, optional swatch strip PNG
//   - watermark: text overlay
//
// Run a command with -h to list its options.
//
// # Global Options
//
//   - -config: JSON configuration file
//   - -log-level: debug, info, warn or error (default from config: info)
//   - -log-format: text or json
//   - -out: output directory (default: out)
//   - -workers: inputs processed at once (default: 4)
//
// Defaults can also come from a .env file and TOOLSUNIVERSE_* environment
// variables; see the config package. Failures are logged and, when a Sentry
// DSN is configured, reported to Sentry.
//
// # Exit Codes
//
//   - 0: every input succeeded
//   - 1: at least one input failed or was skipped
//   - 2: invalid arguments or configuration
package main
