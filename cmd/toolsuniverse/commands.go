package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"math"
	"time"

	"github.com/opd-ai/toolsuniverse/av/audio"
	"github.com/opd-ai/toolsuniverse/av/imaging"
	"github.com/opd-ai/toolsuniverse/av/wav"
	"github.com/opd-ai/toolsuniverse/config"
	"github.com/opd-ai/toolsuniverse/file"
	"github.com/opd-ai/toolsuniverse/limits"
	"github.com/sirupsen/logrus"
)

// processor handles one loaded input and writes its outputs to outDir.
type processor func(ctx context.Context, in *file.Input, outDir string) (*outcome, error)

// command is one CLI subcommand.
type command struct {
	name    string
	summary string
	kind    file.Kind
	// bind registers the command flags and returns the processor builder,
	// which runs after the flags are parsed.
	bind func(fs *flag.FlagSet, cfg *config.Config) func() (processor, error)
}

var commands = map[string]*command{
	"beats":     {name: "beats", summary: "Detect beats and tempo (BPM)", kind: file.KindAudio, bind: bindBeats},
	"denoise":   {name: "denoise", summary: "Reduce background noise", kind: file.KindAudio, bind: bindDenoise},
	"reverb":    {name: "reverb", summary: "Add convolution reverb", kind: file.KindAudio, bind: bindReverb},
	"pitch":     {name: "pitch", summary: "Shift pitch by semitones", kind: file.KindAudio, bind: bindPitch},
	"silence":   {name: "silence", summary: "Detect or remove silent passages", kind: file.KindAudio, bind: bindSilence},
	"resample":  {name: "resample", summary: "Convert the sample rate", kind: file.KindAudio, bind: bindResample},
	"trim":      {name: "trim", summary: "Cut, fade and normalize audio", kind: file.KindAudio, bind: bindTrim},
	"opus2wav":  {name: "opus2wav", summary: "Convert Ogg/Opus (or WAV) to 16-bit WAV", kind: file.KindAudio, bind: bindOpus2Wav},
	"palette":   {name: "palette", summary: "Extract the dominant colours of an image", kind: file.KindImage, bind: bindPalette},
	"watermark": {name: "watermark", summary: "Draw a text watermark on images", kind: file.KindImage, bind: bindWatermark},
}

// parse parses the subcommand flags and builds its processor.
func (c *command) parse(args []string, cfg *config.Config, stderr io.Writer) (processor, []string, error) {
	fs := flag.NewFlagSet(c.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: toolsuniverse %s [options] <input>...\n\n%s\n\nOptions:\n", c.name, c.summary)
		fs.PrintDefaults()
	}
	build := c.bind(fs, cfg)

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() == 0 {
		return nil, nil, fmt.Errorf("%w: %s needs at least one input file", errUsage, c.name)
	}
	proc, err := build()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", errUsage, c.name, err)
	}
	return proc, fs.Args(), nil
}

// audioResult describes an audio tool run.
type audioResult struct {
	SampleRate    int      `json:"sample_rate"`
	Channels      int      `json:"channels"`
	InputSeconds  float64  `json:"input_seconds"`
	OutputSeconds float64  `json:"output_seconds"`
	Effects       []string `json:"effects,omitempty"`
	Details       any      `json:"details,omitempty"`
}

// writeWAV encodes buf and writes it as <stem>-<suffix>.wav.
func writeWAV(outDir string, in *file.Input, suffix string, buf *audio.Buffer) (*file.Artifact, error) {
	data, err := wav.EncodeBytes(buf)
	if err != nil {
		return nil, fmt.Errorf("encoding wav: %w", err)
	}
	return file.WriteArtifact(outDir, file.OutputName(in.Name, suffix, ".wav"), data)
}

// writePNG encodes img and writes it as <stem>-<suffix>.png.
func writePNG(outDir string, in *file.Input, suffix string, img image.Image) (*file.Artifact, error) {
	var out bytes.Buffer
	if err := imaging.EncodePNG(&out, img); err != nil {
		return nil, err
	}
	return file.WriteArtifact(outDir, file.OutputName(in.Name, suffix, ".png"), out.Bytes())
}

// effectTool decodes audio, runs it through an audio.Processor holding the
// effect returned by newEffect (nil for none) and writes the result.
// newEffect is called per input so stateful effects are never shared between
// workers.
type effectTool struct {
	targetRate int
	suffix     string
	newEffect  func() (audio.AudioEffect, error)
	details    func(audio.AudioEffect) any
}

func (t effectTool) process(ctx context.Context, in *file.Input, outDir string) (*outcome, error) {
	buf, err := file.DecodeAudio(in)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.apply(in, buf, outDir)
}

func (t effectTool) apply(in *file.Input, buf *audio.Buffer, outDir string) (*outcome, error) {
	proc, err := audio.NewProcessor(t.targetRate)
	if err != nil {
		return nil, err
	}
	defer proc.Close()

	var effect audio.AudioEffect
	if t.newEffect != nil {
		if effect, err = t.newEffect(); err != nil {
			return nil, err
		}
		proc.AddEffect(effect)
	}

	out, err := proc.Process(buf)
	if err != nil {
		return nil, err
	}
	art, err := writeWAV(outDir, in, t.suffix, out)
	if err != nil {
		return nil, err
	}

	res := audioResult{
		SampleRate:    out.SampleRate,
		Channels:      out.NumChannels(),
		InputSeconds:  buf.Duration().Seconds(),
		OutputSeconds: out.Duration().Seconds(),
		Effects:       proc.GetEffectChain().GetEffectNames(),
	}
	if t.details != nil && effect != nil {
		res.Details = t.details(effect)
	}
	return &outcome{Result: res, Artifacts: []*file.Artifact{art}}, nil
}

func bindBeats(fs *flag.FlagSet, _ *config.Config) func() (processor, error) {
	bc := audio.DefaultBeatConfig()
	fs.Float64Var(&bc.CutoffHz, "cutoff", bc.CutoffHz, "Low-pass cutoff isolating the bass band (Hz)")
	fs.DurationVar(&bc.Window, "window", bc.Window, "RMS energy window")
	fs.Float64Var(&bc.ThresholdK, "k", bc.ThresholdK, "Threshold sensitivity: mean + k*stddev")
	fs.DurationVar(&bc.MinInterval, "min-interval", bc.MinInterval, "Minimum time between beats")

	return func() (processor, error) {
		if bc.CutoffHz < 0 || bc.Window < 0 || bc.ThresholdK < 0 || bc.MinInterval < 0 {
			return nil, errors.New("beat settings cannot be negative")
		}
		return func(_ context.Context, in *file.Input, _ string) (*outcome, error) {
			buf, err := file.DecodeAudio(in)
			if err != nil {
				return nil, err
			}
			res, err := audio.DetectBeats(buf, bc)
			if err != nil {
				return nil, err
			}
			return &outcome{Result: res}, nil
		}, nil
	}
}

func bindDenoise(fs *flag.FlagSet, cfg *config.Config) func() (processor, error) {
	ac := cfg.Audio
	var gate float64
	fs.StringVar(&ac.NoiseMode, "mode", ac.NoiseMode, "Strategy: gate or spectral")
	fs.Float64Var(&ac.NoiseReduction, "reduction", ac.NoiseReduction, "Strength, 0.0 (off) to 1.0")
	fs.BoolVar(&ac.Aggressive, "aggressive", ac.Aggressive, "Attenuate harder (gate mode)")
	fs.Float64Var(&gate, "gate", 0, "Linear gate level before scaling (0 = default 0.02)")
	fs.IntVar(&ac.TargetRate, "rate", ac.TargetRate, "Output sample rate (0 = keep)")

	return func() (processor, error) {
		nc, err := ac.NoiseConfig()
		if err != nil {
			return nil, err
		}
		nc.NoiseGate = gate
		if _, err := audio.NewNoiseReductionEffect(nc); err != nil {
			return nil, err
		}
		return effectTool{
			targetRate: ac.TargetRate,
			suffix:     "denoised",
			newEffect: func() (audio.AudioEffect, error) {
				return audio.NewNoiseReductionEffect(nc)
			},
		}.process, nil
	}
}

func bindReverb(fs *flag.FlagSet, cfg *config.Config) func() (processor, error) {
	ac := cfg.Audio
	var (
		seed     uint64
		tapLimit int
	)
	fs.StringVar(&ac.ReverbMode, "mode", ac.ReverbMode, "Convolution: direct (first 1000 taps) or fft (full impulse)")
	fs.Float64Var(&ac.RoomSize, "room", ac.RoomSize, "Room size, 0.0 to 1.0")
	fs.Float64Var(&ac.Damping, "damping", ac.Damping, "Decay damping, 0.0 to 1.0")
	fs.Float64Var(&ac.Wet, "wet", ac.Wet, "Dry/wet mix, 0.0 to 1.0")
	fs.Uint64Var(&seed, "seed", 0, "Impulse response noise seed")
	fs.IntVar(&tapLimit, "taps", 0, "Direct mode tap limit (0 = default)")
	fs.IntVar(&ac.TargetRate, "rate", ac.TargetRate, "Output sample rate (0 = keep)")

	return func() (processor, error) {
		rc, err := ac.ReverbConfig()
		if err != nil {
			return nil, err
		}
		for _, v := range []float64{rc.RoomSize, rc.Damping, rc.Wet} {
			if v < 0 || v > 1 {
				return nil, fmt.Errorf("room, damping and wet must be between 0.0 and 1.0: %v", v)
			}
		}
		rc.Seed = seed
		rc.TapLimit = tapLimit
		return effectTool{
			targetRate: ac.TargetRate,
			suffix:     "reverb",
			newEffect: func() (audio.AudioEffect, error) {
				return audio.NewReverbEffect(rc), nil
			},
		}.process, nil
	}
}

func bindPitch(fs *flag.FlagSet, cfg *config.Config) func() (processor, error) {
	pc := audio.PitchConfig{}
	targetRate := cfg.Audio.TargetRate
	fs.Float64Var(&pc.Semitones, "semitones", 0, "Shift amount, -24 to 24")
	fs.BoolVar(&pc.PreserveTiming, "preserve-timing", false, "Keep the original duration")
	fs.IntVar(&pc.FrameSize, "frame", 0, "Overlap-add frame size (power of two, 0 = 4096)")
	fs.IntVar(&targetRate, "rate", targetRate, "Output sample rate (0 = keep)")

	return func() (processor, error) {
		if math.Abs(pc.Semitones) > 24 {
			return nil, fmt.Errorf("semitones must be between -24 and 24: %v", pc.Semitones)
		}
		return effectTool{
			targetRate: targetRate,
			suffix:     "pitch",
			newEffect: func() (audio.AudioEffect, error) {
				return audio.NewPitchShiftEffect(pc), nil
			},
		}.process, nil
	}
}

// silenceDetails is reported by the silence tool.
type silenceDetails struct {
	Regions       []audio.Region `json:"regions"`
	RemovedFrames int            `json:"removed_frames,omitempty"`
	KeptFrames    int            `json:"kept_frames,omitempty"`
}

func bindSilence(fs *flag.FlagSet, cfg *config.Config) func() (processor, error) {
	ac := cfg.Audio
	sc := ac.SilenceConfig()
	var detectOnly bool
	fs.Float64Var(&sc.ThresholdDB, "threshold", sc.ThresholdDB, "Silence threshold in dBFS (0 uses -40)")
	fs.DurationVar(&sc.MinDuration, "min", sc.MinDuration, "Shortest silence that is removed (0 uses 500ms)")
	fs.DurationVar(&sc.Padding, "padding", sc.Padding, "Silence kept next to audio")
	fs.BoolVar(&detectOnly, "detect-only", false, "Report silent regions without writing audio")
	fs.IntVar(&ac.TargetRate, "rate", ac.TargetRate, "Output sample rate (0 = keep)")

	return func() (processor, error) {
		if sc.ThresholdDB > 0 || sc.MinDuration < 0 || sc.Padding < 0 {
			return nil, errors.New("threshold must be <= 0 dBFS and durations non-negative")
		}
		if detectOnly {
			return func(_ context.Context, in *file.Input, _ string) (*outcome, error) {
				buf, err := file.DecodeAudio(in)
				if err != nil {
					return nil, err
				}
				regions, err := audio.DetectSilence(buf, sc)
				if err != nil {
					return nil, err
				}
				return &outcome{Result: silenceDetails{Regions: regions}}, nil
			}, nil
		}
		return effectTool{
			targetRate: ac.TargetRate,
			suffix:     "nosilence",
			newEffect: func() (audio.AudioEffect, error) {
				return audio.NewSilenceTrimEffect(sc), nil
			},
			details: func(e audio.AudioEffect) any {
				rep := e.(*audio.SilenceTrimEffect).LastReport()
				if rep == nil {
					return nil
				}
				return silenceDetails{Regions: rep.Regions, RemovedFrames: rep.RemovedFrames, KeptFrames: rep.KeptFrames}
			},
		}.process, nil
	}
}

func bindResample(fs *flag.FlagSet, _ *config.Config) func() (processor, error) {
	var rate int
	fs.IntVar(&rate, "rate", 0, "Output sample rate in Hz (required)")

	return func() (processor, error) {
		if rate <= 0 {
			return nil, errors.New("-rate must be a positive sample rate")
		}
		return effectTool{targetRate: rate, suffix: fmt.Sprintf("%dhz", rate)}.process, nil
	}
}

func bindTrim(fs *flag.FlagSet, cfg *config.Config) func() (processor, error) {
	var (
		start, end      time.Duration
		fadeIn, fadeOut time.Duration
		peak            float64
	)
	targetRate := cfg.Audio.TargetRate
	fs.DurationVar(&start, "start", 0, "Start of the kept range")
	fs.DurationVar(&end, "end", 0, "End of the kept range (0 = end of input)")
	fs.DurationVar(&fadeIn, "fade-in", 0, "Fade-in length")
	fs.DurationVar(&fadeOut, "fade-out", 0, "Fade-out length")
	fs.Float64Var(&peak, "normalize", 0, "Normalize peak to this level, 0 < level <= 1 (0 = off)")
	fs.IntVar(&targetRate, "rate", targetRate, "Output sample rate (0 = keep)")

	return func() (processor, error) {
		if start < 0 || end < 0 || fadeIn < 0 || fadeOut < 0 {
			return nil, errors.New("durations cannot be negative")
		}
		if end != 0 && end <= start {
			return nil, fmt.Errorf("-end %v must be after -start %v", end, start)
		}
		if peak < 0 || peak > 1 {
			return nil, fmt.Errorf("-normalize must be between 0 and 1: %v", peak)
		}

		tool := effectTool{targetRate: targetRate, suffix: "trimmed"}
		if peak > 0 {
			tool.newEffect = func() (audio.AudioEffect, error) {
				return audio.NewNormalizeEffect(peak)
			}
		}

		return func(ctx context.Context, in *file.Input, outDir string) (*outcome, error) {
			buf, err := file.DecodeAudio(in)
			if err != nil {
				return nil, err
			}
			cut, err := audio.Trim(buf, start, end)
			if err != nil {
				return nil, err
			}
			if fadeIn > 0 || fadeOut > 0 {
				if cut, err = audio.Fade(cut, fadeIn, fadeOut); err != nil {
					return nil, err
				}
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			logrus.WithFields(logrus.Fields{
				"function": "trim",
				"input":    in.Name,
				"frames":   cut.Frames(),
			}).Debug("Trimmed audio")
			return tool.apply(in, cut, outDir)
		}, nil
	}
}

func bindOpus2Wav(fs *flag.FlagSet, cfg *config.Config) func() (processor, error) {
	targetRate := cfg.Audio.TargetRate
	fs.IntVar(&targetRate, "rate", targetRate, "Output sample rate (0 = keep 48000 for Opus)")

	return func() (processor, error) {
		if targetRate < 0 {
			return nil, fmt.Errorf("-rate cannot be negative: %d", targetRate)
		}
		return effectTool{targetRate: targetRate}.process, nil
	}
}

// paletteResult is reported by the palette tool.
type paletteResult struct {
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Swatches []imaging.Swatch `json:"swatches"`
}

func bindPalette(fs *flag.FlagSet, cfg *config.Config) func() (processor, error) {
	pc := imaging.DefaultPaletteConfig()
	pc.Colors = cfg.Image.PaletteColors
	var swatchSize int
	fs.IntVar(&pc.Colors, "colors", pc.Colors, "Number of colours (1-32)")
	fs.Uint64Var(&pc.Seed, "seed", 0, "Clustering seed")
	fs.IntVar(&pc.MaxDimension, "max-dim", pc.MaxDimension, "Downscale the longest side to this many pixels")
	fs.IntVar(&swatchSize, "swatch", 0, "Also write a palette strip PNG with squares of this size (0 = off)")

	return func() (processor, error) {
		if err := limits.ValidatePaletteColors(pc.Colors); err != nil {
			return nil, err
		}
		if swatchSize < 0 {
			return nil, fmt.Errorf("-swatch cannot be negative: %d", swatchSize)
		}
		return func(_ context.Context, in *file.Input, outDir string) (*outcome, error) {
			img, err := file.DecodeImage(in)
			if err != nil {
				return nil, err
			}
			swatches, err := imaging.ExtractPalette(img, pc)
			if err != nil {
				return nil, err
			}
			out := &outcome{Result: paletteResult{
				Width:    img.Bounds().Dx(),
				Height:   img.Bounds().Dy(),
				Swatches: swatches,
			}}
			if swatchSize > 0 {
				strip, err := imaging.PaletteImage(swatches, swatchSize)
				if err != nil {
					return nil, err
				}
				art, err := writePNG(outDir, in, "palette", strip)
				if err != nil {
					return nil, err
				}
				out.Artifacts = append(out.Artifacts, art)
			}
			return out, nil
		}, nil
	}
}

// watermarkResult is reported by the watermark tool.
type watermarkResult struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Position string `json:"position"`
}

func bindWatermark(fs *flag.FlagSet, cfg *config.Config) func() (processor, error) {
	ic := cfg.Image
	defaults := imaging.DefaultWatermarkConfig("")
	var (
		text, hex     string
		scale, margin int
	)
	fs.StringVar(&text, "text", "", "Watermark text (required)")
	fs.StringVar(&ic.WatermarkPosition, "position", ic.WatermarkPosition, "bottom-right, bottom-left, top-right, top-left or center")
	fs.Float64Var(&ic.WatermarkOpacity, "opacity", ic.WatermarkOpacity, "Opacity, 0.0 to 1.0")
	fs.IntVar(&scale, "scale", defaults.Scale, "Glyph magnification")
	fs.IntVar(&margin, "margin", defaults.Margin, "Distance from the edges in pixels")
	fs.StringVar(&hex, "color", "#ffffff", "Text colour as #rrggbb")

	return func() (processor, error) {
		if text == "" {
			return nil, errors.New("-text is required")
		}
		if err := limits.ValidateWatermarkText(text); err != nil {
			return nil, err
		}
		pos, err := imaging.ParsePosition(ic.WatermarkPosition)
		if err != nil {
			return nil, err
		}
		c, err := imaging.ParseHex(hex)
		if err != nil {
			return nil, err
		}
		if ic.WatermarkOpacity < 0 || ic.WatermarkOpacity > 1 {
			return nil, fmt.Errorf("-opacity must be between 0.0 and 1.0: %v", ic.WatermarkOpacity)
		}
		if scale < 1 || margin < 0 {
			return nil, fmt.Errorf("-scale must be >= 1 and -margin >= 0")
		}
		wc := imaging.WatermarkConfig{
			Text:     text,
			Position: pos,
			Opacity:  ic.WatermarkOpacity,
			Scale:    scale,
			Margin:   margin,
			Color:    c,
		}

		return func(_ context.Context, in *file.Input, outDir string) (*outcome, error) {
			img, err := file.DecodeImage(in)
			if err != nil {
				return nil, err
			}
			marked, err := imaging.Watermark(img, wc)
			if err != nil {
				return nil, err
			}
			art, err := writePNG(outDir, in, "watermarked", marked)
			if err != nil {
				return nil, err
			}
			return &outcome{
				Result: watermarkResult{
					Width:    marked.Bounds().Dx(),
					Height:   marked.Bounds().Dy(),
					Position: pos.String(),
				},
				Artifacts: []*file.Artifact{art},
			}, nil
		}, nil
	}
}
