// Package main provides the toolsuniverse command-line interface.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/opd-ai/toolsuniverse/batch"
	"github.com/opd-ai/toolsuniverse/config"
	"github.com/opd-ai/toolsuniverse/file"
	"github.com/opd-ai/toolsuniverse/report"
	"github.com/sirupsen/logrus"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2

	flushTimeout = 2 * time.Second
)

// errUsage marks errors caused by bad command-line arguments.
var errUsage = errors.New("usage error")

// globalFlags are accepted before the subcommand name.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	outDir     string
	workers    int
	help       bool
	fs         *flag.FlagSet
}

// parseGlobalFlags parses the flags preceding the subcommand.
func parseGlobalFlags(args []string, stderr io.Writer) (*globalFlags, []string, error) {
	fs := flag.NewFlagSet("toolsuniverse", flag.ContinueOnError)
	g := &globalFlags{fs: fs}
	fs.SetOutput(stderr)

	fs.StringVar(&g.configPath, "config", "", "Path to JSON config file")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&g.logFormat, "log-format", "", "Log format (text, json)")
	fs.StringVar(&g.outDir, "out", "", "Output directory for written files")
	fs.IntVar(&g.workers, "workers", 0, "Number of inputs processed at once")
	fs.BoolVar(&g.help, "help", false, "Show help message")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	return g, fs.Args(), nil
}

// applyOverrides copies explicitly set global flags over the loaded config.
func (g *globalFlags) applyOverrides(cfg *config.Config) error {
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	if g.outDir != "" {
		cfg.OutputDir = g.outDir
	}
	if g.workers != 0 {
		cfg.Batch.Workers = g.workers
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// printUsage prints the usage information.
func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "toolsuniverse - audio and image tools")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  toolsuniverse [global options] <command> [command options] <input>...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  toolsuniverse beats song.wav")
	fmt.Fprintln(w, "  toolsuniverse -out results denoise -mode spectral -reduction 0.7 *.wav")
	fmt.Fprintln(w, "  toolsuniverse watermark -text \"(c) 2026\" -position top-left photo.png")
}

// app holds the state shared by every item of a run.
type app struct {
	cfg      *config.Config
	reporter *report.Reporter
	runner   *batch.Runner
	stdout   io.Writer
}

// outcome is the per-input output printed and recorded in the manifest.
type outcome struct {
	Result    any              `json:"result,omitempty"`
	Artifacts []*file.Artifact `json:"artifacts,omitempty"`
}

// runOutput is the JSON document printed on stdout.
type runOutput struct {
	Tool     string         `json:"tool"`
	Summary  *batch.Summary `json:"summary"`
	Manifest string         `json:"manifest,omitempty"`
}

// execute runs one subcommand over its inputs.
func (a *app) execute(ctx context.Context, cmd *command, proc processor, inputs []string) (int, error) {
	// Output names derive from item names, which are unique within a run.
	names := file.UniqueNames(inputs)
	items := make([]batch.Item, len(inputs))
	for i, p := range inputs {
		items[i] = batch.Item{Name: names[i], Path: p}
	}

	summary := a.runner.Run(ctx, items, func(ctx context.Context, item batch.Item) (any, error) {
		in, err := file.LoadLimited(item.Path, cmd.kind, a.cfg.MaxInputSize)
		if err != nil {
			return nil, err
		}
		in.Name = item.Name
		out, err := proc(ctx, in, a.cfg.OutputDir)
		if err != nil {
			return nil, err
		}
		return out, nil
	})

	manifest := file.NewManifest(cmd.name)
	for _, res := range summary.Results {
		if res.Err != nil {
			a.reporter.Capture(res.Err, logrus.Fields{"tool": cmd.name, "input": res.Path})
			continue
		}
		if out, ok := res.Output.(*outcome); ok {
			for _, art := range out.Artifacts {
				manifest.Add(art)
			}
			manifest.SetResult(res.Name, out.Result)
		}
	}

	doc := runOutput{Tool: cmd.name, Summary: summary}
	if len(manifest.Artifacts) > 0 {
		art, err := file.WriteManifest(a.cfg.OutputDir, manifest)
		if err != nil {
			return exitFailure, fmt.Errorf("writing manifest: %w", err)
		}
		doc.Manifest = art.Path
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return exitFailure, fmt.Errorf("writing result: %w", err)
	}

	if summary.Failed > 0 || summary.Skipped > 0 {
		return exitFailure, nil
	}
	return exitOK, nil
}

// run is the testable body of main. It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	g, rest, err := parseGlobalFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if g.help {
		printUsage(stdout, g.fs)
		return exitOK
	}
	if len(rest) == 0 {
		fmt.Fprintln(stderr, "Error: no command given. Use -help for usage information.")
		return exitUsage
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q. Use -help for usage information.\n", rest[0])
		return exitUsage
	}

	cfg, err := config.Load(g.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitUsage
	}
	if err := g.applyOverrides(cfg); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitUsage
	}
	if err := config.ConfigureLogging(cfg.Logging); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitUsage
	}

	proc, inputs, err := cmd.parse(rest[1:], cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	reporter, err := report.New(cfg.Report)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer reporter.Flush(flushTimeout)

	runner, err := batch.NewRunner(cfg.Batch.Workers, cfg.Batch.RatePerSecond)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	a := &app{cfg: cfg, reporter: reporter, runner: runner, stdout: stdout}
	code, err := a.execute(ctx, cmd, proc, inputs)
	if err != nil {
		reporter.Capture(err, logrus.Fields{"tool": cmd.name})
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
