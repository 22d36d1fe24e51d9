// amqpdump decodes captured AMQP 1.0 encoded bytes and prints every value
// as an indented tree with offsets, format codes and categories.
//
// Captures may be raw bytes or hex text, optionally compressed with zstd,
// gzip or lz4 (detected from the magic bytes). Each top-level value is also
// re-encoded: once from its bytes, which must reproduce the input, and once
// from the decoded Go value with canonical format codes, which shows whether
// the producer used compact encodings.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/amqp-codec/codec"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	input       string
	hex         bool
	format      string
	interactive bool
	color       string
	verbose     bool
	strictASCII bool
	maxSize     int
	noVerify    bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("amqpdump", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.input, "input", "f", "", "capture file (default: stdin, or the first argument)")
	flagSet.BoolVarP(&opts.hex, "hex", "x", false, "input is hex text rather than raw bytes")
	flagSet.StringVarP(&opts.format, "format", "o", "text", "output format: text, json, yaml or cbor")
	flagSet.BoolVarP(&opts.interactive, "interactive", "i", false, "browse the decoded tree in a TUI")
	flagSet.StringVar(&opts.color, "color", "auto", "colorize text output: auto, always or never")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log codec debug events to stderr")
	flagSet.BoolVar(&opts.strictASCII, "strict-ascii", false, "reject symbols with bytes above 0x7f")
	flagSet.IntVar(&opts.maxSize, "max-size", 0, "reject top-level values larger than this many bytes")
	flagSet.BoolVar(&opts.noVerify, "no-verify", false, "skip the re-encoding checks")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		if opts.input != "" || len(rest) > 1 {
			return fmt.Errorf("unexpected argument: %s", rest[len(rest)-1])
		}
		opts.input = rest[0]
	}

	format, err := parseOutputFormat(opts.format)
	if err != nil {
		return err
	}
	mode, err := parseColorMode(opts.color)
	if err != nil {
		return err
	}

	log := newLogger(stderr, opts.verbose)
	defer func() { _ = log.Sync() }()
	codec.SetLogger(log)
	defer codec.SetLogger(nil)

	regOpts := []codec.Option{codec.WithMaxSize(opts.maxSize)}
	if opts.strictASCII {
		regOpts = append(regOpts, codec.WithStrictASCII())
	}
	reg := codec.NewRegistry(regOpts...)

	data, comp, err := loadInput(opts.input, stdin, opts.hex)
	if err != nil {
		return err
	}
	log.Debug("capture loaded",
		zap.String("source", sourceName(opts.input)),
		zap.String("compression", string(comp)),
		zap.Int("bytes", len(data)))

	roots, decodeErr := decodeCapture(reg, data)

	if opts.interactive {
		return runInteractive(sourceName(opts.input), roots)
	}

	var checks []checkResult
	if !opts.noVerify {
		checks = verify(reg, data, log)
	}

	if format == formatText {
		p := newPalette(newRenderer(stdout, mode, isTerminal(stdout)))
		if err := writeText(stdout, p, sourceName(opts.input), data, roots, checks); err != nil {
			return err
		}
	} else {
		r := report{
			Source:      sourceName(opts.input),
			Compression: string(comp),
			Size:        len(data),
			Values:      roots,
			Checks:      checks,
		}
		if err := export(stdout, format, r); err != nil {
			return err
		}
	}

	if decodeErr != nil {
		return decodeErr
	}
	if failed := failedChecks(checks); failed > 0 {
		return fmt.Errorf("%d of %d values failed the re-encoding check", failed, len(checks))
	}
	return nil
}

func writeText(w io.Writer, p palette, source string, data []byte, roots []*node, checks []checkResult) error {
	if _, err := fmt.Fprintf(w, "%s %s (%d bytes)\n\n", p.title.Render("amqpdump"), source, len(data)); err != nil {
		return err
	}
	if err := renderText(w, p, roots); err != nil {
		return err
	}
	if len(checks) > 0 {
		fmt.Fprintln(w)
	}
	for _, c := range checks {
		var line string
		switch {
		case c.Error != "":
			line = p.err.Render(fmt.Sprintf("%08x  error: %s", c.Offset, c.Error))
		case !c.RoundTrip:
			line = p.err.Render(fmt.Sprintf("%08x  re-encoding differs from input", c.Offset))
		case c.Canonical:
			line = p.ok.Render(fmt.Sprintf("%08x  ok, canonical", c.Offset))
		default:
			line = p.ok.Render(fmt.Sprintf("%08x  ok", c.Offset)) +
				p.help.Render(fmt.Sprintf(", canonical form is %d bytes (input %d)", c.CanonicalSize, c.Size))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", p.help.Render(summary(roots)))
	return err
}

func failedChecks(checks []checkResult) int {
	n := 0
	for _, c := range checks {
		if c.Error != "" || !c.RoundTrip {
			n++
		}
	}
	return n
}

func sourceName(path string) string {
	if path == "" || path == "-" {
		return "<stdin>"
	}
	return path
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newLogger writes JSON warnings by default and console debug output when
// verbose.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if verbose {
		level = zapcore.DebugLevel
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `amqpdump decodes AMQP 1.0 encoded bytes.

Usage:
  amqpdump [flags] [capture]

Examples:
  # Decode a raw capture
  amqpdump frame.bin

  # Decode hex from stdin
  echo "c0 07 02 71 00000001 40" | amqpdump --hex

  # Export a compressed capture as YAML
  amqpdump --format yaml capture.bin.zst

Flags:
`)
	flagSet.PrintDefaults()
}
