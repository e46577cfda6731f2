package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/trashcam/limits"
	"github.com/opd-ai/trashcam/params"
	"github.com/opd-ai/trashcam/source"
)

// Source kinds.
const (
	sourcePattern = "pattern"
	sourceStill   = "still"
	sourceMJPEG   = "mjpeg"
)

// Display modes.
const (
	displayWindow   = "window"
	displayTerminal = "terminal"
	displayNone     = "none"
)

// CLI configuration
type CLIConfig struct {
	source            string
	input             string
	ffmpeg            string
	format            string
	deviceUser        string
	deviceEnvironment string
	facing            string
	display           string
	preset            string
	presetsFile       string
	effects           string
	resolution        string
	seed              uint64
	snapDir           string
	frames            int
	width             int
	height            int
	aspect            float64
	fps               int
	acquireTimeout    time.Duration
	logLevel          string
	logFile           string
	help              bool
}

// parseCLIFlags parses command-line flags and returns the configuration.
func parseCLIFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	config := &CLIConfig{}

	// Source configuration
	fs.StringVar(&config.source, "source", sourcePattern, "Frame source (pattern, still, mjpeg)")
	fs.StringVar(&config.input, "input", "", "Image file for the still source")
	fs.StringVar(&config.ffmpeg, "ffmpeg", "ffmpeg", "ffmpeg binary for the mjpeg source")
	fs.StringVar(&config.format, "format", "", "ffmpeg input format (default: platform capture API)")
	fs.StringVar(&config.deviceUser, "device-user", "", "Capture device of the user-facing camera")
	fs.StringVar(&config.deviceEnvironment, "device-environment", "", "Capture device of the environment-facing camera")
	fs.StringVar(&config.facing, "facing", string(source.FacingEnvironment), "Initial camera direction (environment, user)")
	fs.DurationVar(&config.acquireTimeout, "acquire-timeout", 15*time.Second, "Camera acquisition timeout")

	// Display configuration
	fs.StringVar(&config.display, "display", displayWindow, "Display surface (window, terminal, none)")
	fs.IntVar(&config.width, "width", 1280, "Window width, or render width when -display none")
	fs.IntVar(&config.height, "height", 720, "Window height, or render height when -display none")
	fs.Float64Var(&config.aspect, "aspect", 0, "Fixed output aspect ratio (width/height, 0 follows the display)")
	fs.IntVar(&config.fps, "fps", 30, "Frame rate of the terminal and headless loops")

	// Look configuration
	fs.StringVar(&config.preset, "preset", "", "Preset to start with ("+strings.Join(params.BuiltinNames(), ", ")+" or a custom name)")
	fs.StringVar(&config.presetsFile, "presets-file", "", "YAML file with custom presets")
	fs.StringVar(&config.effects, "effects", "", "Effect switches applied after the preset, e.g. bars,-date")
	fs.StringVar(&config.resolution, "res", "", "Working resolution short side in pixels (clamped to the safe range)")
	fs.Uint64Var(&config.seed, "seed", 0, "Random seed (0 picks one from the clock)")

	// Output configuration
	fs.StringVar(&config.snapDir, "snap-dir", ".", "Directory for snapshots")
	fs.IntVar(&config.frames, "frames", 30, "Frames to render before the snapshot when -display none")

	// Logging configuration
	fs.StringVar(&config.logLevel, "log-level", "INFO", "Log level (TRACE, DEBUG, INFO, WARN, ERROR); TRACE logs metrics every frame")
	fs.StringVar(&config.logFile, "log-file", "", "Log file path (default: stderr, discarded in terminal mode)")

	// Help
	fs.BoolVar(&config.help, "help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return config, nil
}

// printUsage prints the usage information.
func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "TRASHCAM - real-time camera corruption")
	fmt.Fprintln(out, "======================================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintf(out, "  %s [options]\n", fs.Name())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Keys: b bend, f flip, s snapshot, 1-4 presets, p palette, q/Esc quit")
	fmt.Fprintln(out, "      v/Tab select slider, +/- or arrows adjust it")
	fmt.Fprintln(out, "      toggles: k blocks, t tear, c bitcrush, r rgbsplit, n noise,")
	fmt.Fprintln(out, "               o falsecolor, m mash, e feedback, a bars, d date")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintf(out, "  # Webcam in a window\n")
	fmt.Fprintf(out, "  %s -source mjpeg -preset neon\n", fs.Name())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  # Test card in the terminal\n")
	fmt.Fprintf(out, "  %s -display terminal -log-file trashcam.log\n", fs.Name())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  # Corrupt a photo without a display\n")
	fmt.Fprintf(out, "  %s -source still -input photo.jpg -display none -frames 60 -snap-dir out\n", fs.Name())
}

// validateCLIConfig validates the CLI configuration.
func validateCLIConfig(config *CLIConfig) error {
	switch config.source {
	case sourcePattern, sourceMJPEG:
	case sourceStill:
		if config.input == "" {
			return fmt.Errorf("still source requires -input")
		}
	default:
		return fmt.Errorf("unknown source %q: must be pattern, still or mjpeg", config.source)
	}

	switch config.display {
	case displayWindow, displayTerminal:
	case displayNone:
		if config.frames <= 0 {
			return fmt.Errorf("frames must be positive when display is none")
		}
	default:
		return fmt.Errorf("unknown display %q: must be window, terminal or none", config.display)
	}

	if _, err := source.ParseFacing(config.facing); err != nil {
		return err
	}

	if err := limits.ValidateDimensions(config.width, config.height); err != nil {
		return fmt.Errorf("invalid size: %w", err)
	}

	// Out of range values are clamped later; only garbage is rejected.
	if config.resolution != "" {
		if _, err := limits.ParseResolution(config.resolution); errors.Is(err, limits.ErrNotNumeric) {
			return fmt.Errorf("invalid resolution: %w", err)
		}
	}

	if _, err := parseEffectSwitches(config.effects); err != nil {
		return fmt.Errorf("invalid effects: %w", err)
	}

	if config.aspect < 0 {
		return fmt.Errorf("aspect cannot be negative")
	}

	if config.fps <= 0 || config.fps > 240 {
		return fmt.Errorf("fps must be between 1 and 240")
	}

	if config.acquireTimeout <= 0 {
		return fmt.Errorf("acquire timeout must be positive")
	}

	if _, err := logrus.ParseLevel(config.logLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

// effectSwitch turns one effect on or off.
type effectSwitch struct {
	id params.EffectID
	on bool
}

// parseEffectSwitches parses a comma separated effect list. A leading '-'
// switches the effect off, a leading '+' or none switches it on.
func parseEffectSwitches(list string) ([]effectSwitch, error) {
	var switches []effectSwitch
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		on := true
		switch item[0] {
		case '-':
			on = false
			item = item[1:]
		case '+':
			item = item[1:]
		}
		id, err := params.ParseEffectID(item)
		if err != nil {
			return nil, err
		}
		switches = append(switches, effectSwitch{id: id, on: on})
	}
	return switches, nil
}

// setupLogging configures logrus from the CLI config. The returned closer
// releases the log file.
func setupLogging(config *CLIConfig) (io.Closer, error) {
	level, err := logrus.ParseLevel(strings.ToLower(config.logLevel))
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(level)

	switch {
	case config.logFile != "":
		f, err := os.OpenFile(config.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logrus.SetOutput(f)
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return f, nil
	case config.display == displayTerminal:
		// The terminal display owns the screen.
		logrus.SetOutput(io.Discard)
	default:
		logrus.SetOutput(os.Stderr)
	}
	return io.NopCloser(nil), nil
}

// setupSignalHandling sets up graceful shutdown on interrupt signals.
func setupSignalHandling(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logrus.WithFields(logrus.Fields{
			"function": "setupSignalHandling",
			"signal":   sig.String(),
		}).Info("Received signal, shutting down")
		cancel()
	}()
}

// acquisitionMessage explains a failed camera start to the user.
func acquisitionMessage(err error) string {
	switch {
	case errors.Is(err, source.ErrPermissionDenied):
		return "Camera access was denied. Grant camera permission to this program and try again."
	case errors.Is(err, source.ErrDeviceUnavailable):
		return "No usable camera was found. Check -device-environment / -device-user or try -source pattern."
	default:
		return fmt.Sprintf("Could not start the camera: %v", err)
	}
}

// main is the entry point for trashcam.
func main() {
	fs := flag.NewFlagSet("trashcam", flag.ExitOnError)
	cliConfig, err := parseCLIFlags(fs, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if cliConfig.help {
		printUsage(fs)
		os.Exit(0)
	}

	if err := validateCLIConfig(cliConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Use -help for usage information.\n")
		os.Exit(1)
	}

	logCloser, err := setupLogging(cliConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging setup failed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	exitCode := 0
	if err := run(ctx, cliConfig, os.Stdout); err != nil {
		var startErr *startError
		if errors.As(err, &startErr) {
			fmt.Fprintln(os.Stderr, acquisitionMessage(startErr.err))
		} else {
			fmt.Fprintf(os.Stderr, "trashcam: %v\n", err)
		}
		exitCode = 1
	}

	logCloser.Close()
	os.Exit(exitCode)
}
