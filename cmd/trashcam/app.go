package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/trashcam"
	"github.com/opd-ai/trashcam/display"
	"github.com/opd-ai/trashcam/display/window"
	"github.com/opd-ai/trashcam/limits"
	"github.com/opd-ai/trashcam/params"
	"github.com/opd-ai/trashcam/source"
	"github.com/opd-ai/trashcam/video"
)

// headlessIdleLimit bounds how many consecutive empty ticks the headless
// renderer tolerates before giving up.
const headlessIdleLimit = 300

// startError marks a camera acquisition failure at startup.
type startError struct {
	err error
}

func (e *startError) Error() string { return e.err.Error() }
func (e *startError) Unwrap() error { return e.err }

// buildSource creates the frame source selected on the command line.
func buildSource(config *CLIConfig) (source.Source, error) {
	switch config.source {
	case sourcePattern:
		return source.NewPattern(config.width, config.height), nil
	case sourceStill:
		return source.NewStill(config.input), nil
	case sourceMJPEG:
		cfg := source.DefaultMJPEGConfig()
		cfg.FFmpegPath = config.ffmpeg
		if config.format != "" {
			cfg.InputFormat = config.format
		}
		if config.deviceEnvironment != "" {
			cfg.Devices[source.FacingEnvironment] = config.deviceEnvironment
		}
		if config.deviceUser != "" {
			cfg.Devices[source.FacingUser] = config.deviceUser
		}
		if config.fps > 0 {
			cfg.FPS = config.fps
		}
		cfg.StartTimeout = config.acquireTimeout
		return source.NewMJPEG(cfg), nil
	}
	return nil, fmt.Errorf("unknown source %q", config.source)
}

// buildStore creates the control store: built-in presets, custom presets,
// the starting preset, effect switches and the resolution override, in that
// order.
func buildStore(config *CLIConfig) (*params.Store, error) {
	store := params.NewStore(params.DefaultSettings())

	if config.presetsFile != "" {
		presets, err := params.LoadPresetFile(config.presetsFile)
		if err != nil {
			return nil, err
		}
		store.AddPresets(presets)
	}

	if config.preset != "" {
		if err := store.ApplyPreset(config.preset); err != nil {
			return nil, err
		}
	}

	switches, err := parseEffectSwitches(config.effects)
	if err != nil {
		return nil, err
	}
	for _, sw := range switches {
		store.SetEffect(sw.id, sw.on)
	}

	if config.resolution != "" {
		res, err := limits.ParseResolution(config.resolution)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":   "buildStore",
				"resolution": config.resolution,
				"used":       res,
				"error":      err,
			}).Warn("Resolution coerced")
		}
		store.SetResolution(res)
	}

	return store, nil
}

// buildCamera wires source, controls and exporter into a camera session.
func buildCamera(config *CLIConfig, store *params.Store) (*trashcam.Camera, error) {
	src, err := buildSource(config)
	if err != nil {
		return nil, err
	}
	exporter, err := trashcam.NewDirExporter(config.snapDir)
	if err != nil {
		return nil, err
	}
	facing, err := source.ParseFacing(config.facing)
	if err != nil {
		return nil, err
	}

	options := trashcam.NewOptions()
	options.Source = src
	options.Controls = store
	options.Exporter = exporter
	options.Facing = facing
	options.AcquireTimeout = config.acquireTimeout
	options.Geometry = video.Geometry{
		ViewportWidth:    config.width,
		ViewportHeight:   config.height,
		DevicePixelRatio: 1,
		Aspect:           config.aspect,
	}
	if config.seed != 0 {
		options.Seed = config.seed
	}

	cam, err := trashcam.New(options)
	if err != nil {
		return nil, err
	}
	// Trace logging adds a metrics line for every frame.
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		cam.Stats().EnableDetailedLogging(true)
	}
	return cam, nil
}

// run starts the camera and hands it to the selected display.
func run(ctx context.Context, config *CLIConfig, out io.Writer) error {
	store, err := buildStore(config)
	if err != nil {
		return err
	}
	cam, err := buildCamera(config, store)
	if err != nil {
		return err
	}
	defer cam.Close()

	if err := cam.Start(ctx); err != nil {
		return &startError{err: err}
	}

	ctrl := display.NewController(cam, store)

	switch config.display {
	case displayWindow:
		game := window.NewGame(ctx, ctrl)
		if err := window.Run(game, window.Config{
			Title:  "trashcam",
			Width:  config.width,
			Height: config.height,
			TPS:    config.fps,
		}); err != nil {
			return err
		}
		return game.Err()

	case displayTerminal:
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		defer screen.Fini()

		err = display.NewTerminal(screen, ctrl, config.fps).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err

	default:
		name, err := renderHeadless(ctx, cam, config.frames, time.Second/time.Duration(config.fps))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", name)
		return nil
	}
}

// frameTicker is the part of a camera the headless renderer drives.
type frameTicker interface {
	Tick() (*video.Frame, error)
	Snapshot(ctx context.Context) (string, error)
}

// renderHeadless renders frames without a display and exports the last one.
func renderHeadless(ctx context.Context, cam frameTicker, frames int, interval time.Duration) (string, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rendered, idle := 0, 0
	for rendered < frames {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		_, err := cam.Tick()
		switch {
		case err == nil:
			rendered++
			idle = 0
		case display.IsIdle(err):
			idle++
			if idle >= headlessIdleLimit {
				return "", fmt.Errorf("no frames after %d attempts: %w", idle, err)
			}
		default:
			return "", err
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "renderHeadless",
		"frames":   rendered,
	}).Info("Headless render complete")

	return cam.Snapshot(ctx)
}
