// Package main provides the command-line interface for trashcam.
//
// # Overview
//
// The trashcam command opens a frame source, runs every frame through the
// corruption pipeline and shows the result in a window, in the terminal, or
// renders a fixed number of frames headlessly and writes a PNG snapshot.
//
// # Usage
//
// Webcam through ffmpeg in a window:
//
//	go run ./cmd/trashcam -source mjpeg -preset neon
//
// Animated test card in the terminal (logs go to a file, the screen is busy):
//
//	go run ./cmd/trashcam -display terminal -log-file trashcam.log
//
// Corrupt a photo without a display; the snapshot name is printed:
//
//	go run ./cmd/trashcam -source still -input photo.jpg -display none -frames 60
//
// # Configuration Options
//
// Source configuration:
//   - -source: pattern, still or mjpeg (default: pattern)
//   - -input: image file for the still source (png, jpeg, gif, bmp, tiff, webp)
//   - -ffmpeg, -format: capture tool and its input format
//   - -device-environment, -device-user: capture device per facing direction
//   - -facing: initial direction (default: environment)
//
// Display configuration:
//   - -display: window, terminal or none (default: window)
//   - -width, -height, -aspect, -fps
//
// Look configuration:
//   - -preset: mall, buffer, neon, digi or a custom preset name
//   - -presets-file: YAML file with custom presets
//   - -effects: effect switches after the preset, e.g. bars,-date
//   - -res: working resolution short side, clamped to the safe range
//   - -seed: random seed for reproducible corruption
//
// Output and logging:
//   - -snap-dir: snapshot directory
//   - -frames: frames rendered before the snapshot with -display none
//   - -log-level, -log-file
//
// # Exit Codes
//
//   - 0: clean shutdown
//   - 1: configuration error, camera acquisition failure or pipeline error
//   - 2: invalid flags
package main
