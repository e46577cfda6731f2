// Package limits provides centralized geometry limits for the trashcam pipeline.
// This ensures consistent validation across buffer sizing, controls and the CLI.
package limits

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// MinResolution is the smallest accepted working buffer short side in pixels
	MinResolution = 48

	// MaxResolution is the largest accepted working buffer short side in pixels
	MaxResolution = 1080

	// DefaultResolution is used when the resolution control is missing or malformed
	DefaultResolution = 280

	// MinLongSide is the floor for the working buffer long side
	MinLongSide = 160

	// MaxDevicePixelRatio caps the output buffer scale for performance
	MaxDevicePixelRatio = 2.0

	// MaxOutputPixels is the absolute maximum pixel count of any buffer (8K UHD)
	MaxOutputPixels = 7680 * 4320

	// MaxViewportSide bounds each display surface side before any area math
	MaxViewportSide = 16384

	// DefaultSourceWidth and DefaultSourceHeight are assumed while a source
	// has not reported its dimensions yet (16:9)
	DefaultSourceWidth  = 1280
	DefaultSourceHeight = 720
)

var (
	// ErrNotNumeric indicates a control value could not be parsed
	ErrNotNumeric = errors.New("value is not numeric")

	// ErrOutOfRange indicates a value was outside its accepted range
	ErrOutOfRange = errors.New("value out of range")

	// ErrDimensionInvalid indicates a width or height cannot be used for a buffer
	ErrDimensionInvalid = errors.New("invalid dimension")
)

// ClampResolution coerces a working short side into [MinResolution, MaxResolution].
// Zero and negative values fall back to DefaultResolution.
func ClampResolution(res int) int {
	if res <= 0 {
		return DefaultResolution
	}
	if res < MinResolution {
		return MinResolution
	}
	if res > MaxResolution {
		return MaxResolution
	}
	return res
}

// ParseResolution parses a textual resolution control value.
// The returned resolution is always usable; the error describes what was coerced.
func ParseResolution(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultResolution, fmt.Errorf("%w: resolution %q", ErrNotNumeric, s)
	}
	res := int(math.Round(v))
	clamped := ClampResolution(res)
	if clamped != res {
		return clamped, fmt.Errorf("%w: resolution %d clamped to %d", ErrOutOfRange, res, clamped)
	}
	return res, nil
}

// ClampUnit coerces a scalar control into [0, 1]. NaN maps to 0.
func ClampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PercentToUnit converts a [0, 100] slider value into a clamped [0, 1] scalar.
func PercentToUnit(percent int) float64 {
	return ClampUnit(float64(percent) / 100)
}

// ClampDevicePixelRatio coerces a device pixel ratio into [1, MaxDevicePixelRatio].
func ClampDevicePixelRatio(dpr float64) float64 {
	if math.IsNaN(dpr) || dpr < 1 {
		return 1
	}
	if dpr > MaxDevicePixelRatio {
		return MaxDevicePixelRatio
	}
	return dpr
}

// ValidateDimensions checks that a buffer of width x height can be allocated.
// Returns an error with context if either side is not positive or the area is too large.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrDimensionInvalid, width, height)
	}
	// Sides are checked first so the area below cannot overflow.
	if width > MaxOutputPixels || height > MaxOutputPixels || int64(width)*int64(height) > MaxOutputPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDimensionInvalid, width, height, MaxOutputPixels)
	}
	return nil
}

// ClampViewport scales a display surface down uniformly until neither side
// exceeds MaxViewportSide. Non-positive sides are returned unchanged.
func ClampViewport(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	long := max(width, height)
	if long <= MaxViewportSide {
		return width, height
	}
	scale := float64(MaxViewportSide) / float64(long)
	w := max(1, int(math.Round(float64(width)*scale)))
	h := max(1, int(math.Round(float64(height)*scale)))
	return min(w, MaxViewportSide), min(h, MaxViewportSide)
}
