package video

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/trashcam/limits"
)

// Geometry holds every input that determines buffer dimensions.
// It doubles as the composite cache key of the BufferManager.
type Geometry struct {
	ViewportWidth    int     // display surface width in logical pixels
	ViewportHeight   int     // display surface height in logical pixels
	DevicePixelRatio float64 // physical pixels per logical pixel
	Resolution       int     // working buffer short side in pixels
	Aspect           float64 // target width/height, 0 follows the viewport
}

// Size is a pixel width and height.
type Size struct {
	Width  int
	Height int
}

// Aspect returns width/height, or 0 for a degenerate size.
func (s Size) Aspect() float64 {
	if s.Width <= 0 || s.Height <= 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

// Layout is the derived buffer geometry. Feedback always equals Output.
type Layout struct {
	Working Size
	Output  Size
}

// normalized coerces every field into a usable range.
func (g Geometry) normalized() Geometry {
	if g.ViewportWidth <= 0 || g.ViewportHeight <= 0 {
		g.ViewportWidth = limits.DefaultSourceWidth
		g.ViewportHeight = limits.DefaultSourceHeight
	}
	g.ViewportWidth, g.ViewportHeight = limits.ClampViewport(g.ViewportWidth, g.ViewportHeight)
	g.DevicePixelRatio = limits.ClampDevicePixelRatio(g.DevicePixelRatio)
	g.Resolution = limits.ClampResolution(g.Resolution)
	if math.IsNaN(g.Aspect) || math.IsInf(g.Aspect, 0) || g.Aspect < 0 {
		g.Aspect = 0
	}
	return g
}

// ComputeLayout derives working and output dimensions from the geometry.
// It is a pure function and never returns a non-positive dimension.
func ComputeLayout(g Geometry) Layout {
	g = g.normalized()

	out := Size{
		Width:  int(math.Floor(float64(g.ViewportWidth) * g.DevicePixelRatio)),
		Height: int(math.Floor(float64(g.ViewportHeight) * g.DevicePixelRatio)),
	}
	if pixels := float64(out.Width) * float64(out.Height); pixels > limits.MaxOutputPixels {
		shrink := math.Sqrt(limits.MaxOutputPixels / pixels)
		out.Width = int(float64(out.Width) * shrink)
		out.Height = int(float64(out.Height) * shrink)
	}
	if g.Aspect > 0 {
		out = fitAspect(out, g.Aspect)
	}
	out.Width = max(out.Width, 1)
	out.Height = max(out.Height, 1)

	return Layout{
		Working: workingSize(g.Resolution, out),
		Output:  out,
	}
}

// fitAspect returns the largest size of the given aspect inside bounds.
func fitAspect(bounds Size, aspect float64) Size {
	if bounds.Aspect() > aspect {
		return Size{Width: int(math.Round(float64(bounds.Height) * aspect)), Height: bounds.Height}
	}
	return Size{Width: bounds.Width, Height: int(math.Round(float64(bounds.Width) / aspect))}
}

// workingSize applies the resolution control as the short side of the
// output aspect, with the long side floored at limits.MinLongSide.
func workingSize(res int, out Size) Size {
	landscape := out.Width >= out.Height
	outShort, outLong := out.Height, out.Width
	if !landscape {
		outShort, outLong = out.Width, out.Height
	}
	ratio := float64(outLong) / float64(outShort)

	short := min(res, outShort)
	long := int(math.Round(float64(short) * ratio))
	if long < limits.MinLongSide {
		long = limits.MinLongSide
		short = max(1, int(math.Round(float64(long)/ratio)))
	}

	if landscape {
		return Size{Width: long, Height: short}
	}
	return Size{Width: short, Height: long}
}

// BufferManager owns the working, output and feedback frames and reallocates
// them when the geometry key changes.
type BufferManager struct {
	key      Geometry
	valid    bool
	layout   Layout
	working  *Frame
	output   *Frame
	feedback *Frame
}

// NewBufferManager creates a manager with no buffers; the first Ensure allocates.
func NewBufferManager() *BufferManager {
	return &BufferManager{}
}

// Ensure reallocates the buffers if g differs from the cached key or the
// cache was invalidated. It reports whether a reallocation happened.
// Buffer contents are discarded on reallocation.
func (m *BufferManager) Ensure(g Geometry) (bool, error) {
	key := g.normalized()
	if m.valid && key == m.key {
		return false, nil
	}

	layout := ComputeLayout(key)
	working, err := NewFrame(layout.Working.Width, layout.Working.Height)
	if err != nil {
		return false, fmt.Errorf("working buffer: %w", err)
	}
	output, err := NewFrame(layout.Output.Width, layout.Output.Height)
	if err != nil {
		return false, fmt.Errorf("output buffer: %w", err)
	}
	feedback, err := NewFrame(layout.Output.Width, layout.Output.Height)
	if err != nil {
		return false, fmt.Errorf("feedback buffer: %w", err)
	}

	m.key = key
	m.valid = true
	m.layout = layout
	m.working = working
	m.output = output
	m.feedback = feedback

	logrus.WithFields(logrus.Fields{
		"function":       "BufferManager.Ensure",
		"viewport":       fmt.Sprintf("%dx%d", key.ViewportWidth, key.ViewportHeight),
		"dpr":            key.DevicePixelRatio,
		"resolution":     key.Resolution,
		"working_width":  layout.Working.Width,
		"working_height": layout.Working.Height,
		"output_width":   layout.Output.Width,
		"output_height":  layout.Output.Height,
	}).Info("Reallocated frame buffers")

	return true, nil
}

// Invalidate forces the next Ensure to reallocate.
func (m *BufferManager) Invalidate() {
	m.valid = false
}

// Layout returns the current layout.
func (m *BufferManager) Layout() Layout {
	return m.layout
}

// Working returns the low-resolution working frame.
func (m *BufferManager) Working() *Frame {
	return m.working
}

// Output returns the full-resolution output frame.
func (m *BufferManager) Output() *Frame {
	return m.output
}

// Feedback returns the previous-output frame.
func (m *BufferManager) Feedback() *Frame {
	return m.feedback
}
