package video

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/opd-ai/trashcam/limits"
)

var (
	// ErrEmptyFrame indicates a nil frame or a frame with no pixels
	ErrEmptyFrame = errors.New("frame is empty")

	// ErrEmptySource indicates the frame source has not produced an image yet
	ErrEmptySource = errors.New("source has no image")

	// ErrFrameSkipped indicates the pipeline skipped a frame because of degenerate geometry
	ErrFrameSkipped = errors.New("frame skipped")

	// ErrSizeMismatch indicates two frames that must share dimensions do not
	ErrSizeMismatch = errors.New("frame size mismatch")
)

// Frame is a rectangular RGBA pixel grid. Pix holds 4 bytes per pixel in
// row-major order with Stride bytes per row.
type Frame struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// NewFrame allocates a zeroed (transparent black) frame.
func NewFrame(width, height int) (*Frame, error) {
	if err := limits.ValidateDimensions(width, height); err != nil {
		return nil, fmt.Errorf("allocate frame: %w", err)
	}
	return &Frame{
		Width:  width,
		Height: height,
		Stride: width * 4,
		Pix:    make([]byte, width*height*4),
	}, nil
}

// Empty reports whether the frame cannot be processed.
func (f *Frame) Empty() bool {
	if f == nil || f.Width <= 0 || f.Height <= 0 || f.Stride/4 < f.Width {
		return true
	}
	return len(f.Pix)/f.Stride < f.Height
}

// Offset returns the Pix index of the pixel at (x, y).
func (f *Frame) Offset(x, y int) int {
	return y*f.Stride + x*4
}

// ClampedOffset returns the Pix index of (x, y) with both coordinates clamped
// to the nearest edge pixel.
func (f *Frame) ClampedOffset(x, y int) int {
	return f.Offset(clampInt(x, 0, f.Width-1), clampInt(y, 0, f.Height-1))
}

// Image returns an *image.RGBA view sharing the frame's pixels.
func (f *Frame) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Stride,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Bounds returns the frame rectangle.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Fill paints every pixel with c.
func (f *Frame) Fill(c color.RGBA) {
	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*f.Stride : y*f.Stride+f.Width*4]
		for i := 0; i < len(row); i += 4 {
			row[i] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = c.A
		}
	}
}

// Clear resets every byte to zero.
func (f *Frame) Clear() {
	clear(f.Pix)
}

// CopyFrom copies src into f. Both frames must have identical dimensions.
func (f *Frame) CopyFrom(src *Frame) error {
	if f.Empty() || src.Empty() {
		return ErrEmptyFrame
	}
	if f.Width != src.Width || f.Height != src.Height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, f.Width, f.Height, src.Width, src.Height)
	}
	if f.Stride == src.Stride {
		copy(f.Pix, src.Pix)
		return nil
	}
	rowBytes := f.Width * 4
	for y := 0; y < f.Height; y++ {
		copy(f.Pix[y*f.Stride:y*f.Stride+rowBytes], src.Pix[y*src.Stride:y*src.Stride+rowBytes])
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// toByte rounds and clamps a channel value into [0, 255].
func toByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v + 0.5)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
