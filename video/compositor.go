package video

import (
	"image"
	"image/color"
	"math"
)

// DefaultBackground is the letterbox color.
var DefaultBackground = color.RGBA{A: 255}

// Placement describes where a frame lands on the display surface.
type Placement struct {
	Scale      float64
	DrawWidth  int
	DrawHeight int
	OffsetX    int
	OffsetY    int
}

// Rect returns the destination rectangle on the surface.
func (p Placement) Rect() image.Rectangle {
	return image.Rect(p.OffsetX, p.OffsetY, p.OffsetX+p.DrawWidth, p.OffsetY+p.DrawHeight)
}

// Contain fits an fw x fh frame inside an sw x sh surface preserving aspect,
// centered. It reports false when any dimension is non-positive.
func Contain(fw, fh, sw, sh int) (Placement, bool) {
	if fw <= 0 || fh <= 0 || sw <= 0 || sh <= 0 {
		return Placement{}, false
	}
	scale := math.Min(float64(sw)/float64(fw), float64(sh)/float64(fh))
	dw := clampInt(int(math.Round(float64(fw)*scale)), 1, sw)
	dh := clampInt(int(math.Round(float64(fh)*scale)), 1, sh)
	return Placement{
		Scale:      scale,
		DrawWidth:  dw,
		DrawHeight: dh,
		OffsetX:    (sw - dw) / 2,
		OffsetY:    (sh - dh) / 2,
	}, true
}

// Compositor letterboxes the output frame onto a display surface.
type Compositor struct {
	Background color.RGBA
	scaler     *Scaler
}

// NewCompositor creates a compositor with the default black background.
func NewCompositor() *Compositor {
	return &Compositor{
		Background: DefaultBackground,
		scaler:     NewScaler(),
	}
}

// Composite paints the background over dst and draws src inside it. Sizes
// that cannot be placed skip the frame with ErrFrameSkipped.
func (c *Compositor) Composite(dst, src *Frame) (Placement, error) {
	if dst.Empty() || src.Empty() {
		return Placement{}, ErrFrameSkipped
	}
	p, ok := Contain(src.Width, src.Height, dst.Width, dst.Height)
	if !ok {
		return Placement{}, ErrFrameSkipped
	}

	dst.Fill(c.Background)
	if err := c.scaler.ScaleInto(dst, p.Rect(), src); err != nil {
		return Placement{}, err
	}
	return p, nil
}
