package video

import (
	"image"
	"math"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/opd-ai/trashcam/params"
)

const (
	stampSizeRatio    = 0.038
	stampPaddingRatio = 0.03
	stampAlpha        = 0.95
	stampShadowAlpha  = 0.65
	stampSpeckle      = 0.08
)

var stampColor = [3]float64{255, 220, 80}

// DateStampText formats t the way consumer cameras burn the date in.
func DateStampText(t time.Time) string {
	return t.Format("2006/01/02")
}

// DateStampEffect burns the current date into the bottom-left corner using a
// low-resolution bitmap font enlarged with nearest-neighbor sampling.
type DateStampEffect struct {
	text string
	mask *image.Alpha
}

// NewDateStampEffect creates a date stamp overlay.
func NewDateStampEffect() *DateStampEffect {
	return &DateStampEffect{}
}

// glyphMask renders text at native bitmap size. The mask is cached until the
// date changes.
func (de *DateStampEffect) glyphMask(text string) *image.Alpha {
	if de.mask != nil && de.text == text {
		return de.mask
	}
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	mask := image.NewAlpha(image.Rect(0, 0, width, face.Height))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	de.text = text
	de.mask = mask
	return mask
}

// StampScale returns the integer enlargement factor for a frame width.
func StampScale(width int) int {
	target := float64(width) * stampSizeRatio
	return max(1, int(math.Round(target/float64(basicfont.Face7x13.Ascent))))
}

// Apply draws the shadow, then the speckled text.
func (de *DateStampEffect) Apply(frame *Frame, fc *FrameContext) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}

	mask := de.glyphMask(DateStampText(fc.Time))
	k := StampScale(frame.Width)
	pad := int(float64(frame.Width) * stampPaddingRatio)
	x0 := pad
	y0 := frame.Height - pad - basicfont.Face7x13.Ascent*k
	shadow := max(1, k/2)
	rng := fc.Rand(de.ID())

	b := mask.Bounds()
	for my := b.Min.Y; my < b.Max.Y; my++ {
		for mx := b.Min.X; mx < b.Max.X; mx++ {
			if mask.AlphaAt(mx, my).A == 0 {
				continue
			}
			fillBlock(frame, x0+mx*k+shadow, y0+my*k+shadow, k, [3]float64{}, stampShadowAlpha)
		}
	}
	for my := b.Min.Y; my < b.Max.Y; my++ {
		for mx := b.Min.X; mx < b.Max.X; mx++ {
			if mask.AlphaAt(mx, my).A == 0 {
				continue
			}
			alpha := stampAlpha
			if rng.Chance(stampSpeckle) {
				alpha *= 0.45
			}
			fillBlock(frame, x0+mx*k, y0+my*k, k, stampColor, alpha)
		}
	}
	return nil
}

// fillBlock alpha-blends a k x k square of color c at (x, y), clipped to the frame.
func fillBlock(frame *Frame, x, y, k int, c [3]float64, alpha float64) {
	xa, ya := max(x, 0), max(y, 0)
	xb, yb := min(x+k, frame.Width), min(y+k, frame.Height)
	for py := ya; py < yb; py++ {
		for px := xa; px < xb; px++ {
			i := frame.Offset(px, py)
			for ch := 0; ch < 3; ch++ {
				frame.Pix[i+ch] = toByte(lerp(float64(frame.Pix[i+ch]), c[ch], alpha))
			}
		}
	}
}

// ID returns the effect configuration key.
func (de *DateStampEffect) ID() params.EffectID { return params.EffectDate }

// GetName returns the effect name.
func (de *DateStampEffect) GetName() string {
	return "DateStamp"
}
