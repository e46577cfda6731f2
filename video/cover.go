package video

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/opd-ai/trashcam/limits"
)

// CoverRect returns the centered crop of a sw x sh source whose aspect
// matches a dw x dh destination. Matching aspects return the full source.
// Non-positive source dimensions fall back to 1280x720.
func CoverRect(sw, sh, dw, dh int) image.Rectangle {
	if sw <= 0 || sh <= 0 {
		sw, sh = limits.DefaultSourceWidth, limits.DefaultSourceHeight
	}
	full := image.Rect(0, 0, sw, sh)
	if dw <= 0 || dh <= 0 {
		return full
	}

	// Cross products keep the equal-aspect test exact.
	srcCross := int64(sw) * int64(dh)
	dstCross := int64(sh) * int64(dw)
	switch {
	case srcCross == dstCross:
		return full
	case srcCross > dstCross:
		// Source is wider: trim the sides.
		cw := int((dstCross + int64(dh)/2) / int64(dh))
		cw = clampInt(cw, 1, sw)
		x0 := (sw - cw) / 2
		return image.Rect(x0, 0, x0+cw, sh)
	default:
		// Source is taller: trim top and bottom.
		ch := int((srcCross + int64(dw)/2) / int64(dw))
		ch = clampInt(ch, 1, sh)
		y0 := (sh - ch) / 2
		return image.Rect(0, y0, sw, y0+ch)
	}
}

// CoverFit scales the cover crop of src so that it fills dst exactly.
func CoverFit(dst *Frame, src image.Image) error {
	if src == nil || src.Bounds().Empty() {
		return ErrEmptySource
	}
	if dst.Empty() {
		return ErrEmptyFrame
	}

	b := src.Bounds()
	crop := CoverRect(b.Dx(), b.Dy(), dst.Width, dst.Height).Add(b.Min)
	xdraw.ApproxBiLinear.Scale(dst.Image(), dst.Bounds(), src, crop, xdraw.Src, nil)
	return nil
}
