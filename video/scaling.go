package video

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// Scaler resizes frames with nearest-neighbor sampling, which keeps the
// blocky look of the low-resolution working buffer when it is enlarged.
type Scaler struct {
	// No fields needed for stateless scaling operations
}

// NewScaler creates a new frame scaler.
func NewScaler() *Scaler {
	return &Scaler{}
}

// Scale resizes src so that it fills dst.
//
// Parameters:
//   - dst: Destination frame, its dimensions define the target size
//   - src: Source frame
//
// Returns:
//   - error: ErrEmptyFrame if either frame has no pixels
func (s *Scaler) Scale(dst, src *Frame) error {
	if src.Empty() || dst.Empty() {
		return ErrEmptyFrame
	}
	return s.ScaleInto(dst, dst.Bounds(), src)
}

// ScaleInto resizes src into the rectangle r of dst. Pixels of dst outside
// r are left untouched. Equal sizes degrade to a row copy.
func (s *Scaler) ScaleInto(dst *Frame, r image.Rectangle, src *Frame) error {
	if src.Empty() || dst.Empty() {
		return ErrEmptyFrame
	}
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return fmt.Errorf("%w: target rectangle %v outside %dx%d", ErrFrameSkipped, r, dst.Width, dst.Height)
	}

	if !s.IsScalingRequired(src.Width, src.Height, r.Dx(), r.Dy()) {
		rowBytes := src.Width * 4
		for y := 0; y < src.Height; y++ {
			d := dst.Offset(r.Min.X, r.Min.Y+y)
			copy(dst.Pix[d:d+rowBytes], src.Pix[y*src.Stride:y*src.Stride+rowBytes])
		}
		return nil
	}

	xdraw.NearestNeighbor.Scale(dst.Image(), r, src.Image(), src.Bounds(), xdraw.Src, nil)
	return nil
}

// GetScaleFactors calculates the scaling factors for given dimensions.
//
// Returns:
//   - xFactor: Horizontal scaling factor
//   - yFactor: Vertical scaling factor
func (s *Scaler) GetScaleFactors(srcWidth, srcHeight, dstWidth, dstHeight int) (xFactor, yFactor float64) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return 0, 0
	}
	xFactor = float64(dstWidth) / float64(srcWidth)
	yFactor = float64(dstHeight) / float64(srcHeight)
	return
}

// IsScalingRequired checks if scaling is needed for given dimensions.
func (s *Scaler) IsScalingRequired(srcWidth, srcHeight, dstWidth, dstHeight int) bool {
	return srcWidth != dstWidth || srcHeight != dstHeight
}
