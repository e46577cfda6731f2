package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"
)

var (
	// ErrPermissionDenied indicates the operating system refused camera access
	ErrPermissionDenied = errors.New("camera permission denied")

	// ErrDeviceUnavailable indicates no capture device or capture tool could be opened
	ErrDeviceUnavailable = errors.New("camera device unavailable")

	// ErrAlreadyOpen indicates Open was called on a source that is running
	ErrAlreadyOpen = errors.New("source already open")

	// ErrUnknownFacing indicates a facing name that is neither environment nor user
	ErrUnknownFacing = errors.New("unknown facing direction")
)

// Facing is the camera direction.
type Facing string

const (
	// FacingEnvironment is the rear camera, looking away from the user
	FacingEnvironment Facing = "environment"
	// FacingUser is the front camera, looking at the user
	FacingUser Facing = "user"
)

// Flip returns the opposite direction.
func (f Facing) Flip() Facing {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

// ParseFacing maps a user supplied name onto a Facing.
func ParseFacing(name string) (Facing, error) {
	switch Facing(strings.ToLower(strings.TrimSpace(name))) {
	case FacingEnvironment, "back", "rear":
		return FacingEnvironment, nil
	case FacingUser, "front", "selfie":
		return FacingUser, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFacing, name)
}

// Source is a live frame provider.
//
// Open blocks until the source can deliver frames or fails. CurrentFrame
// never blocks; it returns nil until the first frame is available. The
// returned image is only valid until the next CurrentFrame call.
type Source interface {
	Open(ctx context.Context, facing Facing) error
	CurrentFrame() (img image.Image, width, height int)
	Close() error
}

// mirror flips img horizontally into dst. Both must have the same bounds.
func mirror(dst *image.RGBA, img image.Image) {
	b := img.Bounds()
	src, ok := img.(*image.RGBA)
	if !ok {
		src = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)
	}
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		srow := src.Pix[y*src.Stride : y*src.Stride+w*4]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for x := 0; x < w; x++ {
			copy(drow[x*4:x*4+4], srow[(w-1-x)*4:(w-x)*4])
		}
	}
}
