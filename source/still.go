package source

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Still serves one decoded image file as every frame.
type Still struct {
	mu     sync.Mutex
	path   string
	facing Facing
	img    *image.RGBA
	out    *image.RGBA
}

// NewStill creates a source for the image at path. The file is read on Open.
func NewStill(path string) *Still {
	return &Still{path: path}
}

// Open decodes the file.
func (s *Still) Open(ctx context.Context, facing Facing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img != nil {
		return ErrAlreadyOpen
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	defer f.Close()

	decoded, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrDeviceUnavailable, s.path, err)
	}
	b := decoded.Bounds()
	if b.Empty() {
		return fmt.Errorf("%w: %s has no pixels", ErrDeviceUnavailable, s.path)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), decoded, b.Min, draw.Src)
	s.img = rgba
	s.facing = facing
	if facing == FacingUser {
		s.out = image.NewRGBA(rgba.Bounds())
		mirror(s.out, rgba)
	} else {
		s.out = rgba
	}

	logrus.WithFields(logrus.Fields{
		"function": "Still.Open",
		"path":     s.path,
		"format":   format,
		"width":    b.Dx(),
		"height":   b.Dy(),
		"facing":   facing,
	}).Info("Still image source opened")

	return nil
}

// CurrentFrame returns the decoded image, mirrored for the user facing.
func (s *Still) CurrentFrame() (image.Image, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return nil, 0, 0
	}
	b := s.out.Bounds()
	return s.out, b.Dx(), b.Dy()
}

// Close drops the decoded image.
func (s *Still) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = nil
	s.out = nil
	return nil
}
