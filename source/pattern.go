package source

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/trashcam/limits"
	"github.com/opd-ai/trashcam/video"
)

// smpteBars are the 75% color bars, left to right.
var smpteBars = []color.RGBA{
	{192, 192, 192, 255},
	{192, 192, 0, 255},
	{0, 192, 192, 255},
	{0, 192, 0, 255},
	{192, 0, 192, 255},
	{192, 0, 0, 255},
	{0, 0, 192, 255},
}

// sweepSpeed is how many pixels per second the sweep line moves.
const sweepSpeed = 120

// Pattern is a synthetic animated test card: color bars over a luminance
// ramp with a moving sweep line, so every effect has edges and gradients
// to work on.
type Pattern struct {
	mu     sync.Mutex
	width  int
	height int
	facing Facing
	open   bool
	frame  *image.RGBA
	out    *image.RGBA

	// Time provider for deterministic testing
	timeProvider video.TimeProvider
}

// NewPattern creates a test card source. Non-positive dimensions use 1280x720.
func NewPattern(width, height int) *Pattern {
	if width <= 0 || height <= 0 {
		width, height = limits.DefaultSourceWidth, limits.DefaultSourceHeight
	}
	return &Pattern{width: width, height: height}
}

// SetTimeProvider replaces the clock that drives the sweep animation.
func (p *Pattern) SetTimeProvider(tp video.TimeProvider) {
	p.mu.Lock()
	p.timeProvider = tp
	p.mu.Unlock()
}

func (p *Pattern) now() time.Time {
	if p.timeProvider != nil {
		return p.timeProvider.Now()
	}
	return time.Now()
}

// Open allocates the frame. It never fails unless ctx is already done.
func (p *Pattern) Open(ctx context.Context, facing Facing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		return ErrAlreadyOpen
	}
	rect := image.Rect(0, 0, p.width, p.height)
	p.frame = image.NewRGBA(rect)
	p.out = image.NewRGBA(rect)
	p.facing = facing
	p.open = true

	logrus.WithFields(logrus.Fields{
		"function": "Pattern.Open",
		"width":    p.width,
		"height":   p.height,
		"facing":   facing,
	}).Info("Test pattern source opened")

	return nil
}

// CurrentFrame renders the test card for the current time.
func (p *Pattern) CurrentFrame() (image.Image, int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return nil, 0, 0
	}

	p.render(p.now())
	if p.facing == FacingUser {
		mirror(p.out, p.frame)
		return p.out, p.width, p.height
	}
	return p.frame, p.width, p.height
}

func (p *Pattern) render(t time.Time) {
	w, h := p.width, p.height
	barsBottom := h * 2 / 3
	sweep := int(float64(t.UnixMilli())*sweepSpeed/1000) % w
	if sweep < 0 {
		sweep += w
	}

	for y := 0; y < h; y++ {
		row := p.frame.Pix[y*p.frame.Stride : y*p.frame.Stride+w*4]
		for x := 0; x < w; x++ {
			var c color.RGBA
			if y < barsBottom {
				c = smpteBars[x*len(smpteBars)/w]
			} else {
				v := byte(x * 255 / max(1, w-1))
				c = color.RGBA{v, v, v, 255}
			}
			if x == sweep || x == (sweep+1)%w {
				c = color.RGBA{255, 255, 255, 255}
			}
			row[x*4] = c.R
			row[x*4+1] = c.G
			row[x*4+2] = c.B
			row[x*4+3] = c.A
		}
	}
}

// Close releases the frame.
func (p *Pattern) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	p.frame = nil
	p.out = nil
	return nil
}
