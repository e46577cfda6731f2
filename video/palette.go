package video

import (
	"fmt"
	"image/color"
	"time"

	"github.com/opd-ai/trashcam/params"
)

// Palette is an ordered list of color stops sampled by luminance.
type Palette struct {
	Name  params.PaletteName
	Stops []color.RGBA
}

// cyclePeriod is how long the cycle palette holds each fixed palette.
const cyclePeriod = 2 * time.Second

var (
	neonPalette = Palette{Name: params.PaletteNeon, Stops: []color.RGBA{
		{18, 0, 42, 255}, {190, 20, 160, 255}, {255, 60, 120, 255}, {40, 230, 255, 255}, {240, 255, 120, 255},
	}}
	thermalPalette = Palette{Name: params.PaletteThermal, Stops: []color.RGBA{
		{0, 0, 0, 255}, {30, 0, 120, 255}, {170, 0, 150, 255}, {240, 40, 20, 255}, {255, 170, 0, 255}, {255, 255, 220, 255},
	}}
	vhsPalette = Palette{Name: params.PaletteVHS, Stops: []color.RGBA{
		{10, 12, 60, 255}, {20, 120, 140, 255}, {230, 90, 160, 255}, {250, 235, 200, 255},
	}}
	ccdPalette = Palette{Name: params.PaletteCCD, Stops: []color.RGBA{
		{8, 20, 10, 255}, {40, 90, 40, 255}, {140, 200, 90, 255}, {230, 255, 200, 255},
	}}

	// fixedPalettes is the rotation order of the cycle palette.
	fixedPalettes = []Palette{neonPalette, thermalPalette, vhsPalette, ccdPalette}
)

// PaletteByName returns a fixed palette. The cycle palette resolves to the
// first entry of the rotation; use CyclePalette for time-dependent lookup.
func PaletteByName(name params.PaletteName) (Palette, error) {
	if name == params.PaletteCycle {
		return fixedPalettes[0], nil
	}
	for _, p := range fixedPalettes {
		if p.Name == name {
			return p, nil
		}
	}
	return Palette{}, fmt.Errorf("palette %q: %w", name, params.ErrUnknownPalette)
}

// CyclePalette returns the fixed palette active at t. It changes every two seconds.
func CyclePalette(t time.Time) Palette {
	bucket := t.UnixNano() / int64(cyclePeriod)
	idx := bucket % int64(len(fixedPalettes))
	if idx < 0 {
		idx += int64(len(fixedPalettes))
	}
	return fixedPalettes[idx]
}

// resolvePalette picks the palette for a frame, honoring cycle.
func resolvePalette(name params.PaletteName, t time.Time) Palette {
	if name == params.PaletteCycle {
		return CyclePalette(t)
	}
	p, err := PaletteByName(name)
	if err != nil {
		return neonPalette
	}
	return p
}

// Sample interpolates the stops at position v in [0, 1].
func (p Palette) Sample(v float64) (r, g, b float64) {
	n := len(p.Stops)
	if n == 0 {
		return 0, 0, 0
	}
	if n == 1 {
		c := p.Stops[0]
		return float64(c.R), float64(c.G), float64(c.B)
	}
	pos := clampFloat(v, 0, 1) * float64(n-1)
	i := min(int(pos), n-2)
	t := pos - float64(i)
	lo, hi := p.Stops[i], p.Stops[i+1]
	return lerp(float64(lo.R), float64(hi.R), t),
		lerp(float64(lo.G), float64(hi.G), t),
		lerp(float64(lo.B), float64(hi.B), t)
}

// Luminance returns the BT.709 relative luminance of an 8-bit RGB triple in [0, 1].
func Luminance(r, g, b byte) float64 {
	return (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 255
}

// FalseColorEffect remaps luminance through a palette and mixes the result
// over the original by the palette amount.
type FalseColorEffect struct{}

// NewFalseColorEffect creates a false color mapping effect.
func NewFalseColorEffect() *FalseColorEffect {
	return &FalseColorEffect{}
}

// Apply maps every pixel through the selected palette.
func (fe *FalseColorEffect) Apply(frame *Frame, fc *FrameContext) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}

	amount := clampFloat(fc.Settings.Distortion.Palette, 0, 1)
	if amount <= 0 {
		return nil
	}
	pal := resolvePalette(fc.Settings.Distortion.PaletteName, fc.Time)
	wobble := 0.03 * amount
	salt := fc.salt(fe.ID())

	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			i := frame.Offset(x, y)
			r, g, b := frame.Pix[i], frame.Pix[i+1], frame.Pix[i+2]
			lum := Luminance(r, g, b) + (HashUnit(x, y, salt)*2-1)*wobble
			pr, pg, pb := pal.Sample(lum)
			frame.Pix[i] = toByte(lerp(float64(r), pr, amount))
			frame.Pix[i+1] = toByte(lerp(float64(g), pg, amount))
			frame.Pix[i+2] = toByte(lerp(float64(b), pb, amount))
		}
	}
	return nil
}

// ID returns the effect configuration key.
func (fe *FalseColorEffect) ID() params.EffectID { return params.EffectFalseColor }

// GetName returns the effect name.
func (fe *FalseColorEffect) GetName() string {
	return "FalseColor"
}
