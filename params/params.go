package params

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/opd-ai/trashcam/limits"
)

var (
	// ErrUnknownEffect indicates an effect name that does not map to an EffectID
	ErrUnknownEffect = errors.New("unknown effect")

	// ErrUnknownPreset indicates a preset name that is not registered
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrUnknownSlider indicates a slider name that does not map to a SliderID
	ErrUnknownSlider = errors.New("unknown slider")

	// ErrUnknownPalette indicates a palette name that is not defined
	ErrUnknownPalette = errors.New("unknown palette")
)

// EffectID names one transform of the pipeline.
type EffectID string

const (
	EffectBlocks     EffectID = "blocks"
	EffectTear       EffectID = "tear"
	EffectBitcrush   EffectID = "bitcrush"
	EffectRGBSplit   EffectID = "rgbsplit"
	EffectNoise      EffectID = "noise"
	EffectFalseColor EffectID = "falsecolor"
	EffectMash       EffectID = "mash"
	EffectFeedback   EffectID = "feedback"
	EffectBars       EffectID = "bars"
	EffectDate       EffectID = "date"
)

// AllEffects lists every effect in pipeline order.
var AllEffects = []EffectID{
	EffectBlocks, EffectTear, EffectBitcrush, EffectRGBSplit, EffectNoise,
	EffectFalseColor, EffectMash, EffectFeedback, EffectBars, EffectDate,
}

// ParseEffectID maps a user supplied name onto an EffectID.
func ParseEffectID(name string) (EffectID, error) {
	id := EffectID(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllEffects {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEffect, name)
}

// PaletteName selects the false-color palette.
type PaletteName string

const (
	PaletteNeon    PaletteName = "neon"
	PaletteThermal PaletteName = "thermal"
	PaletteVHS     PaletteName = "vhs"
	PaletteCCD     PaletteName = "ccd"
	PaletteCycle   PaletteName = "cycle"
)

// PaletteNames lists the selectable palettes in UI order.
var PaletteNames = []PaletteName{PaletteNeon, PaletteThermal, PaletteVHS, PaletteCCD, PaletteCycle}

// Distortion holds the continuous controls. Scalars are in [0, 1].
type Distortion struct {
	Grit        float64     // quantization and noise driver
	Corrupt     float64     // block, tear and feedback driver
	Chroma      float64     // channel offset driver
	Palette     float64     // false color and mash driver
	Resolution  int         // working buffer short side in pixels
	PaletteName PaletteName // false color palette selection
}

// Normalized returns a copy with every field coerced into its safe range.
func (d Distortion) Normalized() Distortion {
	d.Grit = limits.ClampUnit(d.Grit)
	d.Corrupt = limits.ClampUnit(d.Corrupt)
	d.Chroma = limits.ClampUnit(d.Chroma)
	d.Palette = limits.ClampUnit(d.Palette)
	d.Resolution = limits.ClampResolution(d.Resolution)
	if !validPalette(d.PaletteName) {
		d.PaletteName = PaletteNeon
	}
	return d
}

// Slider returns the [0, 100] slider position of a continuous control.
func (d Distortion) Slider(id SliderID) (int, error) {
	var v float64
	switch id {
	case SliderGrit:
		v = d.Grit
	case SliderCorrupt:
		v = d.Corrupt
	case SliderChroma:
		v = d.Chroma
	case SliderPalette:
		v = d.Palette
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSlider, id)
	}
	return int(math.Round(limits.ClampUnit(v) * 100)), nil
}

// ParsePaletteName maps a user supplied name onto a PaletteName.
func ParsePaletteName(name string) (PaletteName, error) {
	p := PaletteName(strings.ToLower(strings.TrimSpace(name)))
	if !validPalette(p) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPalette, name)
	}
	return p, nil
}

func validPalette(name PaletteName) bool {
	for _, p := range PaletteNames {
		if p == name {
			return true
		}
	}
	return false
}

// Effects is the effect configuration: one flag per transform.
type Effects struct {
	Blocks     bool
	Tear       bool
	Bitcrush   bool
	RGBSplit   bool
	Noise      bool
	FalseColor bool
	Mash       bool
	Feedback   bool
	Bars       bool
	Date       bool
}

// Enabled reports whether the effect with the given id is switched on.
func (e Effects) Enabled(id EffectID) bool {
	switch id {
	case EffectBlocks:
		return e.Blocks
	case EffectTear:
		return e.Tear
	case EffectBitcrush:
		return e.Bitcrush
	case EffectRGBSplit:
		return e.RGBSplit
	case EffectNoise:
		return e.Noise
	case EffectFalseColor:
		return e.FalseColor
	case EffectMash:
		return e.Mash
	case EffectFeedback:
		return e.Feedback
	case EffectBars:
		return e.Bars
	case EffectDate:
		return e.Date
	}
	return false
}

// With returns a copy with the given effect set to on.
func (e Effects) With(id EffectID, on bool) Effects {
	switch id {
	case EffectBlocks:
		e.Blocks = on
	case EffectTear:
		e.Tear = on
	case EffectBitcrush:
		e.Bitcrush = on
	case EffectRGBSplit:
		e.RGBSplit = on
	case EffectNoise:
		e.Noise = on
	case EffectFalseColor:
		e.FalseColor = on
	case EffectMash:
		e.Mash = on
	case EffectFeedback:
		e.Feedback = on
	case EffectBars:
		e.Bars = on
	case EffectDate:
		e.Date = on
	}
	return e
}

// Settings is the immutable per-frame snapshot consumed by the pipeline.
type Settings struct {
	Distortion Distortion
	Effects    Effects
}

// Controls is the control surface collaborator.
// Snapshot is called exactly once per frame.
type Controls interface {
	Snapshot() Settings
}

// DefaultSettings returns the "mall" look.
func DefaultSettings() Settings {
	p, _ := Builtin(PresetMall)
	return p.Settings()
}
