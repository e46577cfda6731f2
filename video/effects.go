package video

import (
	"fmt"
	"math"
	"time"

	"github.com/opd-ai/trashcam/params"
)

// Effect represents a transform applied in place to a frame.
type Effect interface {
	// Apply mutates the frame using the per-frame context
	Apply(frame *Frame, fc *FrameContext) error
	// ID returns the effect configuration key that switches the effect
	ID() params.EffectID
	// GetName returns the effect name for identification
	GetName() string
}

// FrameContext carries everything an effect may read while processing one frame.
type FrameContext struct {
	Settings params.Settings
	Bend     float64
	Time     time.Time
	Index    uint64
	Seed     uint64
	State    *State
}

// Rand returns the random stream for one effect in this frame. Streams are
// independent per effect and replay identically for the same seed and index.
func (fc *FrameContext) Rand(id params.EffectID) *Rand {
	return NewRand(DeriveSeed(fc.Seed, fc.Index, string(id)))
}

// salt returns a 32-bit value for coordinate hashes that changes every frame.
func (fc *FrameContext) salt(id params.EffectID) uint32 {
	return uint32(DeriveSeed(fc.Seed, fc.Index, string(id)+"/hash"))
}

// EffectChain manages multiple effects applied in sequence.
type EffectChain struct {
	effects []Effect
}

// NewEffectChain creates a new effect processing chain.
func NewEffectChain() *EffectChain {
	return &EffectChain{
		effects: make([]Effect, 0),
	}
}

// AddEffect adds an effect to the processing chain.
func (ec *EffectChain) AddEffect(effect Effect) {
	ec.effects = append(ec.effects, effect)
}

// Apply runs every enabled effect over the frame in insertion order.
func (ec *EffectChain) Apply(frame *Frame, fc *FrameContext) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}

	for i, effect := range ec.effects {
		if !fc.Settings.Effects.Enabled(effect.ID()) {
			continue
		}
		if err := effect.Apply(frame, fc); err != nil {
			return fmt.Errorf("effect %d (%s) failed: %w", i, effect.GetName(), err)
		}
	}
	return nil
}

// GetEffectCount returns the number of effects in the chain.
func (ec *EffectChain) GetEffectCount() int {
	return len(ec.effects)
}

// Clear removes all effects from the chain.
func (ec *EffectChain) Clear() {
	ec.effects = ec.effects[:0]
}

// BitcrushEffect quantizes each color channel to a small number of levels.
// Grit 0 keeps 16 levels, grit 1 keeps 3.
type BitcrushEffect struct {
	levels int
	lut    [256]byte
}

// NewBitcrushEffect creates a bit depth reduction effect.
func NewBitcrushEffect() *BitcrushEffect {
	return &BitcrushEffect{}
}

// BitcrushLevels returns the quantization level count for a grit value.
func BitcrushLevels(grit float64) int {
	return int(math.Floor(3 + (1-clampFloat(grit, 0, 1))*13))
}

// Quantize maps one channel value onto the nearest of n levels.
func Quantize(v byte, n int) byte {
	step := 255 / float64(n)
	return toByte(math.Round(math.Round(float64(v)/step) * step))
}

// Apply quantizes R, G and B. Alpha is left untouched.
func (be *BitcrushEffect) Apply(frame *Frame, fc *FrameContext) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}

	n := BitcrushLevels(fc.Settings.Distortion.Grit)
	if n != be.levels {
		for v := range be.lut {
			be.lut[v] = Quantize(byte(v), n)
		}
		be.levels = n
	}

	for y := 0; y < frame.Height; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+frame.Width*4]
		for i := 0; i < len(row); i += 4 {
			row[i] = be.lut[row[i]]
			row[i+1] = be.lut[row[i+1]]
			row[i+2] = be.lut[row[i+2]]
		}
	}
	return nil
}

// ID returns the effect configuration key.
func (be *BitcrushEffect) ID() params.EffectID { return params.EffectBitcrush }

// GetName returns the effect name.
func (be *BitcrushEffect) GetName() string {
	return "Bitcrush"
}

// NoiseEffect adds independent uniform noise to every channel of every pixel.
type NoiseEffect struct{}

// noiseScale is the peak noise amplitude at grit 1.
const noiseScale = 28.0

// NewNoiseEffect creates a sensor noise effect.
func NewNoiseEffect() *NoiseEffect {
	return &NoiseEffect{}
}

// Apply perturbs R, G and B by up to grit x 28 in either direction.
func (ne *NoiseEffect) Apply(frame *Frame, fc *FrameContext) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}

	amp := clampFloat(fc.Settings.Distortion.Grit, 0, 1) * noiseScale
	if amp <= 0 {
		return nil
	}

	rng := fc.Rand(ne.ID())
	for y := 0; y < frame.Height; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+frame.Width*4]
		for i := 0; i < len(row); i += 4 {
			row[i] = toByte(float64(row[i]) + rng.Signed(amp))
			row[i+1] = toByte(float64(row[i+1]) + rng.Signed(amp))
			row[i+2] = toByte(float64(row[i+2]) + rng.Signed(amp))
		}
	}
	return nil
}

// ID returns the effect configuration key.
func (ne *NoiseEffect) ID() params.EffectID { return params.EffectNoise }

// GetName returns the effect name.
func (ne *NoiseEffect) GetName() string {
	return "Noise"
}

// RGBSplitEffect samples each color channel from its own offset position,
// producing chromatic fringes. Driven by chroma plus part of the bend.
type RGBSplitEffect struct {
	scratch []byte
}

// NewRGBSplitEffect creates a channel offset effect.
func NewRGBSplitEffect() *RGBSplitEffect {
	return &RGBSplitEffect{}
}

// RGBSplitAmount combines chroma and bend into the effect strength.
func RGBSplitAmount(chroma, bend float64) float64 {
	return clampFloat(chroma, 0, 1) + 0.6*clampFloat(bend, 0, 1)
}

// Apply shifts R, G and B independently and mixes them over the original.
// Amounts at or below 0.01 leave the frame bit-identical.
func (re *RGBSplitEffect) Apply(frame *Frame, fc *FrameContext) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}

	amount := RGBSplitAmount(fc.Settings.Distortion.Chroma, fc.Bend)
	if amount <= 0.01 {
		return nil
	}

	rng := fc.Rand(re.ID())
	maxX := 1 + amount*10
	maxY := amount * 3
	var dx, dy [3]int
	for c := 0; c < 3; c++ {
		dx[c] = int(math.Round(rng.Signed(maxX)))
		dy[c] = int(math.Round(rng.Signed(maxY)))
	}
	mix := math.Min(1, 0.5+0.5*amount)

	n := frame.Height * frame.Stride
	if cap(re.scratch) < n {
		re.scratch = make([]byte, n)
	}
	src := re.scratch[:n]
	copy(src, frame.Pix[:n])

	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			i := frame.Offset(x, y)
			for c := 0; c < 3; c++ {
				s := frame.ClampedOffset(x+dx[c], y+dy[c]) + c
				frame.Pix[i+c] = toByte(lerp(float64(src[i+c]), float64(src[s]), mix))
			}
		}
	}
	return nil
}

// ID returns the effect configuration key.
func (re *RGBSplitEffect) ID() params.EffectID { return params.EffectRGBSplit }

// GetName returns the effect name.
func (re *RGBSplitEffect) GetName() string {
	return "RGBSplit"
}
