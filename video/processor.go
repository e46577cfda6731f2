package video

import (
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/trashcam/params"
)

// Processor runs the per-frame pipeline: cover-fit the source into the
// working frame, run the pixel chain, upscale into the output frame and run
// the layer chain over it.
//
// A Processor is driven by a single goroutine. It owns its buffers and the
// pipeline state; callers must not retain frames across ProcessFrame calls.
type Processor struct {
	buffers *BufferManager
	state   *State
	pixel   *EffectChain
	layer   *EffectChain
	scaler  *Scaler
	stats   *FrameStats

	seed  uint64
	index uint64

	// Time provider for deterministic testing
	timeProvider TimeProvider
}

// NewProcessor creates a processor with the standard effect order. The seed
// feeds every per-frame random stream.
func NewProcessor(seed uint64) *Processor {
	p := &Processor{
		buffers: NewBufferManager(),
		state:   NewState(),
		pixel:   NewPixelChain(),
		layer:   NewLayerChain(),
		scaler:  NewScaler(),
		stats:   NewFrameStats(),
		seed:    seed,
	}

	logrus.WithFields(logrus.Fields{
		"function":      "NewProcessor",
		"pixel_effects": p.pixel.GetEffectCount(),
		"layer_effects": p.layer.GetEffectCount(),
	}).Debug("Created frame processor")

	return p
}

// NewPixelChain returns the effects that run on the working frame, in order.
func NewPixelChain() *EffectChain {
	chain := NewEffectChain()
	chain.AddEffect(NewBlockGlitchEffect())
	chain.AddEffect(NewLineTearEffect())
	chain.AddEffect(NewBitcrushEffect())
	chain.AddEffect(NewRGBSplitEffect())
	chain.AddEffect(NewNoiseEffect())
	chain.AddEffect(NewFalseColorEffect())
	chain.AddEffect(NewChannelMashEffect())
	return chain
}

// NewLayerChain returns the effects that run on the output frame, in order.
func NewLayerChain() *EffectChain {
	chain := NewEffectChain()
	chain.AddEffect(NewFeedbackEffect())
	chain.AddEffect(NewDataBarsEffect())
	chain.AddEffect(NewDateStampEffect())
	return chain
}

// SetTimeProvider replaces the clock used for frame timing and overlays.
func (p *Processor) SetTimeProvider(tp TimeProvider) {
	p.timeProvider = tp
}

func (p *Processor) getTimeProvider() TimeProvider {
	return getTimeProvider(p.timeProvider)
}

// TriggerBend starts a bend burst on the next frame.
func (p *Processor) TriggerBend() {
	p.state.Bend.Trigger()
	logrus.WithFields(logrus.Fields{
		"function": "Processor.TriggerBend",
		"frame":    p.index,
	}).Debug("Bend triggered")
}

// Invalidate forces buffer reallocation on the next frame.
func (p *Processor) Invalidate() {
	p.buffers.Invalidate()
}

// Layout returns the current buffer layout.
func (p *Processor) Layout() Layout {
	return p.buffers.Layout()
}

// Output returns the most recent output frame, nil before the first frame.
func (p *Processor) Output() *Frame {
	return p.buffers.Output()
}

// Stats returns the processor's frame statistics.
func (p *Processor) Stats() *FrameStats {
	return p.stats
}

// Bend returns the current bend strength.
func (p *Processor) Bend() float64 {
	return p.state.Bend.Value()
}

// ProcessFrame renders one frame from src. The geometry's Resolution is taken
// from the settings snapshot. A nil source or degenerate geometry skips the
// frame and leaves the previous output in place.
func (p *Processor) ProcessFrame(src image.Image, geom Geometry, settings params.Settings) (*Frame, error) {
	start := p.getTimeProvider().Now()

	settings.Distortion = settings.Distortion.Normalized()
	geom.Resolution = settings.Distortion.Resolution

	resized, err := p.buffers.Ensure(geom)
	if err != nil {
		p.stats.Skip()
		return nil, fmt.Errorf("%w: %v", ErrFrameSkipped, err)
	}
	if resized {
		p.state.Reset(p.buffers.Feedback())
		p.stats.Reallocated()

		layout := p.buffers.Layout()
		sx, sy := p.scaler.GetScaleFactors(layout.Working.Width, layout.Working.Height, layout.Output.Width, layout.Output.Height)
		logrus.WithFields(logrus.Fields{
			"function": "Processor.ProcessFrame",
			"frame":    p.index,
			"upscale":  fmt.Sprintf("%.2fx%.2f", sx, sy),
		}).Debug("Upscale factors changed")
	}

	bending := p.state.Bend.Active()
	p.state.Bend.Tick()
	bend := p.state.Bend.Value()
	if bending && !p.state.Bend.Active() {
		logrus.WithFields(logrus.Fields{
			"function": "Processor.ProcessFrame",
			"frame":    p.index,
		}).Debug("Bend burst decayed")
	}

	if src == nil || src.Bounds().Empty() {
		p.stats.Skip()
		return nil, ErrEmptySource
	}

	working := p.buffers.Working()
	output := p.buffers.Output()
	if err := CoverFit(working, src); err != nil {
		p.stats.Skip()
		return nil, fmt.Errorf("cover fit: %w", err)
	}

	fc := &FrameContext{
		Settings: settings,
		Bend:     bend,
		Time:     start,
		Index:    p.index,
		Seed:     p.seed,
		State:    p.state,
	}

	if err := p.pixel.Apply(working, fc); err != nil {
		return nil, fmt.Errorf("pixel chain: %w", err)
	}
	if err := p.scaler.Scale(output, working); err != nil {
		return nil, fmt.Errorf("upscale: %w", err)
	}
	if err := p.layer.Apply(output, fc); err != nil {
		return nil, fmt.Errorf("layer chain: %w", err)
	}

	p.index++
	p.stats.Record(p.getTimeProvider().Now().Sub(start))

	return output, nil
}

// IsSkipped reports whether err only means the frame produced no output.
func IsSkipped(err error) bool {
	return errors.Is(err, ErrFrameSkipped) || errors.Is(err, ErrEmptySource)
}
