package video

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/opd-ai/trashcam/params"
)

// maxFeedbackWeight keeps the live image visible at full corruption.
const maxFeedbackWeight = 0.9

// State is the pipeline state carried from one frame to the next.
type State struct {
	Feedback *Frame
	Bend     Bend
	primed   bool
}

// NewState creates an empty pipeline state.
func NewState() *State {
	return &State{}
}

// Reset installs a freshly allocated feedback frame. The next feedback pass
// only primes it.
func (s *State) Reset(feedback *Frame) {
	s.Feedback = feedback
	if !s.Feedback.Empty() {
		s.Feedback.Clear()
	}
	s.primed = false
}

// FeedbackWeight returns the previous-frame weight for the given drivers.
func FeedbackWeight(corrupt, bend float64) float64 {
	return math.Min(maxFeedbackWeight, 0.6*clampFloat(corrupt, 0, 1)+0.4*clampFloat(bend, 0, 1))
}

// BlendFeedback mixes prev into cur with weight w, sampling prev shifted by
// (dx, dy), then stores the result in prev. w = 0 leaves cur untouched and
// w = 1 with no shift reproduces prev exactly.
func BlendFeedback(cur, prev *Frame, w float64, dx, dy int) error {
	if cur.Empty() || prev.Empty() {
		return ErrEmptyFrame
	}
	if cur.Width != prev.Width || cur.Height != prev.Height {
		return ErrSizeMismatch
	}

	w = clampFloat(w, 0, 1)
	if w > 0 {
		for y := 0; y < cur.Height; y++ {
			for x := 0; x < cur.Width; x++ {
				i := cur.Offset(x, y)
				p := prev.ClampedOffset(x-dx, y-dy)
				for c := 0; c < 3; c++ {
					cur.Pix[i+c] = toByte(lerp(float64(cur.Pix[i+c]), float64(prev.Pix[p+c]), w))
				}
			}
		}
	}
	return prev.CopyFrom(cur)
}

// FeedbackEffect smears the previous output into the current one.
type FeedbackEffect struct{}

// NewFeedbackEffect creates a feedback smear effect.
func NewFeedbackEffect() *FeedbackEffect {
	return &FeedbackEffect{}
}

// Apply blends the stored previous output and stores the new one.
func (fe *FeedbackEffect) Apply(frame *Frame, fc *FrameContext) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}
	st := fc.State
	if st == nil || st.Feedback.Empty() {
		return ErrEmptyFrame
	}
	if !st.primed {
		st.primed = true
		return st.Feedback.CopyFrom(frame)
	}

	b := clampFloat(fc.Bend, 0, 1)
	w := FeedbackWeight(fc.Settings.Distortion.Corrupt, b)
	var dx, dy int
	if b > 0 {
		rng := fc.Rand(fe.ID())
		dx = int(math.Round((rng.Float64() - 0.5) * b * 14))
		dy = int(math.Round((rng.Float64() - 0.5) * b * 10))
	}
	return BlendFeedback(frame, st.Feedback, w, dx, dy)
}

// ID returns the effect configuration key.
func (fe *FeedbackEffect) ID() params.EffectID { return params.EffectFeedback }

// GetName returns the effect name.
func (fe *FeedbackEffect) GetName() string {
	return "Feedback"
}

// barAlpha is the opacity of synthetic data bars.
const barAlpha = 0.55

// DataBarsEffect overlays bright vertical bars on some frames.
type DataBarsEffect struct{}

// NewDataBarsEffect creates a data bar overlay effect.
func NewDataBarsEffect() *DataBarsEffect {
	return &DataBarsEffect{}
}

// BarsAmount combines corrupt and bend into the bar driver.
func BarsAmount(corrupt, bend float64) float64 {
	return clampFloat(corrupt+0.6*bend, 0, 1)
}

// Apply draws between 1 and 2 + 7a bars with probability 0.2 + 0.7a.
func (be *DataBarsEffect) Apply(frame *Frame, fc *FrameContext) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}

	a := BarsAmount(fc.Settings.Distortion.Corrupt, fc.Bend)
	rng := fc.Rand(be.ID())
	if !rng.Chance(0.2 + 0.7*a) {
		return nil
	}

	count := 1 + rng.Intn(int(2+7*a))
	for n := 0; n < count; n++ {
		bw := max(1, int(float64(frame.Width)*(0.01+rng.Range(0.025))))
		bh := max(1, int(float64(frame.Height)*(0.35+rng.Range(0.65))))
		x0 := rng.Intn(frame.Width)
		y0 := rng.Intn(frame.Height - bh + 1)
		r, g, b := colorful.Hsv(rng.Range(360), 1, 1).RGB255()
		striped := rng.Chance(0.5)

		x1 := min(x0+bw, frame.Width)
		y1 := min(y0+bh, frame.Height)
		for y := y0; y < y1; y++ {
			if striped && (y/2)%2 == 1 {
				continue
			}
			for x := x0; x < x1; x++ {
				i := frame.Offset(x, y)
				frame.Pix[i] = toByte(lerp(float64(frame.Pix[i]), float64(r), barAlpha))
				frame.Pix[i+1] = toByte(lerp(float64(frame.Pix[i+1]), float64(g), barAlpha))
				frame.Pix[i+2] = toByte(lerp(float64(frame.Pix[i+2]), float64(b), barAlpha))
			}
		}
	}
	return nil
}

// ID returns the effect configuration key.
func (be *DataBarsEffect) ID() params.EffectID { return params.EffectBars }

// GetName returns the effect name.
func (be *DataBarsEffect) GetName() string {
	return "DataBars"
}
