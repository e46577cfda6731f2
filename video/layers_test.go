package video

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/trashcam/params"
)

func TestFeedbackWeight(t *testing.T) {
	assert.Zero(t, FeedbackWeight(0, 0))
	assert.InDelta(t, 0.3, FeedbackWeight(0.5, 0), 1e-9)
	assert.InDelta(t, 0.4, FeedbackWeight(0, 1), 1e-9)
	assert.InDelta(t, 0.9, FeedbackWeight(1, 0.8), 1e-9, "capped")
	assert.InDelta(t, 0.9, FeedbackWeight(1, 1), 1e-9, "capped")
	assert.InDelta(t, 0.9, FeedbackWeight(5, 5), 1e-9, "drivers clamped")
}

func TestBlendFeedback(t *testing.T) {
	gray := color.RGBA{R: 100, G: 100, B: 100, A: 255}
	light := color.RGBA{R: 200, G: 200, B: 200, A: 255}

	t.Run("zero weight leaves current untouched", func(t *testing.T) {
		cur := createTestFrame(20, 10)
		before := append([]byte(nil), cur.Pix...)
		prev := createSolidFrame(20, 10, light)

		require.NoError(t, BlendFeedback(cur, prev, 0, 0, 0))
		assert.Equal(t, before, cur.Pix)
		assert.Equal(t, before, prev.Pix, "previous must store the new output")
	})

	t.Run("full weight reproduces previous", func(t *testing.T) {
		cur := createTestFrame(20, 10)
		prev := createTestFrame(20, 10)
		prev.Fill(light)
		prevBefore := append([]byte(nil), prev.Pix...)

		require.NoError(t, BlendFeedback(cur, prev, 1, 0, 0))
		assert.Equal(t, prevBefore, cur.Pix)
		assert.Equal(t, prevBefore, prev.Pix)
	})

	t.Run("half weight averages", func(t *testing.T) {
		cur := createSolidFrame(4, 4, gray)
		prev := createSolidFrame(4, 4, light)

		require.NoError(t, BlendFeedback(cur, prev, 0.5, 3, -2))
		assert.Equal(t, color.RGBA{R: 150, G: 150, B: 150, A: 255}, cur.Image().RGBAAt(2, 2))
	})

	t.Run("size mismatch", func(t *testing.T) {
		err := BlendFeedback(createTestFrame(4, 4), createTestFrame(5, 4), 0.5, 0, 0)
		assert.True(t, errors.Is(err, ErrSizeMismatch))
	})
}

func TestFeedbackEffect_PrimesThenBlends(t *testing.T) {
	fc := testContext(params.Distortion{Corrupt: 1})
	feedback, err := NewFrame(8, 8)
	require.NoError(t, err)
	fc.State.Reset(feedback)

	effect := NewFeedbackEffect()
	first := createSolidFrame(8, 8, color.RGBA{R: 200, G: 200, B: 200, A: 255})
	require.NoError(t, effect.Apply(first, fc))
	assert.Equal(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, first.Image().RGBAAt(0, 0), "first pass only primes")
	assert.Equal(t, first.Pix, fc.State.Feedback.Pix)

	second := createSolidFrame(8, 8, color.RGBA{A: 255})
	require.NoError(t, effect.Apply(second, fc))
	// w = 0.6: 0 x 0.4 + 200 x 0.6
	assert.Equal(t, color.RGBA{R: 120, G: 120, B: 120, A: 255}, second.Image().RGBAAt(4, 4))
	assert.Equal(t, second.Pix, fc.State.Feedback.Pix)
}

func TestFeedbackEffect_RequiresState(t *testing.T) {
	fc := testContext(params.Distortion{Corrupt: 1})
	fc.State = nil
	assert.True(t, errors.Is(NewFeedbackEffect().Apply(createTestFrame(4, 4), fc), ErrEmptyFrame))
}

func TestState_ResetClearsFeedback(t *testing.T) {
	st := NewState()
	fb := createSolidFrame(4, 4, color.RGBA{R: 9, A: 255})
	st.primed = true

	st.Reset(fb)
	assert.False(t, st.primed)
	assert.Equal(t, make([]byte, len(fb.Pix)), fb.Pix)
}

func TestBend(t *testing.T) {
	var b Bend
	assert.Zero(t, b.Value())
	assert.False(t, b.Active())
	b.Tick()
	assert.Zero(t, b.Value(), "idle bend must stay at zero")

	b.Trigger()
	assert.Equal(t, 1.0, b.Value())

	b.Tick()
	assert.InDelta(t, 0.96, b.Value(), 1e-9)

	for i := 1; i < 10; i++ {
		b.Tick()
	}
	assert.InDelta(t, 0.6, b.Value(), 1e-9)

	for i := 0; i < 100; i++ {
		b.Tick()
		v := b.Value()
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
	assert.Zero(t, b.Value())
	assert.False(t, b.Active())

	b.Trigger()
	assert.Equal(t, 1.0, b.Value(), "retrigger restarts at full strength")
}

func TestBend_DecayFormula(t *testing.T) {
	var b Bend
	b.Trigger()
	for n := 0; n <= 30; n++ {
		want := max(0, 1-float64(n)*0.04)
		assert.InDelta(t, want, b.Value(), 1e-9, "after %d ticks", n)
		b.Tick()
	}
}

func TestDataBarsEffect(t *testing.T) {
	t.Run("bars draw on most frames at full corruption", func(t *testing.T) {
		effect := NewDataBarsEffect()
		fc := testContext(params.Distortion{Corrupt: 1})
		drawn := 0
		for i := uint64(0); i < 20; i++ {
			frame := createSolidFrame(200, 100, color.RGBA{A: 255})
			fc.Index = i
			require.NoError(t, effect.Apply(frame, fc))
			for p := 3; p < len(frame.Pix); p += 4 {
				require.Equal(t, byte(255), frame.Pix[p])
			}
			if !isSolid(frame, color.RGBA{A: 255}) {
				drawn++
			}
		}
		assert.Greater(t, drawn, 10)
	})

	t.Run("single bar is blended at fixed opacity", func(t *testing.T) {
		effect := NewDataBarsEffect()
		fc := testContext(params.Distortion{})
		for i := uint64(0); i < 40; i++ {
			frame := createSolidFrame(50, 50, color.RGBA{A: 255})
			fc.Index = i
			require.NoError(t, effect.Apply(frame, fc))
			for p := 0; p < len(frame.Pix); p += 4 {
				// Two overlapping bars at most: 255 x (1 - 0.45^2) rounds to 203.
				require.LessOrEqual(t, frame.Pix[p], byte(203))
			}
		}
	})

	t.Run("low drivers skip some frames", func(t *testing.T) {
		effect := NewDataBarsEffect()
		fc := testContext(params.Distortion{})
		skipped := 0
		for i := uint64(0); i < 40; i++ {
			frame := createSolidFrame(50, 50, color.RGBA{A: 255})
			fc.Index = i
			require.NoError(t, effect.Apply(frame, fc))
			if isSolid(frame, color.RGBA{A: 255}) {
				skipped++
			}
		}
		assert.Positive(t, skipped)
	})
}

func TestBarsAmount(t *testing.T) {
	assert.InDelta(t, 0.6, BarsAmount(0, 1), 1e-9)
	assert.Equal(t, 1.0, BarsAmount(1, 1))
}

func isSolid(f *Frame, c color.RGBA) bool {
	for i := 0; i < len(f.Pix); i += 4 {
		if f.Pix[i] != c.R || f.Pix[i+1] != c.G || f.Pix[i+2] != c.B || f.Pix[i+3] != c.A {
			return false
		}
	}
	return true
}
