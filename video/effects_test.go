package video

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/trashcam/params"
)

var errTestEffect = errors.New("test effect failure")

// recordingEffect counts invocations and optionally fails.
type recordingEffect struct {
	id    params.EffectID
	calls int
	fail  bool
}

func (re *recordingEffect) Apply(frame *Frame, fc *FrameContext) error {
	re.calls++
	if re.fail {
		return errTestEffect
	}
	return nil
}

func (re *recordingEffect) ID() params.EffectID { return re.id }

func (re *recordingEffect) GetName() string { return "Recording(" + string(re.id) + ")" }

func TestEffectChain(t *testing.T) {
	chain := NewEffectChain()
	assert.Equal(t, 0, chain.GetEffectCount())

	noise := &recordingEffect{id: params.EffectNoise}
	bars := &recordingEffect{id: params.EffectBars}
	chain.AddEffect(noise)
	chain.AddEffect(bars)
	assert.Equal(t, 2, chain.GetEffectCount())

	fc := testContext(params.Distortion{})
	fc.Settings.Effects = fc.Settings.Effects.With(params.EffectBars, false)

	require.NoError(t, chain.Apply(createTestFrame(8, 8), fc))
	assert.Equal(t, 1, noise.calls)
	assert.Equal(t, 0, bars.calls, "disabled effect must be skipped")

	chain.Clear()
	assert.Equal(t, 0, chain.GetEffectCount())
}

func TestEffectChain_Errors(t *testing.T) {
	chain := NewEffectChain()
	chain.AddEffect(&recordingEffect{id: params.EffectMash, fail: true})

	err := chain.Apply(createTestFrame(4, 4), testContext(params.Distortion{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errTestEffect))
	assert.Contains(t, err.Error(), "Recording(mash)")

	assert.True(t, errors.Is(chain.Apply(nil, testContext(params.Distortion{})), ErrEmptyFrame))
}

func TestBitcrushLevels(t *testing.T) {
	assert.Equal(t, 16, BitcrushLevels(0))
	assert.Equal(t, 9, BitcrushLevels(0.5))
	assert.Equal(t, 3, BitcrushLevels(1))
	assert.Equal(t, 3, BitcrushLevels(7))
}

func TestBitcrushEffect_MaximumGrit(t *testing.T) {
	frame, err := NewFrame(1, 1)
	require.NoError(t, err)
	copy(frame.Pix, []byte{128, 128, 128, 255})

	effect := NewBitcrushEffect()
	require.NoError(t, effect.Apply(frame, testContext(params.Distortion{Grit: 1})))
	assert.Equal(t, []byte{170, 170, 170, 255}, frame.Pix)
	assert.Equal(t, "Bitcrush", effect.GetName())
	assert.Equal(t, params.EffectBitcrush, effect.ID())
}

func TestBitcrushEffect_Idempotent(t *testing.T) {
	for _, grit := range []float64{0, 0.3, 0.72, 1} {
		effect := NewBitcrushEffect()
		fc := testContext(params.Distortion{Grit: grit})

		frame := createTestFrame(64, 64)
		require.NoError(t, effect.Apply(frame, fc))
		once := append([]byte(nil), frame.Pix...)

		require.NoError(t, effect.Apply(frame, fc))
		assert.Equal(t, once, frame.Pix, "grit %.2f", grit)
	}
}

func TestQuantize_AllLevels(t *testing.T) {
	for n := 3; n <= 16; n++ {
		for v := 0; v < 256; v++ {
			q := Quantize(byte(v), n)
			require.Equal(t, q, Quantize(q, n), "n=%d v=%d", n, v)
		}
	}
}

func TestBitcrushEffect_PreservesAlpha(t *testing.T) {
	frame := createTestFrame(16, 16)
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 77
	}
	require.NoError(t, NewBitcrushEffect().Apply(frame, testContext(params.Distortion{Grit: 1})))
	for i := 3; i < len(frame.Pix); i += 4 {
		assert.Equal(t, byte(77), frame.Pix[i])
	}
}

func TestNoiseEffect(t *testing.T) {
	t.Run("zero grit is a no-op", func(t *testing.T) {
		frame := createTestFrame(32, 32)
		before := append([]byte(nil), frame.Pix...)
		require.NoError(t, NewNoiseEffect().Apply(frame, testContext(params.Distortion{Grit: 0})))
		assert.Equal(t, before, frame.Pix)
	})

	t.Run("amplitude bounded by grit", func(t *testing.T) {
		frame := createTestFrame(32, 32)
		before := append([]byte(nil), frame.Pix...)
		require.NoError(t, NewNoiseEffect().Apply(frame, testContext(params.Distortion{Grit: 0.5})))

		changed := false
		for i := range frame.Pix {
			diff := int(frame.Pix[i]) - int(before[i])
			if i%4 == 3 {
				assert.Zero(t, diff, "alpha must not change")
				continue
			}
			assert.LessOrEqual(t, diff, 14)
			assert.GreaterOrEqual(t, diff, -14)
			changed = changed || diff != 0
		}
		assert.True(t, changed)
	})

	t.Run("deterministic per frame", func(t *testing.T) {
		a := createTestFrame(16, 16)
		b := createTestFrame(16, 16)
		fc := testContext(params.Distortion{Grit: 1})
		require.NoError(t, NewNoiseEffect().Apply(a, fc))
		require.NoError(t, NewNoiseEffect().Apply(b, fc))
		assert.Equal(t, a.Pix, b.Pix)
	})
}

func TestRGBSplitEffect_ZeroChromaIsIdentity(t *testing.T) {
	for _, chroma := range []float64{0, 0.005, 0.01} {
		frame := createTestFrame(40, 30)
		before := append([]byte(nil), frame.Pix...)

		require.NoError(t, NewRGBSplitEffect().Apply(frame, testContext(params.Distortion{Chroma: chroma})))
		assert.Equal(t, before, frame.Pix, "chroma %.3f", chroma)
	}
}

func TestRGBSplitEffect_ShiftsChannels(t *testing.T) {
	frame := createTestFrame(64, 48)
	before := append([]byte(nil), frame.Pix...)

	fc := testContext(params.Distortion{Chroma: 1})
	require.NoError(t, NewRGBSplitEffect().Apply(frame, fc))
	assert.NotEqual(t, before, frame.Pix)
	for i := 3; i < len(frame.Pix); i += 4 {
		assert.Equal(t, before[i], frame.Pix[i])
	}
}

func TestRGBSplitAmount(t *testing.T) {
	assert.Equal(t, 0.0, RGBSplitAmount(0, 0))
	assert.InDelta(t, 0.6, RGBSplitAmount(0, 1), 1e-9)
	assert.InDelta(t, 1.6, RGBSplitAmount(1, 1), 1e-9)
	assert.InDelta(t, 1.0, RGBSplitAmount(5, -1), 1e-9)
}

func BenchmarkBitcrushEffect(b *testing.B) {
	frame := createTestFrame(498, 280)
	effect := NewBitcrushEffect()
	fc := testContext(params.Distortion{Grit: 0.72})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = effect.Apply(frame, fc)
	}
}

func BenchmarkRGBSplitEffect(b *testing.B) {
	frame := createTestFrame(498, 280)
	effect := NewRGBSplitEffect()
	fc := testContext(params.Distortion{Chroma: 0.35})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = effect.Apply(frame, fc)
	}
}
