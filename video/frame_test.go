package video

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/trashcam/limits"
	"github.com/opd-ai/trashcam/params"
)

type mockTimeProvider struct {
	now time.Time
}

func (m *mockTimeProvider) Now() time.Time {
	return m.now
}

var testTime = time.Date(2024, time.March, 7, 18, 30, 0, 0, time.UTC)

// createTestFrame builds an opaque frame with a gradient in every channel.
func createTestFrame(width, height int) *Frame {
	f, err := NewFrame(width, height)
	if err != nil {
		panic(err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := f.Offset(x, y)
			f.Pix[i] = byte(x * 255 / max(1, width-1))
			f.Pix[i+1] = byte(y * 255 / max(1, height-1))
			f.Pix[i+2] = byte((x*7 + y*13) % 256)
			f.Pix[i+3] = 255
		}
	}
	return f
}

// createSolidFrame builds an opaque frame of one color.
func createSolidFrame(width, height int, c color.RGBA) *Frame {
	f, err := NewFrame(width, height)
	if err != nil {
		panic(err)
	}
	f.Fill(c)
	return f
}

// testContext returns a frame context with every effect enabled.
func testContext(d params.Distortion) *FrameContext {
	var fx params.Effects
	for _, id := range params.AllEffects {
		fx = fx.With(id, true)
	}
	return &FrameContext{
		Settings: params.Settings{Distortion: d, Effects: fx},
		Time:     testTime,
		Seed:     42,
		State:    NewState(),
	}
}

func TestNewFrame(t *testing.T) {
	f, err := NewFrame(4, 3)
	require.NoError(t, err)
	assert.Equal(t, 16, f.Stride)
	assert.Len(t, f.Pix, 48)
	assert.False(t, f.Empty())

	for _, dims := range [][2]int{{0, 3}, {4, 0}, {-1, -1}, {1 << 32, 1 << 32}} {
		_, err := NewFrame(dims[0], dims[1])
		assert.True(t, errors.Is(err, limits.ErrDimensionInvalid), "dims %v", dims)
	}
}

func TestFrame_Empty(t *testing.T) {
	var f *Frame
	assert.True(t, f.Empty())
	assert.True(t, (&Frame{}).Empty())
	assert.True(t, (&Frame{Width: 2, Height: 2, Stride: 8, Pix: make([]byte, 4)}).Empty())
	assert.True(t, (&Frame{Width: 2, Height: 2, Stride: 4, Pix: make([]byte, 64)}).Empty(), "stride shorter than a row")
	assert.True(t, (&Frame{Width: 1 << 32, Height: 1 << 32, Stride: 1 << 34}).Empty(), "row math must not wrap")
}

func TestFrame_ImageSharesPixels(t *testing.T) {
	f, err := NewFrame(3, 3)
	require.NoError(t, err)

	f.Image().SetRGBA(1, 2, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	i := f.Offset(1, 2)
	assert.Equal(t, []byte{1, 2, 3, 4}, f.Pix[i:i+4])
	assert.Equal(t, image.Rect(0, 0, 3, 3), f.Bounds())
}

func TestFrame_ClampedOffset(t *testing.T) {
	f, err := NewFrame(4, 3)
	require.NoError(t, err)

	assert.Equal(t, f.Offset(0, 2), f.ClampedOffset(-5, 100))
	assert.Equal(t, f.Offset(3, 0), f.ClampedOffset(9, -1))
	assert.Equal(t, f.Offset(2, 1), f.ClampedOffset(2, 1))
}

func TestFrame_FillClearCopy(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	a := createSolidFrame(5, 4, red)
	for i := 0; i < len(a.Pix); i += 4 {
		require.Equal(t, []byte{255, 0, 0, 255}, a.Pix[i:i+4])
	}

	b, err := NewFrame(5, 4)
	require.NoError(t, err)
	require.NoError(t, b.CopyFrom(a))
	assert.Equal(t, a.Pix, b.Pix)

	a.Clear()
	assert.Equal(t, make([]byte, len(a.Pix)), a.Pix)
	assert.NotEqual(t, a.Pix, b.Pix, "copy must not share pixels")

	small, err := NewFrame(2, 2)
	require.NoError(t, err)
	assert.True(t, errors.Is(small.CopyFrom(a), ErrSizeMismatch))
	assert.True(t, errors.Is(small.CopyFrom(nil), ErrEmptyFrame))
}

func TestToByte(t *testing.T) {
	assert.Equal(t, byte(0), toByte(-20))
	assert.Equal(t, byte(255), toByte(300))
	assert.Equal(t, byte(128), toByte(127.5))
	assert.Equal(t, byte(127), toByte(127.4))
}
