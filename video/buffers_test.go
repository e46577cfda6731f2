package video

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/trashcam/limits"
)

func TestComputeLayout(t *testing.T) {
	tests := []struct {
		name    string
		geom    Geometry
		working Size
		output  Size
	}{
		{
			name:    "landscape retina",
			geom:    Geometry{ViewportWidth: 800, ViewportHeight: 600, DevicePixelRatio: 2, Resolution: 280},
			working: Size{373, 280},
			output:  Size{1600, 1200},
		},
		{
			name:    "landscape 16:9",
			geom:    Geometry{ViewportWidth: 1280, ViewportHeight: 720, DevicePixelRatio: 1, Resolution: 280},
			working: Size{498, 280},
			output:  Size{1280, 720},
		},
		{
			name:    "portrait keeps long side vertical",
			geom:    Geometry{ViewportWidth: 720, ViewportHeight: 1280, DevicePixelRatio: 1, Resolution: 280},
			working: Size{280, 498},
			output:  Size{720, 1280},
		},
		{
			name:    "long side floor rescales short side",
			geom:    Geometry{ViewportWidth: 1280, ViewportHeight: 720, DevicePixelRatio: 1, Resolution: limits.MinResolution},
			working: Size{160, 90},
			output:  Size{1280, 720},
		},
		{
			name:    "zero viewport falls back",
			geom:    Geometry{Resolution: 280},
			working: Size{498, 280},
			output:  Size{1280, 720},
		},
		{
			name:    "NaN ratio treated as 1",
			geom:    Geometry{ViewportWidth: 1280, ViewportHeight: 720, DevicePixelRatio: math.NaN(), Resolution: 280},
			working: Size{498, 280},
			output:  Size{1280, 720},
		},
		{
			name:    "device pixel ratio capped at 2",
			geom:    Geometry{ViewportWidth: 400, ViewportHeight: 300, DevicePixelRatio: 3, Resolution: 280},
			working: Size{373, 280},
			output:  Size{800, 600},
		},
		{
			name:    "square aspect inside landscape viewport",
			geom:    Geometry{ViewportWidth: 1280, ViewportHeight: 720, DevicePixelRatio: 1, Resolution: 280, Aspect: 1},
			working: Size{280, 280},
			output:  Size{720, 720},
		},
		{
			name:    "resolution above output is capped",
			geom:    Geometry{ViewportWidth: 200, ViewportHeight: 100, DevicePixelRatio: 1, Resolution: limits.MaxResolution},
			working: Size{200, 100},
			output:  Size{200, 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := ComputeLayout(tt.geom)
			assert.Equal(t, tt.working, layout.Working)
			assert.Equal(t, tt.output, layout.Output)
		})
	}
}

func TestComputeLayout_HugeViewport(t *testing.T) {
	tests := []struct {
		name string
		geom Geometry
	}{
		{"square beyond int area", Geometry{ViewportWidth: 1 << 32, ViewportHeight: 1 << 32, DevicePixelRatio: 1}},
		{"retina beyond limit", Geometry{ViewportWidth: 20000, ViewportHeight: 20000, DevicePixelRatio: 2}},
		{"thin strip", Geometry{ViewportWidth: 1 << 40, ViewportHeight: 2, DevicePixelRatio: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := ComputeLayout(tt.geom)
			o := layout.Output
			require.Positive(t, o.Width)
			require.Positive(t, o.Height)
			assert.LessOrEqual(t, o.Width*o.Height, limits.MaxOutputPixels)
			assert.NoError(t, limits.ValidateDimensions(o.Width, o.Height))
			assert.NoError(t, limits.ValidateDimensions(layout.Working.Width, layout.Working.Height))
		})
	}

	square := ComputeLayout(tests[0].geom).Output
	assert.Equal(t, square.Width, square.Height, "uniform clamp keeps the aspect")
}

func TestComputeLayout_AspectInvariant(t *testing.T) {
	viewports := [][2]int{{1280, 720}, {720, 1280}, {1000, 1000}, {333, 777}, {1920, 1080}, {390, 844}}
	resolutions := []int{limits.MinResolution, 100, 160, 280, 420, 720, limits.MaxResolution}

	for _, vp := range viewports {
		for _, res := range resolutions {
			t.Run(fmt.Sprintf("%dx%d@%d", vp[0], vp[1], res), func(t *testing.T) {
				layout := ComputeLayout(Geometry{ViewportWidth: vp[0], ViewportHeight: vp[1], DevicePixelRatio: 1, Resolution: res})
				w, o := layout.Working, layout.Output

				require.Positive(t, w.Width)
				require.Positive(t, w.Height)
				assert.Equal(t, o.Width >= o.Height, w.Width >= w.Height, "orientation must match")
				assert.GreaterOrEqual(t, max(w.Width, w.Height), min(limits.MinLongSide, max(o.Width, o.Height)))

				tolerance := 1.0 / float64(min(w.Width, w.Height))
				assert.InDelta(t, 1.0, w.Aspect()/o.Aspect(), tolerance)
			})
		}
	}
}

func TestBufferManager_Ensure(t *testing.T) {
	m := NewBufferManager()
	geom := Geometry{ViewportWidth: 640, ViewportHeight: 480, DevicePixelRatio: 1, Resolution: 200}

	resized, err := m.Ensure(geom)
	require.NoError(t, err)
	assert.True(t, resized)
	require.NotNil(t, m.Working())
	assert.Equal(t, m.Layout().Working.Width, m.Working().Width)
	assert.Equal(t, m.Output().Width, m.Feedback().Width)
	assert.Equal(t, m.Output().Height, m.Feedback().Height)

	resized, err = m.Ensure(geom)
	require.NoError(t, err)
	assert.False(t, resized, "unchanged key must not reallocate")

	geom.Resolution = 220
	resized, err = m.Ensure(geom)
	require.NoError(t, err)
	assert.True(t, resized, "resolution change must reallocate")

	m.Invalidate()
	resized, err = m.Ensure(geom)
	require.NoError(t, err)
	assert.True(t, resized, "invalidate must force reallocation")
}

func TestBufferManager_NormalizedKey(t *testing.T) {
	m := NewBufferManager()
	geom := Geometry{ViewportWidth: -1, ViewportHeight: 0, DevicePixelRatio: math.NaN(), Aspect: math.Inf(1)}

	resized, err := m.Ensure(geom)
	require.NoError(t, err)
	assert.True(t, resized)
	assert.Equal(t, Size{limits.DefaultSourceWidth, limits.DefaultSourceHeight}, m.Layout().Output)

	resized, err = m.Ensure(geom)
	require.NoError(t, err)
	assert.False(t, resized)
}

func TestBufferManager_ReallocationZeroesFeedback(t *testing.T) {
	m := NewBufferManager()
	geom := Geometry{ViewportWidth: 64, ViewportHeight: 48, DevicePixelRatio: 1, Resolution: 48}
	_, err := m.Ensure(geom)
	require.NoError(t, err)
	m.Feedback().Fill(DefaultBackground)

	m.Invalidate()
	_, err = m.Ensure(geom)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, len(m.Feedback().Pix)), m.Feedback().Pix)
}
