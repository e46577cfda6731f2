package source

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacing_Flip(t *testing.T) {
	assert.Equal(t, FacingUser, FacingEnvironment.Flip())
	assert.Equal(t, FacingEnvironment, FacingUser.Flip())
	assert.Equal(t, FacingUser, Facing("").Flip())
}

func TestParseFacing(t *testing.T) {
	tests := []struct {
		in   string
		want Facing
	}{
		{"environment", FacingEnvironment},
		{" Back ", FacingEnvironment},
		{"user", FacingUser},
		{"front", FacingUser},
	}
	for _, tt := range tests {
		got, err := ParseFacing(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFacing("sideways")
	assert.True(t, errors.Is(err, ErrUnknownFacing))
}

func TestMirror(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	src.SetRGBA(2, 1, color.RGBA{B: 255, A: 255})

	dst := image.NewRGBA(src.Bounds())
	mirror(dst, src)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, dst.RGBAAt(2, 0))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, dst.RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(0, 0))
}

func TestMirror_NonRGBA(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.SetGray(0, 0, color.Gray{Y: 200})

	dst := image.NewRGBA(src.Bounds())
	mirror(dst, src)
	assert.Equal(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, dst.RGBAAt(1, 0))
}
