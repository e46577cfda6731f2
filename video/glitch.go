package video

import (
	"math"

	"github.com/opd-ai/trashcam/params"
)

// BlockGlitchEffect copies rectangles of the frame over nearby rectangles,
// imitating macroblock corruption. Driven by corrupt and bend.
type BlockGlitchEffect struct {
	block []byte
}

// NewBlockGlitchEffect creates a block displacement effect.
func NewBlockGlitchEffect() *BlockGlitchEffect {
	return &BlockGlitchEffect{}
}

// BlockCount returns the number of displaced blocks for one frame.
func BlockCount(corrupt, bend float64) int {
	return int(math.Floor(8 + 55*clampFloat(corrupt, 0, 1) + 50*clampFloat(bend, 0, 1)))
}

// Apply displaces BlockCount blocks. Every source and destination rectangle
// is clamped inside the frame, so oversized blocks shrink to fit.
func (be *BlockGlitchEffect) Apply(frame *Frame, fc *FrameContext) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}

	c := clampFloat(fc.Settings.Distortion.Corrupt, 0, 1)
	b := clampFloat(fc.Bend, 0, 1)
	rng := fc.Rand(be.ID())
	rotateChance := 0.25*c + 0.3*b

	count := BlockCount(c, b)
	for n := 0; n < count; n++ {
		bw := min(int(8+rng.Range(20+60*c)), frame.Width)
		bh := min(int(4+rng.Range(14+40*c)), frame.Height)
		x0 := int(rng.Range(float64(frame.Width - bw)))
		y0 := int(rng.Range(float64(frame.Height - bh)))
		sx := int(clampFloat(float64(x0)+(rng.Float64()-0.5)*(30+80*c), 0, float64(frame.Width-bw)))
		sy := int(clampFloat(float64(y0)+(rng.Float64()-0.5)*(30+60*c), 0, float64(frame.Height-bh)))
		rotate := rng.Chance(rotateChance)

		be.copyBlock(frame, x0, y0, sx, sy, bw, bh, rotate)
	}
	return nil
}

// copyBlock copies RGB of a bw x bh block from (sx, sy) to (dx, dy) through
// a scratch buffer so overlapping rectangles stay well defined.
func (be *BlockGlitchEffect) copyBlock(frame *Frame, dx, dy, sx, sy, bw, bh int, rotate bool) {
	rowBytes := bw * 4
	n := rowBytes * bh
	if cap(be.block) < n {
		be.block = make([]byte, n)
	}
	tmp := be.block[:n]
	for y := 0; y < bh; y++ {
		s := frame.Offset(sx, sy+y)
		copy(tmp[y*rowBytes:(y+1)*rowBytes], frame.Pix[s:s+rowBytes])
	}

	for y := 0; y < bh; y++ {
		src := tmp[y*rowBytes : (y+1)*rowBytes]
		d := frame.Offset(dx, dy+y)
		dst := frame.Pix[d : d+rowBytes]
		for i := 0; i < rowBytes; i += 4 {
			r, g, bl := src[i], src[i+1], src[i+2]
			if rotate {
				r, g, bl = g, bl, r
			}
			dst[i], dst[i+1], dst[i+2] = r, g, bl
		}
	}
}

// ID returns the effect configuration key.
func (be *BlockGlitchEffect) ID() params.EffectID { return params.EffectBlocks }

// GetName returns the effect name.
func (be *BlockGlitchEffect) GetName() string {
	return "BlockGlitch"
}

// LineTearEffect shifts selected rows horizontally like a losing sync signal.
type LineTearEffect struct {
	row []byte
}

// NewLineTearEffect creates a scanline tear effect.
func NewLineTearEffect() *LineTearEffect {
	return &LineTearEffect{}
}

// Apply shifts each row chosen by its row hash by up to 2 + 0.12 x width x corrupt pixels.
func (te *LineTearEffect) Apply(frame *Frame, fc *FrameContext) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}

	c := clampFloat(fc.Settings.Distortion.Corrupt, 0, 1)
	b := clampFloat(fc.Bend, 0, 1)
	chance := 0.1*c + 0.3*b
	if chance <= 0 {
		return nil
	}
	maxShift := 2 + 0.12*float64(frame.Width)*c
	salt := fc.salt(te.ID())

	rowBytes := frame.Width * 4
	if cap(te.row) < rowBytes {
		te.row = make([]byte, rowBytes)
	}
	tmp := te.row[:rowBytes]

	for y := 0; y < frame.Height; y++ {
		if HashUnit(y, 0, salt) >= chance {
			continue
		}
		shift := int(math.Round((HashUnit(y, 1, salt)*2 - 1) * maxShift))
		if shift == 0 {
			continue
		}
		row := frame.Pix[y*frame.Stride : y*frame.Stride+rowBytes]
		copy(tmp, row)
		for x := 0; x < frame.Width; x++ {
			s := clampInt(x-shift, 0, frame.Width-1) * 4
			copy(row[x*4:x*4+4], tmp[s:s+4])
		}
	}
	return nil
}

// ID returns the effect configuration key.
func (te *LineTearEffect) ID() params.EffectID { return params.EffectTear }

// GetName returns the effect name.
func (te *LineTearEffect) GetName() string {
	return "LineTear"
}

// channelPermutations lists every ordering of R, G and B.
var channelPermutations = [6][3]int{
	{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
}

// ChannelMashEffect swaps color channels on randomly chosen rows.
type ChannelMashEffect struct{}

// NewChannelMashEffect creates a channel permutation effect.
func NewChannelMashEffect() *ChannelMashEffect {
	return &ChannelMashEffect{}
}

// Apply permutes R, G and B on rows selected with probability 0.2 x palette.
func (me *ChannelMashEffect) Apply(frame *Frame, fc *FrameContext) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}

	chance := 0.2 * clampFloat(fc.Settings.Distortion.Palette, 0, 1)
	if chance <= 0 {
		return nil
	}
	salt := fc.salt(me.ID())

	for y := 0; y < frame.Height; y++ {
		if HashUnit(y, 0, salt) >= chance {
			continue
		}
		perm := channelPermutations[Hash(y, 2, salt)%6]
		row := frame.Pix[y*frame.Stride : y*frame.Stride+frame.Width*4]
		for i := 0; i < len(row); i += 4 {
			px := [3]byte{row[i], row[i+1], row[i+2]}
			row[i] = px[perm[0]]
			row[i+1] = px[perm[1]]
			row[i+2] = px[perm[2]]
		}
	}
	return nil
}

// ID returns the effect configuration key.
func (me *ChannelMashEffect) ID() params.EffectID { return params.EffectMash }

// GetName returns the effect name.
func (me *ChannelMashEffect) GetName() string {
	return "ChannelMash"
}
