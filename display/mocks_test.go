package display

import (
	"context"
	"image/color"
	"sync"

	"github.com/opd-ai/trashcam/video"
)

// mockPipeline records calls and presents rows in alternating colors.
type mockPipeline struct {
	mu sync.Mutex

	tickErr    error
	presentErr error
	flipErr    error
	snapName   string
	snapErr    error

	ticks    int
	bends    int
	flips    int
	snaps    int
	resizes  [][2]int
	even     color.RGBA
	odd      color.RGBA
	frame    *video.Frame
}

func newMockPipeline() *mockPipeline {
	f, _ := video.NewFrame(4, 4)
	return &mockPipeline{
		snapName: "trashcam_test.png",
		even:     color.RGBA{255, 0, 0, 255},
		odd:      color.RGBA{0, 0, 255, 255},
		frame:    f,
	}
}

func (m *mockPipeline) Tick() (*video.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
	if m.tickErr != nil {
		return nil, m.tickErr
	}
	return m.frame, nil
}

func (m *mockPipeline) Present(dst *video.Frame) (video.Placement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.presentErr != nil {
		return video.Placement{}, m.presentErr
	}
	for y := 0; y < dst.Height; y++ {
		c := m.even
		if y%2 == 1 {
			c = m.odd
		}
		for x := 0; x < dst.Width; x++ {
			i := dst.Offset(x, y)
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return video.Placement{Scale: 1, DrawWidth: dst.Width, DrawHeight: dst.Height}, nil
}

func (m *mockPipeline) Resize(width, height int, dpr float64) {
	m.mu.Lock()
	m.resizes = append(m.resizes, [2]int{width, height})
	m.mu.Unlock()
}

func (m *mockPipeline) Bend() {
	m.mu.Lock()
	m.bends++
	m.mu.Unlock()
}

func (m *mockPipeline) Flip() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flips++
	return m.flipErr
}

func (m *mockPipeline) Snapshot(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps++
	return m.snapName, m.snapErr
}
