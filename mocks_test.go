package trashcam

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/opd-ai/trashcam/source"
)

// mockTimeProvider is a fixed clock for deterministic tests.
type mockTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

func newMockTimeProvider(t time.Time) *mockTimeProvider {
	return &mockTimeProvider{now: t}
}

func (m *mockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *mockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// mockSource serves a solid image and records its lifecycle calls.
type mockSource struct {
	mu      sync.Mutex
	img     image.Image
	errs    map[source.Facing]error
	gate    chan struct{}
	opens   []source.Facing
	closes  int
	current source.Facing
	open    bool
}

func newMockSource(w, h int) *mockSource {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	return &mockSource{img: img, errs: make(map[source.Facing]error)}
}

// failOn makes Open fail for facing.
func (m *mockSource) failOn(facing source.Facing, err error) {
	m.mu.Lock()
	m.errs[facing] = err
	m.mu.Unlock()
}

// hold makes subsequent Open calls wait until release or context end.
func (m *mockSource) hold() {
	m.mu.Lock()
	m.gate = make(chan struct{})
	m.mu.Unlock()
}

func (m *mockSource) release() {
	m.mu.Lock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
	m.mu.Unlock()
}

func (m *mockSource) Open(ctx context.Context, facing source.Facing) error {
	m.mu.Lock()
	m.opens = append(m.opens, facing)
	gate := m.gate
	err := m.errs[facing]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = facing
	m.open = true
	m.mu.Unlock()
	return nil
}

func (m *mockSource) CurrentFrame() (image.Image, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil, 0, 0
	}
	b := m.img.Bounds()
	return m.img, b.Dx(), b.Dy()
}

func (m *mockSource) Close() error {
	m.mu.Lock()
	m.closes++
	m.open = false
	m.mu.Unlock()
	return nil
}

func (m *mockSource) openCalls() []source.Facing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]source.Facing(nil), m.opens...)
}

func (m *mockSource) closeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// memExporter keeps exported snapshots in memory.
type memExporter struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemExporter() *memExporter {
	return &memExporter{files: make(map[string][]byte)}
}

func (e *memExporter) Export(ctx context.Context, name string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.files[name] = append([]byte(nil), data...)
	return nil
}
